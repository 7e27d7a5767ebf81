// Package board holds the play model of a single word-search puzzle.
//
// A Definition is the immutable template loaded from an asset: its id, its
// size, the required words, and a square layout of letters where '.' marks a
// cell without a letter. A State is the mutable progress of one board: which
// words are found, the state of every tile, and the log of letters revealed
// by hints.
//
// Tile states:
//
//	NotUsed          the tile has no letter; it never changes
//	UsedButNotFound  the tile holds a letter that is not part of a found word
//	Found            the tile is part of a found word
//
// Board ids are built with FormatID and are shared by save keys, completion
// keys and definition lookups:
//
//	board.FormatID("Animals", 0) // "Animals_0"
//
// Usage:
//
//	def := &board.Definition{
//		ID:     "Animals_0",
//		Size:   3,
//		Words:  []string{"CAT", "DOG"},
//		Layout: []string{"CAT", "DOG", "..."},
//	}
//	if err := board.ValidateDefinition(def); err != nil {
//		log.Fatal(err)
//	}
//	state := board.NewState(def)
//	state.ApplyWordFound(board.WordFound{Word: "CAT", Tiles: []int{0, 1, 2}})
//
// The hint log in State.HintLettersShown is append-only. SequentialRevealer
// replays it to decide the next letter to reveal, so restarting a board keeps
// earlier hints visible.
package board
