package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validation constants
const (
	MinBoardSize = 2
	MaxBoardSize = 12

	// EmptyTile marks a layout cell without a letter.
	EmptyTile = '.'

	// EmptyLetter is stored in State.TileLetters for tiles without a letter.
	EmptyLetter rune = 0
)

var (
	ErrUnknownWord    = errors.New("word not on board")
	ErrTileOutOfRange = errors.New("tile index out of range")
	ErrEmptyTile      = errors.New("tile has no letter")
	ErrInvalidState   = errors.New("invalid board state")
)

// TileState is the play state of a single tile.
type TileState int

const (
	NotUsed TileState = iota
	Found
	UsedButNotFound
)

// String returns the lower-case name of the tile state.
func (t TileState) String() string {
	switch t {
	case NotUsed:
		return "not_used"
	case Found:
		return "found"
	case UsedButNotFound:
		return "used_but_not_found"
	default:
		return fmt.Sprintf("tile_state(%d)", int(t))
	}
}

// Valid reports whether t is one of the known tile states.
func (t TileState) Valid() bool {
	return t >= NotUsed && t <= UsedButNotFound
}

// Tile is one cell of a board definition.
type Tile struct {
	HasLetter bool `json:"has_letter"`
	Letter    rune `json:"letter,omitempty"`
}

// Definition is an immutable puzzle template loaded from a JSON asset.
type Definition struct {
	ID     string   `json:"id"`
	Size   int      `json:"size"`
	Words  []string `json:"words"`
	Layout []string `json:"layout"`
}

// Tiles expands the layout into row-major tile specs.
func (d *Definition) Tiles() []Tile {
	tiles := make([]Tile, 0, d.Size*d.Size)
	for _, row := range d.Layout {
		for _, ch := range row {
			if ch == EmptyTile {
				tiles = append(tiles, Tile{})
				continue
			}
			tiles = append(tiles, Tile{HasLetter: true, Letter: ch})
		}
	}
	return tiles
}

// TileCount returns the number of tiles on the board.
func (d *Definition) TileCount() int {
	return d.Size * d.Size
}

// HintLetter identifies one letter revealed by a hint.
type HintLetter struct {
	WordIndex   int `json:"word_index"`
	LetterIndex int `json:"letter_index"`
}

// String encodes the pair as "word,letter".
func (h HintLetter) String() string {
	return fmt.Sprintf("%d,%d", h.WordIndex, h.LetterIndex)
}

// ParseHintLetter decodes a "word,letter" pair.
func ParseHintLetter(s string) (HintLetter, error) {
	w, l, ok := strings.Cut(s, ",")
	if !ok {
		return HintLetter{}, fmt.Errorf("hint letter %q: expected \"word,letter\"", s)
	}
	wi, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return HintLetter{}, fmt.Errorf("hint letter %q: bad word index: %w", s, err)
	}
	li, err := strconv.Atoi(strings.TrimSpace(l))
	if err != nil {
		return HintLetter{}, fmt.Errorf("hint letter %q: bad letter index: %w", s, err)
	}
	if wi < 0 || li < 0 {
		return HintLetter{}, fmt.Errorf("hint letter %q: negative index", s)
	}
	return HintLetter{WordIndex: wi, LetterIndex: li}, nil
}

// WordFound is the event a board emits when the player traces a word.
type WordFound struct {
	Word          string `json:"word"`
	Tiles         []int  `json:"tiles"`
	AllWordsFound bool   `json:"all_words_found"`
}

// FormatID builds the board id shared by save keys, completion keys and
// definition lookups.
func FormatID(category string, levelIndex int) string {
	return fmt.Sprintf("%s_%d", category, levelIndex)
}
