package board

import (
	"encoding/json"
	"fmt"
)

// State is the mutable play progress of one board. FoundWords is parallel to
// Words, and TileStates is parallel to TileLetters.
type State struct {
	ID               string       `json:"id"`
	Size             int          `json:"size"`
	Words            []string     `json:"words"`
	FoundWords       []bool       `json:"found_words"`
	TileStates       []TileState  `json:"tile_states"`
	TileLetters      []rune       `json:"-"`
	NextHintIndex    int          `json:"next_hint_index"`
	HintLettersShown []HintLetter `json:"hint_letters_shown"`
}

// NewState creates a fresh state for a definition. Letter tiles start as
// UsedButNotFound, empty tiles as NotUsed.
func NewState(def *Definition) *State {
	tiles := def.Tiles()
	s := &State{
		ID:               def.ID,
		Size:             def.Size,
		Words:            append([]string(nil), def.Words...),
		FoundWords:       make([]bool, len(def.Words)),
		TileStates:       make([]TileState, len(tiles)),
		TileLetters:      make([]rune, len(tiles)),
		HintLettersShown: []HintLetter{},
	}
	for i, tile := range tiles {
		if tile.HasLetter {
			s.TileStates[i] = UsedButNotFound
			s.TileLetters[i] = tile.Letter
		} else {
			s.TileStates[i] = NotUsed
			s.TileLetters[i] = EmptyLetter
		}
	}
	return s
}

// Validate checks the structural invariants of the state.
func (s *State) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidState)
	}
	if len(s.FoundWords) != len(s.Words) {
		return fmt.Errorf("%w: %s has %d words but %d found flags", ErrInvalidState, s.ID, len(s.Words), len(s.FoundWords))
	}
	if len(s.TileStates) != len(s.TileLetters) {
		return fmt.Errorf("%w: %s has %d tile states but %d tile letters", ErrInvalidState, s.ID, len(s.TileStates), len(s.TileLetters))
	}
	for i, ts := range s.TileStates {
		if !ts.Valid() {
			return fmt.Errorf("%w: %s tile %d has unknown state %d", ErrInvalidState, s.ID, i, int(ts))
		}
		if s.TileLetters[i] == EmptyLetter && ts != NotUsed {
			return fmt.Errorf("%w: %s empty tile %d is %s", ErrInvalidState, s.ID, i, ts)
		}
	}
	if s.NextHintIndex < 0 {
		return fmt.Errorf("%w: %s has negative hint cursor", ErrInvalidState, s.ID)
	}
	for _, h := range s.HintLettersShown {
		if h.WordIndex < 0 || h.WordIndex >= len(s.Words) {
			return fmt.Errorf("%w: %s hint %s references unknown word", ErrInvalidState, s.ID, h)
		}
	}
	return nil
}

// MatchesDefinition reports whether the state was created from a definition
// with the same shape.
func (s *State) MatchesDefinition(def *Definition) bool {
	if s.ID != def.ID || s.Size != def.Size || len(s.Words) != len(def.Words) {
		return false
	}
	for i := range s.Words {
		if s.Words[i] != def.Words[i] {
			return false
		}
	}
	return len(s.TileLetters) == def.TileCount()
}

// WordIndex returns the index of word, preferring an entry not yet found.
// It returns -1 when the word is not on the board.
func (s *State) WordIndex(word string) int {
	first := -1
	for i, w := range s.Words {
		if w != word {
			continue
		}
		if !s.FoundWords[i] {
			return i
		}
		if first == -1 {
			first = i
		}
	}
	return first
}

// CheckWordFound validates a found-word event without changing the state.
func (s *State) CheckWordFound(ev WordFound) error {
	if s.WordIndex(ev.Word) == -1 {
		return fmt.Errorf("%w: %q on %s", ErrUnknownWord, ev.Word, s.ID)
	}
	for _, t := range ev.Tiles {
		if t < 0 || t >= len(s.TileStates) {
			return fmt.Errorf("%w: %d on %s", ErrTileOutOfRange, t, s.ID)
		}
		if s.TileLetters[t] == EmptyLetter {
			return fmt.Errorf("%w: %d on %s", ErrEmptyTile, t, s.ID)
		}
	}
	return nil
}

// ApplyWordFound marks the event's tiles Found and sets the word's found
// flag. Nothing changes when the event is invalid.
func (s *State) ApplyWordFound(ev WordFound) error {
	if err := s.CheckWordFound(ev); err != nil {
		return err
	}
	for _, t := range ev.Tiles {
		s.TileStates[t] = Found
	}
	s.FoundWords[s.WordIndex(ev.Word)] = true
	return nil
}

// AllWordsFound reports whether every word has been found.
func (s *State) AllWordsFound() bool {
	for _, f := range s.FoundWords {
		if !f {
			return false
		}
	}
	return true
}

// FoundCount returns the number of found words.
func (s *State) FoundCount() int {
	n := 0
	for _, f := range s.FoundWords {
		if f {
			n++
		}
	}
	return n
}

// Restart clears found flags and reverts Found tiles to UsedButNotFound.
// The hint cursor and hint log are kept.
func (s *State) Restart() {
	for i := range s.FoundWords {
		s.FoundWords[i] = false
	}
	for i, ts := range s.TileStates {
		if ts == Found {
			s.TileStates[i] = UsedButNotFound
		}
	}
}

// RecordHint appends a revealed letter to the hint log.
func (s *State) RecordHint(h HintLetter) error {
	if h.WordIndex < 0 || h.WordIndex >= len(s.Words) {
		return fmt.Errorf("%w: hint word %d on %s", ErrUnknownWord, h.WordIndex, s.ID)
	}
	if h.LetterIndex < 0 || h.LetterIndex >= len([]rune(s.Words[h.WordIndex])) {
		return fmt.Errorf("%w: hint letter %d of %q", ErrTileOutOfRange, h.LetterIndex, s.Words[h.WordIndex])
	}
	s.HintLettersShown = append(s.HintLettersShown, h)
	return nil
}

// RevealedLetters replays the hint log and returns the letter indexes hinted
// for a word.
func (s *State) RevealedLetters(wordIndex int) map[int]bool {
	revealed := make(map[int]bool)
	for _, h := range s.HintLettersShown {
		if h.WordIndex == wordIndex {
			revealed[h.LetterIndex] = true
		}
	}
	return revealed
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		ID:               s.ID,
		Size:             s.Size,
		Words:            append([]string(nil), s.Words...),
		FoundWords:       append([]bool(nil), s.FoundWords...),
		TileStates:       append([]TileState(nil), s.TileStates...),
		TileLetters:      append([]rune(nil), s.TileLetters...),
		NextHintIndex:    s.NextHintIndex,
		HintLettersShown: append([]HintLetter{}, s.HintLettersShown...),
	}
}

// LetterString renders a tile letter, using "" for empty tiles.
func LetterString(r rune) string {
	if r == EmptyLetter {
		return ""
	}
	return string(r)
}

// ParseLetter is the inverse of LetterString. It also accepts "\x00".
func ParseLetter(s string) (rune, error) {
	rs := []rune(s)
	switch {
	case len(rs) == 0:
		return EmptyLetter, nil
	case len(rs) == 1:
		return rs[0], nil
	default:
		return EmptyLetter, fmt.Errorf("tile letter %q: expected a single character", s)
	}
}

// MarshalJSON renders tile letters as single-character strings.
func (s State) MarshalJSON() ([]byte, error) {
	type alias State
	letters := make([]string, len(s.TileLetters))
	for i, r := range s.TileLetters {
		letters[i] = LetterString(r)
	}
	return json.Marshal(struct {
		alias
		TileLetters []string `json:"tile_letters"`
	}{alias: alias(s), TileLetters: letters})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	type alias State
	aux := struct {
		*alias
		TileLetters []string `json:"tile_letters"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.TileLetters = make([]rune, len(aux.TileLetters))
	for i, l := range aux.TileLetters {
		r, err := ParseLetter(l)
		if err != nil {
			return err
		}
		s.TileLetters[i] = r
	}
	return nil
}
