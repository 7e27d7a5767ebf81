package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wricardo/wordbrain/game/board"
)

// RecordVersion is written into every saved record.
const RecordVersion = 1

// DateLayout encodes NextDailyPuzzleAt as YYYYMMDD.
const DateLayout = "20060102"

var (
	ErrNoSave         = errors.New("no saved progress")
	ErrCorruptRecord  = errors.New("corrupt progress record")
	ErrPersistWrite   = errors.New("failed to persist progress")
	ErrDuplicateBoard = errors.New("duplicate board state")
)

// Persistence stores the single progress record.
type Persistence interface {
	// Load returns the saved record, or ErrNoSave when nothing was saved yet.
	Load(ctx context.Context) (*Record, error)

	// Save overwrites the saved record.
	Save(ctx context.Context, rec *Record) error
}

// Record is the persisted form of a Store.
//
// Records written before versioning used the keys ActiveDailyPuzzleIndex and
// NextDailyPuzzleAt; encoding/json matches keys case-insensitively, so they
// decode into the same fields.
type Record struct {
	Version                int           `json:"version"`
	CurrentHints           int           `json:"currentHints"`
	ActiveCategory         string        `json:"activeCategory"`
	ActiveLevelIndex       int           `json:"activeLevelIndex"`
	ActiveDailyPuzzleIndex int           `json:"activeDailyPuzzleIndex"`
	NextDailyPuzzleAt      string        `json:"nextDailyPuzzleAt"`
	SavedBoardStates       []BoardRecord `json:"savedBoardStates"`
	CompletedLevels        []string      `json:"completedLevels"`
}

// BoardRecord is the persisted form of a board.State.
type BoardRecord struct {
	WordBoardID   string   `json:"wordBoardId"`
	WordBoardSize int      `json:"wordBoardSize"`
	NextHintIndex int      `json:"nextHintIndex"`
	Words         []string `json:"words"`
	FoundWords    []bool   `json:"foundWords"`
	TileStates    []int    `json:"tileStates"`
	TileLetters   []string `json:"tileLetters"`
	HintLetters   []string `json:"hintLetters"`

	// Unversioned saves stored the hint cursor under this key.
	LegacyNextHintIndex *int `json:"NextDailyPuzzleAt,omitempty"`
}

// EncodeRecord renders a record as indented JSON.
func EncodeRecord(rec *Record) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal progress record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a record. Keys missing from the document keep their
// fresh-store defaults, so an active or daily index that was never written
// reads as -1.
func DecodeRecord(data []byte) (*Record, error) {
	rec := &Record{
		ActiveLevelIndex:       -1,
		ActiveDailyPuzzleIndex: -1,
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return rec, nil
}

// EncodeBoard converts a board state to its persisted form.
func EncodeBoard(s *board.State) BoardRecord {
	rec := BoardRecord{
		WordBoardID:   s.ID,
		WordBoardSize: s.Size,
		NextHintIndex: s.NextHintIndex,
		Words:         append([]string{}, s.Words...),
		FoundWords:    append([]bool{}, s.FoundWords...),
		TileStates:    make([]int, len(s.TileStates)),
		TileLetters:   make([]string, len(s.TileLetters)),
		HintLetters:   make([]string, len(s.HintLettersShown)),
	}
	for i, ts := range s.TileStates {
		rec.TileStates[i] = int(ts)
	}
	for i, r := range s.TileLetters {
		rec.TileLetters[i] = board.LetterString(r)
	}
	for i, h := range s.HintLettersShown {
		rec.HintLetters[i] = h.String()
	}
	return rec
}

// DecodeBoard converts a persisted board back into a validated state.
func DecodeBoard(rec BoardRecord) (*board.State, error) {
	s := &board.State{
		ID:               rec.WordBoardID,
		Size:             rec.WordBoardSize,
		NextHintIndex:    rec.NextHintIndex,
		Words:            append([]string{}, rec.Words...),
		FoundWords:       append([]bool{}, rec.FoundWords...),
		TileStates:       make([]board.TileState, len(rec.TileStates)),
		TileLetters:      make([]rune, len(rec.TileLetters)),
		HintLettersShown: make([]board.HintLetter, 0, len(rec.HintLetters)),
	}
	if s.NextHintIndex == 0 && rec.LegacyNextHintIndex != nil {
		s.NextHintIndex = *rec.LegacyNextHintIndex
	}
	for i, ts := range rec.TileStates {
		s.TileStates[i] = board.TileState(ts)
	}
	for i, l := range rec.TileLetters {
		r, err := board.ParseLetter(l)
		if err != nil {
			return nil, fmt.Errorf("%w: board %s: %v", ErrCorruptRecord, rec.WordBoardID, err)
		}
		s.TileLetters[i] = r
	}
	for _, hl := range rec.HintLetters {
		h, err := board.ParseHintLetter(hl)
		if err != nil {
			return nil, fmt.Errorf("%w: board %s: %v", ErrCorruptRecord, rec.WordBoardID, err)
		}
		s.HintLettersShown = append(s.HintLettersShown, h)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return s, nil
}

// EncodeDate formats a daily rollover time as a local date. The zero time
// encodes as "".
func EncodeDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(DateLayout)
}

// DecodeDate parses a YYYYMMDD date as local midnight. "" decodes to the
// zero time, which means the rollover is already due.
func DecodeDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: nextDailyPuzzleAt %q", ErrCorruptRecord, s)
	}
	return t, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
