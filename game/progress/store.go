package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/wordbrain/game/board"
)

// Store is the player's whole progression: hint credits, the active level,
// the daily puzzle rotation, in-progress board states and completed levels.
//
// Store is not safe for concurrent use; its owner serializes access.
type Store struct {
	startingHints int
	persistence   Persistence

	currentHints           int
	activeCategory         string
	activeLevelIndex       int
	activeDailyPuzzleIndex int
	nextDailyPuzzleAt      time.Time
	saved                  map[string]*board.State
	completed              map[string]bool
}

// NewStore creates a fresh store. A nil persistence makes Persist a no-op.
func NewStore(p Persistence, startingHints int) *Store {
	if startingHints < 0 {
		startingHints = 0
	}
	s := &Store{startingHints: startingHints, persistence: p}
	s.resetFields()
	return s
}

// Open loads the saved record into a new store. A missing or unreadable
// record leaves the store at fresh defaults; the reason is logged.
func Open(ctx context.Context, p Persistence, startingHints int, logger zerolog.Logger) *Store {
	s := NewStore(p, startingHints)
	if p == nil {
		return s
	}

	rec, err := p.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSave) {
			logger.Info().Msg("no saved progress, starting fresh")
		} else {
			logger.Warn().Err(err).Msg("failed to read saved progress, starting fresh")
		}
		return s
	}

	if err := s.Restore(rec); err != nil {
		logger.Warn().Err(err).Msg("saved progress is corrupt, starting fresh")
		return s
	}

	logger.Info().
		Int("hints", s.currentHints).
		Int("saved_boards", len(s.saved)).
		Int("completed_levels", len(s.completed)).
		Msg("loaded saved progress")
	return s
}

func (s *Store) resetFields() {
	s.currentHints = s.startingHints
	s.activeCategory = ""
	s.activeLevelIndex = -1
	s.activeDailyPuzzleIndex = -1
	s.nextDailyPuzzleAt = time.Time{}
	s.saved = make(map[string]*board.State)
	s.completed = make(map[string]bool)
}

// Reset wipes all progress back to fresh defaults. It does not persist.
func (s *Store) Reset() {
	s.resetFields()
}

// Hints returns the current hint credit.
func (s *Store) Hints() int {
	return s.currentHints
}

// AddHints grants n hints. Non-positive amounts are ignored.
func (s *Store) AddHints(n int) {
	if n > 0 {
		s.currentHints += n
	}
}

// DebitHint takes one hint, reporting false when none are left.
func (s *Store) DebitHint() bool {
	if s.currentHints <= 0 {
		s.currentHints = 0
		return false
	}
	s.currentHints--
	return true
}

// ActiveCategory returns the category of the level in play, or "".
func (s *Store) ActiveCategory() string {
	return s.activeCategory
}

// ActiveLevelIndex returns the index of the level in play, or -1.
func (s *Store) ActiveLevelIndex() int {
	return s.activeLevelIndex
}

// SetActive marks a level as in play.
func (s *Store) SetActive(category string, index int) {
	s.activeCategory = category
	s.activeLevelIndex = index
}

// ClearActive leaves no level in play.
func (s *Store) ClearActive() {
	s.activeCategory = ""
	s.activeLevelIndex = -1
}

// ActiveID returns the board id of the level in play, or "".
func (s *Store) ActiveID() string {
	if s.activeCategory == "" || s.activeLevelIndex < 0 {
		return ""
	}
	return board.FormatID(s.activeCategory, s.activeLevelIndex)
}

// Active returns the board state in play. It is nil when no level is active
// or when the active level was just completed.
func (s *Store) Active() *board.State {
	id := s.ActiveID()
	if id == "" {
		return nil
	}
	return s.saved[id]
}

// DailyIndex returns the index of today's puzzle in the daily pool, or -1.
func (s *Store) DailyIndex() int {
	return s.activeDailyPuzzleIndex
}

// SetDailyIndex records the chosen daily puzzle.
func (s *Store) SetDailyIndex(i int) {
	s.activeDailyPuzzleIndex = i
}

// NextDailyAt returns when the daily puzzle rolls over. The zero time means
// the rollover is due.
func (s *Store) NextDailyAt() time.Time {
	return s.nextDailyPuzzleAt
}

// SetNextDailyAt records the next daily rollover.
func (s *Store) SetNextDailyAt(t time.Time) {
	s.nextDailyPuzzleAt = t
}

// BoardState returns the saved state for a board id.
func (s *Store) BoardState(id string) (*board.State, bool) {
	st, ok := s.saved[id]
	return st, ok
}

// AddBoardState saves a new board state. A state already saved under the
// same id is never replaced.
func (s *Store) AddBoardState(st *board.State) error {
	if _, exists := s.saved[st.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBoard, st.ID)
	}
	s.saved[st.ID] = st
	return nil
}

// ReplaceBoardState overwrites the saved state for st.ID.
func (s *Store) ReplaceBoardState(st *board.State) {
	s.saved[st.ID] = st
}

// RemoveBoardState drops the saved state for a board id.
func (s *Store) RemoveBoardState(id string) bool {
	if _, ok := s.saved[id]; !ok {
		return false
	}
	delete(s.saved, id)
	return true
}

// SavedIDs returns the ids of all in-progress boards, sorted.
func (s *Store) SavedIDs() []string {
	return sortedKeys(s.saved)
}

// IsCompleted reports whether a board id was completed.
func (s *Store) IsCompleted(id string) bool {
	return s.completed[id]
}

// MarkCompleted records a board id as completed.
func (s *Store) MarkCompleted(id string) {
	s.completed[id] = true
}

// ClearCompleted forgets a completion.
func (s *Store) ClearCompleted(id string) {
	delete(s.completed, id)
}

// CompletedIDs returns every completed board id, sorted.
func (s *Store) CompletedIDs() []string {
	return sortedKeys(s.completed)
}

// Record encodes the store. Board states and completed ids are sorted by id.
func (s *Store) Record() *Record {
	rec := &Record{
		Version:                RecordVersion,
		CurrentHints:           s.currentHints,
		ActiveCategory:         s.activeCategory,
		ActiveLevelIndex:       s.activeLevelIndex,
		ActiveDailyPuzzleIndex: s.activeDailyPuzzleIndex,
		NextDailyPuzzleAt:      EncodeDate(s.nextDailyPuzzleAt),
		SavedBoardStates:       make([]BoardRecord, 0, len(s.saved)),
		CompletedLevels:        s.CompletedIDs(),
	}
	for _, id := range s.SavedIDs() {
		rec.SavedBoardStates = append(rec.SavedBoardStates, EncodeBoard(s.saved[id]))
	}
	return rec
}

// Restore replaces the store's contents with a decoded record. On error the
// store is left unchanged.
func (s *Store) Restore(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: empty record", ErrCorruptRecord)
	}
	if rec.Version > RecordVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptRecord, rec.Version)
	}

	next, err := DecodeDate(rec.NextDailyPuzzleAt)
	if err != nil {
		return err
	}

	saved := make(map[string]*board.State, len(rec.SavedBoardStates))
	for _, br := range rec.SavedBoardStates {
		st, err := DecodeBoard(br)
		if err != nil {
			return err
		}
		if _, exists := saved[st.ID]; exists {
			return fmt.Errorf("%w: %w: %s", ErrCorruptRecord, ErrDuplicateBoard, st.ID)
		}
		saved[st.ID] = st
	}

	completed := make(map[string]bool, len(rec.CompletedLevels))
	for _, id := range rec.CompletedLevels {
		completed[id] = true
	}

	hints := rec.CurrentHints
	if hints < 0 {
		hints = 0
	}
	activeIndex := rec.ActiveLevelIndex
	activeCategory := rec.ActiveCategory
	if activeCategory == "" || activeIndex < 0 {
		activeCategory, activeIndex = "", -1
	}
	dailyIndex := rec.ActiveDailyPuzzleIndex
	if dailyIndex < 0 {
		dailyIndex = -1
	}

	s.currentHints = hints
	s.activeCategory = activeCategory
	s.activeLevelIndex = activeIndex
	s.activeDailyPuzzleIndex = dailyIndex
	s.nextDailyPuzzleAt = next
	s.saved = saved
	s.completed = completed
	return nil
}

// Persist writes the whole store. Failures wrap ErrPersistWrite; the
// in-memory state is kept either way.
func (s *Store) Persist(ctx context.Context) error {
	if s.persistence == nil {
		return nil
	}
	if err := s.persistence.Save(ctx, s.Record()); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistWrite, err)
	}
	return nil
}
