package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
	"github.com/wricardo/wordbrain/game/progress"
)

// Config holds the completion awards.
type Config struct {
	DailyAward  int
	NormalAward int
}

// DefaultConfig returns the stock awards.
func DefaultConfig() Config {
	return Config{DailyAward: 2, NormalAward: 1}
}

// Option customizes a progress service.
type Option func(*progressService)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *progressService) { s.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *progressService) { s.now = now }
}

// WithRand replaces the random source used to pick daily puzzles. intn must
// return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(s *progressService) { s.intn = intn }
}

// WithRenderer sets the board-rendering collaborator.
func WithRenderer(r Renderer) Option {
	return func(s *progressService) { s.renderer = r }
}

// WithNotifier sets the fire-and-forget notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(s *progressService) { s.notifier = n }
}

// WithRevealer replaces the hint letter policy.
func WithRevealer(r HintRevealer) Option {
	return func(s *progressService) { s.revealer = r }
}

// WithStrict makes invariant violations return ErrInvariant instead of being
// logged and ignored.
func WithStrict(strict bool) Option {
	return func(s *progressService) { s.strict = strict }
}

type pendingAnimation struct {
	cont     Continuation
	category string
	index    int
}

// progressService implements the ProgressService interface
type progressService struct {
	mu sync.Mutex

	cfg      Config
	store    *progress.Store
	catalog  Catalog
	renderer Renderer
	notifier Notifier
	revealer HintRevealer
	logger   zerolog.Logger
	now      func() time.Time
	intn     func(n int) int
	strict   bool

	pending    *pendingAnimation
	completion *Completion
}

// NewProgressService creates the progression service over an opened store.
func NewProgressService(cfg Config, store *progress.Store, cat Catalog, opts ...Option) ProgressService {
	s := &progressService{
		cfg:      cfg,
		store:    store,
		catalog:  cat,
		renderer: NopRenderer{},
		revealer: board.SequentialRevealer{},
		logger:   zerolog.Nop(),
		now:      time.Now,
		intn:     rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	return s
}

// StartLevel makes a level the active board, creating its state on first play.
func (s *progressService) StartLevel(ctx context.Context, category string, index int) (*ActiveBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.startLevel(ctx, category, index)
}

func (s *progressService) startLevel(ctx context.Context, category string, index int) (*ActiveBoard, error) {
	if category == "" || index < 0 {
		return nil, fmt.Errorf("%w: %q %d", ErrInvalidLevel, category, index)
	}

	id := board.FormatID(category, index)
	def, err := s.catalog.LoadBoard(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load board %s: %w", id, err)
	}

	st, ok := s.store.BoardState(id)
	switch {
	case !ok:
		if err := s.store.AddBoardState(board.NewState(def)); err != nil {
			return nil, err
		}
	case !st.MatchesDefinition(def):
		if s.strict {
			return nil, fmt.Errorf("%w: saved state for %s does not match its definition", ErrInvariant, id)
		}
		s.logger.Warn().Str("board_id", id).Msg("saved state does not match definition, starting fresh")
		s.store.ReplaceBoardState(board.NewState(def))
	}

	s.store.SetActive(category, index)
	s.pending = nil
	s.completion = nil

	persistErr := s.persist(ctx)

	active := s.snapshot()
	s.renderer.Setup(active.State.Clone())
	s.notify(ctx, Event{Type: EventLevelStarted, BoardID: id, Category: category, LevelIndex: index})

	s.logger.Debug().Str("board_id", id).Msg("level started")
	return active, persistErr
}

// StartDailyPuzzle starts today's daily puzzle, rolling to a new random one
// when none was picked yet or the rollover time has passed. The previous
// daily puzzle's saved state and completed flag are evicted on rollover.
func (s *progressService) StartDailyPuzzle(ctx context.Context) (*ActiveBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.catalog.DailyPuzzleCount()
	if n == 0 {
		return nil, ErrNoDailyPuzzles
	}

	idx := s.store.DailyIndex()
	if idx == -1 || idx >= n || !s.now().Before(s.store.NextDailyAt()) {
		next := s.intn(n)
		nextID := board.FormatID(catalog.DailyPuzzleCategory, next)
		if _, err := s.catalog.LoadBoard(nextID); err != nil {
			return nil, fmt.Errorf("failed to load board %s: %w", nextID, err)
		}

		if idx != -1 {
			prevID := board.FormatID(catalog.DailyPuzzleCategory, idx)
			s.store.RemoveBoardState(prevID)
			s.store.ClearCompleted(prevID)
			s.logger.Info().Str("board_id", prevID).Msg("evicted previous daily puzzle")
		}
		s.store.SetDailyIndex(next)
		idx = next
		s.notify(ctx, Event{Type: EventDailyRolled, BoardID: nextID, Category: catalog.DailyPuzzleCategory, LevelIndex: next})
	}

	return s.startLevel(ctx, catalog.DailyPuzzleCategory, idx)
}

// Board returns the board in play.
func (s *progressService) Board(ctx context.Context) (*ActiveBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.snapshot()
	if active == nil {
		return nil, ErrNoActiveBoard
	}
	return active, nil
}

// DisplayNextHint reveals one letter of the active board and debits a hint.
// Nothing is debited when no hints are left or no letter can be revealed.
func (s *progressService) DisplayNextHint(ctx context.Context) (*HintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Active()
	if st == nil {
		return nil, ErrNoActiveBoard
	}

	if s.store.Hints() == 0 {
		return &HintResult{OutOfHints: true, Board: s.snapshot()}, nil
	}

	next, hint, ok := s.revealer.RevealNextHint(st, st.NextHintIndex)
	if !ok {
		return &HintResult{Hints: s.store.Hints(), Board: s.snapshot()}, nil
	}
	if err := st.RecordHint(hint); err != nil {
		if ierr := s.invariant(err, "revealer returned an invalid hint"); ierr != nil {
			return nil, ierr
		}
		return &HintResult{Hints: s.store.Hints(), Board: s.snapshot()}, nil
	}
	if next > st.NextHintIndex {
		st.NextHintIndex = next
	}
	s.store.DebitHint()

	persistErr := s.persist(ctx)

	result := &HintResult{
		Revealed: true,
		Hint:     &hint,
		Letter:   string([]rune(st.Words[hint.WordIndex])[hint.LetterIndex]),
		Hints:    s.store.Hints(),
		Board:    s.snapshot(),
	}
	s.notify(ctx, Event{Type: EventHintRevealed, BoardID: st.ID, Category: s.store.ActiveCategory(), LevelIndex: s.store.ActiveLevelIndex(), Hint: &hint})
	return result, persistErr
}

// AddHint grants n hints and returns the new credit.
func (s *progressService) AddHint(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidHintAmount, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.AddHints(n)
	persistErr := s.persist(ctx)
	s.notify(ctx, Event{Type: EventHintsAdded, Award: n})
	return s.store.Hints(), persistErr
}

// RestartBoard clears the found words of the active board. Hint progress is
// kept.
func (s *progressService) RestartBoard(ctx context.Context) (*ActiveBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Active()
	if st == nil {
		return nil, ErrNoActiveBoard
	}

	st.Restart()
	s.pending = nil

	persistErr := s.persist(ctx)

	active := s.snapshot()
	s.renderer.Setup(active.State.Clone())
	s.notify(ctx, Event{Type: EventBoardRestarted, BoardID: st.ID, Category: active.Category, LevelIndex: active.LevelIndex})
	return active, persistErr
}

// ReportWordFound records a found word and persists before returning what
// must happen once the presentation finishes.
func (s *progressService) ReportWordFound(ctx context.Context, ev board.WordFound) (*WordFoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Active()
	if st == nil {
		return nil, ErrNoActiveBoard
	}

	if err := st.ApplyWordFound(ev); err != nil {
		if ierr := s.invariant(err, "ignoring invalid found word"); ierr != nil {
			return nil, ierr
		}
		return &WordFoundResult{Word: ev.Word, Continuation: ContinueNone, Ignored: true, Board: s.snapshot()}, nil
	}

	cont := ContinueNone
	if ev.AllWordsFound || st.AllWordsFound() {
		cont = ContinueBoardComplete
	}
	s.pending = &pendingAnimation{
		cont:     cont,
		category: s.store.ActiveCategory(),
		index:    s.store.ActiveLevelIndex(),
	}

	persistErr := s.persist(ctx)

	result := &WordFoundResult{Word: ev.Word, Continuation: cont, Board: s.snapshot()}
	s.notify(ctx, Event{Type: EventWordFound, BoardID: st.ID, Category: s.store.ActiveCategory(), LevelIndex: s.store.ActiveLevelIndex(), Word: ev.Word})
	return result, persistErr
}

// FinishAnimation consumes the pending continuation. It returns a nil
// Completion when the board is not complete yet.
func (s *progressService) FinishAnimation(ctx context.Context) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending
	if p == nil {
		return nil, ErrNoPendingAnimation
	}
	s.pending = nil

	if p.cont != ContinueBoardComplete {
		return nil, nil
	}
	return s.boardComplete(ctx, p.category, p.index)
}

func (s *progressService) boardComplete(ctx context.Context, category string, index int) (*Completion, error) {
	id := board.FormatID(category, index)
	daily := category == catalog.DailyPuzzleCategory

	award := 0
	var nextDaily time.Time
	if daily {
		award = s.cfg.DailyAward
		// Saves keep only the local date, so the rollover is local midnight.
		now := s.now().In(time.Local)
		nextDaily = time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.Local)
		s.store.SetNextDailyAt(nextDaily)
	} else if !s.store.IsCompleted(id) {
		award = s.cfg.NormalAward
	}

	s.store.AddHints(award)
	s.store.MarkCompleted(id)
	s.store.RemoveBoardState(id)

	persistErr := s.persist(ctx)

	c := &Completion{
		BoardID:           id,
		Category:          category,
		LevelIndex:        index,
		Daily:             daily,
		Award:             award,
		Hints:             s.store.Hints(),
		NextDailyPuzzleAt: nextDaily,
	}
	s.completion = c

	s.notify(ctx, Event{Type: EventBoardCompleted, BoardID: id, Category: category, LevelIndex: index, Award: award})
	s.logger.Info().Str("board_id", id).Int("award", award).Msg("board completed")
	return c, persistErr
}

// DismissCompletion leaves the completion screen: to the next level of the
// category, or to an overview screen after the last level or a daily puzzle.
func (s *progressService) DismissCompletion(ctx context.Context) (*Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.completion
	if c == nil {
		return nil, ErrNoCompletion
	}
	s.completion = nil

	if c.Daily {
		s.store.ClearActive()
		return &Transition{Screen: ScreenMain}, s.persist(ctx)
	}

	count := 0
	if cat, err := s.catalog.Category(c.Category); err == nil {
		count = len(cat.Levels)
	}
	if c.LevelIndex+1 >= count {
		s.store.ClearActive()
		return &Transition{Screen: ScreenCategories}, s.persist(ctx)
	}

	active, err := s.startLevel(ctx, c.Category, c.LevelIndex+1)
	if active == nil {
		// The completed board is gone; keep the completion so it can be
		// dismissed again.
		s.completion = c
		s.store.ClearActive()
		if perr := s.persist(ctx); perr != nil {
			s.logger.Error().Err(perr).Msg("failed to save after a failed transition")
		}
		return nil, err
	}
	return &Transition{Screen: ScreenGame, Board: active}, err
}

// IsLevelCompleted reports whether a level was ever completed.
func (s *progressService) IsLevelCompleted(ctx context.Context, category string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.IsCompleted(board.FormatID(category, index))
}

// CompletedLevelCount counts the completed levels of a category.
func (s *progressService) CompletedLevelCount(ctx context.Context, category string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.catalog.Category(category)
	if err != nil {
		return 0, err
	}
	return s.completedCount(cat), nil
}

func (s *progressService) completedCount(cat *catalog.Category) int {
	n := 0
	for i := range cat.Levels {
		if s.store.IsCompleted(board.FormatID(cat.Name, i)) {
			n++
		}
	}
	return n
}

// CategoryInfo looks up a category, including the daily puzzle category.
func (s *progressService) CategoryInfo(ctx context.Context, name string) (*catalog.Category, error) {
	return s.catalog.Category(name)
}

// Categories summarizes every category, daily puzzle first.
func (s *progressService) Categories(ctx context.Context) ([]CategorySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := s.catalog.Categories()
	summaries := make([]CategorySummary, 0, len(cats)+1)

	if s.catalog.DailyPuzzleCount() > 0 {
		daily, err := s.catalog.Category(catalog.DailyPuzzleCategory)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s.summarize(daily, true))
	}
	for i := range cats {
		summaries = append(summaries, s.summarize(&cats[i], false))
	}
	return summaries, nil
}

func (s *progressService) summarize(cat *catalog.Category, daily bool) CategorySummary {
	done := s.completedCount(cat)
	return CategorySummary{
		Name:           cat.Name,
		Description:    cat.Description,
		Daily:          daily,
		LevelCount:     len(cat.Levels),
		CompletedCount: done,
		AllCompleted:   len(cat.Levels) > 0 && done == len(cat.Levels),
	}
}

// Status returns a snapshot of the whole progression.
func (s *progressService) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Status{
		Hints:                  s.store.Hints(),
		ActiveCategory:         s.store.ActiveCategory(),
		ActiveLevelIndex:       s.store.ActiveLevelIndex(),
		ActiveDailyPuzzleIndex: s.store.DailyIndex(),
		NextDailyPuzzleAt:      s.store.NextDailyAt(),
		SavedBoards:            s.store.SavedIDs(),
		CompletedLevels:        s.store.CompletedIDs(),
		Board:                  s.snapshot(),
	}
	if s.pending != nil {
		st.Pending = s.pending.cont
	}
	return st, nil
}

// Save persists the current progression.
func (s *progressService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persist(ctx)
}

// ResetProgress wipes all progression back to a fresh store.
func (s *progressService) ResetProgress(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Reset()
	s.pending = nil
	s.completion = nil

	persistErr := s.persist(ctx)
	s.notify(ctx, Event{Type: EventProgressReset, LevelIndex: -1})
	s.logger.Info().Msg("progress reset")
	return persistErr
}

// snapshot copies the active board, or returns nil when none is in play.
func (s *progressService) snapshot() *ActiveBoard {
	st := s.store.Active()
	if st == nil {
		return nil
	}
	category := s.store.ActiveCategory()
	return &ActiveBoard{
		BoardID:    st.ID,
		Category:   category,
		LevelIndex: s.store.ActiveLevelIndex(),
		Daily:      category == catalog.DailyPuzzleCategory,
		State:      st.Clone(),
		Hints:      s.store.Hints(),
	}
}

func (s *progressService) persist(ctx context.Context) error {
	if err := s.store.Persist(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist progress")
		return err
	}
	return nil
}

func (s *progressService) notify(ctx context.Context, ev Event) {
	ev.Hints = s.store.Hints()
	ev.Timestamp = s.now()
	s.notifier.Notify(ctx, ev)
}

// invariant returns err wrapped in ErrInvariant in strict mode. Otherwise it
// logs the violation and returns nil so the caller can ignore it.
func (s *progressService) invariant(err error, msg string) error {
	if s.strict {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	s.logger.Warn().Err(err).Msg(msg)
	return nil
}

// IsPersistError reports whether err only means the result was not saved.
func IsPersistError(err error) bool {
	return errors.Is(err, progress.ErrPersistWrite)
}
