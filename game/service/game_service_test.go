package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
	"github.com/wricardo/wordbrain/game/progress"
	"github.com/wricardo/wordbrain/game/service"
)

// MockCatalog implements service.Catalog for testing
type MockCatalog struct {
	boards     map[string]*board.Definition
	categories []catalog.Category
	daily      []catalog.LevelInfo
}

func NewMockCatalog() *MockCatalog {
	m := &MockCatalog{boards: make(map[string]*board.Definition)}

	m.addCategory("Animals",
		&board.Definition{Size: 3, Words: []string{"CAT", "DOG"}, Layout: []string{"CAT", "DOG", "..."}},
		&board.Definition{Size: 2, Words: []string{"OX"}, Layout: []string{"OX", ".."}},
	)
	m.addDaily(
		&board.Definition{Size: 2, Words: []string{"SUN"}, Layout: []string{"SU", "N."}},
		&board.Definition{Size: 2, Words: []string{"SKY"}, Layout: []string{"SK", "Y."}},
	)
	return m
}

func (m *MockCatalog) addCategory(name string, defs ...*board.Definition) {
	cat := catalog.Category{Name: name, Description: name + " levels"}
	for i, def := range defs {
		def.ID = board.FormatID(name, i)
		m.boards[def.ID] = def
		cat.Levels = append(cat.Levels, catalog.LevelInfo{Words: def.Words})
	}
	m.categories = append(m.categories, cat)
}

func (m *MockCatalog) addDaily(defs ...*board.Definition) {
	for _, def := range defs {
		def.ID = board.FormatID(catalog.DailyPuzzleCategory, len(m.daily))
		m.boards[def.ID] = def
		m.daily = append(m.daily, catalog.LevelInfo{Words: def.Words})
	}
}

func (m *MockCatalog) LoadBoard(id string) (*board.Definition, error) {
	def, ok := m.boards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrBoardNotFound, id)
	}
	return def, nil
}

func (m *MockCatalog) Categories() []catalog.Category {
	return m.categories
}

func (m *MockCatalog) Category(name string) (*catalog.Category, error) {
	if name == catalog.DailyPuzzleCategory {
		return &catalog.Category{Name: name, Levels: m.daily}, nil
	}
	for i := range m.categories {
		if m.categories[i].Name == name {
			c := m.categories[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrCategoryNotFound, name)
}

func (m *MockCatalog) DailyPuzzleCount() int {
	return len(m.daily)
}

// recorder captures renderer and notifier calls
type recorder struct {
	mu     sync.Mutex
	setups []string
	events []service.EventType
}

func (r *recorder) Setup(st *board.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setups = append(r.setups, st.ID)
}

func (r *recorder) Notify(ctx context.Context, ev service.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Type)
}

func (r *recorder) has(t service.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == t {
			return true
		}
	}
	return false
}

type fixture struct {
	svc     service.ProgressService
	store   *progress.Store
	mem     *progress.MemoryPersistence
	catalog *MockCatalog
	rec     *recorder
	now     time.Time
	picks   []int
}

func newFixture(t *testing.T, hints int, opts ...service.Option) *fixture {
	t.Helper()
	f := &fixture{
		mem:     progress.NewMemoryPersistence(),
		catalog: NewMockCatalog(),
		rec:     &recorder{},
		now:     time.Date(2026, time.May, 10, 15, 30, 0, 0, time.Local),
	}
	f.store = progress.NewStore(f.mem, hints)

	base := []service.Option{
		service.WithLogger(zerolog.Nop()),
		service.WithClock(func() time.Time { return f.now }),
		service.WithRand(func(n int) int {
			if len(f.picks) == 0 {
				return 0
			}
			p := f.picks[0]
			f.picks = f.picks[1:]
			return p % n
		}),
		service.WithRenderer(f.rec),
		service.WithNotifier(f.rec),
	}
	f.svc = service.NewProgressService(service.DefaultConfig(), f.store, f.catalog, append(base, opts...)...)
	return f
}

func catFound(all bool) board.WordFound {
	return board.WordFound{Word: "CAT", Tiles: []int{0, 1, 2}, AllWordsFound: all}
}

func dogFound(all bool) board.WordFound {
	return board.WordFound{Word: "DOG", Tiles: []int{3, 4, 5}, AllWordsFound: all}
}

func TestCompleteLevelScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)

	active, err := f.svc.StartLevel(ctx, "Animals", 0)
	if err != nil {
		t.Fatalf("StartLevel failed: %v", err)
	}
	if active.BoardID != "Animals_0" {
		t.Errorf("Expected board Animals_0, got %s", active.BoardID)
	}
	if len(active.State.FoundWords) != 2 || active.State.FoundWords[0] || active.State.FoundWords[1] {
		t.Errorf("Expected found words [false false], got %v", active.State.FoundWords)
	}
	if len(f.rec.setups) != 1 || f.rec.setups[0] != "Animals_0" {
		t.Errorf("Expected renderer setup for Animals_0, got %v", f.rec.setups)
	}

	t.Run("first word", func(t *testing.T) {
		res, err := f.svc.ReportWordFound(ctx, catFound(false))
		if err != nil {
			t.Fatalf("ReportWordFound failed: %v", err)
		}
		if res.Continuation != service.ContinueNone {
			t.Errorf("Expected continuation none, got %s", res.Continuation)
		}
		if !res.Board.State.FoundWords[0] || res.Board.State.FoundWords[1] {
			t.Errorf("Expected found words [true false], got %v", res.Board.State.FoundWords)
		}
		if _, ok := f.store.BoardState("Animals_0"); !ok {
			t.Error("Expected board to remain saved")
		}

		saves := f.mem.Saves()
		completion, err := f.svc.FinishAnimation(ctx)
		if err != nil || completion != nil {
			t.Errorf("Expected no completion, got %v %v", completion, err)
		}
		if f.mem.Saves() != saves {
			t.Error("Expected no save when nothing completes")
		}
	})

	t.Run("last word", func(t *testing.T) {
		res, err := f.svc.ReportWordFound(ctx, dogFound(true))
		if err != nil {
			t.Fatalf("ReportWordFound failed: %v", err)
		}
		if res.Continuation != service.ContinueBoardComplete {
			t.Fatalf("Expected board_complete continuation, got %s", res.Continuation)
		}

		// The word is durable before the animation finishes.
		rec, err := f.mem.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(rec.SavedBoardStates) != 1 || !rec.SavedBoardStates[0].FoundWords[1] {
			t.Error("Expected found word to be persisted before completion")
		}

		completion, err := f.svc.FinishAnimation(ctx)
		if err != nil {
			t.Fatalf("FinishAnimation failed: %v", err)
		}
		if completion == nil {
			t.Fatal("Expected a completion")
		}
		if completion.Award != 1 {
			t.Errorf("Expected award 1, got %d", completion.Award)
		}
		if completion.Hints != 4 {
			t.Errorf("Expected 4 hints, got %d", completion.Hints)
		}
		if !f.svc.IsLevelCompleted(ctx, "Animals", 0) {
			t.Error("Expected Animals_0 to be completed")
		}
		if _, ok := f.store.BoardState("Animals_0"); ok {
			t.Error("Expected Animals_0 to be removed from saved states")
		}
		if _, err := f.svc.Board(ctx); !errors.Is(err, service.ErrNoActiveBoard) {
			t.Errorf("Expected ErrNoActiveBoard after completion, got %v", err)
		}
		if !f.rec.has(service.EventBoardCompleted) {
			t.Error("Expected a board_completed notification")
		}
	})

	t.Run("replay completed level", func(t *testing.T) {
		active, err := f.svc.StartLevel(ctx, "Animals", 0)
		if err != nil {
			t.Fatalf("StartLevel failed: %v", err)
		}
		if active.State.FoundCount() != 0 {
			t.Errorf("Expected a fresh board, got %d found", active.State.FoundCount())
		}

		f.svc.ReportWordFound(ctx, catFound(false))
		f.svc.ReportWordFound(ctx, dogFound(true))
		completion, err := f.svc.FinishAnimation(ctx)
		if err != nil {
			t.Fatalf("FinishAnimation failed: %v", err)
		}
		if completion.Award != 0 {
			t.Errorf("Expected no award for a repeat clear, got %d", completion.Award)
		}
		if completion.Hints != 4 {
			t.Errorf("Expected hints to stay at 4, got %d", completion.Hints)
		}
	})
}

func TestAllWordsFoundDetectedWithoutFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	if _, err := f.svc.StartLevel(ctx, "Animals", 1); err != nil {
		t.Fatalf("StartLevel failed: %v", err)
	}
	res, err := f.svc.ReportWordFound(ctx, board.WordFound{Word: "OX", Tiles: []int{0, 1}})
	if err != nil {
		t.Fatalf("ReportWordFound failed: %v", err)
	}
	if res.Continuation != service.ContinueBoardComplete {
		t.Errorf("Expected board_complete, got %s", res.Continuation)
	}
}

func TestDismissCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)

	if _, err := f.svc.DismissCompletion(ctx); !errors.Is(err, service.ErrNoCompletion) {
		t.Errorf("Expected ErrNoCompletion, got %v", err)
	}

	f.svc.StartLevel(ctx, "Animals", 0)
	f.svc.ReportWordFound(ctx, catFound(false))
	f.svc.ReportWordFound(ctx, dogFound(true))
	if _, err := f.svc.FinishAnimation(ctx); err != nil {
		t.Fatalf("FinishAnimation failed: %v", err)
	}

	tr, err := f.svc.DismissCompletion(ctx)
	if err != nil {
		t.Fatalf("DismissCompletion failed: %v", err)
	}
	if tr.Screen != service.ScreenGame {
		t.Fatalf("Expected game screen, got %s", tr.Screen)
	}
	if tr.Board == nil || tr.Board.BoardID != "Animals_1" {
		t.Fatalf("Expected next board Animals_1, got %+v", tr.Board)
	}

	f.svc.ReportWordFound(ctx, board.WordFound{Word: "OX", Tiles: []int{0, 1}, AllWordsFound: true})
	if _, err := f.svc.FinishAnimation(ctx); err != nil {
		t.Fatalf("FinishAnimation failed: %v", err)
	}

	tr, err = f.svc.DismissCompletion(ctx)
	if err != nil {
		t.Fatalf("DismissCompletion failed: %v", err)
	}
	if tr.Screen != service.ScreenCategories {
		t.Errorf("Expected categories screen after the last level, got %s", tr.Screen)
	}
	if f.store.ActiveCategory() != "" || f.store.ActiveLevelIndex() != -1 {
		t.Errorf("Expected no active level, got %q %d", f.store.ActiveCategory(), f.store.ActiveLevelIndex())
	}

	count, err := f.svc.CompletedLevelCount(ctx, "Animals")
	if err != nil {
		t.Fatalf("CompletedLevelCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 completed levels, got %d", count)
	}
}

func TestDismissCompletionNextBoardMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)

	f.svc.StartLevel(ctx, "Animals", 0)
	f.svc.ReportWordFound(ctx, catFound(false))
	f.svc.ReportWordFound(ctx, dogFound(true))
	if _, err := f.svc.FinishAnimation(ctx); err != nil {
		t.Fatalf("FinishAnimation failed: %v", err)
	}

	next := f.catalog.boards["Animals_1"]
	delete(f.catalog.boards, "Animals_1")

	if _, err := f.svc.DismissCompletion(ctx); !errors.Is(err, catalog.ErrBoardNotFound) {
		t.Fatalf("Expected ErrBoardNotFound, got %v", err)
	}
	if f.store.ActiveCategory() != "" || f.store.ActiveLevelIndex() != -1 {
		t.Errorf("Expected no active level, got %q %d", f.store.ActiveCategory(), f.store.ActiveLevelIndex())
	}
	status, err := f.svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Board != nil {
		t.Errorf("Expected no active board, got %s", status.Board.BoardID)
	}

	// The completion is still showing and can be dismissed again
	if _, err := f.svc.DismissCompletion(ctx); !errors.Is(err, catalog.ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound again, got %v", err)
	}

	f.catalog.boards["Animals_1"] = next
	tr, err := f.svc.DismissCompletion(ctx)
	if err != nil {
		t.Fatalf("DismissCompletion failed: %v", err)
	}
	if tr.Board == nil || tr.Board.BoardID != "Animals_1" {
		t.Errorf("Expected Animals_1, got %+v", tr.Board)
	}
	if _, err := f.svc.DismissCompletion(ctx); !errors.Is(err, service.ErrNoCompletion) {
		t.Errorf("Expected ErrNoCompletion, got %v", err)
	}
}

func TestFinishAnimationWithoutPending(t *testing.T) {
	f := newFixture(t, 3)
	if _, err := f.svc.FinishAnimation(context.Background()); !errors.Is(err, service.ErrNoPendingAnimation) {
		t.Errorf("Expected ErrNoPendingAnimation, got %v", err)
	}
}

func TestDisplayNextHint(t *testing.T) {
	ctx := context.Background()

	t.Run("no active board", func(t *testing.T) {
		f := newFixture(t, 3)
		if _, err := f.svc.DisplayNextHint(ctx); !errors.Is(err, service.ErrNoActiveBoard) {
			t.Errorf("Expected ErrNoActiveBoard, got %v", err)
		}
	})

	t.Run("out of hints", func(t *testing.T) {
		f := newFixture(t, 0)
		f.svc.StartLevel(ctx, "Animals", 0)
		saves := f.mem.Saves()

		res, err := f.svc.DisplayNextHint(ctx)
		if err != nil {
			t.Fatalf("DisplayNextHint failed: %v", err)
		}
		if !res.OutOfHints || res.Revealed {
			t.Errorf("Expected out of hints without a reveal, got %+v", res)
		}
		if f.store.Hints() != 0 {
			t.Errorf("Expected 0 hints, got %d", f.store.Hints())
		}
		if len(f.store.Active().HintLettersShown) != 0 {
			t.Error("Expected hint log to be unchanged")
		}
		if f.mem.Saves() != saves {
			t.Error("Expected no save")
		}
	})

	t.Run("reveals letters in order", func(t *testing.T) {
		f := newFixture(t, 5)
		f.svc.StartLevel(ctx, "Animals", 0)

		want := []struct {
			word, letter int
			char         string
		}{
			{0, 0, "C"}, {0, 1, "A"}, {0, 2, "T"}, {1, 0, "D"},
		}
		for i, w := range want {
			res, err := f.svc.DisplayNextHint(ctx)
			if err != nil {
				t.Fatalf("hint %d failed: %v", i, err)
			}
			if !res.Revealed || res.Hint == nil {
				t.Fatalf("hint %d: expected a reveal, got %+v", i, res)
			}
			if res.Hint.WordIndex != w.word || res.Hint.LetterIndex != w.letter || res.Letter != w.char {
				t.Errorf("hint %d: expected %d,%d %s, got %s %s", i, w.word, w.letter, w.char, res.Hint, res.Letter)
			}
			if res.Hints != 5-(i+1) {
				t.Errorf("hint %d: expected %d hints, got %d", i, 5-(i+1), res.Hints)
			}
		}

		st := f.store.Active()
		if st.NextHintIndex != 1 {
			t.Errorf("Expected cursor 1, got %d", st.NextHintIndex)
		}
		if len(st.HintLettersShown) != 4 {
			t.Errorf("Expected 4 logged hints, got %d", len(st.HintLettersShown))
		}
	})

	t.Run("nothing left to reveal", func(t *testing.T) {
		f := newFixture(t, 5)
		f.svc.StartLevel(ctx, "Animals", 0)
		f.svc.ReportWordFound(ctx, catFound(false))

		for i := 0; i < 3; i++ {
			if _, err := f.svc.DisplayNextHint(ctx); err != nil {
				t.Fatalf("DisplayNextHint failed: %v", err)
			}
		}
		if f.store.Hints() != 2 {
			t.Fatalf("Expected 2 hints after revealing DOG, got %d", f.store.Hints())
		}

		res, err := f.svc.DisplayNextHint(ctx)
		if err != nil {
			t.Fatalf("DisplayNextHint failed: %v", err)
		}
		if res.Revealed || res.OutOfHints {
			t.Errorf("Expected no reveal, got %+v", res)
		}
		if f.store.Hints() != 2 {
			t.Errorf("Expected no debit, got %d hints", f.store.Hints())
		}
	})
}

func TestAddHint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	hints, err := f.svc.AddHint(ctx, 4)
	if err != nil {
		t.Fatalf("AddHint failed: %v", err)
	}
	if hints != 5 {
		t.Errorf("Expected 5 hints, got %d", hints)
	}
	if _, err := f.svc.AddHint(ctx, 0); !errors.Is(err, service.ErrInvalidHintAmount) {
		t.Errorf("Expected ErrInvalidHintAmount, got %v", err)
	}
	if f.store.Hints() != 5 {
		t.Errorf("Expected hints unchanged, got %d", f.store.Hints())
	}
}

func TestRestartBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)

	if _, err := f.svc.RestartBoard(ctx); !errors.Is(err, service.ErrNoActiveBoard) {
		t.Errorf("Expected ErrNoActiveBoard, got %v", err)
	}

	f.svc.StartLevel(ctx, "Animals", 0)
	f.svc.DisplayNextHint(ctx)
	f.svc.DisplayNextHint(ctx)
	f.svc.ReportWordFound(ctx, catFound(false))

	before := f.store.Active().Clone()
	active, err := f.svc.RestartBoard(ctx)
	if err != nil {
		t.Fatalf("RestartBoard failed: %v", err)
	}
	st := active.State

	for i, found := range st.FoundWords {
		if found {
			t.Errorf("Expected word %d not found after restart", i)
		}
	}
	for i, ts := range st.TileStates {
		switch {
		case before.TileStates[i] == board.NotUsed && ts != board.NotUsed:
			t.Errorf("Tile %d: expected NotUsed to stay, got %s", i, ts)
		case before.TileStates[i] != board.NotUsed && ts != board.UsedButNotFound:
			t.Errorf("Tile %d: expected UsedButNotFound, got %s", i, ts)
		}
	}
	if st.NextHintIndex != before.NextHintIndex {
		t.Errorf("Expected cursor %d, got %d", before.NextHintIndex, st.NextHintIndex)
	}
	if len(st.HintLettersShown) != 2 {
		t.Errorf("Expected hint log to be kept, got %v", st.HintLettersShown)
	}
	if len(f.rec.setups) != 2 {
		t.Errorf("Expected a second renderer setup, got %v", f.rec.setups)
	}
	if _, err := f.svc.FinishAnimation(ctx); !errors.Is(err, service.ErrNoPendingAnimation) {
		t.Errorf("Expected restart to drop the pending animation, got %v", err)
	}
}

func TestStartLevelErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)

	_, err := f.svc.StartLevel(ctx, "Animals", 9)
	if !errors.Is(err, catalog.ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
	if f.store.ActiveID() != "" || len(f.store.SavedIDs()) != 0 {
		t.Error("Expected no state change after a failed load")
	}
	if f.mem.Saves() != 0 {
		t.Errorf("Expected no saves, got %d", f.mem.Saves())
	}

	if _, err := f.svc.StartLevel(ctx, "Animals", -1); !errors.Is(err, service.ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
}

func TestStartLevelKeepsOtherBoards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)

	f.svc.StartLevel(ctx, "Animals", 0)
	f.svc.ReportWordFound(ctx, catFound(false))
	f.svc.StartLevel(ctx, "Animals", 1)

	if got := f.store.SavedIDs(); len(got) != 2 {
		t.Fatalf("Expected two saved boards, got %v", got)
	}

	active, err := f.svc.StartLevel(ctx, "Animals", 0)
	if err != nil {
		t.Fatalf("StartLevel failed: %v", err)
	}
	if !active.State.FoundWords[0] {
		t.Error("Expected progress on Animals_0 to be resumed")
	}
}

func TestStaleSavedState(t *testing.T) {
	ctx := context.Background()
	stale := &board.Definition{ID: "Animals_0", Size: 2, Words: []string{"AB"}, Layout: []string{"AB", ".."}}

	t.Run("replaced", func(t *testing.T) {
		f := newFixture(t, 3)
		f.store.AddBoardState(board.NewState(stale))

		active, err := f.svc.StartLevel(ctx, "Animals", 0)
		if err != nil {
			t.Fatalf("StartLevel failed: %v", err)
		}
		if active.State.Size != 3 || len(active.State.Words) != 2 {
			t.Errorf("Expected a fresh state from the definition, got %+v", active.State)
		}
	})

	t.Run("strict", func(t *testing.T) {
		f := newFixture(t, 3, service.WithStrict(true))
		f.store.AddBoardState(board.NewState(stale))

		_, err := f.svc.StartLevel(ctx, "Animals", 0)
		if !errors.Is(err, service.ErrInvariant) {
			t.Errorf("Expected ErrInvariant, got %v", err)
		}
	})
}

func TestInvalidWordFound(t *testing.T) {
	ctx := context.Background()
	events := []board.WordFound{
		{Word: "EMU", Tiles: []int{0}},
		{Word: "CAT", Tiles: []int{0, 1, 99}},
		{Word: "CAT", Tiles: []int{6, 7, 8}},
	}

	t.Run("ignored", func(t *testing.T) {
		f := newFixture(t, 3)
		f.svc.StartLevel(ctx, "Animals", 0)

		for _, ev := range events {
			res, err := f.svc.ReportWordFound(ctx, ev)
			if err != nil {
				t.Fatalf("Expected no error for %v, got %v", ev, err)
			}
			if !res.Ignored {
				t.Errorf("Expected %v to be ignored", ev)
			}
		}
		st := f.store.Active()
		if st.FoundCount() != 0 {
			t.Errorf("Expected no found words, got %d", st.FoundCount())
		}
		for i, ts := range st.TileStates {
			if ts == board.Found {
				t.Errorf("Tile %d unexpectedly found", i)
			}
		}
	})

	t.Run("strict", func(t *testing.T) {
		f := newFixture(t, 3, service.WithStrict(true))
		f.svc.StartLevel(ctx, "Animals", 0)

		_, err := f.svc.ReportWordFound(ctx, events[0])
		if !errors.Is(err, service.ErrInvariant) || !errors.Is(err, board.ErrUnknownWord) {
			t.Errorf("Expected ErrInvariant wrapping ErrUnknownWord, got %v", err)
		}
	})

	t.Run("no active board", func(t *testing.T) {
		f := newFixture(t, 3)
		if _, err := f.svc.ReportWordFound(ctx, catFound(false)); !errors.Is(err, service.ErrNoActiveBoard) {
			t.Errorf("Expected ErrNoActiveBoard, got %v", err)
		}
	})
}

func TestDailyPuzzle(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pool", func(t *testing.T) {
		f := newFixture(t, 3)
		f.catalog.daily = nil

		_, err := f.svc.StartDailyPuzzle(ctx)
		if !errors.Is(err, service.ErrNoDailyPuzzles) {
			t.Errorf("Expected ErrNoDailyPuzzles, got %v", err)
		}
		if f.store.DailyIndex() != -1 || f.mem.Saves() != 0 {
			t.Error("Expected no state change")
		}
	})

	t.Run("rollover", func(t *testing.T) {
		f := newFixture(t, 3)
		f.picks = []int{1, 0}

		active, err := f.svc.StartDailyPuzzle(ctx)
		if err != nil {
			t.Fatalf("StartDailyPuzzle failed: %v", err)
		}
		if active.BoardID != "Daily Puzzle_1" || !active.Daily {
			t.Fatalf("Expected Daily Puzzle_1, got %s", active.BoardID)
		}

		f.svc.ReportWordFound(ctx, board.WordFound{Word: "SKY", Tiles: []int{0, 1, 2}, AllWordsFound: true})
		completion, err := f.svc.FinishAnimation(ctx)
		if err != nil {
			t.Fatalf("FinishAnimation failed: %v", err)
		}
		if completion.Award != 2 {
			t.Errorf("Expected daily award 2, got %d", completion.Award)
		}
		wantNext := time.Date(2026, time.May, 11, 0, 0, 0, 0, time.Local)
		if !f.store.NextDailyAt().Equal(wantNext) {
			t.Errorf("Expected next daily %v, got %v", wantNext, f.store.NextDailyAt())
		}

		tr, err := f.svc.DismissCompletion(ctx)
		if err != nil {
			t.Fatalf("DismissCompletion failed: %v", err)
		}
		if tr.Screen != service.ScreenMain {
			t.Errorf("Expected main screen, got %s", tr.Screen)
		}

		// Same day: same puzzle, replayable, awarded again.
		active, err = f.svc.StartDailyPuzzle(ctx)
		if err != nil {
			t.Fatalf("StartDailyPuzzle failed: %v", err)
		}
		if active.BoardID != "Daily Puzzle_1" {
			t.Errorf("Expected the same daily puzzle, got %s", active.BoardID)
		}
		f.svc.ReportWordFound(ctx, board.WordFound{Word: "SKY", Tiles: []int{0, 1, 2}, AllWordsFound: true})
		completion, _ = f.svc.FinishAnimation(ctx)
		if completion.Award != 2 || completion.Hints != 7 {
			t.Errorf("Expected a repeated daily award, got %+v", completion)
		}
		f.svc.DismissCompletion(ctx)

		// Leave a half-played board behind, then roll over.
		f.svc.StartDailyPuzzle(ctx)
		if _, ok := f.store.BoardState("Daily Puzzle_1"); !ok {
			t.Fatal("Expected a saved daily board")
		}

		f.now = wantNext.Add(time.Minute)
		active, err = f.svc.StartDailyPuzzle(ctx)
		if err != nil {
			t.Fatalf("StartDailyPuzzle failed: %v", err)
		}
		if active.BoardID != "Daily Puzzle_0" {
			t.Errorf("Expected Daily Puzzle_0 after rollover, got %s", active.BoardID)
		}
		if _, ok := f.store.BoardState("Daily Puzzle_1"); ok {
			t.Error("Expected previous daily board to be evicted")
		}
		if f.store.IsCompleted("Daily Puzzle_1") {
			t.Error("Expected previous daily completion to be evicted")
		}
		if idx := f.store.DailyIndex(); idx < 0 || idx >= 2 {
			t.Errorf("Expected daily index in [0, 2), got %d", idx)
		}
		if !f.rec.has(service.EventDailyRolled) {
			t.Error("Expected a daily_rolled notification")
		}
	})
}

func TestDailyRolloverSurvivesReload(t *testing.T) {
	ctx := context.Background()

	for _, zone := range []*time.Location{
		time.UTC,
		time.FixedZone("UTC+14", 14*60*60),
		time.FixedZone("UTC-11", -11*60*60),
	} {
		t.Run(zone.String(), func(t *testing.T) {
			f := newFixture(t, 3)
			f.now = time.Date(2026, time.May, 10, 23, 30, 0, 0, zone)

			if _, err := f.svc.StartDailyPuzzle(ctx); err != nil {
				t.Fatalf("StartDailyPuzzle failed: %v", err)
			}
			f.svc.ReportWordFound(ctx, board.WordFound{Word: "SUN", Tiles: []int{0, 1, 2}, AllWordsFound: true})
			completion, err := f.svc.FinishAnimation(ctx)
			if err != nil {
				t.Fatalf("FinishAnimation failed: %v", err)
			}

			local := f.now.In(time.Local)
			want := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.Local)
			if !completion.NextDailyPuzzleAt.Equal(want) {
				t.Errorf("Expected next daily %v, got %v", want, completion.NextDailyPuzzleAt)
			}

			reloaded := progress.Open(ctx, f.mem, 3, zerolog.Nop())
			if !reloaded.NextDailyAt().Equal(f.store.NextDailyAt()) {
				t.Errorf("Expected next daily %v after reload, got %v", f.store.NextDailyAt(), reloaded.NextDailyAt())
			}
		})
	}
}

func TestPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	f.mem.SaveErr = errors.New("read-only file system")

	active, err := f.svc.StartLevel(ctx, "Animals", 0)
	if !errors.Is(err, progress.ErrPersistWrite) {
		t.Fatalf("Expected ErrPersistWrite, got %v", err)
	}
	if !service.IsPersistError(err) {
		t.Error("Expected IsPersistError to be true")
	}
	if active == nil || active.BoardID != "Animals_0" {
		t.Fatalf("Expected the result alongside the error, got %+v", active)
	}

	res, err := f.svc.ReportWordFound(ctx, catFound(false))
	if !errors.Is(err, progress.ErrPersistWrite) {
		t.Errorf("Expected ErrPersistWrite, got %v", err)
	}
	if res == nil || !res.Board.State.FoundWords[0] {
		t.Error("Expected the in-memory mutation to be kept")
	}

	f.mem.SaveErr = nil
	if err := f.svc.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reloaded := progress.Open(ctx, f.mem, 3, zerolog.Nop())
	st, ok := reloaded.BoardState("Animals_0")
	if !ok || !st.FoundWords[0] {
		t.Error("Expected progress to be durable after a successful save")
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	f.store.MarkCompleted("Animals_0")
	f.store.MarkCompleted("Animals_1")

	summaries, err := f.svc.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(summaries))
	}
	if !summaries[0].Daily || summaries[0].Name != catalog.DailyPuzzleCategory || summaries[0].LevelCount != 2 {
		t.Errorf("Expected daily category first, got %+v", summaries[0])
	}
	animals := summaries[1]
	if animals.CompletedCount != 2 || !animals.AllCompleted {
		t.Errorf("Expected Animals to be fully completed, got %+v", animals)
	}

	info, err := f.svc.CategoryInfo(ctx, catalog.DailyPuzzleCategory)
	if err != nil {
		t.Fatalf("CategoryInfo failed: %v", err)
	}
	if len(info.Levels) != 2 {
		t.Errorf("Expected 2 daily levels, got %d", len(info.Levels))
	}
	if _, err := f.svc.CompletedLevelCount(ctx, "Plants"); !errors.Is(err, catalog.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestStatusAndReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)

	f.svc.StartLevel(ctx, "Animals", 0)
	f.svc.ReportWordFound(ctx, catFound(false))

	status, err := f.svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.ActiveCategory != "Animals" || status.ActiveLevelIndex != 0 {
		t.Errorf("Unexpected active level %q %d", status.ActiveCategory, status.ActiveLevelIndex)
	}
	if status.Pending != service.ContinueNone {
		t.Errorf("Expected pending none, got %q", status.Pending)
	}
	if status.Board == nil || status.Board.State.FoundCount() != 1 {
		t.Error("Expected the active board in the status")
	}

	// Snapshots are copies.
	status.Board.State.FoundWords[1] = true
	if f.store.Active().FoundWords[1] {
		t.Error("Expected status board to be a copy")
	}

	if err := f.svc.ResetProgress(ctx); err != nil {
		t.Fatalf("ResetProgress failed: %v", err)
	}
	status, _ = f.svc.Status(ctx)
	if status.Hints != 3 || status.Board != nil || len(status.SavedBoards) != 0 || status.ActiveLevelIndex != -1 {
		t.Errorf("Expected fresh progress after reset, got %+v", status)
	}
	if !f.rec.has(service.EventProgressReset) {
		t.Error("Expected a progress_reset notification")
	}
}

func TestMultiNotifierRecoversPanics(t *testing.T) {
	rec := &recorder{}
	n := service.MultiNotifier{
		Notifiers: []service.Notifier{panicNotifier{}, rec},
		Logger:    zerolog.Nop(),
	}
	n.Notify(context.Background(), service.Event{Type: service.EventHintsAdded})
	if !rec.has(service.EventHintsAdded) {
		t.Error("Expected the second notifier to run")
	}
}

type panicNotifier struct{}

func (panicNotifier) Notify(context.Context, service.Event) {
	panic("boom")
}
