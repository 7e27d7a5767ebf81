package service

import (
	"context"
	"errors"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
)

var (
	ErrNoActiveBoard      = errors.New("no active board")
	ErrNoDailyPuzzles     = errors.New("daily puzzle pool is empty")
	ErrInvalidHintAmount  = errors.New("hint amount must be positive")
	ErrInvalidLevel       = errors.New("invalid level index")
	ErrNoPendingAnimation = errors.New("no pending animation")
	ErrNoCompletion       = errors.New("no completion to dismiss")
	ErrInvariant          = errors.New("invariant violation")
)

// ProgressService defines every progression operation. Operations that
// persist return the in-memory result together with an error wrapping
// progress.ErrPersistWrite when the write fails.
type ProgressService interface {
	// Levels
	StartLevel(ctx context.Context, category string, index int) (*ActiveBoard, error)
	StartDailyPuzzle(ctx context.Context) (*ActiveBoard, error)
	Board(ctx context.Context) (*ActiveBoard, error)

	// Hints
	DisplayNextHint(ctx context.Context) (*HintResult, error)
	AddHint(ctx context.Context, n int) (int, error)
	RestartBoard(ctx context.Context) (*ActiveBoard, error)

	// Completion flow
	ReportWordFound(ctx context.Context, ev board.WordFound) (*WordFoundResult, error)
	FinishAnimation(ctx context.Context) (*Completion, error)
	DismissCompletion(ctx context.Context) (*Transition, error)

	// Queries
	IsLevelCompleted(ctx context.Context, category string, index int) bool
	CompletedLevelCount(ctx context.Context, category string) (int, error)
	CategoryInfo(ctx context.Context, name string) (*catalog.Category, error)
	Categories(ctx context.Context) ([]CategorySummary, error)
	Status(ctx context.Context) (*Status, error)

	// Persistence
	Save(ctx context.Context) error
	ResetProgress(ctx context.Context) error
}
