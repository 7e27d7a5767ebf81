package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
)

// BoardLoader resolves a board id to its immutable definition.
type BoardLoader interface {
	LoadBoard(id string) (*board.Definition, error)
}

// Catalog is the read-only source of categories and boards.
// *catalog.Manager implements it.
type Catalog interface {
	BoardLoader
	Categories() []catalog.Category
	Category(name string) (*catalog.Category, error)
	DailyPuzzleCount() int
}

// Renderer is the board-rendering collaborator. Setup receives a copy of the
// state that becomes visible; it must not block.
type Renderer interface {
	Setup(state *board.State)
}

// HintRevealer picks the next letter to reveal, starting at cursor.
type HintRevealer interface {
	RevealNextHint(state *board.State, cursor int) (next int, hint board.HintLetter, ok bool)
}

// Notifier receives fire-and-forget notifications. Implementations must not
// block; their failures never affect the progression state.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NopRenderer discards every setup call.
type NopRenderer struct{}

func (NopRenderer) Setup(*board.State) {}

// LogNotifier writes every event to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, ev Event) {
	e := n.Logger.Info().
		Str("event", string(ev.Type)).
		Str("board_id", ev.BoardID).
		Int("hints", ev.Hints)
	if ev.Word != "" {
		e = e.Str("word", ev.Word)
	}
	if ev.Type == EventBoardCompleted || ev.Type == EventHintsAdded {
		e = e.Int("award", ev.Award)
	}
	e.Msg("progress event")
}

// MultiNotifier fans an event out to several notifiers. A panicking notifier
// is recovered and logged so the others still run.
type MultiNotifier struct {
	Notifiers []Notifier
	Logger    zerolog.Logger
}

func (m MultiNotifier) Notify(ctx context.Context, ev Event) {
	for _, n := range m.Notifiers {
		m.notifyOne(ctx, n, ev)
	}
}

func (m MultiNotifier) notifyOne(ctx context.Context, n Notifier, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.Logger.Error().
				Str("event", string(ev.Type)).
				Str("panic", fmt.Sprint(r)).
				Msg("notifier panicked")
		}
	}()
	n.Notify(ctx, ev)
}
