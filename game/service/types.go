package service

import (
	"time"

	"github.com/wricardo/wordbrain/game/board"
)

// ActiveBoard is a snapshot of the board in play.
type ActiveBoard struct {
	BoardID    string       `json:"board_id"`
	Category   string       `json:"category"`
	LevelIndex int          `json:"level_index"`
	Daily      bool         `json:"daily"`
	State      *board.State `json:"state"`
	Hints      int          `json:"hints"`
}

// HintResult reports the outcome of a hint request. OutOfHints and a missing
// Hint are reported conditions, not errors.
type HintResult struct {
	Revealed   bool              `json:"revealed"`
	OutOfHints bool              `json:"out_of_hints"`
	Hint       *board.HintLetter `json:"hint,omitempty"`
	Letter     string            `json:"letter,omitempty"`
	Hints      int               `json:"hints"`
	Board      *ActiveBoard      `json:"board,omitempty"`
}

// Continuation is what must happen after the found-word animation.
type Continuation string

const (
	ContinueNone          Continuation = "none"
	ContinueBoardComplete Continuation = "board_complete"
)

// WordFoundResult is returned after a found word has been recorded and
// persisted.
type WordFoundResult struct {
	Word         string       `json:"word"`
	Continuation Continuation `json:"continuation"`
	Ignored      bool         `json:"ignored,omitempty"`
	Board        *ActiveBoard `json:"board,omitempty"`
}

// Completion describes a finished board; it drives the completion screen.
type Completion struct {
	BoardID           string    `json:"board_id"`
	Category          string    `json:"category"`
	LevelIndex        int       `json:"level_index"`
	Daily             bool      `json:"daily"`
	Award             int       `json:"award"`
	Hints             int       `json:"hints"`
	NextDailyPuzzleAt time.Time `json:"next_daily_puzzle_at,omitzero"`
}

// Screen names where the player goes after a completion is dismissed.
type Screen string

const (
	ScreenGame       Screen = "game"
	ScreenMain       Screen = "main"
	ScreenCategories Screen = "categories"
)

// Transition is the result of dismissing the completion screen.
type Transition struct {
	Screen Screen       `json:"screen"`
	Board  *ActiveBoard `json:"board,omitempty"`
}

// EventType identifies a notification.
type EventType string

const (
	EventLevelStarted   EventType = "level_started"
	EventDailyRolled    EventType = "daily_rolled"
	EventHintRevealed   EventType = "hint_revealed"
	EventHintsAdded     EventType = "hints_added"
	EventBoardRestarted EventType = "board_restarted"
	EventWordFound      EventType = "word_found"
	EventBoardCompleted EventType = "board_completed"
	EventProgressReset  EventType = "progress_reset"
)

// Event is a fire-and-forget notification about a progression change.
type Event struct {
	Type       EventType         `json:"type"`
	BoardID    string            `json:"board_id,omitempty"`
	Category   string            `json:"category,omitempty"`
	LevelIndex int               `json:"level_index"`
	Word       string            `json:"word,omitempty"`
	Hint       *board.HintLetter `json:"hint,omitempty"`
	Award      int               `json:"award,omitempty"`
	Hints      int               `json:"hints"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Status is a snapshot of the whole progression.
type Status struct {
	Hints                  int          `json:"hints"`
	ActiveCategory         string       `json:"active_category"`
	ActiveLevelIndex       int          `json:"active_level_index"`
	ActiveDailyPuzzleIndex int          `json:"active_daily_puzzle_index"`
	NextDailyPuzzleAt      time.Time    `json:"next_daily_puzzle_at,omitzero"`
	SavedBoards            []string     `json:"saved_boards"`
	CompletedLevels        []string     `json:"completed_levels"`
	Pending                Continuation `json:"pending,omitempty"`
	Board                  *ActiveBoard `json:"board,omitempty"`
}

// CategorySummary describes a category and the player's progress in it.
type CategorySummary struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Daily          bool   `json:"daily"`
	LevelCount     int    `json:"level_count"`
	CompletedCount int    `json:"completed_count"`
	AllCompleted   bool   `json:"all_completed"`
}
