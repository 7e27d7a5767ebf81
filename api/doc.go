// Package api provides HTTP REST API handlers for the word puzzle game.
//
// The api package implements:
//   - Level and daily puzzle start endpoints
//   - The found-word, animation and completion flow
//   - Hint reveal and hint credit endpoints
//   - Category listing with completion counts
//   - Progress status, save and reset
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Progress:
//   - GET /api/status - Snapshot of hints, active board and saved boards
//   - POST /api/save - Persist the current progress
//   - POST /api/reset - Discard all progress
//
// Categories:
//   - GET /api/categories - List categories with completed counts
//   - GET /api/categories/{name} - Levels of one category with completion flags
//
// Levels:
//   - POST /api/levels/start - Start or resume a level: {"category": "Animals", "index": 0}
//   - POST /api/daily/start - Start or resume today's daily puzzle
//
// Active Board:
//   - GET /api/board - Current board state
//   - POST /api/board/restart - Clear found words and tile marks
//   - POST /api/board/words - Report a found word: {"word": "CAT", "tiles": [0, 1, 2]}
//   - POST /api/board/animation-complete - Finish the found-word animation
//   - POST /api/board/completion/dismiss - Leave the completion screen
//
// Hints:
//   - POST /api/hints/next - Reveal the next hint letter
//   - POST /api/hints?amount=3 - Add hint credits (amount may also be sent as JSON)
//
// WebSocket:
//   - GET /ws - Board and event stream
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status derived from the service
// error: unknown boards and categories map to 404, operations that need an
// active board or a pending animation map to 409, strict-mode invariant
// violations map to 422 and invalid input maps to 400.
//
//	{"error": "no active board"}
//
// When an operation succeeded but its progress could not be saved, the
// response carries both the error and the result, with status 500:
//
//	{"error": "failed to persist progress: disk full", "result": {...}}
//
// Usage:
//
//	server := api.NewServer(svc, hub, log.Logger)
//	http.ListenAndServe(":8080", server)
package api
