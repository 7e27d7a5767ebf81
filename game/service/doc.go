// Package service provides the progression logic of the word puzzle game.
//
// The service package implements:
//   - Level start and resume, with saved board states keyed by board id
//   - Daily puzzle selection and calendar rollover
//   - Hint credits and letter reveals
//   - The found-word, completion and transition flow
//   - Category summaries and progress snapshots
//
// Core Interfaces:
//
// ProgressService is the main service interface used by every transport
// (REST, WebSocket, MCP and the CLI). Catalog provides the category list and
// board definitions. Renderer, HintRevealer and Notifier are the
// collaborators that sit outside the state machine.
//
// Completion Flow:
//
// ReportWordFound records a word and persists before it returns a
// Continuation. The presentation layer plays its animation and then calls
// FinishAnimation, which runs the board completion when the continuation
// asks for it: awards hints, marks the level completed and drops its saved
// state. DismissCompletion then starts the next level or returns to an
// overview screen.
//
//	res, _ := svc.ReportWordFound(ctx, board.WordFound{Word: "CAT", Tiles: []int{0, 1, 2}})
//	if res.Continuation == service.ContinueBoardComplete {
//		completion, _ := svc.FinishAnimation(ctx)
//		fmt.Println("award", completion.Award)
//		transition, _ := svc.DismissCompletion(ctx)
//		fmt.Println("next screen", transition.Screen)
//	}
//
// Errors:
//
// A failed save never rolls back the in-memory change: the operation returns
// its result together with an error wrapping progress.ErrPersistWrite.
// Invalid found words and mismatched saved states are logged and ignored,
// or returned as ErrInvariant when the service runs with WithStrict(true).
//
// Concurrency:
//
// All operations are serialized by a single mutex, so the service can be
// shared by HTTP handlers, the WebSocket hub and MCP tools.
package service
