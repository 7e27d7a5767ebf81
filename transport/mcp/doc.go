// Package mcp exposes the word puzzle game to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API and the JSON response is rendered as text for the agent.
//
// MCP Tools:
//   - status, save, reset_progress: progress snapshot and persistence
//   - categories, category: category list and per-level completion
//   - start_level, start_daily, board, restart_board: board selection
//   - report_word, finish_animation, dismiss_completion: the completion flow
//   - next_hint, add_hints: hints
//   - game_instructions: rules
//
// Boards are rendered as a letter grid where "." is an empty tile and "*" a
// tile used by a found word, followed by the word list with revealed hint
// letters in place.
//
// When the API reports that an operation succeeded but its progress could not
// be saved, the tool still returns the result and appends a warning.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp, handled by the main server with HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
