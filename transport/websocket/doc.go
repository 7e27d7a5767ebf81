// Package websocket pushes board and progress updates to connected clients.
//
// The websocket package implements:
//   - The service.Renderer collaborator: every board setup is pushed
//   - The service.Notifier collaborator: every progress event is pushed
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a read pump
// and a write pump goroutine. The hub itself is a single goroutine that owns
// the client set, so no locking is needed around it.
//
// Message Protocol:
//
// Messages are JSON-encoded, one per frame:
//
//	{"type": "board", "board": {...board state...}}
//	{"type": "event", "event": {"type": "word_found", "board_id": "Animals_0", ...}}
//
// Clients do not send anything; incoming frames are read and discarded.
//
// Back Pressure:
//
// Setup and Notify are called while the progress service holds its lock, so
// they never block. When the hub buffer is full the message is dropped and
// counted; a client whose own buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub(log.Logger)
//	go hub.Run(ctx)
//
//	svc := service.NewProgressService(cfg, store, cat,
//		service.WithRenderer(hub),
//		service.WithNotifier(hub),
//	)
//	router.HandleFunc("/ws", hub.ServeWS)
package websocket
