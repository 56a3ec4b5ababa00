// Package websocket pushes board snapshots to browsers and other renderers.
//
// The package uses a hub-and-spoke model where a central Hub owns every
// connection. Each client has a read pump and a write pump; the hub's Run
// loop serializes registration and fan-out.
//
// Message Protocol:
//
// Outgoing messages are JSON objects:
//   - {"session_id": "ab12", "event": "state_update", "board": {...}}
//   - {"session_id": "ab12", "event": "game_event", "data": {"type": "matched", ...}}
//
// Clients pick a session with the query parameter ?session=ab12. Incoming
// frames are read only to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	// from a game loop's change callback
//	hub.BroadcastState(sessionID, &snap)
//
// Broadcasts never block the caller. Game loops publish on their own
// goroutine, so a full queue drops the update rather than stalling a frame.
package websocket
