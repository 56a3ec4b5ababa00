// Package session provides session management for the tile pairs server.
//
// Every session owns one engine and a loop goroutine that drives it (see
// package loop). The manager starts the loop when the session is created
// and stops it when the session is deleted, expires or the manager is
// closed.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive.
//
// Listeners:
//
// WithStateListener receives a snapshot whenever a board changes and
// WithEventListener receives engine events. Both run on the session's loop
// goroutine and must not block; the server uses them to feed the WebSocket
// hub.
//
// Usage:
//
//	manager := session.NewManager(session.WithLogger(logger))
//	defer manager.Close(ctx)
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	snap, err := sess.Loop.Snapshot(ctx)
//
// Sessions live in memory only; a restart starts from an empty manager.
package session
