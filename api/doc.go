// Package api provides the HTTP REST API for the tile pairs server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session, body {"config_id": "mini"}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get one session with its board
//   - DELETE /api/sessions/{id} - Stop and remove a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board snapshot
//   - POST /api/sessions/{id}/click - Click a tile, body {"row": 2, "col": 5} or {"x": 310, "y": 148}
//   - POST /api/sessions/{id}/reset - Restart at stage 1
//   - GET /api/sessions/{id}/hint - One pair that can be matched now
//
// Configuration:
//   - GET /api/configs - List board configurations
//   - POST /api/configs - Save a configuration
//   - GET /api/configs/{name} - Get one configuration
//
// Other:
//   - GET /api/health - Liveness probe
//   - GET /ws?session={id} - WebSocket stream of board snapshots
//
// Every request gets an X-Request-ID header (generated when the caller does
// not send one) and one structured log line.
//
// Errors are returned as JSON with a status derived from the service
// sentinel errors:
//
//	{"error": "session not found: session not found"}
//
// Unknown sessions and configs map to 404, malformed clicks and invalid
// configs to 400, and a session whose loop has stopped to 410.
package api
