// Package mcp exposes the tile pairs game to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, and the JSON reply is rendered as text an agent can read.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session lifecycle
//   - board_state: grid rendering of the current snapshot
//   - click_cell, click_point: click by row/column or by pixel
//   - hint: one pair that connects right now
//   - reset_game: restart at stage 1
//   - list_configs: available boards
//   - game_instructions: rules and the stage movement table
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// The board is rendered with row and column headers, "." for empty cells
// and brackets around the selected tile, so an agent can pass coordinates
// straight to click_cell.
package mcp
