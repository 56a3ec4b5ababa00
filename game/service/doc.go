// Package service provides the business logic layer for the tile pairs
// server.
//
// The service package implements:
//   - Multi-session game management
//   - Click handling by grid cell or by board pixel
//   - Hints, resets and board snapshots
//   - Configuration listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages board configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the game loops. Every session owns a loop.Loop that drives its engine on a
// single goroutine; the service only reaches the engine through Loop.Do, so
// clicks, frames and timer ticks never interleave.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.WithLogger(logger))
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "mini")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	row, col := 0, 0
//	resp, err := gameService.Click(ctx, info.ID, service.ClickRequest{Row: &row, Col: &col})
package service
