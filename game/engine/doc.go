// Package engine provides the core game logic for the Tile Pairs game.
//
// The engine package implements the game mechanics including:
//   - Pixel/cell coordinate mapping with virtual lanes around the grid
//   - The connection path solver (at most two turns, unobstructed)
//   - The selection controller and pair elimination
//   - Per-stage movement policies and gravity settling
//   - The solvability guard that reshuffles dead boards
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine, which orchestrates stages. Board owns the live
// tiles and answers occupancy queries; Grid maps between pixels and cells;
// Policy maps a stage number to a movement rule. GameConfig describes a
// board and is loaded from JSON or YAML files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Drive both clocks from one goroutine
//	gameEngine.Frame(16 * time.Millisecond)
//	gameEngine.TimerTick()
//
//	result := gameEngine.ClickCell(0, 0)
//	snapshot := gameEngine.Snapshot()
//
// Game Rules:
//
// Two tiles with the same face are removed when an orthogonal path with at
// most two turns connects them without crossing another tile. Paths may run
// through a one-cell lane around the grid. Each match adds between one and
// five seconds to the clock; a wrong pair costs a fixed penalty. After each
// match the remaining tiles slide according to the stage's movement rule.
// Clearing the board advances the stage; running out of time restarts at
// stage 1.
//
// The engine is single threaded. Frame and TimerTick are the two clocks;
// every scheduled action runs inside Frame.
package engine
