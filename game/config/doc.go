// Package config provides board configuration management for the tile
// pairs server.
//
// The config package handles:
//   - Loading board configurations from JSON or YAML files
//   - Validation through engine.ValidateGameConfig
//   - Default configuration selection
//   - Configuration discovery, listing and saving
//
// Configuration Format:
//
// Each file in the configs directory describes one board: grid columns and
// rows, pair multiplicity, pixel geometry, clock settings and the ordered
// image keys. The file extension picks the format (.json, .yaml or .yml)
// and the file name without extension is the config ID used to create
// sessions.
//
// Available Configurations:
//   - classic: 16x10 board, four tiles per face, 600 second budget
//   - mini: 6x4 practice board, two tiles per face
//
// Usage:
//
//	manager, err := config.NewManager("configs", config.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	board, err := manager.LoadConfig("mini")
//	defaultBoard := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When the directory holds no valid config the built-in classic board is
// the default. CheckAll reports every broken file at once.
package config
