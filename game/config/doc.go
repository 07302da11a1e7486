// Package config provides scenario management for the light-cycle simulator.
//
// The config package handles:
//   - Loading scenarios from JSON or YAML files
//   - Validation through engine.ValidateGameConfig
//   - Default scenario selection
//   - Scenario discovery, listing and saving
//
// Configuration Format:
//
// Scenarios live in the configs directory as name.json, name.yaml or
// name.yml. The file name without extension is the config ID used to create
// sessions. Each scenario defines the board size, the tick cadence, the edge
// policy and the starting agents with their colors and key bindings.
//
// Usage:
//
//	manager, err := config.NewManager("configs", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	duel, err := manager.LoadConfig("duel")
//	configs, err := manager.ListConfigs()
//
// Defaults:
//
// The default scenario is classic when present, otherwise the first valid
// scenario in the directory, otherwise engine.DefaultGameConfig.
package config
