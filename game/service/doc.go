// Package service provides the business logic layer for the light-cycle simulator.
//
// The service package implements:
//   - Multi-session management, each session owning one engine.Simulation
//   - Stepping by explicit ticks, by frame time, or by the realtime clock
//   - Button routing to every agent of a session
//   - Session history of ticks, turns, contacts and resets
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages scenario loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engine. All session mutations are serialized by the service, so the
// engine itself needs no locking. Sessions created with realtime=true are
// advanced by RunClock, which plays the role of a frame loop for every
// connected client at once.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr, _ := config.NewManager("configs", logger)
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	info, err := gameService.CreateSession(ctx, "duel", false)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameService.PressButton(ctx, info.ID, "a")
//	result, err := gameService.Tick(ctx, info.ID, 3)
//
// Errors:
//
// ErrSessionNotFound, ErrConfigNotFound, ErrInvalidConfig and ErrInvalidRequest
// are wrapped into returned errors so transports can map them with errors.Is.
// A clamped agent leaving the board is not an error at this level: the result
// reports Success=false with StopReasonCode "out_of_bounds".
package service
