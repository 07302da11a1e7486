// Package session provides session management for the light-cycle simulator.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Optional persistence to JSON files or to the gdata user store
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns one engine.Simulation plus its config, run ID,
// history and timestamps.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference, matched
// case-insensitively. Every session also carries a UUID run ID which changes
// on reset, so clients can tell runs of the same session apart.
//
// Persistence:
//
// FilePersistence writes sessions/<id>.json. GdataPersistence stores the same
// document as a gdata object property and keeps an ID index next to it. Both
// store the scenario and the board snapshot; loading rebuilds the simulation
// from the scenario and restores the board on top.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("sessions", configMgr)
//	manager := session.NewManagerWithPersistence(persistence, logger)
//	_ = manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", configMgr.GetDefault())
//	if err != nil {
//		log.Fatal(err)
//	}
package session
