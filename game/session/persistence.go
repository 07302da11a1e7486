package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/lightcycle/game/engine"
	"github.com/wricardo/lightcycle/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string                 `json:"id"`
	RunID          string                 `json:"run_id"`
	ConfigName     string                 `json:"config_name"`
	Config         *engine.GameConfig     `json:"config,omitempty"`
	Realtime       bool                   `json:"realtime"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	Board          *engine.Snapshot       `json:"board"`
	History        []service.HistoryEntry `json:"history,omitempty"`
}

// encodeSession marshals a session and its board snapshot
func encodeSession(session *service.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if session.Simulation == nil {
		return nil, fmt.Errorf("session %s has no simulation", session.ID)
	}

	data := PersistedSessionData{
		ID:             session.ID,
		RunID:          session.RunID,
		ConfigName:     session.ConfigName,
		Config:         session.Config,
		Realtime:       session.Realtime,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Board:          session.Simulation.Snapshot(),
		History:        session.History,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return jsonData, nil
}

// decodeSession rebuilds a session: the simulation is constructed from the
// stored config (or configs, when none was stored) and the board restored on top
func decodeSession(jsonData []byte, configs service.ConfigManager) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	gameConfig := data.Config
	if gameConfig == nil {
		if configs == nil {
			return nil, fmt.Errorf("session %s has no stored config", data.ID)
		}
		var err error
		gameConfig, err = configs.LoadConfig(data.ConfigName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
		}
	}

	sim, err := engine.NewSimulationFromConfig(gameConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation: %w", err)
	}

	if data.Board != nil {
		if err := sim.Restore(data.Board); err != nil {
			return nil, fmt.Errorf("failed to restore board: %w", err)
		}
	}

	return &service.Session{
		ID:             data.ID,
		RunID:          data.RunID,
		ConfigName:     data.ConfigName,
		Config:         gameConfig,
		Simulation:     sim,
		Realtime:       data.Realtime,
		History:        data.History,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}
