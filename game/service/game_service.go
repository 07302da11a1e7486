package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/lightcycle/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidRequest  = errors.New("invalid request")
)

// MaxHistoryEntries bounds the per-session event history
const MaxHistoryEntries = 1000

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, realtime bool) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Simulation
	Tick(ctx context.Context, sessionID string, count int) (*TickResult, error)
	Advance(ctx context.Context, sessionID string, dt time.Duration) (*TickResult, error)
	PressButton(ctx context.Context, sessionID, button string) (*InputResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	AdvanceRealtime(ctx context.Context, dt time.Duration) ([]*TickResult, error)

	// Board
	GetBoard(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configName string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configName string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	DefaultID() string
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	RunID          string
	ConfigName     string
	Config         *engine.GameConfig
	Simulation     *engine.Simulation
	Realtime       bool
	History        []HistoryEntry
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Record appends entry with the next sequence number, dropping the oldest
// entries past MaxHistoryEntries
func (s *Session) Record(entry HistoryEntry) {
	entry.Seq = 1
	if n := len(s.History); n > 0 {
		entry.Seq = s.History[n-1].Seq + 1
	}
	s.History = append(s.History, entry)
	if over := len(s.History) - MaxHistoryEntries; over > 0 {
		s.History = append([]HistoryEntry(nil), s.History[over:]...)
	}
}
