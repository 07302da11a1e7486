package service

import (
	"time"

	"github.com/wricardo/lightcycle/game/engine"
)

// Event types reported by service calls and kept in session history
const (
	EventTick    = "tick"
	EventTurn    = "turn"
	EventContact = "contact"
	EventReset   = "reset"
	EventHalted  = "halted"
)

// Stop reason codes
const (
	StopOutOfBounds = "out_of_bounds"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	RunID          string             `json:"run_id"`
	ConfigName     string             `json:"config_name"`
	Realtime       bool               `json:"realtime"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Board          *engine.Snapshot   `json:"board"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// TickResult contains the result of a Tick, Advance or realtime frame
type TickResult struct {
	SessionID      string            `json:"session_id"`
	Success        bool              `json:"success"`
	RequestedTicks int               `json:"requested_ticks,omitempty"`
	Ticks          int               `json:"ticks"`
	FromTick       int               `json:"from_tick"`
	ToTick         int               `json:"to_tick"`
	Board          *engine.Snapshot  `json:"board"`
	Events         []GameEvent       `json:"events"`
	Contacts       []engine.Contact  `json:"contacts,omitempty"`
	Moves          []engine.MoveInfo `json:"moves,omitempty"`
	Message        string            `json:"message,omitempty"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // out_of_bounds
	StoppedOnTick  int               `json:"stopped_on_tick,omitempty"`
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`
}

// InputResult contains the result of a button press
type InputResult struct {
	SessionID string           `json:"session_id"`
	Button    string           `json:"button"`
	Bound     bool             `json:"bound"`
	Turned    []string         `json:"turned"`
	Board     *engine.Snapshot `json:"board"`
	Events    []GameEvent      `json:"events"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string           `json:"type"` // "tick", "turn", "contact", "reset", "halted"
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Tick      int              `json:"tick"`
	AgentID   string           `json:"agent_id,omitempty"`
	Position  *engine.Position `json:"position,omitempty"`
}

// HistoryEntry is one recorded event in a session's history
type HistoryEntry struct {
	Seq       int              `json:"seq"`
	Type      string           `json:"type"`
	Tick      int              `json:"tick"`
	Ticks     int              `json:"ticks,omitempty"`
	AgentID   string           `json:"agent_id,omitempty"`
	Button    string           `json:"button,omitempty"`
	Direction string           `json:"direction,omitempty"`
	Position  *engine.Position `json:"position,omitempty"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
}

// HistoryOptions configures history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated history
type HistoryResponse struct {
	Entries      []HistoryEntry `json:"entries"`
	TotalEntries int            `json:"total_entries"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
	HasNext      bool           `json:"has_next"`
	HasPrevious  bool           `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename         string            `json:"filename"`
	ConfigID         string            `json:"config_id"` // The identifier to use for session creation
	Name             string            `json:"name"`      // Display name
	Description      string            `json:"description"`
	BoardWidth       int               `json:"board_width"`
	BoardHeight      int               `json:"board_height"`
	Agents           int               `json:"agents"`
	EdgePolicy       engine.EdgePolicy `json:"edge_policy"`
	UpdateIntervalMS int64             `json:"update_interval_ms"`
}

// NewConfigInfo summarizes config stored under filename
func NewConfigInfo(filename, configID string, config *engine.GameConfig) *ConfigInfo {
	return &ConfigInfo{
		Filename:         filename,
		ConfigID:         configID,
		Name:             config.Name,
		Description:      config.Description,
		BoardWidth:       config.BoardWidth,
		BoardHeight:      config.BoardHeight,
		Agents:           len(config.Agents),
		EdgePolicy:       config.Policy(),
		UpdateIntervalMS: config.UpdateInterval().Milliseconds(),
	}
}
