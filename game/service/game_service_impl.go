package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wricardo/lightcycle/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *log.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *log.Logger) GameService {
	if logger == nil {
		logger = log.Default()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger.With("component", "service"),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, realtime bool) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configName = s.configs.DefaultID()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.Realtime = realtime
	s.save(sess)

	s.logger.Info("session created", "session", sess.ID, "config", configName, "realtime", realtime)
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.logger.Info("session deleted", "session", sessionID)
	return nil
}

// Tick runs count ticks, stopping at the first one that fails
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, count int) (*TickResult, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: tick count must be at least 1, got %d", ErrInvalidRequest, count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	result := &TickResult{RequestedTicks: count}

	// Limit ticks to prevent abuse
	if count > engine.MaxBulkTicks {
		result.Truncated = true
		result.Limit = engine.MaxBulkTicks
		count = engine.MaxBulkTicks
	}

	report := engine.TickReport{FromTick: sess.Simulation.TickCount(), ToTick: sess.Simulation.TickCount()}
	var tickErr error
	for i := 0; i < count; i++ {
		r, err := sess.Simulation.Tick()
		if err != nil {
			tickErr = err
			result.StoppedOnTick = i + 1
			break
		}
		report.Ticks += r.Ticks
		report.ToTick = r.ToTick
		report.Contacts = append(report.Contacts, r.Contacts...)
		report.Moves = append(report.Moves, r.Moves...)
	}

	s.fillResult(sess, result, report, tickErr)
	s.save(sess)

	s.logger.Debug("tick", "session", sess.ID, "ticks", result.Ticks, "requested", count, "stop", result.StopReasonCode)
	return result, nil
}

// Advance feeds dt of frame time into the session's accumulator
func (s *gameServiceImpl) Advance(ctx context.Context, sessionID string, dt time.Duration) (*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	report, err := sess.Simulation.Advance(dt)
	if errors.Is(err, engine.ErrInvalidDelta) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	result := &TickResult{}
	s.fillResult(sess, result, report, err)
	s.save(sess)

	return result, nil
}

// AdvanceRealtime advances every realtime session by dt and returns the
// results of those that ticked or halted
func (s *gameServiceImpl) AdvanceRealtime(ctx context.Context, dt time.Duration) ([]*TickResult, error) {
	if dt < 0 || dt > engine.MaxFrameDelta {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidDelta, dt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []*TickResult
	for _, sess := range s.sessions.List() {
		if !sess.Realtime {
			continue
		}

		report, err := sess.Simulation.Advance(dt)
		if report.Ticks == 0 && err == nil {
			continue
		}

		result := &TickResult{}
		s.fillResult(sess, result, report, err)
		// Moves are only reported for explicit calls
		result.Moves = nil

		if err != nil {
			// A clamped session that left the board would fail every frame
			sess.Realtime = false
			event := GameEvent{
				Type:      EventHalted,
				Message:   "Realtime clock stopped: " + err.Error(),
				Timestamp: time.Now(),
				Tick:      sess.Simulation.TickCount(),
			}
			result.Events = append(result.Events, event)
			sess.Record(HistoryEntry{Type: EventHalted, Tick: event.Tick, Message: event.Message, Timestamp: event.Timestamp})
			s.save(sess)
			s.logger.Warn("realtime session halted", "session", sess.ID, "err", err)
		}
		results = append(results, result)
	}

	return results, nil
}

// PressButton routes a button to every agent of the session
func (s *gameServiceImpl) PressButton(ctx context.Context, sessionID, button string) (*InputResult, error) {
	b := engine.NormalizeButton(button)
	if b == "" {
		return nil, fmt.Errorf("%w: button is required", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	turned := sess.Simulation.OnButton(b)
	result := &InputResult{
		SessionID: sess.ID,
		Button:    string(b),
		Bound:     sess.Simulation.Bound(b),
		Turned:    turned,
		Events:    []GameEvent{},
	}
	if result.Turned == nil {
		result.Turned = []string{}
	}

	tick := sess.Simulation.TickCount()
	for _, id := range turned {
		agent, _ := sess.Simulation.Agent(id)
		pos := agent.Position
		event := GameEvent{
			Type:      EventTurn,
			Message:   fmt.Sprintf("%s turned %s", id, agent.Direction),
			Timestamp: time.Now(),
			Tick:      tick,
			AgentID:   id,
			Position:  &pos,
		}
		result.Events = append(result.Events, event)
		sess.Record(HistoryEntry{
			Type:      EventTurn,
			Tick:      tick,
			AgentID:   id,
			Button:    string(b),
			Direction: agent.Direction.String(),
			Position:  &pos,
			Message:   event.Message,
			Timestamp: event.Timestamp,
		})
	}

	result.Board = sess.Simulation.Snapshot()
	if len(turned) > 0 {
		s.save(sess)
	}
	return result, nil
}

// Reset rebuilds the session's simulation from its config and starts a new run
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sim, err := engine.NewSimulationFromConfig(sess.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild simulation: %w", err)
	}
	sess.Simulation = sim
	sess.RunID = uuid.NewString()
	sess.Record(HistoryEntry{
		Type:      EventReset,
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	})
	s.save(sess)

	s.logger.Info("session reset", "session", sess.ID, "run", sess.RunID)
	return sim.Snapshot(), nil
}

// GetBoard returns the current board snapshot
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Simulation.Snapshot(), nil
}

// GetHistory returns paginated session history
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	entries := []HistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				entries = append(entries, history[i])
			}
		} else {
			entries = append(entries, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Entries:      entries,
		TotalEntries: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// get looks a session up and marks it accessed. Callers hold s.mu for
// writing, since the access stamp is a write.
func (s *gameServiceImpl) get(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, err
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// save persists a session, logging instead of failing the call
func (s *gameServiceImpl) save(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		s.logger.Warn("failed to persist session", "session", sess.ID, "err", err)
	}
}

// fillResult copies a tick report into result, records history and turns
// an out-of-bounds failure into a stop reason
func (s *gameServiceImpl) fillResult(sess *Session, result *TickResult, report engine.TickReport, tickErr error) {
	now := time.Now()

	result.SessionID = sess.ID
	result.Success = tickErr == nil
	result.Ticks = report.Ticks
	result.FromTick = report.FromTick
	result.ToTick = report.ToTick
	result.Contacts = report.Contacts
	result.Moves = report.Moves
	result.Events = []GameEvent{}
	if report.Truncated {
		result.Truncated = true
		result.Limit = engine.MaxBulkTicks
	}

	if report.Ticks > 0 {
		msg := fmt.Sprintf("Advanced %d tick(s) to tick %d", report.Ticks, report.ToTick)
		result.Events = append(result.Events, GameEvent{Type: EventTick, Message: msg, Timestamp: now, Tick: report.ToTick})
		sess.Record(HistoryEntry{Type: EventTick, Tick: report.ToTick, Ticks: report.Ticks, Message: msg, Timestamp: now})
	}

	for _, c := range report.Contacts {
		pos := c.Position
		msg := fmt.Sprintf("%s entered a cell marked by %s at (%d,%d)", c.AgentID, c.PreviousOwner, pos.X, pos.Y)
		if c.Self {
			msg = fmt.Sprintf("%s crossed its own trail at (%d,%d)", c.AgentID, pos.X, pos.Y)
		}
		result.Events = append(result.Events, GameEvent{
			Type: EventContact, Message: msg, Timestamp: now, Tick: c.Tick, AgentID: c.AgentID, Position: &pos,
		})
		sess.Record(HistoryEntry{
			Type: EventContact, Tick: c.Tick, AgentID: c.AgentID, Position: &pos, Message: msg, Timestamp: now,
		})
	}

	if tickErr != nil {
		result.StoppedReason = tickErr.Error()
		if errors.Is(tickErr, engine.ErrOutOfBounds) {
			result.StopReasonCode = StopOutOfBounds
		}
		result.Message = "Stopped: " + tickErr.Error()
	} else {
		result.Message = fmt.Sprintf("Tick %d", report.ToTick)
	}

	result.Board = sess.Simulation.Snapshot()
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		RunID:          sess.RunID,
		ConfigName:     sess.ConfigName,
		Realtime:       sess.Realtime,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Board:          sess.Simulation.Snapshot(),
		GameConfig:     sess.Config,
	}
}
