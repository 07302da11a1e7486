package engine

import (
	"fmt"
	"math"
	"time"
)

// Settings are the construction parameters of a Simulation
type Settings struct {
	Width          int
	Height         int
	TileSize       int
	Background     string
	EdgePolicy     EdgePolicy
	UpdateInterval time.Duration
	Agents         []AgentState
}

// ContactHandler is called for every Contact produced by a tick. It is the
// hook for collision rules; the engine itself never stops an agent.
type ContactHandler func(Contact)

// Simulation owns the grid and the agents and advances them in discrete ticks
type Simulation struct {
	settings    Settings
	grid        *Grid
	agents      []*Agent
	router      *InputRouter
	accumulated time.Duration
	tick        int
	onContact   ContactHandler
}

// NewSimulation validates settings and builds the board with every agent on its start cell
func NewSimulation(settings Settings) (*Simulation, error) {
	if settings.EdgePolicy == "" {
		settings.EdgePolicy = Wrapping
	}
	if !settings.EdgePolicy.Valid() {
		return nil, fmt.Errorf("unknown edge policy %q", settings.EdgePolicy)
	}
	if settings.UpdateInterval <= 0 {
		return nil, fmt.Errorf("update interval must be positive, got %v", settings.UpdateInterval)
	}
	if settings.TileSize <= 0 {
		settings.TileSize = DefaultTileSize
	}

	seen := make(map[string]bool, len(settings.Agents))
	agents := make([]*Agent, 0, len(settings.Agents))
	for i, spec := range settings.Agents {
		if spec.ID == "" {
			return nil, fmt.Errorf("agent %d: id is required", i)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("agent %s: duplicate id", spec.ID)
		}
		seen[spec.ID] = true
		if !spec.Direction.Valid() {
			return nil, fmt.Errorf("agent %s: invalid direction %d", spec.ID, int(spec.Direction))
		}
		if spec.Bindings.Left == "" || spec.Bindings.Right == "" {
			return nil, fmt.Errorf("agent %s: both turn bindings are required", spec.ID)
		}
		if spec.Bindings.Left == spec.Bindings.Right {
			return nil, fmt.Errorf("agent %s: left and right bindings must differ, both are %q", spec.ID, spec.Bindings.Left)
		}
		agents = append(agents, NewAgent(spec.ID, spec.Color, spec.Position, spec.Direction, spec.Bindings))
	}

	grid, err := NewGridWithAgents(settings.Width, settings.Height, agents)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		settings: settings,
		grid:     grid,
		agents:   agents,
		router:   NewInputRouter(agents),
	}, nil
}

// OnContact installs h as the contact handler. Passing nil removes it.
func (s *Simulation) OnContact(h ContactHandler) {
	s.onContact = h
}

// Settings returns the construction parameters, with defaults applied
func (s *Simulation) Settings() Settings {
	out := s.settings
	out.Agents = append([]AgentState(nil), s.settings.Agents...)
	return out
}

// Width returns the board width
func (s *Simulation) Width() int {
	return s.grid.Width()
}

// Height returns the board height
func (s *Simulation) Height() int {
	return s.grid.Height()
}

// TickCount returns the number of ticks run so far
func (s *Simulation) TickCount() int {
	return s.tick
}

// Cell returns the board cell at p
func (s *Simulation) Cell(p Position) (Cell, error) {
	return s.grid.Cell(p)
}

// Agent returns the current state of the agent with the given ID
func (s *Simulation) Agent(id string) (AgentState, error) {
	for _, a := range s.agents {
		if a.ID == id {
			return a.State(), nil
		}
	}
	return AgentState{}, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
}

// Agents returns agent states in registration order
func (s *Simulation) Agents() []AgentState {
	states := make([]AgentState, len(s.agents))
	for i, a := range s.agents {
		states[i] = a.State()
	}
	return states
}

// OnButton routes a button press to every agent and returns the IDs that turned
func (s *Simulation) OnButton(button Button) []string {
	return s.router.Dispatch(button)
}

// Bound reports whether button is bound to any agent
func (s *Simulation) Bound(button Button) bool {
	return s.router.Bound(button)
}

// Advance adds dt to the accumulated frame time and runs one tick for every
// whole update interval strictly exceeded. The remainder carries forward.
// At most MaxBulkTicks ticks run per call; time owed past that is dropped,
// leaving at most one interval accumulated, and the report is Truncated.
func (s *Simulation) Advance(dt time.Duration) (TickReport, error) {
	report := TickReport{FromTick: s.tick, ToTick: s.tick}
	if dt < 0 || dt > MaxFrameDelta {
		return report, fmt.Errorf("%w: %v", ErrInvalidDelta, dt)
	}
	if dt > math.MaxInt64-s.accumulated {
		return report, fmt.Errorf("%w: %v overflows accumulated %v", ErrInvalidDelta, dt, s.accumulated)
	}

	interval := s.settings.UpdateInterval
	s.accumulated += dt
	for s.accumulated > interval {
		if report.Ticks == MaxBulkTicks {
			report.Truncated = true
			s.accumulated = interval
			break
		}
		r, err := s.Tick()
		if err != nil {
			return report, err
		}
		s.accumulated -= interval
		report.merge(r)
	}

	return report, nil
}

// AdvanceSeconds is Advance for drivers that measure frame time in seconds
func (s *Simulation) AdvanceSeconds(seconds float64) (TickReport, error) {
	if math.IsNaN(seconds) || seconds < 0 || seconds > MaxFrameDelta.Seconds() {
		return TickReport{FromTick: s.tick, ToTick: s.tick}, fmt.Errorf("%w: %v", ErrInvalidDelta, seconds)
	}
	return s.Advance(time.Duration(seconds * float64(time.Second)))
}

// Tick advances every agent by one cell in registration order and marks the
// cells they land on. All destinations are computed before any write, so a
// failing tick leaves the simulation unchanged.
func (s *Simulation) Tick() (TickReport, error) {
	width, height := s.grid.Width(), s.grid.Height()
	policy := s.settings.EdgePolicy
	next := s.tick + 1

	targets := make([]Position, len(s.agents))
	for i, a := range s.agents {
		p := a.Next(width, height, policy)
		if !s.grid.InBounds(p) {
			return TickReport{FromTick: s.tick, ToTick: s.tick},
				fmt.Errorf("tick %d: agent %s heading %s from (%d,%d): %w",
					next, a.ID, a.Direction, a.Position.X, a.Position.Y, ErrOutOfBounds)
		}
		targets[i] = p
	}

	report := TickReport{Ticks: 1, FromTick: s.tick, ToTick: next}
	for i, a := range s.agents {
		from := a.Position
		to := targets[i]
		dx, dy := a.Direction.Delta()

		// Cell and SetOccupied fail only out of bounds; targets were checked above
		prev, _ := s.grid.Cell(to)
		if prev.IsOccupied() {
			contact := Contact{
				Tick:          next,
				AgentID:       a.ID,
				Position:      to,
				PreviousOwner: prev.Owner,
				Self:          prev.Owner == a.ID,
			}
			report.Contacts = append(report.Contacts, contact)
			if s.onContact != nil {
				s.onContact(contact)
			}
		}

		a.Position = to
		_ = s.grid.SetOccupied(to, a.ID) // bounds-checked above

		report.Moves = append(report.Moves, MoveInfo{
			Tick:    next,
			AgentID: a.ID,
			From:    from,
			To:      to,
			Wrapped: to.X != from.X+dx || to.Y != from.Y+dy,
		})
	}

	s.tick = next
	return report, nil
}

// Snapshot returns a deep copy of the board and agents
func (s *Simulation) Snapshot() *Snapshot {
	return &Snapshot{
		Width:          s.grid.Width(),
		Height:         s.grid.Height(),
		TileSize:       s.settings.TileSize,
		Background:     s.settings.Background,
		EdgePolicy:     s.settings.EdgePolicy,
		UpdateInterval: s.settings.UpdateInterval,
		Accumulated:    s.accumulated,
		Tick:           s.tick,
		Rows:           s.grid.Rows(),
		Agents:         s.Agents(),
		OccupiedCount:  s.grid.OccupiedCount(),
	}
}

// Restore loads a snapshot taken from a simulation with the same board and agents
func (s *Simulation) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snap.Width != s.grid.Width() || snap.Height != s.grid.Height() {
		return fmt.Errorf("%w: snapshot is %dx%d, simulation is %dx%d",
			ErrInvalidBoard, snap.Width, snap.Height, s.grid.Width(), s.grid.Height())
	}
	if len(snap.Agents) != len(s.agents) {
		return fmt.Errorf("snapshot has %d agents, simulation has %d", len(snap.Agents), len(s.agents))
	}
	if snap.Tick < 0 || snap.Accumulated < 0 {
		return fmt.Errorf("snapshot tick and accumulated time must not be negative")
	}
	for i, st := range snap.Agents {
		if st.ID != s.agents[i].ID {
			return fmt.Errorf("%w: snapshot agent %d is %q, expected %q", ErrUnknownAgent, i, st.ID, s.agents[i].ID)
		}
		if !s.grid.InBounds(st.Position) {
			return fmt.Errorf("snapshot agent %s: %w", st.ID, ErrOutOfBounds)
		}
		if !st.Direction.Valid() {
			return fmt.Errorf("snapshot agent %s: invalid direction %d", st.ID, int(st.Direction))
		}
	}

	grid := s.grid.Clone()
	if err := grid.loadRows(snap.Rows); err != nil {
		return err
	}

	s.grid = grid
	for i, st := range snap.Agents {
		s.agents[i].Position = st.Position
		s.agents[i].Direction = st.Direction
	}
	s.tick = snap.Tick
	s.accumulated = snap.Accumulated
	return nil
}

func (r *TickReport) merge(other TickReport) {
	r.Ticks += other.Ticks
	r.ToTick = other.ToTick
	r.Contacts = append(r.Contacts, other.Contacts...)
	r.Moves = append(r.Moves, other.Moves...)
}
