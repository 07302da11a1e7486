package engine

import (
	"errors"
	"time"
)

// CellState represents the two variants a cell can take
type CellState string

const (
	Empty    CellState = "empty"
	Occupied CellState = "occupied"

	// Validation constants
	MinBoardSize          = 1
	MaxBoardSize          = 500
	MaxTileSize           = 64
	DefaultTileSize       = 10
	MaxAgents             = 16
	MaxUpdatesPerSecond   = 1000
	DefaultUpdateInterval = 100 * time.Millisecond
	MaxBulkTicks          = 500
	// MaxFrameDelta bounds the frame time a single Advance call accepts
	MaxFrameDelta = 24 * time.Hour
)

var (
	ErrInvalidBoard = errors.New("invalid board dimensions")
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrInvalidDelta = errors.New("invalid time delta")
	ErrUnknownAgent = errors.New("unknown agent")
)

// Cell is a tagged value: Empty, or Occupied with the owning agent's ID
type Cell struct {
	State CellState `json:"state" yaml:"state"`
	Owner string    `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// EmptyCell returns an unoccupied cell
func EmptyCell() Cell {
	return Cell{State: Empty}
}

// OccupiedBy returns a cell marked by the given agent
func OccupiedBy(owner string) Cell {
	return Cell{State: Occupied, Owner: owner}
}

// IsOccupied reports whether the cell carries a trail
func (c Cell) IsOccupied() bool {
	return c.State == Occupied
}

// Position represents x,y coordinates. X is the column, Y the row.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Button identifies an input signal, normally a key name such as "a" or "left"
type Button string

// Bindings maps two buttons to an agent's left and right turns
type Bindings struct {
	Left  Button `json:"left"`
	Right Button `json:"right"`
}

// EdgePolicy decides what a step past the board boundary does
type EdgePolicy string

const (
	// Wrapping moves an agent leaving one edge onto the opposite edge.
	Wrapping EdgePolicy = "wrapping"
	// Clamped performs no boundary handling; leaving the board is an error.
	Clamped EdgePolicy = "clamped"
)

// Valid reports whether p is a known policy
func (p EdgePolicy) Valid() bool {
	return p == Wrapping || p == Clamped
}

// AgentState is the externally visible state of one agent
type AgentState struct {
	ID        string    `json:"id"`
	Color     string    `json:"color"`
	Position  Position  `json:"position"`
	Direction Direction `json:"direction"`
	Bindings  Bindings  `json:"bindings"`
}

// Contact records an agent entering a cell that already carried a trail
type Contact struct {
	Tick          int      `json:"tick"`
	AgentID       string   `json:"agent_id"`
	Position      Position `json:"position"`
	PreviousOwner string   `json:"previous_owner"`
	Self          bool     `json:"self"`
}

// TickReport summarizes what a Tick or Advance call did
type TickReport struct {
	Ticks    int        `json:"ticks"`
	FromTick int        `json:"from_tick"`
	ToTick   int        `json:"to_tick"`
	Contacts []Contact  `json:"contacts,omitempty"`
	Moves    []MoveInfo `json:"moves,omitempty"`
	// Truncated is set when Advance stopped at MaxBulkTicks and dropped the backlog
	Truncated bool `json:"truncated,omitempty"`
}

// MoveInfo is a compact record of one agent's step in one tick
type MoveInfo struct {
	Tick    int      `json:"tick"`
	AgentID string   `json:"agent_id"`
	From    Position `json:"from"`
	To      Position `json:"to"`
	Wrapped bool     `json:"wrapped,omitempty"`
}

// Snapshot is a consistent, deep-copied view of the simulation after a tick
type Snapshot struct {
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	TileSize       int           `json:"tile_size"`
	Background     string        `json:"background"`
	EdgePolicy     EdgePolicy    `json:"edge_policy"`
	UpdateInterval time.Duration `json:"update_interval"`
	Accumulated    time.Duration `json:"accumulated"`
	Tick           int           `json:"tick"`
	Rows           [][]Cell      `json:"rows"`
	Agents         []AgentState  `json:"agents"`
	OccupiedCount  int           `json:"occupied_count"`
}

// CellAt returns the snapshot cell at p, or an empty cell when p is outside
func (s *Snapshot) CellAt(p Position) Cell {
	if p.Y < 0 || p.Y >= len(s.Rows) || p.X < 0 || p.X >= len(s.Rows[p.Y]) {
		return EmptyCell()
	}
	return s.Rows[p.Y][p.X]
}

// Agent returns the state of the agent with the given ID
func (s *Snapshot) Agent(id string) (AgentState, bool) {
	for _, a := range s.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentState{}, false
}
