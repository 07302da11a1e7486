package engine

// Agent is a light cycle: an identity, a position, a heading and two turn buttons
type Agent struct {
	ID        string
	Color     string
	Position  Position
	Direction Direction
	Bindings  Bindings
}

// NewAgent creates an agent at start facing dir
func NewAgent(id, color string, start Position, dir Direction, bindings Bindings) *Agent {
	return &Agent{
		ID:        id,
		Color:     color,
		Position:  start,
		Direction: dir,
		Bindings:  bindings,
	}
}

// Turn rotates the agent when button matches one of its bindings.
// It returns true when the heading changed.
func (a *Agent) Turn(button Button) bool {
	if button == "" {
		return false
	}
	switch button {
	case a.Bindings.Left:
		a.Direction = a.Direction.Left()
	case a.Bindings.Right:
		a.Direction = a.Direction.Right()
	default:
		return false
	}
	return true
}

// Next returns the cell one step ahead under policy without moving the agent
func (a *Agent) Next(width, height int, policy EdgePolicy) Position {
	dx, dy := a.Direction.Delta()
	next := Position{X: a.Position.X + dx, Y: a.Position.Y + dy}

	if policy == Clamped {
		return next
	}

	switch {
	case next.X < 0:
		next.X = width - 1
	case next.X >= width:
		next.X = 0
	}
	switch {
	case next.Y < 0:
		next.Y = height - 1
	case next.Y >= height:
		next.Y = 0
	}
	return next
}

// Step moves the agent one cell in its current direction and returns the new position
func (a *Agent) Step(width, height int, policy EdgePolicy) Position {
	a.Position = a.Next(width, height, policy)
	return a.Position
}

// State returns a copy of the agent's visible state
func (a *Agent) State() AgentState {
	return AgentState{
		ID:        a.ID,
		Color:     a.Color,
		Position:  a.Position,
		Direction: a.Direction,
		Bindings:  a.Bindings,
	}
}
