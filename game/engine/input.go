package engine

// InputRouter hands button presses to agents. There is no active player:
// every agent sees every button and decides relevance from its own bindings.
type InputRouter struct {
	agents []*Agent
}

// NewInputRouter creates a router over agents in registration order
func NewInputRouter(agents []*Agent) *InputRouter {
	return &InputRouter{agents: agents}
}

// Dispatch forwards button to every agent and returns the IDs of those that turned
func (r *InputRouter) Dispatch(button Button) []string {
	var turned []string
	for _, a := range r.agents {
		if a.Turn(button) {
			turned = append(turned, a.ID)
		}
	}
	return turned
}

// Bound reports whether any agent has button as a binding
func (r *InputRouter) Bound(button Button) bool {
	for _, a := range r.agents {
		if a.Bindings.Left == button || a.Bindings.Right == button {
			return true
		}
	}
	return false
}
