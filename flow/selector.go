package flow

// Selector determines which flow to use based on agent capabilities.
//
// The flow is selected dynamically based on the agent's configuration.
type Selector struct{}

// NewSelector creates a new flow selector.
func NewSelector() *Selector { return &Selector{} }

// SelectFlow chooses the appropriate flow for the given agent:
//   - SingleAgentFlow for isolated agents without teammates
//   - TeamFlow for agents that may hand off to teammates
func (s *Selector) SelectFlow(agent FlowAgent) Flow {
	if !agent.IsHandoffEnabled() || len(agent.GetTeammates()) == 0 {
		return NewSingleAgentFlow(agent)
	}
	return NewTeamFlow(agent)
}
