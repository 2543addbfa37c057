package flow

// TeamFlow orchestrates an expert that runs as part of a swarm team and may
// hand off control to teammates. It extends BaseFlow by injecting the
// hand-off tool definition alongside the default processors.
type TeamFlow struct{ *BaseFlow }

// NewTeamFlow creates a new team flow with default processors.
func NewTeamFlow(agent FlowAgent) *TeamFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	// Inject handoff_to_expert tool definition dynamically when applicable
	baseFlow.AddRequestProcessor(NewHandoffToolInjector())

	return &TeamFlow{BaseFlow: baseFlow}
}
