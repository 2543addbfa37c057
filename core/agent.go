package core

// Agent defines the core interface all agents in the swarm implement.
//
// Agents are the primary processing units. They receive inputs through a
// RunContext, process them asynchronously, and emit events to communicate
// results and state changes back to the caller.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Handle the async resume mechanism properly
//   - Manage their lifecycle through Start/Stop methods
//
// Agents are flat peers: the swarm orchestrator owns the roster and routes
// hand-offs between them by name.
type Agent interface {
	Name() string
	Description() string
	Start(rc *RunContext) error
	Stop(rc *RunContext) error
	Run(rc *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation
// (e.g. "coordinator", "expert").
type AgentInfo struct{ Name, Type string }
