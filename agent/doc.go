// Package agent contains the agent implementations backing the expert swarm.
// The package focuses on two concerns:
//
//  1. Base lifecycle + identity plumbing (BaseAgent)
//  2. Model-centric conversational / tool-calling agent (ModelAgent)
//
// Design principles:
//   - Minimal hidden global state – explicit wiring via RunContext
//   - Flat peers – agents advertise hand-off teammates by name; the swarm
//     orchestrator owns the roster and routes between nodes
//   - Observability – clear logging hooks at start/stop and flow selection
//   - Extensibility – embed BaseAgent; only implement Run plus any custom API
//
// Execution Model:
//   - An agent's Run receives a *core.RunContext (shared or child)
//   - ModelAgent integrates with model, tool and flow packages to stream events
//   - Hand-off requests surface as EventActions interpreted after persistence
//
// The package intentionally keeps persistence, model specifics and tool
// registry abstractions in their respective packages to avoid cyclic deps.
package agent
