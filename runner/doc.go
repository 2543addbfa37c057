// Package runner implements the event pump that drives a single agent.
//
// The Runner manages the complete lifecycle of one agent run: it creates the
// run context, appends the triggering user event, streams events emitted by
// the agent, applies side-effects (session state deltas), persists history
// and signals the agent to resume after each persisted turn.
//
// The swarm orchestrator builds on this loop to route hand-offs between
// agents; the Runner itself is agnostic of routing and simply records
// hand-off and escalation actions as they pass through.
package runner
