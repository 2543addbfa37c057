// Package core provides the foundational domain types, interfaces and
// execution contexts used by the expert swarm. It defines the core
// abstractions for:
//
//   - Agents (the coordinator and domain experts)
//   - Sessions (stateful conversational containers with event history)
//   - Events (immutable communication + orchestration records)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - A pluggable store for session state
//
// The package intentionally keeps implementation concerns (persistence,
// orchestration, concrete agents) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
