package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/advcomp/expertswarm/core"
)

// BaseAgent bundles shared lifecycle (Start/Stop) and identity helpers. Embed
// it in concrete agent implementations and supply a Run method to satisfy the
// core.Agent interface. All exported methods are goroutine-safe unless
// otherwise documented.
type BaseAgent struct {
	name        string             // Human-readable name
	description string             // Detailed description of agent's purpose
	mu          sync.Mutex         // Protects concurrent access to agent state
	cancel      context.CancelFunc // Used to cancel agent operations
	running     bool               // Tracks whether the agent is currently active
	teammates   []string           // Names of peers this agent may hand off to
}

// NewBaseAgent constructs a BaseAgent with generated description (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Start transitions the agent to running state and registers a cancel func
// derived from the run context. It is safe for concurrent calls but only the
// first successful invocation changes state; subsequent calls while running
// return an error.
func (b *BaseAgent) Start(rc *core.RunContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return errors.New("agent is already running")
	}

	_, cancel := context.WithCancel(rc.Context)
	b.cancel = cancel
	b.running = true

	return nil
}

// Stop cancels the agent's derived context and marks it as not running.
// It returns an error if the agent was not running.
func (b *BaseAgent) Stop(_ *core.RunContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return errors.New("agent is not running")
	}

	if b.cancel != nil {
		b.cancel()
	}
	b.running = false

	return nil
}

// SetTeammates replaces the set of peer names this agent may hand off to.
// The orchestrator wires teammates when it assembles the swarm roster so
// agents only advertise hand-off targets that actually exist.
func (b *BaseAgent) SetTeammates(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teammates = append([]string(nil), names...)
}

// Teammates returns a copy of the peer names this agent may hand off to.
func (b *BaseAgent) Teammates() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]string, len(b.teammates))
	copy(result, b.teammates)
	return result
}
