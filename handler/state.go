package handler

import "github.com/advcomp/expertswarm/logging"

// state tracks how far a single invocation has progressed. Transitions are
// logged so a stalled or failed request shows exactly where it stopped.
type state string

const (
	stateReceived       state = "RECEIVED"
	stateContextLoaded  state = "CONTEXT_LOADED"
	stateDirectAnswer   state = "DIRECT_ANSWER"
	stateSwarmConsulted state = "SWARM_CONSULTED"
	stateResponseBuilt  state = "RESPONSE_BUILT"
	statePersisted      state = "PERSISTED"
	stateReturned       state = "RETURNED"
	stateFailed         state = "FAILED"
)

// transitions lists the legal forward edges. FAILED is reachable from every
// state and handled separately.
var transitions = map[state][]state{
	stateReceived:       {stateContextLoaded},
	stateContextLoaded:  {stateDirectAnswer, stateSwarmConsulted},
	stateDirectAnswer:   {stateResponseBuilt},
	stateSwarmConsulted: {stateResponseBuilt},
	stateResponseBuilt:  {statePersisted},
	statePersisted:      {stateReturned},
}

// machine is a per-invocation progress tracker. Not safe for concurrent
// use; each invocation owns its own.
type machine struct {
	current   state
	sessionID string
	logger    logging.Logger
}

func newMachine(sessionID string, logger logging.Logger) *machine {
	m := &machine{current: stateReceived, sessionID: sessionID, logger: logger}
	logger.Debug("handler.state", "session_id", sessionID, "state", string(stateReceived))
	return m
}

// to advances the machine. Illegal edges are logged and taken anyway, since
// refusing the transition would desynchronize tracking from reality.
func (m *machine) to(next state) {
	if next != stateFailed && !m.allowed(next) {
		m.logger.Warn("handler.state.illegal_transition",
			"session_id", m.sessionID,
			"from", string(m.current),
			"to", string(next),
		)
	}
	m.current = next
	m.logger.Debug("handler.state", "session_id", m.sessionID, "state", string(next))
}

func (m *machine) allowed(next state) bool {
	for _, s := range transitions[m.current] {
		if s == next {
			return true
		}
	}
	return false
}
