// Package telemetry records session-scoped activity events for the expert
// swarm service. Events are appended in wall-clock order and copied verbatim
// into the invocation response payload so callers can replay what happened
// during a consultation.
package telemetry

import (
	"math"
	"sync"
	"time"

	"github.com/advcomp/expertswarm/logging"
)

// Event is one recorded activity with its timing metadata.
type Event struct {
	Timestamp float64        `json:"timestamp"`
	Time      string         `json:"time"`
	Elapsed   float64        `json:"elapsed"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
}

// Recorder tracks the events of a single invocation session. Starting a new
// session resets the event list. Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	events    []Event
	startTime time.Time
	sessionID string
	logger    logging.Logger
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	Logger logging.Logger
}

// NewRecorder creates an empty recorder.
func NewRecorder(optFns ...func(o *RecorderOptions)) *Recorder {
	opts := RecorderOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Recorder{logger: opts.Logger}
}

// StartSession begins a fresh session, discarding any prior events, and
// records the session_start event.
func (r *Recorder) StartSession(sessionID string) {
	r.mu.Lock()
	r.events = nil
	r.startTime = time.Now()
	r.sessionID = sessionID
	r.mu.Unlock()

	r.LogEvent("session_start", map[string]any{"session_id": sessionID})
}

// EndSession records the session_end event with the session duration.
func (r *Recorder) EndSession() {
	r.mu.Lock()
	duration := round3(time.Since(r.startTime).Seconds())
	count := len(r.events)
	r.mu.Unlock()

	r.LogEvent("session_end", map[string]any{
		"duration":    duration,
		"event_count": count,
	})
}

// LogEvent appends an event of the given type and returns it.
func (r *Recorder) LogEvent(eventType string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}

	now := time.Now()

	r.mu.Lock()
	elapsed := 0.0
	if !r.startTime.IsZero() {
		elapsed = round3(now.Sub(r.startTime).Seconds())
	}
	ev := Event{
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Time:      now.Format("15:04:05.000"),
		Elapsed:   elapsed,
		Type:      eventType,
		Data:      data,
	}
	r.events = append(r.events, ev)
	r.mu.Unlock()

	r.logger.Debug("telemetry.event", "type", eventType, "session", r.sessionID)

	return ev
}

// LogAgentResponse records an agent's response, truncated to a summary.
func (r *Recorder) LogAgentResponse(agentName, response string) Event {
	return r.LogEvent("agent_response", map[string]any{
		"agent":    agentName,
		"response": truncate(response, 100),
	})
}

// LogHandoff records a control transfer between two agents.
func (r *Recorder) LogHandoff(from, to, reason string) Event {
	return r.LogEvent("handoff", map[string]any{
		"from":   from,
		"to":     to,
		"reason": reason,
	})
}

// LogToolUse records an agent calling a tool.
func (r *Recorder) LogToolUse(agentName, toolName string, inputs map[string]any) Event {
	return r.LogEvent("tool_use", map[string]any{
		"agent":  agentName,
		"tool":   toolName,
		"inputs": inputs,
	})
}

// LogToolResult records a tool result, truncated to a summary.
func (r *Recorder) LogToolResult(agentName, toolName, result string) Event {
	return r.LogEvent("tool_result", map[string]any{
		"agent":  agentName,
		"tool":   toolName,
		"result": truncate(result, 100),
	})
}

// LogQueryAnalysis records the domains a query was routed to.
func (r *Recorder) LogQueryAnalysis(domains []string) Event {
	return r.LogEvent("query_analysis", map[string]any{"domains": domains})
}

// LogSwarmCreation records a swarm being assembled for the given domains.
func (r *Recorder) LogSwarmCreation(domains []string) Event {
	return r.LogEvent("swarm_creation", map[string]any{"domains": domains})
}

// Events returns a copy of all events recorded in the current session.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Summary aggregates the session: event count, distinct agents and tools
// seen, and elapsed duration in seconds.
func (r *Recorder) Summary() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return map[string]any{"events": 0, "agents": []string{}, "tools": []string{}}
	}

	var agents, tools []string
	seenAgents := make(map[string]bool)
	seenTools := make(map[string]bool)
	for _, ev := range r.events {
		switch ev.Type {
		case "agent_thinking", "agent_response":
			if name, ok := ev.Data["agent"].(string); ok && !seenAgents[name] {
				seenAgents[name] = true
				agents = append(agents, name)
			}
		case "tool_use":
			if name, ok := ev.Data["tool"].(string); ok && !seenTools[name] {
				seenTools[name] = true
				tools = append(tools, name)
			}
		}
	}

	return map[string]any{
		"events":   len(r.events),
		"agents":   agents,
		"tools":    tools,
		"duration": round3(time.Since(r.startTime).Seconds()),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
