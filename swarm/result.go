package swarm

import "time"

// Status is the terminal state of a swarm run.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusTimedOut  Status = "TIMED_OUT"
)

// HandOffEdge is one accepted control transfer between two experts.
type HandOffEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ToolCall is one entry in the run's tool-call trace. A call starts with
// Status "called"; when its response is observed (correlated by ID) the
// status becomes "success" or "error" and ResultPreview holds a truncated
// result excerpt.
type ToolCall struct {
	Agent         string         `json:"agent"`
	Tool          string         `json:"tool_name"`
	Input         map[string]any `json:"input"`
	ID            string         `json:"tool_use_id"`
	Status        string         `json:"status"`
	ResultPreview string         `json:"result_preview,omitempty"`
}

// Result is the structured outcome of one swarm consultation. It carries the
// complete in-process trace of the run; no filesystem artifacts exist.
type Result struct {
	Status Status `json:"status"`
	// Final is the assembled answer: per-expert contributions in execution
	// order, or the failure text when nothing was produced.
	Final string `json:"final"`
	// NodeHistory lists expert agent names in actual execution order.
	NodeHistory  []string      `json:"node_history"`
	HandOffEdges []HandOffEdge `json:"handoff_edges,omitempty"`
	// IndividualResponses maps expert agent name to its joined contribution.
	IndividualResponses map[string]string `json:"individual_responses"`
	ToolCalls           []ToolCall        `json:"tool_calls,omitempty"`
	ExecutionTime       time.Duration     `json:"-"`

	nodeError error
}

// ExecutionTimeMs returns the run duration in whole milliseconds.
func (r *Result) ExecutionTimeMs() int64 { return r.ExecutionTime.Milliseconds() }
