// Package swarm runs a team of domain experts against one query. Experts
// execute one at a time on a shared session; each finished turn either hands
// off to a named teammate or the loop schedules the next expert that has not
// spoken yet. The run terminates when every invited expert contributed, a
// bound is exceeded, or an error occurs, and always returns a structured
// Result with whatever contributions were collected.
package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/advcomp/expertswarm/agent"
	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/expert"
	"github.com/advcomp/expertswarm/knowledge"
	"github.com/advcomp/expertswarm/logging"
	"github.com/advcomp/expertswarm/model"
	"github.com/advcomp/expertswarm/session"
	"github.com/advcomp/expertswarm/telemetry"
	"github.com/advcomp/expertswarm/tool"
)

// Default execution bounds.
const (
	DefaultMaxHandoffs      = 20
	DefaultMaxIterations    = 20
	DefaultExecutionTimeout = 30 * time.Minute
	DefaultNodeTimeout      = 10 * time.Minute
	DefaultMaxModelCalls    = 10

	// contributionSeparator joins one expert's assistant segments.
	contributionSeparator = "\n\n---\n\n"
	// finalSeparator joins per-expert contributions into the final answer.
	finalSeparator = "\n\n"

	resultPreviewLimit = 200
)

// Options configures an Orchestrator.
type Options struct {
	// NewConnector builds the knowledge connector for one run. The run owns
	// the returned connector and closes it on every exit path. Defaults to
	// the mock connector.
	NewConnector func(ctx context.Context) knowledge.Connector

	MaxHandoffs      int
	MaxIterations    int
	ExecutionTimeout time.Duration
	NodeTimeout      time.Duration
	// MaxModelCalls bounds model calls within a single expert turn.
	MaxModelCalls int

	Logger   logging.Logger
	Recorder *telemetry.Recorder
}

// Orchestrator executes expert-swarm consultations. Safe for concurrent
// runs as long as the configured model is.
type Orchestrator struct {
	llm  model.Model
	opts Options
}

// NewOrchestrator creates an orchestrator whose experts all run on the given
// model.
func NewOrchestrator(llm model.Model, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		NewConnector: func(context.Context) knowledge.Connector {
			return knowledge.NewMockConnector()
		},
		MaxHandoffs:      DefaultMaxHandoffs,
		MaxIterations:    DefaultMaxIterations,
		ExecutionTimeout: DefaultExecutionTimeout,
		NodeTimeout:      DefaultNodeTimeout,
		MaxModelCalls:    DefaultMaxModelCalls,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{llm: llm, opts: opts}
}

// Run executes one consultation with the experts named by keys. Unknown keys
// are dropped; a selection with no valid expert fails fast without building
// agents, opening a connector, or touching the model. Run never panics.
func (o *Orchestrator) Run(ctx context.Context, query string, keys []string) (res *Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.opts.Logger.Error("swarm.run.panic", "panic", fmt.Sprintf("%v", r))
			res = &Result{
				Status:              StatusFailed,
				Final:               fmt.Sprintf("Expert analysis failed: %v", r),
				IndividualResponses: map[string]string{},
				ExecutionTime:       time.Since(start),
			}
		}
	}()

	valid := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := expert.Get(key); ok {
			valid = append(valid, key)
		}
	}
	if len(valid) == 0 {
		return &Result{
			Status:              StatusFailed,
			Final:               "No valid experts specified. Available: " + expert.AvailableKeys(),
			IndividualResponses: map[string]string{},
			ExecutionTime:       time.Since(start),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.ExecutionTimeout)
	defer cancel()

	connector := o.opts.NewConnector(ctx)
	defer func() {
		if err := connector.Close(); err != nil {
			o.opts.Logger.Warn("swarm.connector.close_failed", "error", err.Error())
		}
	}()

	experts, roster := o.buildTeam(valid, connector)

	o.opts.Logger.Info("swarm.run.start", "experts", strings.Join(roster, ","), "query_len", len(query))
	if o.opts.Recorder != nil {
		o.opts.Recorder.LogSwarmCreation(append([]string(nil), valid...))
	}

	store := session.NewInMemoryStore()
	sessionID := "swarm-" + core.NewID()
	runID := core.NewID()
	if _, err := store.Create(sessionID); err != nil {
		return o.failed(start, fmt.Sprintf("Expert analysis failed: %v", err))
	}
	if err := store.AppendEvent(sessionID, core.NewUserMessageEvent(runID, query)); err != nil {
		return o.failed(start, fmt.Sprintf("Expert analysis failed: %v", err))
	}

	result := &Result{
		Status:              StatusCompleted,
		IndividualResponses: map[string]string{},
	}

	visited := make(map[string]bool)
	current := roster[0]
	handoffs := 0

	for iteration := 0; ; iteration++ {
		if iteration >= o.opts.MaxIterations {
			o.opts.Logger.Warn("swarm.bound.max_iterations", "iterations", iteration)
			result.Status = StatusFailed
			break
		}

		node, err := o.runNode(ctx, store, sessionID, runID, query, experts[current], result)
		visited[current] = true

		if err != nil {
			if ctx.Err() != nil {
				o.opts.Logger.Warn("swarm.run.timeout", "node", current, "error", ctx.Err().Error())
				result.Status = StatusTimedOut
			} else {
				o.opts.Logger.Error("swarm.node.error", "node", current, "error", err.Error())
				result.Status = StatusFailed
				result.nodeError = err
			}
			break
		}

		if o.opts.Recorder != nil && node.contribution != "" {
			o.opts.Recorder.LogAgentResponse(current, node.contribution)
		}

		next := ""
		if node.handoff != "" && contains(roster, node.handoff) {
			if handoffs >= o.opts.MaxHandoffs {
				o.opts.Logger.Warn("swarm.bound.max_handoffs", "handoffs", handoffs)
				result.Status = StatusFailed
				break
			}
			handoffs++
			result.HandOffEdges = append(result.HandOffEdges, HandOffEdge{From: current, To: node.handoff})
			if o.opts.Recorder != nil {
				o.opts.Recorder.LogHandoff(current, node.handoff, "expert requested")
			}
			next = node.handoff
		} else {
			if node.handoff != "" {
				o.opts.Logger.Warn("swarm.handoff.unknown_target", "from", current, "target", node.handoff)
			}
			// Chain stalled: schedule the first invited expert that has
			// not spoken yet.
			for _, name := range roster {
				if !visited[name] {
					next = name
					break
				}
			}
		}

		if next == "" {
			break
		}
		current = next
	}

	result.Final = o.assembleFinal(result)
	result.ExecutionTime = time.Since(start)

	o.opts.Logger.Info(
		"swarm.run.complete",
		"status", string(result.Status),
		"nodes", len(result.NodeHistory),
		"handoffs", handoffs,
		"duration_ms", result.ExecutionTime.Milliseconds(),
	)

	return result
}

func (o *Orchestrator) failed(start time.Time, msg string) *Result {
	return &Result{
		Status:              StatusFailed,
		Final:               msg,
		IndividualResponses: map[string]string{},
		ExecutionTime:       time.Since(start),
	}
}

// buildTeam constructs one ModelAgent per retained key, each carrying the
// knowledge tool set, the hand-off tool, and the roster-extended domain
// prompt.
func (o *Orchestrator) buildTeam(keys []string, connector knowledge.Connector) (map[string]*agent.ModelAgent, []string) {
	roster := make([]string, 0, len(keys))
	defs := make([]expert.Definition, 0, len(keys))
	for _, key := range keys {
		def, ok := expert.Get(key)
		if !ok {
			continue
		}
		roster = append(roster, def.Name)
		defs = append(defs, def)
	}

	queryTool := knowledge.NewQueryTool(connector, expert.Keys())
	handoffTool := tool.NewHandoffToExpertTool()
	// Experts share one session; the state manager lets an expert leave
	// structured findings for whoever runs next.
	stateTool := tool.NewStateManagerTool()

	experts := make(map[string]*agent.ModelAgent, len(defs))
	for _, def := range defs {
		teammates := make([]string, 0, len(roster)-1)
		for _, name := range roster {
			if name != def.Name {
				teammates = append(teammates, name)
			}
		}

		prompt := expert.TeamPrompt(def, roster)
		ag := agent.NewModelAgent(def.Name, o.llm, func(mo *agent.ModelAgentOptions) {
			mo.Instruction = agent.NewInstructionFromText(prompt)
			mo.EnableStreaming = false
			mo.Teammates = teammates
		})
		ag.RegisterTools(queryTool, handoffTool, stateTool)

		experts[def.Name] = ag
	}

	return experts, roster
}

// nodeOutcome captures what one expert turn produced.
type nodeOutcome struct {
	contribution string
	handoff      string
}

// runNode executes a single expert turn against the shared session,
// persisting every non-partial event so later experts see the full
// conversation. It appends the node's contribution and tool-call trace to
// the result in place.
func (o *Orchestrator) runNode(
	ctx context.Context,
	store core.SessionStore,
	sessionID, runID, query string,
	ag *agent.ModelAgent,
	result *Result,
) (*nodeOutcome, error) {
	nodeCtx, cancel := context.WithTimeout(ctx, o.opts.NodeTimeout)
	defer cancel()

	sess, err := store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	emit := make(chan core.Event, 100)
	resume := make(chan struct{}, 1)

	rc := core.NewRunContext(
		nodeCtx, sessionID, runID,
		core.AgentInfo{Name: ag.Name(), Type: "model"},
		core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: query}}},
		o.opts.MaxModelCalls,
		emit, resume, sess, store, o.opts.Logger,
	)

	done := make(chan error, 1)
	go func() {
		done <- ag.Run(rc)
		close(emit)
	}()

	outcome := &nodeOutcome{}
	var segments []string
	var nodeErr error

	for ev := range emit {
		if ev.ErrorMessage != nil {
			nodeErr = fmt.Errorf("%s", *ev.ErrorMessage)
		}

		if !ev.IsPartial() {
			if err := store.AppendEvent(sessionID, ev); err != nil {
				o.opts.Logger.Warn("swarm.event.persist_failed", "error", err.Error())
			}
			if len(ev.Actions.StateDelta) > 0 {
				if err := store.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
					o.opts.Logger.Warn("swarm.event.delta_failed", "error", err.Error())
				}
			}
		}

		if ev.Author == ag.Name() && !ev.IsPartial() && ev.Content != nil && ev.Content.Role == "assistant" {
			if text := ev.GetTextContent(); text != "" {
				segments = append(segments, text)
			}
		}

		o.traceCalls(ag.Name(), ev, result)

		if ev.Actions.HandOff != nil && *ev.Actions.HandOff != "" {
			outcome.handoff = *ev.Actions.HandOff
		}

		if !ev.IsPartial() {
			select {
			case resume <- struct{}{}:
			default:
			}
		}
	}

	if runErr := <-done; runErr != nil && nodeErr == nil {
		nodeErr = runErr
	}

	result.NodeHistory = append(result.NodeHistory, ag.Name())

	if len(segments) > 0 {
		outcome.contribution = strings.Join(segments, contributionSeparator)
		if prior, ok := result.IndividualResponses[ag.Name()]; ok && prior != "" {
			result.IndividualResponses[ag.Name()] = prior + contributionSeparator + outcome.contribution
		} else {
			result.IndividualResponses[ag.Name()] = outcome.contribution
		}
	}

	return outcome, nodeErr
}

// traceCalls folds an event's function calls and responses into the result's
// tool-call trace, correlating responses to their originating calls by ID.
func (o *Orchestrator) traceCalls(agentName string, ev core.Event, result *Result) {
	for _, fc := range ev.GetFunctionCalls() {
		input := map[string]any{}
		if fc.Arguments != "" {
			if err := json.Unmarshal([]byte(fc.Arguments), &input); err != nil {
				input = map[string]any{"raw": fc.Arguments}
			}
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			Agent:  agentName,
			Tool:   fc.Name,
			Input:  input,
			ID:     fc.ID,
			Status: "called",
		})
	}

	for _, fr := range ev.GetFunctionResponses() {
		for i := len(result.ToolCalls) - 1; i >= 0; i-- {
			tc := &result.ToolCalls[i]
			if tc.ID != fr.ID || tc.Status != "called" {
				continue
			}
			if fr.Error != "" {
				tc.Status = "error"
				tc.ResultPreview = truncate(fr.Error, resultPreviewLimit)
			} else {
				tc.Status = "success"
				tc.ResultPreview = truncate(stringifyResult(fr.Response), resultPreviewLimit)
			}
			break
		}
	}
}

// assembleFinal joins per-expert contributions in execution order. When
// nothing was contributed and a node error stopped the run, the error text
// becomes the final answer.
func (o *Orchestrator) assembleFinal(result *Result) string {
	var parts []string
	seen := make(map[string]bool)
	for _, name := range result.NodeHistory {
		if seen[name] {
			continue
		}
		seen[name] = true
		if contribution := result.IndividualResponses[name]; contribution != "" {
			parts = append(parts, contribution)
		}
	}

	if len(parts) == 0 && result.nodeError != nil {
		return fmt.Sprintf("Expert analysis failed: %v", result.nodeError)
	}

	return strings.Join(parts, finalSeparator)
}

func stringifyResult(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	default:
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Sprintf("%v", r)
		}
		return string(b)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func contains(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}
