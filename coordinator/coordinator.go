// Package coordinator routes incoming queries: a deterministic rule router
// decides between a direct model answer and an expert swarm consultation,
// and every consultation is written back to conversation memory so later
// queries on the same topic can be answered without re-consulting.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/advcomp/expertswarm/agent"
	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/expert"
	"github.com/advcomp/expertswarm/logging"
	"github.com/advcomp/expertswarm/memory"
	"github.com/advcomp/expertswarm/model"
	"github.com/advcomp/expertswarm/runner"
	"github.com/advcomp/expertswarm/session"
	"github.com/advcomp/expertswarm/swarm"
	"github.com/advcomp/expertswarm/telemetry"
	"github.com/advcomp/expertswarm/tool"
)

// AgentName is the author name the coordinator agent emits events under.
const AgentName = "coordinator"

// DefaultActorID namespaces coordinator memory records per deployment.
const DefaultActorID = "advcomp-coordinator"

// noMemoryResult is returned by the search tool when nothing matches.
const noMemoryResult = "No relevant memory found."

// Options configures a Coordinator.
type Options struct {
	// Memory persists conversation exchanges. Nil disables memory: context
	// loading returns nothing and saves become no-ops.
	Memory memory.ConversationStore

	// Recorder receives routing and consultation telemetry. Optional.
	Recorder *telemetry.Recorder

	// ActorID scopes memory records. Defaults to DefaultActorID.
	ActorID string

	// MaxModelCalls bounds model invocations on the direct-answer path.
	// Zero keeps the runner default.
	MaxModelCalls int

	Logger logging.Logger
}

// Coordinator is the single entry agent of the service. It is safe for
// concurrent use; per-query state lives in the run, not the struct.
type Coordinator struct {
	llm      model.Model
	orch     *swarm.Orchestrator
	router   *Router
	sessions *session.InMemoryStore
	opts     Options
}

// New builds a Coordinator around the given hosted model and orchestrator.
func New(llm model.Model, orch *swarm.Orchestrator, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		ActorID: DefaultActorID,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ActorID == "" {
		opts.ActorID = DefaultActorID
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Coordinator{
		llm:      llm,
		orch:     orch,
		router:   NewRouter(),
		sessions: session.NewInMemoryStore(),
		opts:     opts,
	}
}

// Outcome is the coordinator's answer to one query.
type Outcome struct {
	// Answer is the final response text.
	Answer string

	// Swarm carries the structured consultation trace when experts ran,
	// whether the router or the model initiated the consult. Nil for
	// direct answers.
	Swarm *swarm.Result

	// Experts lists the domain keys consulted, in selection order.
	Experts []string

	// Reason names the routing rule that produced the answer.
	Reason string
}

// Respond answers a single query for the given session. The router is
// evaluated first; only when it yields a direct answer does the hosted
// model run, and even then the model may elect to consult through its
// tools. Consultation failures surface in the answer text, not as errors:
// an error return means the coordinator itself could not produce anything.
func (c *Coordinator) Respond(ctx context.Context, sessionID, query string) (*Outcome, error) {
	contextText := c.loadContext(ctx, sessionID)
	decision := c.router.Route(query, contextText)
	c.opts.Logger.Info("coordinator.route",
		"session_id", sessionID,
		"reason", decision.Reason,
		"experts", strings.Join(decision.Experts, ","),
	)
	if c.opts.Recorder != nil {
		c.opts.Recorder.LogQueryAnalysis(decision.Experts)
	}

	if decision.Consult {
		res := c.orch.Run(ctx, query, decision.Experts)
		c.persist(ctx, sessionID, query, res.Final, decision.Experts)
		return &Outcome{
			Answer:  res.Final,
			Swarm:   res,
			Experts: decision.Experts,
			Reason:  decision.Reason,
		}, nil
	}

	return c.respondDirect(ctx, sessionID, query, contextText, decision)
}

// respondDirect drives the coordinator agent through a runner. The agent
// carries the consultation and memory tools, so a model that disagrees
// with the router's direct verdict can still consult; the collector
// captures that result for the outcome.
func (c *Coordinator) respondDirect(ctx context.Context, sessionID, query, contextText string, decision Decision) (*Outcome, error) {
	collector := &consultCollector{}
	ag := c.buildAgent(contextText, collector)

	r := runner.New(ag, func(o *runner.Options) {
		o.SessionStore = c.sessions
		o.Logger = c.opts.Logger
		if c.opts.MaxModelCalls > 0 {
			o.MaxModelCalls = c.opts.MaxModelCalls
		}
	})

	content := core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: query}}}
	_, events, errs, err := r.Run(ctx, sessionID, content)
	if err != nil {
		return nil, fmt.Errorf("coordinator: start run: %w", err)
	}

	var answer string
	for ev := range events {
		if ev.IsPartial() || ev.Author != AgentName {
			continue
		}
		if text := ev.GetTextContent(); text != "" {
			answer = text
		}
	}
	var runErr error
	for e := range errs {
		if runErr == nil {
			runErr = e
		}
	}

	res, experts := collector.take()
	if answer == "" && res != nil {
		answer = res.Final
	}
	if answer == "" {
		if runErr != nil {
			return nil, fmt.Errorf("coordinator: run failed: %w", runErr)
		}
		return nil, fmt.Errorf("coordinator: model produced no answer")
	}
	if runErr != nil {
		c.opts.Logger.Warn("coordinator.run.partial_failure", "session_id", sessionID, "error", runErr.Error())
	}

	if res != nil {
		c.persist(ctx, sessionID, query, answer, experts)
		return &Outcome{Answer: answer, Swarm: res, Experts: experts, Reason: decision.Reason}, nil
	}
	return &Outcome{Answer: answer, Reason: decision.Reason}, nil
}

// buildAgent assembles the coordinator ModelAgent for one direct-path run.
// The agent is rebuilt per query because recent conversation context is
// folded into its instruction.
func (c *Coordinator) buildAgent(contextText string, collector *consultCollector) *agent.ModelAgent {
	prompt := policyPrompt
	if contextText != "" {
		prompt += contextHeader + contextText
	}

	ag := agent.NewModelAgent(AgentName, c.llm, func(mo *agent.ModelAgentOptions) {
		mo.Instruction = agent.NewInstructionFromText(prompt)
		mo.EnableStreaming = false
		mo.AllowHandoff = false
	})
	ag.RegisterTools(
		c.newConsultTool(collector),
		c.newSearchMemoryTool(),
		c.newSaveMemoryTool(),
	)
	return ag
}

// newConsultTool bridges the model to the swarm orchestrator. Invalid
// selections return the roster hint as the tool result so the model can
// correct itself instead of aborting the turn.
func (c *Coordinator) newConsultTool(collector *consultCollector) *tool.FunctionTool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The question to put to the expert team",
			},
			"experts": map[string]any{
				"type":        "string",
				"description": "Comma-separated expert names, e.g. \"hpc,genai\"",
			},
		},
		"required": []string{"query", "experts"},
	}

	return tool.NewFunctionTool(
		"consult_experts",
		"Consult the advanced computing expert team. Returns the combined expert analysis.",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			selection, _ := args["experts"].(string)

			keys := expert.ParseSelection(selection)
			res := c.orch.Run(tc.Context(), query, keys)
			collector.set(res, keys)
			return res.Final, nil
		},
	)
}

func (c *Coordinator) newSearchMemoryTool() *tool.FunctionTool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Topic to look up in conversation memory",
			},
		},
		"required": []string{"query"},
	}

	return tool.NewFunctionTool(
		"search_memory",
		"Search long-term conversation memory for previously explored topics.",
		schema,
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			if c.opts.Memory == nil {
				return noMemoryResult, nil
			}
			exchanges, err := c.opts.Memory.LoadContext(tc.Context(), c.opts.ActorID, tc.SessionID())
			if err != nil {
				c.opts.Logger.Warn("coordinator.memory.search_failed", "error", err.Error())
				return noMemoryResult, nil
			}
			formatted := memory.FormatContext(exchanges)
			if formatted == "" {
				return noMemoryResult, nil
			}
			return formatted, nil
		},
	)
}

func (c *Coordinator) newSaveMemoryTool() *tool.FunctionTool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_text": map[string]any{
				"type":        "string",
				"description": "The user's question",
			},
			"assistant_text": map[string]any{
				"type":        "string",
				"description": "The answer or key insights to remember",
			},
		},
		"required": []string{"user_text", "assistant_text"},
	}

	return tool.NewFunctionTool(
		"save_memory",
		"Save a conversation exchange to long-term memory.",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			if c.opts.Memory == nil {
				return map[string]any{"saved": false}, nil
			}
			userText, _ := args["user_text"].(string)
			assistantText, _ := args["assistant_text"].(string)
			if err := c.opts.Memory.SaveExchange(tc.Context(), c.opts.ActorID, tc.SessionID(), userText, assistantText, nil); err != nil {
				c.opts.Logger.Warn("coordinator.memory.save_failed", "error", err.Error())
				return map[string]any{"saved": false}, nil
			}
			return map[string]any{"saved": true}, nil
		},
	)
}

// loadContext reads recent exchanges for the session. Memory failures
// degrade to an empty context; routing then treats the query as fresh.
func (c *Coordinator) loadContext(ctx context.Context, sessionID string) string {
	if c.opts.Memory == nil {
		return ""
	}
	exchanges, err := c.opts.Memory.LoadContext(ctx, c.opts.ActorID, sessionID)
	if err != nil {
		c.opts.Logger.Warn("coordinator.memory.load_failed", "session_id", sessionID, "error", err.Error())
		return ""
	}
	return memory.FormatContext(exchanges)
}

// persist stores a consultation exchange with its expert annotation.
// Best effort: a failed save is logged and the response still goes out.
func (c *Coordinator) persist(ctx context.Context, sessionID, userText, assistantText string, experts []string) {
	if c.opts.Memory == nil || userText == "" || assistantText == "" {
		return
	}
	var annotation *memory.ExpertAnnotation
	if len(experts) > 0 {
		annotation = &memory.ExpertAnnotation{Experts: experts}
	}
	if err := c.opts.Memory.SaveExchange(ctx, c.opts.ActorID, sessionID, userText, assistantText, annotation); err != nil {
		c.opts.Logger.Warn("coordinator.memory.persist_failed", "session_id", sessionID, "error", err.Error())
	}
}

// consultCollector captures the swarm result produced inside a tool call so
// the outcome can surface the structured trace. Only the last consult of a
// run is kept.
type consultCollector struct {
	mu      sync.Mutex
	result  *swarm.Result
	experts []string
}

func (cc *consultCollector) set(res *swarm.Result, experts []string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.result = res
	cc.experts = experts
}

func (cc *consultCollector) take() (*swarm.Result, []string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.result, cc.experts
}
