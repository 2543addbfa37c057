// Package handler turns raw invocation payloads into wire responses. It
// normalizes the payload, drives the coordinator, records per-invocation
// telemetry, and builds the double-encoded response envelope. Handle never
// panics and never returns a raw error to the wire.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/advcomp/expertswarm/coordinator"
	"github.com/advcomp/expertswarm/knowledge"
	"github.com/advcomp/expertswarm/logging"
	"github.com/advcomp/expertswarm/memory"
	"github.com/advcomp/expertswarm/model"
	"github.com/advcomp/expertswarm/swarm"
	"github.com/advcomp/expertswarm/telemetry"
)

// Envelope statuses on the outer response.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// sessionIDPrefix starts every generated session id.
const sessionIDPrefix = "advcomp-session-"

// defaultQuery stands in when a map payload omits the prompt field.
const defaultQuery = "No query provided"

// Response is the outer wire envelope. Response carries the inner payload
// as a JSON string so transport layers that only pass strings survive it.
type Response struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

// Options configures a Handler.
type Options struct {
	// Memory persists conversation exchanges across invocations. Optional.
	Memory memory.ConversationStore

	// NewConnector builds the knowledge connector for swarm runs when the
	// payload enables external knowledge. Defaults to the mock connector.
	NewConnector func(ctx context.Context) knowledge.Connector

	// SwarmOptions tune each per-invocation orchestrator (bounds, timeouts).
	SwarmOptions []func(o *swarm.Options)

	// CoordinatorOptions tune each per-invocation coordinator.
	CoordinatorOptions []func(o *coordinator.Options)

	Logger logging.Logger
}

// Handler services invocations. Safe for concurrent use: each invocation
// gets its own recorder, orchestrator, and coordinator, so telemetry
// sessions never interleave.
type Handler struct {
	coordModel  model.Model
	expertModel model.Model
	opts        Options
}

// New builds a Handler. The coordinator and the experts may run on
// different hosted models.
func New(coordModel, expertModel model.Model, optFns ...func(o *Options)) *Handler {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Handler{coordModel: coordModel, expertModel: expertModel, opts: opts}
}

// Handle services one invocation end to end.
func (h *Handler) Handle(ctx context.Context, payload any) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.opts.Logger.Error("handler.panic", "panic", fmt.Sprintf("%v", r))
			resp = Response{Response: fmt.Sprintf("Error: %v", r), Status: statusError}
		}
	}()

	req, err := normalizePayload(payload)
	if err != nil {
		h.opts.Logger.Warn("handler.payload.rejected", "error", err.Error())
		return Response{Response: "Error: " + err.Error(), Status: statusError}
	}
	if req.SessionID == "" {
		req.SessionID = newSessionID()
	}
	h.opts.Logger.Info("handler.invocation.start",
		"session_id", req.SessionID,
		"query_len", len(req.Query),
		"enable_mcp", req.EnableMCP,
	)

	m := newMachine(req.SessionID, h.opts.Logger)

	rec := telemetry.NewRecorder(func(o *telemetry.RecorderOptions) {
		o.Logger = h.opts.Logger
	})
	rec.StartSession(req.SessionID)
	rec.LogEvent("query_received", map[string]any{"query": req.Query})

	coord := h.buildCoordinator(req.EnableMCP, rec)
	out, err := coord.Respond(ctx, req.SessionID, req.Query)
	if err != nil {
		h.opts.Logger.Error("handler.coordinator.failed", "session_id", req.SessionID, "error", err.Error())
		m.to(stateFailed)
		rec.EndSession()
		return Response{
			Response: fmt.Sprintf("Error executing coordinator: %v", err),
			Status:   statusError,
		}
	}
	m.to(stateContextLoaded)

	if out.Swarm != nil {
		m.to(stateSwarmConsulted)
	} else {
		m.to(stateDirectAnswer)
		rec.LogAgentResponse(coordinator.AgentName, out.Answer)
	}

	inner := buildInner(req.SessionID, out)
	if len(inner.toolCalls) > 0 {
		rec.LogEvent("tool_calls", map[string]any{
			"count": len(inner.toolCalls),
			"calls": inner.toolCalls,
		})
	}
	rec.EndSession()
	inner.Telemetry = rec.Events()
	m.to(stateResponseBuilt)

	// Consult exchanges were written to memory inside Respond.
	m.to(statePersisted)

	encoded := encodeInner(inner, h.opts.Logger)
	m.to(stateReturned)
	h.opts.Logger.Info("handler.invocation.done",
		"session_id", req.SessionID,
		"status", inner.Status,
		"agents", strings.Join(inner.AgentSequence, ","),
	)
	return Response{Response: encoded, Status: statusSuccess}
}

// buildCoordinator assembles the per-invocation coordinator stack sharing
// one telemetry recorder.
func (h *Handler) buildCoordinator(enableMCP bool, rec *telemetry.Recorder) *coordinator.Coordinator {
	swarmFns := append([]func(o *swarm.Options){}, h.opts.SwarmOptions...)
	swarmFns = append(swarmFns, func(o *swarm.Options) {
		o.Logger = h.opts.Logger
		o.Recorder = rec
		if enableMCP && h.opts.NewConnector != nil {
			o.NewConnector = h.opts.NewConnector
		} else {
			o.NewConnector = func(context.Context) knowledge.Connector {
				return knowledge.NewMockConnector()
			}
		}
	})
	orch := swarm.NewOrchestrator(h.expertModel, swarmFns...)

	coordFns := append([]func(o *coordinator.Options){}, h.opts.CoordinatorOptions...)
	coordFns = append(coordFns, func(o *coordinator.Options) {
		o.Memory = h.opts.Memory
		o.Recorder = rec
		o.Logger = h.opts.Logger
	})
	return coordinator.New(h.coordModel, orch, coordFns...)
}

// request is a normalized invocation payload.
type request struct {
	Query     string
	SessionID string
	EnableMCP bool
}

// normalizePayload accepts the payload shapes the wire can produce: a
// decoded JSON object, a bare string, or raw JSON bytes. Anything else is
// rejected with a structured error.
func normalizePayload(payload any) (request, error) {
	switch p := payload.(type) {
	case map[string]any:
		req := request{Query: defaultQuery, EnableMCP: true}
		if prompt, ok := p["prompt"].(string); ok && prompt != "" {
			req.Query = prompt
		}
		if sid, ok := p["session_id"].(string); ok {
			req.SessionID = sid
		}
		if enable, ok := p["enable_mcp"].(bool); ok {
			req.EnableMCP = enable
		}
		return req, nil
	case string:
		return request{Query: p, EnableMCP: true}, nil
	case []byte:
		return normalizeRaw(p)
	case json.RawMessage:
		return normalizeRaw(p)
	case nil:
		return request{}, fmt.Errorf("unknown payload format: <nil>")
	default:
		return request{}, fmt.Errorf("unknown payload format: %T", payload)
	}
}

func normalizeRaw(raw []byte) (request, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return request{}, fmt.Errorf("invalid JSON payload: %v", err)
	}
	switch decoded.(type) {
	case map[string]any, string:
		return normalizePayload(decoded)
	default:
		return request{}, fmt.Errorf("unknown payload format: %T", decoded)
	}
}

func newSessionID() string {
	id := uuid.New()
	return sessionIDPrefix + fmt.Sprintf("%x", id[:6])
}

// innerPayload is the structured response embedded as a JSON string in the
// outer envelope.
type innerPayload struct {
	Response            string            `json:"response"`
	AgentSequence       []string          `json:"agent_sequence"`
	DomainsInvolved     []string          `json:"domains_involved"`
	Status              string            `json:"status"`
	ExecutionTimeMs     int64             `json:"execution_time_ms"`
	SessionID           string            `json:"session_id"`
	IndividualResponses map[string]string `json:"individual_responses"`
	Telemetry           []telemetry.Event `json:"telemetry"`

	toolCalls []swarm.ToolCall
}

// buildInner maps a coordinator outcome onto the wire payload. The agent
// sequence always starts with the coordinator; experts follow in the order
// they ran.
func buildInner(sessionID string, out *coordinator.Outcome) innerPayload {
	inner := innerPayload{
		Response:            out.Answer,
		AgentSequence:       []string{coordinator.AgentName},
		DomainsInvolved:     []string{},
		Status:              string(swarm.StatusCompleted),
		SessionID:           sessionID,
		IndividualResponses: map[string]string{},
	}

	if out.Swarm == nil {
		inner.IndividualResponses[coordinator.AgentName] = out.Answer
		return inner
	}

	res := out.Swarm
	inner.AgentSequence = append(inner.AgentSequence, res.NodeHistory...)
	inner.DomainsInvolved = append(inner.DomainsInvolved, res.NodeHistory...)
	inner.Status = string(res.Status)
	inner.ExecutionTimeMs = res.ExecutionTimeMs()
	for name, text := range res.IndividualResponses {
		inner.IndividualResponses[name] = text
	}
	inner.toolCalls = res.ToolCalls
	return inner
}

// encodeInner marshals the inner payload. On marshal failure it degrades to
// a stringified variant so the caller still receives structured output.
func encodeInner(inner innerPayload, logger logging.Logger) string {
	data, err := json.Marshal(inner)
	if err == nil {
		return string(data)
	}
	logger.Error("handler.response.marshal_failed", "error", err.Error())

	safe := map[string]any{
		"response":          inner.Response,
		"agent_sequence":    inner.AgentSequence,
		"domains_involved":  inner.DomainsInvolved,
		"status":            inner.Status,
		"execution_time_ms": inner.ExecutionTimeMs,
		"session_id":        inner.SessionID,
	}
	data, err = json.Marshal(safe)
	if err == nil {
		return string(data)
	}
	logger.Error("handler.response.marshal_fallback_failed", "error", err.Error())
	return `{"response":` + strconv.Quote(inner.Response) + `,"status":` + strconv.Quote(inner.Status) + `}`
}
