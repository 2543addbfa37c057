// Package flow provides execution flow management for swarm agents.
//
// Flows orchestrate the execution pipeline of an agent turn, allowing for
// modular and configurable processing of requests and responses. This design
// enables clean separation of concerns and easy extensibility.
package flow

import (
	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/model"
	"github.com/advcomp/expertswarm/tool"
)

// Flow defines the interface for agent execution flows.
//
// A flow orchestrates the complete execution pipeline of an agent turn,
// from processing the initial request to generating the final response.
// Different flow implementations provide different capabilities such as
// isolated execution or team execution with expert hand-offs.
type Flow interface {
	// Execute runs the flow with the given context and request.
	// It returns a channel of events that represent the execution progress.
	Execute(runCtx *core.RunContext) (<-chan core.Event, error)
}

// FlowAgent defines the interface that agents must implement to work with flows.
//
// This interface provides flows with access to agent capabilities without
// exposing the full agent implementation details.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the registered tools for function calling.
	GetTools() map[string]tool.Tool

	// GetTeammates returns the names of the other experts in this run's team.
	// Empty when the agent runs in isolation.
	GetTeammates() []string

	// IsFunctionCallingEnabled returns whether function calling is enabled.
	IsFunctionCallingEnabled() bool

	// IsStreamingEnabled returns whether streaming responses are enabled.
	IsStreamingEnabled() bool

	// IsHandoffEnabled returns whether the agent may hand off to teammates.
	IsHandoffEnabled() bool

	// GetOutputKey returns the session state key for saving responses.
	GetOutputKey() string

	// MaxHistoryMessages returns the maximum number of conversation history messages to keep.
	MaxHistoryMessages() int

	// ExecuteTool executes a named tool with the given arguments.
	ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (interface{}, error)
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the chat request before LLM execution.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor processes the response after receiving it from the LLM.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse handles the LLM response and may generate additional events.
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
