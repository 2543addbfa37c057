package tool

import (
	"fmt"
	"strings"

	"github.com/advcomp/expertswarm/core"
)

// StateManagerTool provides operations for managing session state through
// ToolContext: reading and writing state, agent flow control (hand-off,
// escalate) and inspecting conversation history.
type StateManagerTool struct {
	name        string
	description string
}

// NewStateManagerTool creates a new state management tool.
func NewStateManagerTool() *StateManagerTool {
	return &StateManagerTool{
		name: "state_manager",
		description: "Manages session state and agent flow control. " +
			"Supports operations: get_state, set_state, handoff_expert, escalate, " +
			"get_session_history, skip_summarization.",
	}
}

// Name returns the tool identifier.
func (t *StateManagerTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *StateManagerTool) Description() string {
	return t.description
}

// Parameters returns the JSON schema for tool parameters.
func (t *StateManagerTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type": "string",
				"enum": []string{
					"get_state", "set_state", "handoff_expert", "escalate",
					"get_session_history", "skip_summarization",
				},
				"description": "The state management operation to perform",
			},
			"key": map[string]interface{}{
				"type":        "string",
				"description": "State key for get_state/set_state operations",
			},
			"value": map[string]interface{}{
				"description": "Value for set_state operations (any type)",
			},
			"expert_name": map[string]interface{}{
				"type":        "string",
				"description": "Expert name for handoff_expert operation",
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *StateManagerTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "get_state":
		return t.handleGetState(args, toolCtx)
	case "set_state":
		return t.handleSetState(args, toolCtx)
	case "handoff_expert":
		return t.handleHandoff(args, toolCtx)
	case "escalate":
		return t.handleEscalate(args, toolCtx)
	case "get_session_history":
		return t.handleGetSessionHistory(args, toolCtx)
	case "skip_summarization":
		return t.handleSkipSummarization(args, toolCtx)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

// handleGetState retrieves a value from session state.
func (t *StateManagerTool) handleGetState(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for get_state operation")
	}

	value, exists := toolCtx.GetState(key)
	if !exists {
		return map[string]interface{}{
			"key":    key,
			"exists": false,
			"value":  nil,
		}, nil
	}

	return map[string]interface{}{
		"key":    key,
		"exists": true,
		"value":  value,
	}, nil
}

// handleSetState sets a value in session state.
func (t *StateManagerTool) handleSetState(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for set_state operation")
	}

	value := args["value"] // Can be any type

	toolCtx.SetState(key, value)

	return map[string]interface{}{
		"key":     key,
		"value":   value,
		"success": true,
		"message": fmt.Sprintf("State key '%s' set successfully", key),
	}, nil
}

// handleHandoff initiates a hand-off to another expert.
func (t *StateManagerTool) handleHandoff(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	expertName, ok := args["expert_name"].(string)
	if !ok {
		return nil, fmt.Errorf("expert_name parameter is required for handoff_expert operation")
	}

	toolCtx.HandOff(expertName)

	return map[string]interface{}{
		"expert_name": expertName,
		"success":     true,
		"message":     fmt.Sprintf("Hand-off to expert '%s' initiated", expertName),
	}, nil
}

// handleEscalate initiates escalation.
func (t *StateManagerTool) handleEscalate(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	toolCtx.Escalate()

	return map[string]interface{}{
		"success": true,
		"message": "Escalation initiated",
	}, nil
}

// handleGetSessionHistory retrieves session history.
func (t *StateManagerTool) handleGetSessionHistory(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	history := toolCtx.GetSessionHistory()

	// Convert events to a more readable format
	events := make([]map[string]interface{}, len(history))
	for i, ev := range history {
		events[i] = map[string]interface{}{
			"id":          ev.ID,
			"author":      ev.Author,
			"timestamp":   ev.Timestamp,
			"partial":     ev.Partial,
			"has_content": ev.Content != nil,
		}
		if ev.Content != nil && len(ev.Content.Parts) > 0 {
			var contentSummary []string
			for _, part := range ev.Content.Parts {
				switch p := part.(type) {
				case core.TextPart:
					preview := p.Text
					if len(preview) > 100 {
						preview = preview[:100] + "..."
					}
					contentSummary = append(contentSummary, fmt.Sprintf("text: %s", preview))
				case core.FunctionCallPart:
					contentSummary = append(contentSummary, fmt.Sprintf("function_call: %s", p.FunctionCall.Name))
				case core.FunctionResponsePart:
					contentSummary = append(contentSummary, fmt.Sprintf("function_response: %s", p.FunctionResponse.Name))
				default:
					contentSummary = append(contentSummary, "other")
				}
			}
			events[i]["content_summary"] = strings.Join(contentSummary, ", ")
		}
	}

	return map[string]interface{}{
		"events":  events,
		"count":   len(events),
		"success": true,
	}, nil
}

// handleSkipSummarization sets the skip summarization flag.
func (t *StateManagerTool) handleSkipSummarization(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	toolCtx.SkipSummarization()

	return map[string]interface{}{
		"success": true,
		"message": "Summarization will be skipped for this interaction",
	}, nil
}
