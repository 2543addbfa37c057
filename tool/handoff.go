package tool

import (
	"fmt"

	"github.com/advcomp/expertswarm/core"
)

// handoffToExpertTool requests orchestration hand-off to a named expert.
type handoffToExpertTool struct{}

// NewHandoffToExpertTool constructs the hand-off tool instance. The swarm loop
// injects it into every expert that runs with teammates.
func NewHandoffToExpertTool() Tool { return &handoffToExpertTool{} }

func (t *handoffToExpertTool) Name() string { return "handoff_to_expert" }

func (t *handoffToExpertTool) Description() string {
	return "Hand off the consultation to another expert on your team by name. Use after finishing your own analysis."
}

func (t *handoffToExpertTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expert_name": map[string]any{"type": "string", "description": "Target expert name (e.g. quantum_expert)"},
			"message":     map[string]any{"type": "string", "description": "Optional context for the receiving expert"},
		},
		"required": []string{"expert_name"},
	}
}

func (t *handoffToExpertTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	raw, ok := args["expert_name"]
	if !ok {
		return nil, fmt.Errorf("missing required field 'expert_name'")
	}
	expertName, ok := raw.(string)
	if !ok || expertName == "" {
		return nil, fmt.Errorf("field 'expert_name' must be non-empty string")
	}
	tc.HandOff(expertName)
	result := map[string]any{"handed_off": true, "expert": expertName}
	if msg, ok := args["message"].(string); ok && msg != "" {
		result["message"] = msg
	}
	return result, nil
}
