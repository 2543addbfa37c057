package flow

import (
	"fmt"
	"strings"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/model"
)

// HandoffToolInjector adds the handoff_to_expert tool definition to the
// request when the agent runs with teammates. The definition lists the valid
// targets so the model cannot invent expert names.
type HandoffToolInjector struct{}

// NewHandoffToolInjector creates a new hand-off tool injector.
func NewHandoffToolInjector() *HandoffToolInjector { return &HandoffToolInjector{} }

// Name returns the processor's identifier.
func (p *HandoffToolInjector) Name() string { return "handoff_injector" }

// ProcessRequest injects the hand-off tool definition (idempotent).
func (p *HandoffToolInjector) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	if !agent.IsHandoffEnabled() {
		return nil
	}

	teammates := agent.GetTeammates()
	if len(teammates) == 0 {
		return nil
	}

	if hasToolDefinition(req.Tools, "handoff_to_expert") {
		return nil
	}

	req.Tools = append(req.Tools, model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "handoff_to_expert",
			Description: fmt.Sprintf("Hand off the consultation to a teammate. Valid targets: %s", strings.Join(teammates, ", ")),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expert_name": map[string]any{
						"type":        "string",
						"enum":        teammates,
						"description": "Target expert name",
					},
					"message": map[string]any{
						"type":        "string",
						"description": "Optional context for the receiving expert",
					},
				},
				"required": []string{"expert_name"},
			},
		},
	})

	runCtx.LogDebug("flow.handoff_tool.injected", "agent", agent.GetName(), "teammates", len(teammates))

	return nil
}
