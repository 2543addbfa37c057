package flow

import (
	"fmt"

	"github.com/advcomp/expertswarm/core"
	internalutil "github.com/advcomp/expertswarm/internal/util"
	"github.com/advcomp/expertswarm/model"
)

// InstructionsProcessor handles system prompt and instruction processing.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest adds system instructions to the chat request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	if runCtx.Session != nil && runCtx.Session.State != nil {
		var tplErr error
		// Apply template substitution to system prompt using session state
		req.Instructions, tplErr = internalutil.RenderTemplate(instructions, runCtx.Session.State)
		if tplErr != nil {
			return fmt.Errorf("failed to render template: %w", tplErr)
		}
	} else {
		req.Instructions = instructions
	}

	return nil
}

// ContentsProcessor assembles the message contents sent to the model.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest adds the system prompt and conversation history to the chat request.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	contents := []core.Content{{
		Role:  "system",
		Parts: []core.Part{core.TextPart{Text: req.Instructions}},
	}}

	// Add conversation history if available
	if runCtx.Session != nil {
		events := runCtx.Session.GetConversationHistory()
		if len(events) > agent.MaxHistoryMessages() {
			events = events[len(events)-agent.MaxHistoryMessages():]
		}

		for _, ev := range events {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				contents = append(contents, *ev.Content)
			}
		}
	}

	req.Contents = contents
	return nil
}
