package flow

import (
	"fmt"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/model"
)

// BaseFlow is a minimal single-agent flow implementation that supports a
// request -> LLM -> (optional tool loop) cycle with pluggable pre/post processors.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	executor           FunctionExecutor
}

// NewBaseFlow creates a new basic single-agent flow.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:              agent,
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
		executor:           NewParallelFunctionExecutor(FunctionExecutorConfig{PreserveOrder: true}),
	}
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed after each model chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// Execute launches the flow asynchronously and returns a channel of Events.
// The channel is closed when a final response is emitted or an unrecoverable
// error occurs. Callers should range over the returned channel.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	eventChan := make(chan core.Event, 100)

	go func() {
		defer close(eventChan)

		for {
			last := f.runOnce(runCtx, eventChan)
			if last == nil {
				break
			}
			// A function response means the model gets another turn
			if len(last.GetFunctionResponses()) > 0 {
				// A pending hand-off ends this agent's turn; the swarm loop
				// decides who runs next.
				if last.Actions.HandOff != nil {
					break
				}
				continue
			}
			if last.IsPartial() {
				runCtx.LogWarn("flow.unexpected_partial", "agent", f.agent.GetName())
				break
			}
			if last.IsFinalResponse() {
				break
			}
		}
	}()

	return eventChan, nil
}

// emitError converts an internal error to a system Event.
func (f *BaseFlow) emitError(eventChan chan<- core.Event, err error) {
	ev := core.NewEvent("", "system")
	msg := err.Error()
	ev.ErrorMessage = &msg
	eventChan <- ev
}

// runOnce performs one model turn (including any tool executions) and returns
// the last emitted Event (final or intermediate). A nil return signals termination.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) *core.Event {
	// Refresh session snapshot so request processors see the latest
	// conversation (including tool responses)
	if runCtx.SessionStore != nil {
		if latest, err := runCtx.SessionStore.Get(runCtx.SessionID); err == nil && latest != nil {
			runCtx.Session = latest
		}
	}

	if runCtx.Limiter != nil {
		if err := runCtx.Limiter.Increment(); err != nil {
			f.emitError(eventChan, err)
			return nil
		}
	}

	req := new(model.Request)
	req.Stream = f.agent.IsStreamingEnabled()

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			f.emitError(eventChan, fmt.Errorf("request processor %s failed: %w", processor.Name(), err))
			return nil
		}
	}

	// Build tool definitions from the agent registry; injectors may have
	// already added synthetic definitions (e.g. the hand-off tool).
	if f.agent.IsFunctionCallingEnabled() {
		tools := f.agent.GetTools()
		for _, t := range tools {
			if hasToolDefinition(req.Tools, t.Name()) {
				continue
			}
			req.Tools = append(req.Tools, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}
	}

	llm := f.agent.GetLLM()

	respCh, errCh := llm.Generate(runCtx.Context, *req)

	var lastEvent *core.Event

loop:
	for {
		select {
		case resp, ok := <-respCh:
			if !ok {
				break loop
			}

			for _, processor := range f.responseProcessors {
				if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
					f.emitError(eventChan, fmt.Errorf("response processor %s failed: %w", processor.Name(), err))
					return nil
				}
			}

			ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
			ev.Content = &resp.Content
			ev.Partial = &resp.Partial

			// Mark turn complete if this is a final assistant response with no pending tool calls
			if !resp.Partial && len(ev.GetFunctionCalls()) == 0 {
				complete := true
				ev.TurnComplete = &complete
				f.saveOutput(runCtx, resp.Content)
			}

			lastEvent = &ev

			eventChan <- ev

			// Wait for session persistence (runner sends resume after append)
			if !ev.IsPartial() && runCtx.Resume != nil {
				select {
				case <-runCtx.Context.Done():
					return lastEvent
				case <-runCtx.Resume:
				}
			}

			if fnCalls := ev.GetFunctionCalls(); len(fnCalls) > 0 {
				f.executor.Execute(runCtx, f.agent, f.agent.GetTools(), fnCalls, func(respEv core.Event) error {
					lastEvent = &respEv
					eventChan <- respEv

					// Wait for session persistence of tool response
					if runCtx.Resume != nil {
						select {
						case <-runCtx.Context.Done():
							return runCtx.Context.Err()
						case <-runCtx.Resume:
						}
					}
					return nil
				})
			}
		case err, ok := <-errCh:
			if ok && err != nil {
				runCtx.LogError("flow.model.error", "agent", f.agent.GetName(), "error", err.Error())
				f.emitError(eventChan, err)
				return nil
			}
			break loop
		}
	}

	return lastEvent
}

// saveOutput stages the final response text under the agent's output key.
func (f *BaseFlow) saveOutput(runCtx *core.RunContext, content core.Content) {
	key := f.agent.GetOutputKey()
	if key == "" {
		return
	}
	var text string
	for _, p := range content.Parts {
		if tp, ok := p.(core.TextPart); ok {
			text += tp.Text
		}
	}
	if text != "" {
		runCtx.SetState(key, text)
	}
}

func hasToolDefinition(defs []model.ToolDefinition, name string) bool {
	for _, d := range defs {
		if d.Function.Name == name {
			return true
		}
	}
	return false
}
