package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/model"
	"github.com/advcomp/expertswarm/tool"
)

func TestModelAgent_NewAgent(t *testing.T) {
	mockLLM := model.NewMockModel("test-model", "mock")
	agent := NewModelAgent("Test Agent", mockLLM)

	assert.NotNil(t, agent)
	assert.Equal(t, mockLLM, agent.llm)
	assert.NotNil(t, agent.tools)
	assert.Empty(t, agent.tools)
	assert.True(t, agent.enableStreaming)
	assert.True(t, agent.enableFunctionCalling)
	assert.True(t, agent.IsHandoffEnabled())
}

func TestModelAgent_Options(t *testing.T) {
	mockLLM := model.NewMockModel("test-model", "mock")
	agent := NewModelAgent("hpc_expert", mockLLM, func(o *ModelAgentOptions) {
		o.EnableStreaming = false
		o.AllowHandoff = false
		o.Teammates = []string{"quantum_expert", "iot_expert"}
		o.OutputKey = "hpc_answer"
		o.MaxHistoryMessages = 6
	})

	assert.False(t, agent.IsStreamingEnabled())
	assert.False(t, agent.IsHandoffEnabled())
	assert.Equal(t, []string{"quantum_expert", "iot_expert"}, agent.GetTeammates())
	assert.Equal(t, "hpc_answer", agent.GetOutputKey())
	assert.Equal(t, 6, agent.MaxHistoryMessages())
}

func TestModelAgent_ToolRegistry(t *testing.T) {
	agent := NewModelAgent("coordinator", model.NewMockModel("m", "mock"))

	echo := tool.NewFunctionTool("echo", "echoes input", map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
	}, func(tc *core.ToolContext, args map[string]any) (any, error) {
		return args["text"], nil
	})

	agent.RegisterTool(echo)
	assert.True(t, agent.HasTool("echo"))
	assert.Contains(t, agent.ListTools(), "echo")

	got, ok := agent.GetTool("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	assert.True(t, agent.UnregisterTool("echo"))
	assert.False(t, agent.HasTool("echo"))
	assert.False(t, agent.UnregisterTool("echo"))
}

func TestModelAgent_Run(t *testing.T) {
	mockLLM := model.NewMockModel("test-model", "mock")
	mockLLM.AddResponse("hello", "Hi there!")
	agent := NewModelAgent("coordinator", mockLLM, func(o *ModelAgentOptions) {
		o.EnableStreaming = false
	})

	rc, emit := newAgentRunContext(t)
	require.NoError(t, rc.SessionStore.AppendEvent("sess", core.NewUserMessageEvent(rc.RunID, "hello")))

	done := make(chan error, 1)
	go func() { done <- agent.Run(rc) }()

	var final *core.Event
	for {
		select {
		case ev := <-emit:
			if ev.IsFinalResponse() {
				final = &ev
			}
		case err := <-done:
			require.NoError(t, err)
			require.NotNil(t, final)
			assert.Equal(t, "Hi there!", final.GetTextContent())
			return
		}
	}
}
