package bedrock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/model"
)

func TestBuildMessages_RolesAndToolBlocks(t *testing.T) {
	contents := []core.Content{
		{Role: "system", Parts: []core.Part{core.TextPart{Text: "be helpful"}}},
		{Role: "user", Parts: []core.Part{core.TextPart{Text: "size a cluster"}}},
		{Role: "assistant", Parts: []core.Part{
			core.TextPart{Text: "let me check"},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "call-1", Name: "query_knowledge_base", Arguments: `{"query":"hpc"}`}},
		}},
		{Role: "tool", Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "call-1", Name: "query_knowledge_base", Response: "kb answer"}},
		}},
	}

	msgs := buildMessages(contents)
	require.Len(t, msgs, 3, "system role is lifted out of messages")

	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "size a cluster", msgs[0].Content[0].Text)

	assert.Equal(t, "assistant", msgs[1].Role)
	require.Len(t, msgs[1].Content, 2)
	assert.Equal(t, "tool_use", msgs[1].Content[1].Type)
	assert.Equal(t, "call-1", msgs[1].Content[1].ID)
	assert.Equal(t, "hpc", msgs[1].Content[1].Input["query"])

	assert.Equal(t, "user", msgs[2].Role)
	assert.Equal(t, "tool_result", msgs[2].Content[0].Type)
	assert.Equal(t, "call-1", msgs[2].Content[0].ToolUseID)
	assert.Equal(t, "kb answer", msgs[2].Content[0].Content)
}

func TestExtractSystem(t *testing.T) {
	contents := []core.Content{
		{Role: "system", Parts: []core.Part{core.TextPart{Text: "first"}}},
		{Role: "system", Parts: []core.Part{core.TextPart{Text: "second"}}},
		{Role: "user", Parts: []core.Part{core.TextPart{Text: "ignored"}}},
	}
	assert.Equal(t, "first\n\nsecond", extractSystem(contents))
}

func TestBuildTools(t *testing.T) {
	defs := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "handoff_to_expert",
			Description: "hand off",
			Parameters:  map[string]any{"type": "object"},
		},
	}})
	require.Len(t, defs, 1)
	assert.Equal(t, "handoff_to_expert", defs[0].Name)
	assert.Equal(t, "object", defs[0].InputSchema["type"])

	assert.Nil(t, buildTools(nil))
}

func TestNewModelFromClient_Defaults(t *testing.T) {
	m := NewModelFromClient(nil)
	info := m.Info()
	assert.Equal(t, ModelClaudeSonnet, info.Name)
	assert.Equal(t, "bedrock", info.Provider)
	assert.True(t, info.SupportsTools)
}

func TestLoadConfig_RetrySettings(t *testing.T) {
	cfg, err := loadConfig(context.Background(), Options{Region: "us-east-1", MaxRetries: 5})
	require.NoError(t, err)

	// Retries belong to the SDK retryer, not a hand-rolled invoke loop.
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 5, cfg.RetryMaxAttempts)
}

func TestOptionsOverride(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) {
		o.Model = ModelClaudeHaiku
		o.Temperature = 0.2
	})
	assert.Equal(t, ModelClaudeHaiku, m.Info().Name)
	assert.Equal(t, 0.2, m.opts.Temperature)
}
