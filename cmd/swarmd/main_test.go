package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advcomp/expertswarm/config"
	"github.com/advcomp/expertswarm/model/anthropic"
	"github.com/advcomp/expertswarm/model/openai"
)

func TestNewModel_AnthropicProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Models.Provider = config.ProviderAnthropic
	cfg.Models.MaxTokens = 2048

	m, err := newModel(context.Background(), cfg, "claude-sonnet-4-5", 0.2)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Model{}, m)
	assert.Equal(t, "claude-sonnet-4-5", m.Info().Name)
}

func TestNewModel_OpenAIProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Models.Provider = config.ProviderOpenAI

	m, err := newModel(context.Background(), cfg, "gpt-4o-mini", 0.4)
	require.NoError(t, err)
	assert.IsType(t, &openai.Model{}, m)
	assert.Equal(t, "gpt-4o-mini", m.Info().Name)
}

func TestNewModel_UnknownProviderFails(t *testing.T) {
	cfg := &config.Config{}
	cfg.Models.Provider = "gemini"

	_, err := newModel(context.Background(), cfg, "some-model", 0.2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model provider")
}
