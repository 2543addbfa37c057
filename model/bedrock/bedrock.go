// Package bedrock provides a model.Model implementation backed by the AWS
// Bedrock runtime invoking Anthropic Claude models. It speaks the Bedrock
// messages payload (anthropic_version "bedrock-2023-05-31") including
// function/tool calling via tool_use / tool_result content blocks.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/model"
)

const anthropicVersion = "bedrock-2023-05-31"

// Well-known inference profile ids used by the swarm. The coordinator runs on
// Haiku for faster routing; experts run on the default Sonnet profile.
const (
	ModelClaudeSonnet = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"
	ModelClaudeHaiku  = "us.anthropic.claude-haiku-4-5-20251001-v1:0"
)

// Options configure the Bedrock model adapter.
type Options struct {
	Model       string
	Region      string
	Temperature float64
	MaxTokens   int
	// MaxRetries sets the SDK retryer's maximum attempts (the first call
	// included). Ignored when Config or an existing client is supplied;
	// those carry their own retry settings.
	MaxRetries int
	// Config overrides the default AWS config resolution when set.
	Config *aws.Config
}

// Model wraps the Bedrock runtime InvokeModel API behind the generic
// model.Model interface.
type Model struct {
	client *bedrockruntime.Client
	opts   Options
}

// NewModel creates a new Bedrock-backed model resolving AWS credentials from
// the default chain (environment, shared config, instance role).
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       ModelClaudeSonnet,
		Temperature: 0.4,
		MaxTokens:   4096,
		MaxRetries:  2,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := loadConfig(ctx, opts)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	return &Model{
		client: bedrockruntime.NewFromConfig(*cfg),
		opts:   opts,
	}, nil
}

// loadConfig resolves AWS config from the default chain, carrying the
// region and retry settings into the SDK.
func loadConfig(ctx context.Context, opts Options) (*aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.MaxRetries > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(opts.MaxRetries))
	}
	loaded, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &loaded, nil
}

// NewModelFromClient creates a Bedrock model from an existing runtime client.
func NewModelFromClient(client *bedrockruntime.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       ModelClaudeSonnet,
		Temperature: 0.4,
		MaxTokens:   4096,
		MaxRetries:  2,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// request is the Bedrock Claude messages payload.
type request struct {
	AnthropicVersion string           `json:"anthropic_version"`
	Messages         []message        `json:"messages"`
	MaxTokens        int              `json:"max_tokens,omitempty"`
	Temperature      float64          `json:"temperature,omitempty"`
	System           string           `json:"system,omitempty"`
	Tools            []toolDefinition `json:"tools,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock is a union over text, tool_use and tool_result blocks.
type contentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

type toolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// response is the Bedrock Claude messages response.
type response struct {
	ID         string          `json:"id"`
	Role       string          `json:"role"`
	Content    []responseBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Usage      *usage          `json:"usage"`
}

type responseBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Generate implements model.Model. Bedrock InvokeModel is request/response;
// streaming requests fall back to a single final chunk.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		payload := request{
			AnthropicVersion: anthropicVersion,
			Messages:         buildMessages(req.Contents),
			MaxTokens:        m.opts.MaxTokens,
			Temperature:      m.opts.Temperature,
			System:           extractSystem(req.Contents),
			Tools:            buildTools(req.Tools),
		}

		body, err := json.Marshal(payload)
		if err != nil {
			errCh <- fmt.Errorf("failed to marshal request: %w", err)
			return
		}

		input := &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(m.opts.Model),
			Body:        body,
			ContentType: aws.String("application/json"),
		}

		// The SDK retryer handles throttling and transient faults.
		invokeOut, invokeErr := m.client.InvokeModel(ctx, input)
		if invokeErr != nil {
			errCh <- fmt.Errorf("failed to invoke Bedrock model: %w", invokeErr)
			return
		}

		var apiResp response
		if err := json.Unmarshal(invokeOut.Body, &apiResp); err != nil {
			errCh <- fmt.Errorf("failed to unmarshal response: %w", err)
			return
		}

		var parts []core.Part
		for _, block := range apiResp.Content {
			switch block.Type {
			case "text":
				if block.Text != "" {
					parts = append(parts, core.TextPart{Text: block.Text})
				}
			case "tool_use":
				args := ""
				if block.Input != nil {
					if argsBytes, err := json.Marshal(block.Input); err == nil {
						args = string(argsBytes)
					}
				}
				parts = append(parts, core.FunctionCallPart{
					FunctionCall: core.FunctionCall{
						ID:        block.ID,
						Name:      block.Name,
						Arguments: args,
					},
				})
			}
		}

		finishReason := "stop"
		if apiResp.StopReason != "" {
			finishReason = apiResp.StopReason
		}

		resp := model.Response{
			ID:           apiResp.ID,
			Partial:      false,
			Content:      core.Content{Role: "assistant", Parts: parts},
			FinishReason: finishReason,
		}
		if apiResp.Usage != nil {
			resp.Usage = &model.TokenUsage{
				PromptTokens:     apiResp.Usage.InputTokens,
				CompletionTokens: apiResp.Usage.OutputTokens,
				TotalTokens:      apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
			}
		}
		out <- resp
	}()

	return out, errCh
}

// Info returns metadata describing this Bedrock model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "bedrock",
		SupportsTools: true,
	}
}

// extractSystem concatenates system-role text parts into the system prompt.
func extractSystem(contents []core.Content) string {
	system := ""
	for _, c := range contents {
		if c.Role != "system" {
			continue
		}
		for _, p := range c.Parts {
			if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
				if system != "" {
					system += "\n\n"
				}
				system += tp.Text
			}
		}
	}
	return system
}

// buildMessages converts generic contents to Bedrock Claude messages. Tool
// responses become user-role tool_result blocks immediately after the
// assistant turn carrying the matching tool_use block.
func buildMessages(contents []core.Content) []message {
	var messages []message

	for _, c := range contents {
		switch c.Role {
		case "system":
			continue
		case "tool":
			var blocks []contentBlock
			for _, p := range c.Parts {
				fr, ok := p.(core.FunctionResponsePart)
				if !ok {
					continue
				}
				content := ""
				if fr.FunctionResponse.Error != "" {
					content = fr.FunctionResponse.Error
				} else if s, ok := fr.FunctionResponse.Response.(string); ok {
					content = s
				} else if fr.FunctionResponse.Response != nil {
					if data, err := json.Marshal(fr.FunctionResponse.Response); err == nil {
						content = string(data)
					}
				}
				blocks = append(blocks, contentBlock{
					Type:      "tool_result",
					ToolUseID: fr.FunctionResponse.ID,
					Content:   content,
					IsError:   fr.FunctionResponse.Error != "",
				})
			}
			if len(blocks) > 0 {
				messages = append(messages, message{Role: "user", Content: blocks})
			}
		case "assistant":
			var blocks []contentBlock
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					if part.Text != "" {
						blocks = append(blocks, contentBlock{Type: "text", Text: part.Text})
					}
				case core.FunctionCallPart:
					input := map[string]any{}
					if part.FunctionCall.Arguments != "" {
						_ = json.Unmarshal([]byte(part.FunctionCall.Arguments), &input)
					}
					blocks = append(blocks, contentBlock{
						Type:  "tool_use",
						ID:    part.FunctionCall.ID,
						Name:  part.FunctionCall.Name,
						Input: input,
					})
				}
			}
			if len(blocks) > 0 {
				messages = append(messages, message{Role: "assistant", Content: blocks})
			}
		default: // user and unknown roles
			var blocks []contentBlock
			for _, p := range c.Parts {
				if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
					blocks = append(blocks, contentBlock{Type: "text", Text: tp.Text})
				}
			}
			if len(blocks) > 0 {
				messages = append(messages, message{Role: "user", Content: blocks})
			}
		}
	}

	return messages
}

// buildTools converts generic tool definitions to Bedrock Claude tool format.
func buildTools(tools []model.ToolDefinition) []toolDefinition {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]toolDefinition, len(tools))
	for i, t := range tools {
		schema := t.Function.Parameters
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		defs[i] = toolDefinition{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: schema,
		}
	}
	return defs
}
