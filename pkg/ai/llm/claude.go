package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeBackend wraps the Anthropic Messages API as a Backend.
type ClaudeBackend struct {
	client anthropic.Client
}

// NewClaudeBackend builds a ClaudeBackend from an API key. An empty key is
// accepted so the gateway can be constructed in tests without credentials;
// Complete will fail at call time in that case.
func NewClaudeBackend(apiKey string) *ClaudeBackend {
	return &ClaudeBackend{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (b *ClaudeBackend) Name() string { return string(ProviderClaude) }

func (b *ClaudeBackend) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	var system string
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if tb := block.AsAny(); tb != nil {
			if t, ok := tb.(anthropic.TextBlock); ok {
				text += t.Text
			}
		}
	}

	inputChars := 0
	for _, m := range req.Messages {
		inputChars += len(m.Content)
	}

	return &CompletionResponse{
		Text:         text,
		InputChars:   inputChars,
		OutputChars:  len(text),
		FinishReason: string(msg.StopReason),
	}, nil
}
