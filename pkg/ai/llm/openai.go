package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIBackend routes completions through langchaingo's OpenAI provider.
// It is the only backend built on langchaingo; in proxy mode the CLI uses
// it for every provider.
type OpenAIBackend struct {
	model string
	llm   *openai.LLM
}

// NewOpenAIBackend builds an OpenAIBackend bound to model, using apiKey (or
// baseURL for an OpenAI-compatible proxy, when non-empty).
func NewOpenAIBackend(apiKey, baseURL, model string) (*OpenAIBackend, error) {
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai backend: %w", err)
	}
	return &OpenAIBackend{model: model, llm: llm}, nil
}

func (b *OpenAIBackend) Name() string { return string(ProviderOpenAI) }

func (b *OpenAIBackend) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "assistant":
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	callOpts := []llms.CallOption{}
	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(float64(req.Temperature)))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.RequestJSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := b.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	inputChars := 0
	for _, m := range req.Messages {
		inputChars += len(m.Content)
	}

	return &CompletionResponse{
		Text:         resp.Choices[0].Content,
		InputChars:   inputChars,
		OutputChars:  len(resp.Choices[0].Content),
		FinishReason: resp.Choices[0].StopReason,
	}, nil
}
