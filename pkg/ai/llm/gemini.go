package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend wraps the Gemini Generative Language API.
type GeminiBackend struct {
	client *genai.Client
}

// NewGeminiBackend builds a GeminiBackend from an API key.
func NewGeminiBackend(ctx context.Context, apiKey string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini backend: %w", err)
	}
	return &GeminiBackend{client: client}, nil
}

func (b *GeminiBackend) Name() string { return string(ProviderGemini) }

func (b *GeminiBackend) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := b.client.GenerativeModel(req.Model)
	if req.Temperature > 0 {
		t := req.Temperature
		model.Temperature = &t
	}
	if req.MaxTokens > 0 {
		max := int32(req.MaxTokens)
		model.MaxOutputTokens = &max
	}
	if req.RequestJSONMode && !IsReasoningModel(req.Model) {
		model.ResponseMIMEType = "application/json"
	}

	var system string
	var parts []genai.Part
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: empty response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
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
		FinishReason: resp.Candidates[0].FinishReason.String(),
	}, nil
}
