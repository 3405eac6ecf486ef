package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockBackend hosts Claude models through AWS Bedrock, for deployments
// that route LLM spend through an existing AWS contract instead of
// Anthropic's API directly. It speaks the same Anthropic Messages wire
// format as ClaudeBackend, just wrapped in Bedrock's InvokeModel envelope.
type BedrockBackend struct {
	client *bedrockruntime.Client
}

// NewBedrockBackend loads AWS credentials from the default chain (env vars,
// shared config, instance role) for the given region.
func NewBedrockBackend(ctx context.Context, region string) (*BedrockBackend, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock backend: %w", err)
	}
	return &BedrockBackend{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

type bedrockAnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockAnthropicRequest struct {
	AnthropicVersion string                    `json:"anthropic_version"`
	MaxTokens        int                       `json:"max_tokens"`
	Temperature      float64                   `json:"temperature,omitempty"`
	System           string                    `json:"system,omitempty"`
	Messages         []bedrockAnthropicMessage `json:"messages"`
}

type bedrockAnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (b *BedrockBackend) Name() string { return "bedrock" }

func (b *BedrockBackend) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var system string
	messages := make([]bedrockAnthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		messages = append(messages, bedrockAnthropicMessage{Role: m.Role, Content: m.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(bedrockAnthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      float64(req.Temperature),
		System:           system,
		Messages:         messages,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: encode request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.Model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w", err)
	}

	var parsed bedrockAnthropicResponse
	if err := json.NewDecoder(bytes.NewReader(out.Body)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("bedrock: decode response: %w", err)
	}

	var text string
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text += c.Text
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
		FinishReason: parsed.StopReason,
	}, nil
}
