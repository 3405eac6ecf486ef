// Package llm implements the unified LLM gateway: tier/task routing,
// budget enforcement, retry classification with provider failover, and
// structured-output coercion, fronting the Claude, OpenAI, and Gemini
// backends (plus an optional Bedrock-hosted fallback) behind one call
// surface every worker in pkg/engine shares.
package llm

import (
	"context"
	"strings"
)

// Message is one turn in a chat-style completion request.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// CompletionRequest is what the gateway hands to a Backend after resolving
// tier/provider/model and applying reasoning-model adjustments.
type CompletionRequest struct {
	Model          string
	Messages       []Message
	Temperature    float32
	MaxTokens      int
	RequestJSONMode bool
}

// CompletionResponse is a backend's raw result, before JSON repair or
// structured-output parsing.
type CompletionResponse struct {
	Text         string
	InputChars   int
	OutputChars  int
	FinishReason string
}

// Backend is the minimal capability every LLM provider client implements.
// Concrete backends (claude.go, openai.go, gemini.go, bedrock.go) wrap the
// provider's own SDK; the gateway never talks to an SDK directly.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// reasoningModelMarkers are substrings in a model name that mark it as a
// reasoning model : JSON-mode must not be requested for these
// and the output-token budget is raised.
var reasoningModelMarkers = []string{"o1", "o3", "o4", "gemini-2.5", "deepseek-r", "qwq"}

// IsReasoningModel reports whether model matches one of the known
// reasoning-model name markers.
func IsReasoningModel(model string) bool {
	lower := strings.ToLower(model)
	for _, marker := range reasoningModelMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
