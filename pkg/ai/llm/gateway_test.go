package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/deepresearch/investigator/pkg/domain"
)

type fakeBackend struct {
	name     string
	complete func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f.complete(ctx, req)
}

func TestGatewayCallUsesPrimaryOnSuccess(t *testing.T) {
	claude := &fakeBackend{name: "claude", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return &CompletionResponse{Text: "ok", InputChars: len(req.Messages[0].Content), OutputChars: 2}, nil
	}}
	openai := &fakeBackend{name: "openai", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		t.Fatal("fallback should not be called when primary succeeds")
		return nil, nil
	}}

	g := NewGateway(map[Provider]Backend{ProviderClaude: claude, ProviderOpenAI: openai}, 0)
	resp, err := g.Call(context.Background(), domain.TaskPlanning, CompletionRequest{
		Model:    "claude-opus-4",
		Messages: []Message{{Role: "user", Content: "investigate acme corp"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("expected primary's response, got %q", resp.Text)
	}
	if g.ConsecutiveFailures() != 0 {
		t.Errorf("expected consecutive failures reset to 0, got %d", g.ConsecutiveFailures())
	}
}

func TestGatewayCallFallsBackOnTransientFailure(t *testing.T) {
	claude := &fakeBackend{name: "claude", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return nil, errors.New("503 service unavailable")
	}}
	openai := &fakeBackend{name: "openai", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return &CompletionResponse{Text: "fallback-ok", InputChars: 10, OutputChars: 5}, nil
	}}

	g := NewGateway(map[Provider]Backend{ProviderClaude: claude, ProviderOpenAI: openai}, 0)
	resp, err := g.Call(context.Background(), domain.TaskPlanning, CompletionRequest{
		Model:    "claude-opus-4",
		Messages: []Message{{Role: "user", Content: "investigate acme corp"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "fallback-ok" {
		t.Errorf("expected fallback's response, got %q", resp.Text)
	}
}

func TestGatewayCallReturnsErrorWhenChainExhausted(t *testing.T) {
	claude := &fakeBackend{name: "claude", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return nil, errors.New("503 service unavailable")
	}}
	openai := &fakeBackend{name: "openai", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return nil, errors.New("500 internal error")
	}}

	g := NewGateway(map[Provider]Backend{ProviderClaude: claude, ProviderOpenAI: openai}, 0)
	_, err := g.Call(context.Background(), domain.TaskPlanning, CompletionRequest{
		Model:    "claude-opus-4",
		Messages: []Message{{Role: "user", Content: "investigate acme corp"}},
	})
	if err == nil {
		t.Fatal("expected error when both primary and fallback fail")
	}
	if g.ConsecutiveFailures() != 1 {
		t.Errorf("expected consecutive failures to increment, got %d", g.ConsecutiveFailures())
	}
}

func TestGatewayCallRespectsBudget(t *testing.T) {
	claude := &fakeBackend{name: "claude", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		t.Fatal("backend should not be called once the budget is exhausted")
		return nil, nil
	}}

	g := NewGateway(map[Provider]Backend{ProviderClaude: claude}, 0.0001)
	_, err := g.Call(context.Background(), domain.TaskPlanning, CompletionRequest{
		Model:    "claude-opus-4",
		Messages: []Message{{Role: "user", Content: string(make([]byte, 50_000))}},
	})
	if err == nil {
		t.Fatal("expected budget exhaustion error")
	}
}

func TestGatewaySuppressesJSONModeForReasoningModels(t *testing.T) {
	var seenJSONMode bool
	gemini := &fakeBackend{name: "gemini", complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		seenJSONMode = req.RequestJSONMode
		return &CompletionResponse{Text: "ok"}, nil
	}}

	g := NewGateway(map[Provider]Backend{ProviderOpenAI: gemini}, 0)
	_, err := g.Call(context.Background(), domain.TaskFactExtraction, CompletionRequest{
		Model:           "gemini-2.5-pro",
		Messages:        []Message{{Role: "user", Content: "extract facts"}},
		RequestJSONMode: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenJSONMode {
		t.Error("expected JSON mode to be suppressed for a reasoning model")
	}
}
