package graphstore

import (
	"context"
	"testing"
)

func TestNewClientFailsOnUnreachableURI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	_, err := NewClient(ClientConfig{URI: "bolt://nonexistent-host:7687"})
	if err == nil {
		t.Fatal("expected connection failure against an unreachable URI")
	}
}

func TestClientCloseOnNilDriverIsNoOp(t *testing.T) {
	c := &Client{}
	if err := c.Close(context.Background()); err != nil {
		t.Errorf("Close on zero-value Client returned error: %v", err)
	}
}

func TestClientConfigDefaulting(t *testing.T) {
	// EnsureSchema/Persist rely on database/timeout defaulting happening in
	// NewClient; this test documents the expected zero-value behavior
	// without requiring a live server.
	cfg := ClientConfig{URI: "bolt://localhost:7687"}
	if cfg.Database != "" {
		t.Fatalf("precondition: expected empty database in test fixture")
	}
	if cfg.Timeout != 0 {
		t.Fatalf("precondition: expected zero timeout in test fixture")
	}
}
