package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewServer(t *testing.T) {
	server := NewServer("8080", zap.NewNop())
	if server == nil {
		t.Fatal("NewServer returned nil")
	}
	if server.server.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", server.server.Addr, ":8080")
	}
}

func TestServerStartStop(t *testing.T) {
	server := NewServer("0", zap.NewNop())
	server.StartAsync()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	server := NewServer("19999", zap.NewNop())
	server.StartAsync()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Stop(ctx)
	}()
	time.Sleep(200 * time.Millisecond)

	resp, err := http.Get("http://localhost:19999/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got == "" {
		t.Error("missing Content-Type header")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("response body missing Prometheus format markers")
	}
}

func TestServerHealthEndpoint(t *testing.T) {
	server := NewServer("19998", zap.NewNop())
	server.StartAsync()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Stop(ctx)
	}()
	time.Sleep(200 * time.Millisecond)

	resp, err := http.Get("http://localhost:19998/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "OK" {
		t.Errorf("body = %q, want %q", string(body), "OK")
	}
}

func TestServerWithCustomMetrics(t *testing.T) {
	RecordInvestigationStarted()
	RecordDirectorDecision("test_server_action")

	server := NewServer("19994", zap.NewNop())
	server.StartAsync()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Stop(ctx)
	}()
	time.Sleep(200 * time.Millisecond)

	resp, err := http.Get("http://localhost:19994/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	bodyStr := string(body)
	if !strings.Contains(bodyStr, "investigations_started_total") {
		t.Error("expected investigations_started_total in response")
	}
	if !strings.Contains(bodyStr, `director_iterations_total{action="test_server_action"}`) {
		t.Error("expected labelled director_iterations_total in response")
	}
}

func TestServerMultipleClients(t *testing.T) {
	server := NewServer("19993", zap.NewNop())
	server.StartAsync()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Stop(ctx)
	}()
	time.Sleep(200 * time.Millisecond)

	numRequests := 5
	results := make(chan error, numRequests)
	for i := 0; i < numRequests; i++ {
		go func(i int) {
			resp, err := http.Get("http://localhost:19993/metrics")
			if err != nil {
				results <- err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				results <- fmt.Errorf("request %d: status %d", i, resp.StatusCode)
				return
			}
			results <- nil
		}(i)
	}
	for i := 0; i < numRequests; i++ {
		if err := <-results; err != nil {
			t.Errorf("request failed: %v", err)
		}
	}
}

func TestServerContextCancellation(t *testing.T) {
	server := NewServer("19992", zap.NewNop())
	server.StartAsync()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Stop should handle an already-cancelled context without panicking.
	_ = server.Stop(ctx)
}
