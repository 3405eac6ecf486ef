package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestOperationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name: "full error",
			err: &OperationError{
				Operation: "verify connectivity",
				Component: "network",
				Resource:  "bolt://neo4j:7687",
				Cause:     fmt.Errorf("connection refused"),
			},
			expected: "failed to verify connectivity, component: network, resource: bolt://neo4j:7687, cause: connection refused",
		},
		{
			name: "minimal error",
			err: &OperationError{
				Operation: "parse search result",
				Cause:     fmt.Errorf("unexpected EOF"),
			},
			expected: "failed to parse search result, cause: unexpected EOF",
		},
		{
			name: "no cause",
			err: &OperationError{
				Operation: "validate agent config",
				Component: "config",
			},
			expected: "failed to validate agent config, component: config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("OperationError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := &OperationError{
		Operation: "fetch url",
		Cause:     cause,
	}

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("OperationError.Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := &OperationError{Operation: "fetch url"}
	if unwrapped := errNoCause.Unwrap(); unwrapped != nil {
		t.Errorf("OperationError.Unwrap() with no cause = %v, want nil", unwrapped)
	}
}

func TestFailedTo(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		cause    error
		expected string
	}{
		{
			name:     "with cause",
			action:   "connect to neo4j",
			cause:    fmt.Errorf("connection refused"),
			expected: "failed to connect to neo4j: connection refused",
		},
		{
			name:     "without cause",
			action:   "start metrics server",
			cause:    nil,
			expected: "failed to start metrics server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FailedTo(tt.action, tt.cause)
			if err.Error() != tt.expected {
				t.Errorf("FailedTo() = %q, want %q", err.Error(), tt.expected)
			}
		})
	}
}

func TestFailedToWithDetails(t *testing.T) {
	cause := fmt.Errorf("timeout")
	err := FailedToWithDetails("query discovery insights", "graphstore", "hidden_intermediaries", cause)

	opErr, ok := err.(*OperationError)
	if !ok {
		t.Fatalf("FailedToWithDetails() should return *OperationError, got %T", err)
	}

	if opErr.Operation != "query discovery insights" {
		t.Errorf("Operation = %q, want %q", opErr.Operation, "query discovery insights")
	}
	if opErr.Component != "graphstore" {
		t.Errorf("Component = %q, want %q", opErr.Component, "graphstore")
	}
	if opErr.Resource != "hidden_intermediaries" {
		t.Errorf("Resource = %q, want %q", opErr.Resource, "hidden_intermediaries")
	}
	if opErr.Cause != cause {
		t.Errorf("Cause = %v, want %v", opErr.Cause, cause)
	}
}

func TestWrapf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "wrap with message",
			err:      fmt.Errorf("connection refused"),
			format:   "connect to provider %s",
			args:     []interface{}{"gemini"},
			expected: "connect to provider gemini: connection refused",
		},
		{
			name:     "nil error",
			err:      nil,
			format:   "should not wrap",
			args:     nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrapf(tt.err, tt.format, tt.args...)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Wrapf(nil, ...) = %v, want nil", result)
				}
			} else {
				if result.Error() != tt.expected {
					t.Errorf("Wrapf() = %q, want %q", result.Error(), tt.expected)
				}
			}
		})
	}
}

func TestDatabaseError(t *testing.T) {
	cause := fmt.Errorf("constraint already exists")
	err := DatabaseError("ensure uniqueness constraints", cause)

	if !strings.Contains(err.Error(), "failed to ensure uniqueness constraints") {
		t.Errorf("DatabaseError should contain operation, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("DatabaseError should contain component, got %q", err.Error())
	}
}

func TestNetworkError(t *testing.T) {
	cause := fmt.Errorf("timeout")
	err := NetworkError("fetch page", "https://sec.gov/cgi-bin/browse-edgar", cause)

	if !strings.Contains(err.Error(), "failed to fetch page") {
		t.Errorf("NetworkError should contain operation, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "network") {
		t.Errorf("NetworkError should contain component, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "https://sec.gov/cgi-bin/browse-edgar") {
		t.Errorf("NetworkError should contain endpoint, got %q", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("fuzzy_dedup_threshold", "must be between 0.0 and 1.0")
	expected := "validation failed for field fuzzy_dedup_threshold: must be between 0.0 and 1.0"

	if err.Error() != expected {
		t.Errorf("ValidationError() = %q, want %q", err.Error(), expected)
	}
}

func TestConfigurationError(t *testing.T) {
	err := ConfigurationError("graph.uri", "required when graph persistence is enabled")
	expected := "configuration error for setting graph.uri: required when graph persistence is enabled"

	if err.Error() != expected {
		t.Errorf("ConfigurationError() = %q, want %q", err.Error(), expected)
	}
}

func TestTimeoutError(t *testing.T) {
	err := TimeoutError("waiting for headless browser render", "45s")
	expected := "timeout while waiting for headless browser render after 45s"

	if err.Error() != expected {
		t.Errorf("TimeoutError() = %q, want %q", err.Error(), expected)
	}
}

func TestAuthenticationError(t *testing.T) {
	err := AuthenticationError("invalid llm proxy api key")
	expected := "authentication failed: invalid llm proxy api key"

	if err.Error() != expected {
		t.Errorf("AuthenticationError() = %q, want %q", err.Error(), expected)
	}
}

func TestAuthorizationError(t *testing.T) {
	err := AuthorizationError("wipe", "identity graph")
	expected := "authorization failed: insufficient permissions to wipe identity graph"

	if err.Error() != expected {
		t.Errorf("AuthorizationError() = %q, want %q", err.Error(), expected)
	}
}

func TestParseError(t *testing.T) {
	cause := fmt.Errorf("unexpected character")
	err := ParseError("config/model_routing.yaml", "yaml", cause)

	if !strings.Contains(err.Error(), "parse config/model_routing.yaml as yaml") {
		t.Errorf("ParseError should contain parse operation, got %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "timeout error",
			err:      fmt.Errorf("search provider request timeout"),
			expected: true,
		},
		{
			name:     "connection refused",
			err:      fmt.Errorf("connection refused by server"),
			expected: true,
		},
		{
			name:     "service unavailable",
			err:      fmt.Errorf("llm provider temporarily unavailable"),
			expected: true,
		},
		{
			name:     "permanent error",
			err:      fmt.Errorf("invalid api key"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestChain(t *testing.T) {
	tests := []struct {
		name     string
		errors   []error
		expected string
		isNil    bool
	}{
		{
			name:   "no errors",
			errors: []error{nil, nil},
			isNil:  true,
		},
		{
			name:     "single error",
			errors:   []error{fmt.Errorf("claude call failed")},
			expected: "claude call failed",
		},
		{
			name: "multiple errors from parallel proponent/skeptic debaters",
			errors: []error{
				fmt.Errorf("proponent: rate limited"),
				fmt.Errorf("skeptic: context deadline exceeded"),
				nil,
			},
			expected: "multiple errors: proponent: rate limited; skeptic: context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Chain(tt.errors...)
			if tt.isNil {
				if result != nil {
					t.Errorf("Chain() = %v, want nil", result)
				}
			} else {
				if result.Error() != tt.expected {
					t.Errorf("Chain() = %q, want %q", result.Error(), tt.expected)
				}
			}
		})
	}
}
