package llm

import (
	"context"
	"errors"
	"testing"
)

func TestClassifyErrorPermanent(t *testing.T) {
	cases := []string{
		"401 unauthorized",
		"403 forbidden",
		"invalid request body",
		"api key expired",
		"400 bad request",
		"malformed JSON payload",
		"response failed schema validation",
	}
	for _, msg := range cases {
		if ClassifyError(errors.New(msg)) {
			t.Errorf("expected %q to classify as permanent", msg)
		}
	}
}

func TestClassifyErrorTransient(t *testing.T) {
	cases := []string{
		"429 too many requests",
		"500 internal server error",
		"503 service unavailable",
		"rate limit exceeded",
		"request timeout",
		"connection refused",
		"connection reset by peer",
	}
	for _, msg := range cases {
		if !ClassifyError(errors.New(msg)) {
			t.Errorf("expected %q to classify as transient", msg)
		}
	}
}

func TestClassifyErrorUnknownDefaultsTransient(t *testing.T) {
	if !ClassifyError(errors.New("something unexpected happened")) {
		t.Error("unrecognized errors should default to transient")
	}
}

func TestClassifyErrorNil(t *testing.T) {
	if ClassifyError(nil) {
		t.Error("nil error should not classify as transient")
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("503 service unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return errors.New("401 invalid api key")
	})
	if err == nil {
		t.Fatal("expected permanent error to propagate")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a permanent error, got %d", attempts)
	}
}

func TestWithRetryExhaustsMaxRetries(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return errors.New("503 service unavailable")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != maxRetries {
		t.Errorf("expected %d attempts, got %d", maxRetries, attempts)
	}
}
