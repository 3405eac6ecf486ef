package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// permanentMarkers classify an error message as non-retryable: bad
// credentials, malformed requests, schema failures. Checked first so an
// error matching both lists (unlikely, but order matters) is treated as
// permanent.
var permanentMarkers = []string{
	"401", "403", "invalid", "api key", "expired", "400", "malformed", "schema",
}

// transientMarkers classify an error message as worth retrying.
var transientMarkers = []string{
	"429", "500", "503", "rate", "timeout", "connection", "reset",
}

// ClassifyError implements the retry policy as a pure predicate
// over error-message content: permanent errors never retry, transient
// errors do, and an unrecognized error defaults to transient.
func ClassifyError(err error) (transient bool) {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range permanentMarkers {
		if strings.Contains(msg, m) {
			return false
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return true
}

const (
	minBackoff = 2 * time.Second
	maxBackoff = 30 * time.Second
	maxRetries = 3
)

// WithRetry retries fn up to maxRetries times with exponential backoff
// (min 2s, max 30s) as long as the returned error classifies as transient.
// A permanent error, or exhausting all retries, returns the last error.
func WithRetry(ctx context.Context, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = minBackoff
	policy.MaxInterval = maxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		callErr := fn()
		if callErr == nil {
			return struct{}{}, nil
		}
		if !ClassifyError(callErr) {
			return struct{}{}, backoff.Permanent(callErr)
		}
		return struct{}{}, callErr
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(maxRetries))
	return err
}
