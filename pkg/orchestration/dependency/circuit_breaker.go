// Package dependency wraps each LLM provider the gateway calls with a
// circuit breaker and an ordered fallback chain, so a provider outage
// degrades to the next configured provider instead of cascading into every
// worker that calls it. Search providers are not routed through it.
package dependency

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitState mirrors gobreaker's three states under investigator-facing
// names.
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// minRequestsForTrip is the minimum sample size before the failure ratio is
// evaluated against the threshold; a single early failure must not open the
// circuit.
const minRequestsForTrip = 5

// CircuitBreaker wraps github.com/sony/gobreaker with the failure-rate
// accounting and read accessors the investigator's provider clients need.
// gobreaker clears its own internal Counts on every state transition, which
// would make GetFailureRate read 0 right at the moment the circuit opens;
// requests/failures are tracked independently here instead, reset only when
// the circuit returns to Closed (matching the "failures reset on recovery"
// contract the provider clients rely on).
type CircuitBreaker struct {
	name             string
	failureThreshold float64
	resetTimeout     time.Duration

	breaker *gobreaker.CircuitBreaker

	mu       sync.Mutex
	requests int64
	failures int64
}

// NewCircuitBreaker builds a named circuit breaker that opens once at least
// minRequestsForTrip calls have been made and the failure ratio reaches
// failureThreshold, staying open for resetTimeout before probing half-open.
func NewCircuitBreaker(name string, failureThreshold float64, resetTimeout time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: resetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequestsForTrip {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateClosed {
				cb.mu.Lock()
				cb.requests, cb.failures = 0, 0
				cb.mu.Unlock()
			}
		},
	})
	return cb
}

// Call executes fn through the breaker, returning gobreaker.ErrOpenState
// without invoking fn if the circuit is open.
func (cb *CircuitBreaker) Call(fn func() error) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState {
		return err
	}
	cb.mu.Lock()
	cb.requests++
	if err != nil {
		cb.failures++
	}
	cb.mu.Unlock()
	return err
}

func (cb *CircuitBreaker) GetName() string { return cb.name }

func (cb *CircuitBreaker) GetFailureThreshold() float64 { return cb.failureThreshold }

func (cb *CircuitBreaker) GetResetTimeout() time.Duration { return cb.resetTimeout }

// GetState returns the breaker's current state in investigator terms.
func (cb *CircuitBreaker) GetState() CircuitState {
	switch cb.breaker.State() {
	case gobreaker.StateOpen:
		return CircuitStateOpen
	case gobreaker.StateHalfOpen:
		return CircuitStateHalfOpen
	default:
		return CircuitStateClosed
	}
}

// GetFailureRate returns the failure ratio over requests counted since the
// last close, or 0 if no requests have been made yet.
func (cb *CircuitBreaker) GetFailureRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.requests == 0 {
		return 0.0
	}
	return float64(cb.failures) / float64(cb.requests)
}

// GetFailures returns the total-failure count since the last transition to
// Closed.
func (cb *CircuitBreaker) GetFailures() int64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
