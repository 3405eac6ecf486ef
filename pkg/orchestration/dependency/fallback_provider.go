package dependency

import (
	"fmt"
	"time"
)

// ProviderCall is one backend invocation a FallbackChain can dispatch to;
// it returns the raw response payload as []byte (an LLM completion body or
// a search-provider response body) or an error.
type ProviderCall func() ([]byte, error)

// FallbackEvent records one fallback dispatch for logging/metrics: the
// primary that failed, the fallback that was tried, the error classification
// that triggered the fallback, and the logical task/tier the call served.
type FallbackEvent struct {
	Task      string
	Tier      string
	Primary   string
	Fallback  string
	ErrorCode string
	Timestamp time.Time
}

// Classifier decides whether an error returned by a provider call is
// transient (worth falling back for) or permanent (bubble straight up).
// The LLM gateway supplies pkg/ai/llm's error-string classifier;
// FallbackChain itself stays agnostic to how errors are classified.
type Classifier func(err error) (transient bool)

// namedProvider pairs a provider's display name with its call and the
// circuit breaker guarding it.
type namedProvider struct {
	name    string
	breaker *CircuitBreaker
	call    ProviderCall
}

// FallbackChain dispatches to an ordered list of providers for one logical
// tier, breaker-protecting each and falling forward to the next provider in
// the list on a transient failure. It implements the "fallback
// selection becomes next configured provider after the primary in the
// ordered list for this tier" policy.
type FallbackChain struct {
	task       string
	tier       string
	classify   Classifier
	providers  []*namedProvider
	onFallback func(FallbackEvent)
}

// NewFallbackChain builds a chain for a task/tier pair. onFallback may be
// nil; when set, it is invoked once per fallback dispatch.
func NewFallbackChain(task, tier string, classify Classifier, onFallback func(FallbackEvent)) *FallbackChain {
	return &FallbackChain{task: task, tier: tier, classify: classify, onFallback: onFallback}
}

// AddProvider appends a provider to the end of the chain, in priority
// order: the first AddProvider call is the primary.
func (c *FallbackChain) AddProvider(name string, breakerThreshold float64, breakerResetTimeout time.Duration, call ProviderCall) {
	c.providers = append(c.providers, &namedProvider{
		name:    name,
		breaker: NewCircuitBreaker(name, breakerThreshold, breakerResetTimeout),
		call:    call,
	})
}

// Execute tries the chain's providers in order. The primary is always
// attempted first; calls for exactly one fallback retry on a
// transient primary failure (not a full walk of every provider), so Execute
// stops after the first successful provider or, failing that, after trying
// the primary's designated fallback (the next entry in the chain) once.
// A permanent error from the primary propagates immediately without
// consulting the fallback.
func (c *FallbackChain) Execute() ([]byte, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("fallback chain %s/%s has no configured providers", c.task, c.tier)
	}

	primary := c.providers[0]
	resp, err := c.callThroughBreaker(primary)
	if err == nil {
		return resp, nil
	}
	if !c.classify(err) {
		return nil, err // permanent: no fallback attempt
	}
	if len(c.providers) < 2 {
		return nil, err
	}

	fallback := c.providers[1]
	if c.onFallback != nil {
		c.onFallback(FallbackEvent{
			Task: c.task, Tier: c.tier,
			Primary: primary.name, Fallback: fallback.name,
			ErrorCode: err.Error(), Timestamp: time.Now(),
		})
	}
	return c.callThroughBreaker(fallback)
}

func (c *FallbackChain) callThroughBreaker(p *namedProvider) ([]byte, error) {
	var resp []byte
	err := p.breaker.Call(func() error {
		r, callErr := p.call()
		resp = r
		return callErr
	})
	return resp, err
}

// ProviderNames returns the configured provider names in priority order,
// for diagnostics and tests.
func (c *FallbackChain) ProviderNames() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.name
	}
	return names
}

// BreakerState exposes the named provider's current circuit state, or
// CircuitStateClosed if the name is unknown.
func (c *FallbackChain) BreakerState(name string) CircuitState {
	for _, p := range c.providers {
		if p.name == name {
			return p.breaker.GetState()
		}
	}
	return CircuitStateClosed
}
