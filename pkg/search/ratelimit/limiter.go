// Package ratelimit enforces the per-domain rate limiting: a
// token-bucket cap on requests/second combined with a bounded count of
// concurrent in-flight requests, keyed by hostname. The map entry for a
// domain is created once under a small critical section; after that the
// hot path (Acquire/Release) touches only that domain's own limiter and
// semaphore, so concurrent fetches to different domains never contend.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DomainOverride configures a non-default rps/concurrency for one host,
// read from the domain-policies YAML file.
type DomainOverride struct {
	RequestsPerSecond float64
	Concurrent        int64
}

const (
	defaultRPS        = 2.0
	defaultConcurrent = 5
)

// domainLimiter pairs one host's token-bucket rate limiter with its
// bounded concurrency semaphore.
type domainLimiter struct {
	limiter   *rate.Limiter
	semaphore *semaphore.Weighted
}

// Limiter is the process-wide per-domain rate limiter. The zero value is
// not usable; construct with New.
type Limiter struct {
	mu        sync.Mutex
	domains   map[string]*domainLimiter
	overrides map[string]DomainOverride
}

// New builds a Limiter with the given per-host overrides; hosts absent
// from overrides get the default of 2 req/s and 5 concurrent.
func New(overrides map[string]DomainOverride) *Limiter {
	if overrides == nil {
		overrides = map[string]DomainOverride{}
	}
	return &Limiter{
		domains:   make(map[string]*domainLimiter),
		overrides: overrides,
	}
}

// SetOverride installs or replaces a per-host override, taking effect for
// every future Acquire on that host (existing in-flight waits are
// unaffected).
func (l *Limiter) SetOverride(domain string, o DomainOverride) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides[domain] = o
	delete(l.domains, domain) // force re-creation with the new settings
}

func (l *Limiter) entryFor(domain string) *domainLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if dl, ok := l.domains[domain]; ok {
		return dl
	}
	rps := defaultRPS
	concurrent := int64(defaultConcurrent)
	if o, ok := l.overrides[domain]; ok {
		if o.RequestsPerSecond > 0 {
			rps = o.RequestsPerSecond
		}
		if o.Concurrent > 0 {
			concurrent = o.Concurrent
		}
	}
	dl := &domainLimiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		semaphore: semaphore.NewWeighted(concurrent),
	}
	l.domains[domain] = dl
	return dl
}

// Release is returned by Acquire; callers must invoke it exactly once,
// typically via defer, to free the domain's concurrency slot.
type Release func()

// Acquire blocks until domain has a free concurrency slot and the
// token-bucket interval has elapsed, or ctx is cancelled. The returned
// Release must be called to free the concurrency slot.
func (l *Limiter) Acquire(ctx context.Context, domain string) (Release, error) {
	dl := l.entryFor(domain)

	if err := dl.semaphore.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := dl.limiter.Wait(ctx); err != nil {
		dl.semaphore.Release(1)
		return nil, err
	}
	return func() { dl.semaphore.Release(1) }, nil
}
