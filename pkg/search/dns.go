package search

import (
	"context"
	"net"
	"sync"
	"time"
)

// dnsCacheTTL bounds how long a resolved-or-dead verdict is trusted before
// re-checking; a domain that was briefly dead during an outage should not
// stay "dead" for the rest of a long-running investigation.
const dnsCacheTTL = 10 * time.Minute

type dnsCacheEntry struct {
	alive     bool
	resolvedAt time.Time
}

// DNSCache is the process-wide, read-mostly cache of per-host DNS-liveness
// checks backing the Class 2 "dead domain" fetch taxonomy.
// A single instance is meant to be shared across every fetch issued by the
// process; construct one with NewDNSCache and pass it to NewFetcher.
type DNSCache struct {
	mu      sync.RWMutex
	entries map[string]dnsCacheEntry
	resolve func(ctx context.Context, host string) error
}

// NewDNSCache builds an empty DNSCache using net.DefaultResolver.
func NewDNSCache() *DNSCache {
	return &DNSCache{
		entries: make(map[string]dnsCacheEntry),
		resolve: func(ctx context.Context, host string) error {
			_, err := net.DefaultResolver.LookupHost(ctx, host)
			return err
		},
	}
}

// IsDead reports whether host fails DNS resolution, consulting (and
// populating) the shared cache. A cached verdict older than dnsCacheTTL is
// treated as stale and re-resolved.
func (c *DNSCache) IsDead(ctx context.Context, host string) bool {
	c.mu.RLock()
	entry, ok := c.entries[host]
	c.mu.RUnlock()
	if ok && time.Since(entry.resolvedAt) < dnsCacheTTL {
		return !entry.alive
	}

	err := c.resolve(ctx, host)
	alive := err == nil

	c.mu.Lock()
	c.entries[host] = dnsCacheEntry{alive: alive, resolvedAt: time.Now()}
	c.mu.Unlock()

	return !alive
}
