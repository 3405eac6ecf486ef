// Package http builds long-lived *http.Client values with tuned transport
// settings for fetch, search, LLM, browser and metrics clients. No other
// package in this module imports it: the CLI builds its search and fetch
// client with net/http directly.
package http

import (
	"crypto/tls"
	"net/http"
	"time"
)

// ClientConfig controls transport tuning for a long-lived HTTP client.
type ClientConfig struct {
	Timeout                 time.Duration
	MaxRetries              int
	DisableSSLVerification  bool
	MaxIdleConns            int
	IdleConnTimeout         time.Duration
	TLSHandshakeTimeout     time.Duration
	ResponseHeaderTimeout   time.Duration
}

// DefaultClientConfig is the baseline used when no tier-specific tuning
// applies.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:               30 * time.Second,
		MaxRetries:            3,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
}

// NewClient builds an *http.Client from the given config.
func NewClient(config ClientConfig) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          config.MaxIdleConns,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
	}
	if config.DisableSSLVerification {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}
}

// NewClientWithTimeout builds a client from DefaultClientConfig with a
// single overridden timeout; the common case for one-off tier clients.
func NewClientWithTimeout(timeout time.Duration) *http.Client {
	config := DefaultClientConfig()
	config.Timeout = timeout
	return NewClient(config)
}

// NewDefaultClient builds a client from DefaultClientConfig unmodified.
func NewDefaultClient() *http.Client {
	return NewClient(DefaultClientConfig())
}

// FetchClientConfig tunes the tier-1 plain-HTTP fetcher client: a 30s
// default timeout with a shorter response-header wait so a stalling host
// fails fast into tier escalation rather than holding the per-domain
// semaphore.
func FetchClientConfig(timeout time.Duration) ClientConfig {
	config := DefaultClientConfig()
	config.Timeout = timeout
	config.ResponseHeaderTimeout = timeout / 3
	config.MaxIdleConns = 20
	return config
}

// SearchClientConfig tunes the search-provider API client.
func SearchClientConfig(timeout time.Duration) ClientConfig {
	config := DefaultClientConfig()
	config.Timeout = timeout
	config.MaxRetries = 2
	return config
}

// PrometheusClientConfig tunes the metrics-scrape client; ResponseHeaderTimeout
// is half the overall timeout since /metrics responses are generated, not
// streamed.
func PrometheusClientConfig(timeout time.Duration) ClientConfig {
	config := DefaultClientConfig()
	config.Timeout = timeout
	config.ResponseHeaderTimeout = timeout / 2
	return config
}

// LLMClientConfig tunes the per-provider LLM HTTP client; ResponseHeaderTimeout
// is a third of the overall timeout to leave room for slow first-token
// latency on reasoning models while still detecting a truly hung connection.
func LLMClientConfig(timeout time.Duration) ClientConfig {
	config := DefaultClientConfig()
	config.Timeout = timeout
	config.ResponseHeaderTimeout = timeout / 3
	config.MaxIdleConns = 5
	return config
}

// BrowserClientConfig tunes the headless-browser tier's control-channel
// client; browser navigation itself is bounded by the caller's context.
func BrowserClientConfig(timeout time.Duration) ClientConfig {
	config := DefaultClientConfig()
	config.Timeout = timeout
	config.MaxRetries = 1
	return config
}
