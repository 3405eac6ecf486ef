// Package search implements the Web Researcher's search and fetch pipeline:
// primary/fallback search providers, the five-tier fetcher escalation
// ladder, and the per-domain rate limiter that guards it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Result is one search hit, URL-keyed for dedup by the Web Researcher.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Domain  string
}

// Provider issues a query against one search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// BraveProvider queries the Brave Search API, the keyed primary provider
// configured via SearchConfig.PrimaryProviderKey.
type BraveProvider struct {
	apiKey     string
	httpClient *http.Client
}

// NewBraveProvider builds a BraveProvider. An empty apiKey makes every
// Search call fail fast rather than issue an unauthenticated request.
func NewBraveProvider(apiKey string, httpClient *http.Client) *BraveProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BraveProvider{apiKey: apiKey, httpClient: httpClient}
}

func (p *BraveProvider) Name() string { return "brave" }

type braveSearchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search issues one query against the Brave Search API and returns up to
// limit results.
func (p *BraveProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("brave provider: no API key configured")
	}

	endpoint := "https://api.search.brave.com/res/v1/web/search?q=" + url.QueryEscape(query) + fmt.Sprintf("&count=%d", limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave search: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}

	var parsed braveSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("brave search: decode response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
			Domain:  hostOf(r.URL),
		})
	}
	return results, nil
}

// DuckDuckGoProvider scrapes DuckDuckGo's keyless HTML search endpoint,
// the fallback provider used when no paid API key is configured.
type DuckDuckGoProvider struct {
	httpClient *http.Client
}

// NewDuckDuckGoProvider builds a DuckDuckGoProvider.
func NewDuckDuckGoProvider(httpClient *http.Client) *DuckDuckGoProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DuckDuckGoProvider{httpClient: httpClient}
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

// Search issues one query against DuckDuckGo's HTML interface and parses
// the result list out of the returned markup.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", pickUserAgent(searchURL))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	return parseDuckDuckGoResults(string(body), limit)
}

func parseDuckDuckGoResults(htmlContent string, limit int) ([]Result, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo html: %w", err)
	}

	var results []Result
	var findResults func(*html.Node)
	findResults = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClassContaining(n, "result", "results_links") {
			if r := extractDuckDuckGoResult(n); r.URL != "" && r.Title != "" {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findResults(c)
		}
	}
	findResults(doc)
	return results, nil
}

func hasClassContaining(n *html.Node, substrs ...string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		ok := true
		for _, s := range substrs {
			if !strings.Contains(attr.Val, s) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func extractDuckDuckGoResult(n *html.Node) Result {
	var r Result
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "class" {
					continue
				}
				switch {
				case strings.Contains(attr.Val, "result__a"):
					r.URL = cleanDuckDuckGoRedirect(attrValue(n, "href"))
					r.Title = textContent(n)
				case strings.Contains(attr.Val, "result__snippet"):
					r.Snippet = textContent(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	r.Domain = hostOf(r.URL)
	return r
}

func cleanDuckDuckGoRedirect(href string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, prefix))
	if err != nil {
		return href
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// NewProviders builds the configured (primary, fallback) provider pair.
// The primary is Brave when an API key is configured, else DuckDuckGo;
// the fallback is always DuckDuckGo, which needs no key.
func NewProviders(primaryKey string, httpClient *http.Client) (primary, fallback Provider) {
	fallback = NewDuckDuckGoProvider(httpClient)
	if primaryKey != "" {
		return NewBraveProvider(primaryKey, httpClient), fallback
	}
	return fallback, fallback
}
