package search

import (
	"context"
	"encoding/json"
	"testing"
)

func TestBraveProviderNoAPIKeyFailsFast(t *testing.T) {
	p := NewBraveProvider("", nil)
	_, err := p.Search(context.Background(), "acme corp fraud", 5)
	if err == nil {
		t.Fatal("expected error with no API key configured")
	}
}

func TestBraveSearchResponseDecode(t *testing.T) {
	body := []byte(`{"web":{"results":[{"title":"Acme Corp","url":"https://acme.example/page","description":"about acme"}]}}`)
	var parsed braveSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(parsed.Web.Results) != 1 || parsed.Web.Results[0].URL != "https://acme.example/page" {
		t.Errorf("unexpected decode result: %+v", parsed)
	}
}

func TestParseDuckDuckGoResults(t *testing.T) {
	html := `
<html><body>
<div class="result results_links results_links_deep">
  <a class="result__a" href="https://example.com/a">Example A</a>
  <a class="result__snippet">Snippet about A</a>
</div>
<div class="result results_links results_links_deep">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fb&rut=x">Example B</a>
  <a class="result__snippet">Snippet about B</a>
</div>
</body></html>`

	results, err := parseDuckDuckGoResults(html, 10)
	if err != nil {
		t.Fatalf("parseDuckDuckGoResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].URL != "https://example.com/a" {
		t.Errorf("results[0].URL = %q", results[0].URL)
	}
	if results[1].URL != "https://example.com/b" {
		t.Errorf("results[1].URL = %q, want redirect unwrapped", results[1].URL)
	}
}

func TestParseDuckDuckGoResultsRespectsLimit(t *testing.T) {
	html := `
<html><body>
<div class="result results_links results_links_deep"><a class="result__a" href="https://a.example">A</a></div>
<div class="result results_links results_links_deep"><a class="result__a" href="https://b.example">B</a></div>
<div class="result results_links results_links_deep"><a class="result__a" href="https://c.example">C</a></div>
</body></html>`

	results, err := parseDuckDuckGoResults(html, 2)
	if err != nil {
		t.Fatalf("parseDuckDuckGoResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (capped)", len(results))
	}
}

func TestCleanDuckDuckGoRedirect(t *testing.T) {
	cases := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=abc": "https://example.com/page",
		"https://example.com/direct":                                       "https://example.com/direct",
	}
	for in, want := range cases {
		if got := cleanDuckDuckGoRedirect(in); got != want {
			t.Errorf("cleanDuckDuckGoRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("https://www.example.com/path?q=1"); got != "www.example.com" {
		t.Errorf("hostOf = %q, want www.example.com", got)
	}
	if got := hostOf("not a url"); got != "" {
		t.Errorf("hostOf(invalid) = %q, want empty", got)
	}
}

func TestNewProvidersNoKeyFallsBackToDuckDuckGoForBoth(t *testing.T) {
	primary, fallback := NewProviders("", nil)
	if primary.Name() != "duckduckgo" || fallback.Name() != "duckduckgo" {
		t.Errorf("expected both providers to be duckduckgo with no key, got %s/%s", primary.Name(), fallback.Name())
	}
}

func TestNewProvidersWithKeyUsesBraveAsPrimary(t *testing.T) {
	primary, fallback := NewProviders("some-key", nil)
	if primary.Name() != "brave" {
		t.Errorf("expected brave as primary, got %s", primary.Name())
	}
	if fallback.Name() != "duckduckgo" {
		t.Errorf("expected duckduckgo as fallback, got %s", fallback.Name())
	}
}
