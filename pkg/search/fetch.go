package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/deepresearch/investigator/pkg/metrics"
	"github.com/deepresearch/investigator/pkg/search/ratelimit"
	sharederrors "github.com/deepresearch/investigator/pkg/shared/errors"
)

// maxBodyBytes caps how much of a fetched document is kept in memory and
// handed on to the Fact Extractor.
const maxBodyBytes = 1 << 20

// userAgents is the rotation pool for tier 1/2 plain fetches; rotating
// avoids a single static string becoming a trivial block signature.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

var uaCounter int

// pickUserAgent returns a rotated desktop-browser UA, substituting the
// EDGAR-mandated contact-email UA for sec.gov hosts per 17 CFR 240.13.
func pickUserAgent(rawURL string) string {
	if strings.Contains(rawURL, "sec.gov") {
		return secUserAgent
	}
	uaCounter++
	return userAgents[uaCounter%len(userAgents)]
}

// secUserAgent is set by NewFetcher from SearchConfig.SECContactEmail; EDGAR
// fair-access rules require a contact email in the UA string for automated
// requests to sec.gov.
var secUserAgent = "InvestigationEngine research@example.com"

// authWalledDomains never make it past tier 1; their content requires a
// logged-in session the fetcher does not have.
var authWalledDomains = []string{
	"linkedin.com", "facebook.com", "x.com", "twitter.com",
	"reddit.com", "bloomberg.com", "wsj.com", "ft.com",
}

func isAuthWalled(host string) bool {
	for _, d := range authWalledDomains {
		if strings.HasSuffix(host, d) {
			return true
		}
	}
	return false
}

var authWallPathMarkers = []string{"/login", "/signin", "/authwall", "/sign-in", "/accounts/login"}

func looksLikeAuthWall(finalURL string) bool {
	lower := strings.ToLower(finalURL)
	for _, m := range authWallPathMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// FetchStatus classifies the outcome of a Fetch call.
type FetchStatus string

const (
	StatusOK            FetchStatus = "ok"
	StatusBotBlocked    FetchStatus = "bot_blocked"
	StatusDeadDomain    FetchStatus = "dead_domain"
	StatusNotFound      FetchStatus = "not_found"
	StatusUnreachable   FetchStatus = "unreachable"
)

// FetchResult is what the Tiered Fetcher returns for one URL.
type FetchResult struct {
	Content           string
	Status            FetchStatus
	InaccessibleReason string
	Tier              int
	DeadDomainMethod  string // wayback | relocated | unrecoverable; set whenever archive recovery ran
}

// Fetcher runs the five-tier escalation pipeline described in.
type Fetcher struct {
	httpClient             *http.Client
	dns                    *DNSCache
	limiter                *ratelimit.Limiter
	enableStructuredBrowser bool
	browserTimeout         time.Duration
	secContactEmail        string
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	HTTPClient              *http.Client
	DNSCache                *DNSCache
	Limiter                 *ratelimit.Limiter
	EnableStructuredBrowser bool
	BrowserTimeout          time.Duration
	SECContactEmail         string
}

// NewFetcher builds a Fetcher from cfg, defaulting any unset field.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.DNSCache == nil {
		cfg.DNSCache = NewDNSCache()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(nil)
	}
	if cfg.BrowserTimeout == 0 {
		cfg.BrowserTimeout = 45 * time.Second
	}
	if cfg.SECContactEmail != "" {
		secUserAgent = "InvestigationEngine/1.0 (contact: " + cfg.SECContactEmail + ")"
	}
	return &Fetcher{
		httpClient:              cfg.HTTPClient,
		dns:                     cfg.DNSCache,
		limiter:                 cfg.Limiter,
		enableStructuredBrowser: cfg.EnableStructuredBrowser,
		browserTimeout:          cfg.BrowserTimeout,
		secContactEmail:         cfg.SECContactEmail,
	}
}

// regulatoryDomains get the optional tier 3 structured-browser treatment.
var regulatoryDomains = []string{"sec.gov", "finra.org", "dfpi.ca.gov"}

func isRegulatoryDomain(host string) bool {
	for _, d := range regulatoryDomains {
		if strings.HasSuffix(host, d) {
			return true
		}
	}
	return false
}

// tierFunc is one escalation step: given the URL, try to fetch it and
// report whether it succeeded. Modeling tiers as an ordered list of
// closures (rather than chained conditionals) keeps the dns_dead
// short-circuit (skip tiers 1-3 entirely) a simple slice operation.
type tierFunc struct {
	tier int
	name string
	run  func(ctx context.Context, rawURL string) (FetchResult, bool)
}

// Fetch runs the tiered escalation pipeline for rawURL and returns the
// first tier's success, or the final tier's failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) FetchResult {
	u, err := url.Parse(rawURL)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: "unparseable url"}
	}

	release, err := f.limiter.Acquire(ctx, u.Hostname())
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: "rate limiter: " + err.Error()}
	}
	defer release()

	if f.dns.IsDead(ctx, u.Hostname()) {
		return f.runDeadDomainRecovery(ctx, rawURL, u)
	}

	tiers := []tierFunc{
		{1, "plain_http", f.tier1PlainHTTP},
		{2, "headless_browser", f.tier2HeadlessBrowser},
	}
	if f.enableStructuredBrowser && isRegulatoryDomain(u.Hostname()) {
		tiers = append(tiers, tierFunc{3, "structured_browser", f.tier3StructuredBrowser})
	}
	if strings.HasSuffix(u.Hostname(), "sec.gov") {
		tiers = append(tiers, tierFunc{4, "edgar_api", f.tier4EdgarAPI})
	}

	var last FetchResult
	last.Status = StatusUnreachable
	class3 := false

	for _, t := range tiers {
		result, ok := t.run(ctx, rawURL)
		if ok {
			metrics.RecordFetchTierAttempt(strconv.Itoa(t.tier), true)
			result.Tier = t.tier
			return result
		}
		metrics.RecordFetchTierAttempt(strconv.Itoa(t.tier), false)
		if result.Status == StatusNotFound {
			class3 = true
		}
		last = result
	}

	if class3 || last.Status == StatusBotBlocked {
		recovery := f.runArchiveRecovery(ctx, rawURL, u)
		if recovery.Status == StatusOK {
			return recovery
		}
		last = recovery
	}

	return last
}

func (f *Fetcher) runDeadDomainRecovery(ctx context.Context, rawURL string, u *url.URL) FetchResult {
	result := f.runArchiveRecovery(ctx, rawURL, u)
	metrics.RecordDeadDomainRecovery(result.DeadDomainMethod)
	result.Status = StatusDeadDomain
	if result.Content != "" {
		result.Status = StatusOK
	}
	return result
}

// tier1PlainHTTP fetches rawURL directly with a rotated User-Agent.
func (f *Fetcher) tier1PlainHTTP(ctx context.Context, rawURL string) (FetchResult, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	req.Header.Set("User-Agent", pickUserAgent(rawURL))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return FetchResult{Status: StatusBotBlocked, InaccessibleReason: fmt.Sprintf("HTTP %d", resp.StatusCode)}, false
	case http.StatusNotFound:
		return FetchResult{Status: StatusNotFound, InaccessibleReason: "HTTP 404"}, false
	}
	if resp.StatusCode != http.StatusOK {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: fmt.Sprintf("HTTP %d", resp.StatusCode)}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}

	return FetchResult{Content: string(body), Status: StatusOK}, true
}

// tier2HeadlessBrowser renders rawURL in a headless Chrome instance via
// go-rod, for pages that need JS execution to populate content. Known
// auth-walled domains are skipped outright; a post-navigation redirect to
// a login path is treated as a bot-block (403-equivalent).
func (f *Fetcher) tier2HeadlessBrowser(ctx context.Context, rawURL string) (FetchResult, bool) {
	u, _ := url.Parse(rawURL)
	if u != nil && isAuthWalled(u.Hostname()) {
		return FetchResult{Status: StatusBotBlocked, InaccessibleReason: "auth-walled domain"}, false
	}

	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return f.fetchPDF(ctx, rawURL)
	}

	content, finalURL, err := f.renderWithHeadlessBrowser(ctx, rawURL)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	if looksLikeAuthWall(finalURL) {
		return FetchResult{Status: StatusBotBlocked, InaccessibleReason: "redirected to login"}, false
	}
	if content == "" {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: "empty render"}, false
	}
	return FetchResult{Content: content, Status: StatusOK}, true
}

func (f *Fetcher) renderWithHeadlessBrowser(ctx context.Context, rawURL string) (content, finalURL string, err error) {
	launchURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return "", "", fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(launchURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", "", sharederrors.NetworkError("connect headless browser", rawURL, err)
	}
	defer browser.Close()

	incognito, err := browser.Incognito()
	if err != nil {
		return "", "", fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: rawURL})
	if err != nil {
		return "", "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.browserTimeout)
	if err := page.WaitLoad(); err != nil {
		return "", "", fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", "", fmt.Errorf("read html: %w", err)
	}
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}
	if len(html) > maxBodyBytes {
		html = html[:maxBodyBytes]
	}
	return html, finalURL, nil
}

func (f *Fetcher) fetchPDF(ctx context.Context, rawURL string) (FetchResult, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	req.Header.Set("User-Agent", pickUserAgent(rawURL))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: fmt.Sprintf("HTTP %d", resp.StatusCode)}, false
	}

	// No PDF text-extraction library is wired into this module (none of
	// the example repos carries one); the raw bytes are reported as
	// inaccessible rather than silently fabricating extracted text.
	return FetchResult{Status: StatusUnreachable, InaccessibleReason: "pdf text extraction unavailable"}, false
}

// tier3StructuredBrowser renders the page and converts it to clean
// markdown for known regulatory domains, gated by config.
func (f *Fetcher) tier3StructuredBrowser(ctx context.Context, rawURL string) (FetchResult, bool) {
	html, finalURL, err := f.renderWithHeadlessBrowser(ctx, rawURL)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	if looksLikeAuthWall(finalURL) {
		return FetchResult{Status: StatusBotBlocked, InaccessibleReason: "redirected to login"}, false
	}

	markdown, err := md.ConvertString(html)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: "markdown conversion: " + err.Error()}, false
	}
	return FetchResult{Content: markdown, Status: StatusOK}, true
}

// edgarFullTextSearchURL is SEC EDGAR's full-text search index endpoint.
const edgarFullTextSearchURL = "https://efts.sec.gov/LATEST/search-index?q=%s&forms=&dateRange=custom"

// tier4EdgarAPI derives a search key (CIK or filename stem) from rawURL and
// queries the EDGAR full-text search index, assembling hits into text.
func (f *Fetcher) tier4EdgarAPI(ctx context.Context, rawURL string) (FetchResult, bool) {
	if strings.Contains(rawURL, "/litigation/") {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: "litigation releases not covered by edgar full-text search"}, false
	}

	key := edgarSearchKey(rawURL)
	if key == "" {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: "could not derive edgar search key"}, false
	}

	endpoint := fmt.Sprintf(edgarFullTextSearchURL, url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	req.Header.Set("User-Agent", secUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: fmt.Sprintf("HTTP %d", resp.StatusCode)}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: err.Error()}, false
	}

	text := assembleEdgarHits(body)
	if text == "" {
		return FetchResult{Status: StatusUnreachable, InaccessibleReason: "no edgar hits"}, false
	}
	return FetchResult{Content: text, Status: StatusOK}, true
}

type edgarSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				DisplayNames []string `json:"display_names"`
				FileType     string   `json:"file_type"`
				FileDate     string   `json:"file_date"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func assembleEdgarHits(body []byte) string {
	var parsed edgarSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, hit := range parsed.Hits.Hits {
		sb.WriteString(strings.Join(hit.Source.DisplayNames, ", "))
		sb.WriteString(" (")
		sb.WriteString(hit.Source.FileType)
		sb.WriteString(", ")
		sb.WriteString(hit.Source.FileDate)
		sb.WriteString(")\n")
	}
	return sb.String()
}

// edgarSearchKeyPattern is the prefix (matched case-insensitively) that
// marks a CIK segment in an EDGAR URL path.
var edgarSearchKeyPattern = "CIK"

// edgarSearchKey derives the CIK or filename stem EDGAR's search index
// expects from a sec.gov URL's path.
func edgarSearchKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for _, seg := range segments {
		if strings.HasPrefix(strings.ToUpper(seg), edgarSearchKeyPattern) {
			return seg
		}
		if len(seg) == 10 && isAllDigits(seg) {
			return seg
		}
	}
	if len(segments) > 0 {
		last := segments[len(segments)-1]
		return strings.TrimSuffix(last, filepathExt(last))
	}
	return ""
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func filepathExt(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i:]
	}
	return ""
}

// archiveAvailabilityURL is the Internet Archive's Wayback Machine
// availability API.
const archiveAvailabilityURL = "https://archive.org/wayback/available?url=%s"

type waybackAvailabilityResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// runArchiveRecovery attempts, in order, a Wayback Machine snapshot and a
// relocated-content search for terms extracted from the URL's path slug.
func (f *Fetcher) runArchiveRecovery(ctx context.Context, rawURL string, u *url.URL) FetchResult {
	if snapshot, ok := f.tryWaybackSnapshot(ctx, rawURL); ok {
		snapshot.DeadDomainMethod = "wayback"
		return snapshot
	}
	if relocated, ok := f.tryRelocatedContent(ctx, u); ok {
		relocated.DeadDomainMethod = "relocated"
		return relocated
	}
	return FetchResult{
		Status:             StatusUnreachable,
		InaccessibleReason: "no archive snapshot and no relocated content found",
		DeadDomainMethod:   "unrecoverable",
	}
}

func (f *Fetcher) tryWaybackSnapshot(ctx context.Context, rawURL string) (FetchResult, bool) {
	endpoint := fmt.Sprintf(archiveAvailabilityURL, url.QueryEscape(rawURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FetchResult{}, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return FetchResult{}, false
	}

	var parsed waybackAvailabilityResponse
	if err := json.Unmarshal(body, &parsed); err != nil || !parsed.ArchivedSnapshots.Closest.Available {
		return FetchResult{}, false
	}

	result, ok := f.tier1PlainHTTP(ctx, parsed.ArchivedSnapshots.Closest.URL)
	return result, ok
}

// tryRelocatedContent extracts meaningful terms from the URL's path slug
// and searches for the content having moved to a new location.
func (f *Fetcher) tryRelocatedContent(ctx context.Context, u *url.URL) (FetchResult, bool) {
	terms := slugTerms(u.Path)
	if terms == "" {
		return FetchResult{}, false
	}

	_, fallback := NewProviders("", f.httpClient)
	results, err := fallback.Search(ctx, terms, 5)
	if err != nil || len(results) == 0 {
		return FetchResult{}, false
	}

	result, ok := f.tier1PlainHTTP(ctx, results[0].URL)
	return result, ok
}

// slugTerms turns a URL path like "/news/2023/acme-corp-fraud-settlement"
// into a search query from its slug: the last path segment that still has
// words once its extension and numeric parts are dropped, joined with
// spaces ("acme corp fraud settlement").
func slugTerms(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSuffix(segments[i], filepathExt(segments[i]))
		var words []string
		for _, word := range strings.FieldsFunc(seg, func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		}) {
			if word == "" || isAllDigits(word) {
				continue
			}
			words = append(words, word)
		}
		if len(words) > 0 {
			return strings.Join(words, " ")
		}
	}
	return ""
}
