package search

import (
	"context"
	"testing"

	"github.com/deepresearch/investigator/pkg/domain"
)

type fakeProvider struct {
	name    string
	results map[string][]Result
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return p.results[query], nil
}

func newBaselineState() *domain.InvestigationState {
	return domain.NewInvestigationState("inv-1", domain.Subject{FullName: "Jensen Huang", Organization: "NVIDIA"}, 15, 0.88)
}

func TestResearcherDedupesResultsByURL(t *testing.T) {
	provider := &fakeProvider{
		name: "fake",
		results: map[string][]Result{
			"nvidia ceo": {
				{Title: "NVIDIA Profile", URL: "https://example.com/nvidia", Snippet: "profile"},
				{Title: "NVIDIA Profile Dup", URL: "https://example.com/nvidia", Snippet: "dup"},
			},
		},
	}
	r := NewResearcher(provider, provider, newTestFetcher(t, nil), 10)

	state := newBaselineState()
	next := r.Run(context.Background(), state, []string{"nvidia ceo"})

	if len(next.PendingContent) != 1 {
		t.Fatalf("PendingContent = %d items, want 1 (deduped)", len(next.PendingContent))
	}
}

func TestResearcherBaselinePhaseSkipsFetch(t *testing.T) {
	provider := &fakeProvider{
		name: "fake",
		results: map[string][]Result{
			"nvidia ceo": {{Title: "NVIDIA", URL: "https://example.com/nvidia", Snippet: "profile"}},
		},
	}
	r := NewResearcher(provider, provider, newTestFetcher(t, nil), 10)

	state := newBaselineState() // PhaseBaseline by construction
	next := r.Run(context.Background(), state, []string{"nvidia ceo"})

	if len(next.PendingContent) != 1 {
		t.Fatalf("PendingContent = %d, want 1", len(next.PendingContent))
	}
	if next.PendingContent[0].RawContent != "" {
		t.Error("expected no fetch attempt during baseline phase")
	}
}

func TestResearcherNonBaselinePhaseAttemptsFetchAndRecordsInaccessible(t *testing.T) {
	provider := &fakeProvider{
		name: "fake",
		results: map[string][]Result{
			"nvidia board": {{Title: "Board", URL: "https://definitely-unreachable.invalid/page", Snippet: "s"}},
		},
	}
	r := NewResearcher(provider, provider, newTestFetcher(t, nil), 10)

	state := newBaselineState()
	state.AdvancePhase(domain.PhaseBreadth)
	next := r.Run(context.Background(), state, []string{"nvidia board"})

	if len(next.InaccessibleURLs) != 1 {
		t.Fatalf("InaccessibleURLs = %d, want 1", len(next.InaccessibleURLs))
	}
	if next.InaccessibleURLs[0].Query != "nvidia board" {
		t.Errorf("inaccessible query = %q, want %q", next.InaccessibleURLs[0].Query, "nvidia board")
	}
}

func TestResearcherEmptyQueriesNoOp(t *testing.T) {
	provider := &fakeProvider{name: "fake"}
	r := NewResearcher(provider, provider, newTestFetcher(t, nil), 10)

	state := newBaselineState()
	next := r.Run(context.Background(), state, nil)

	if len(next.SearchHistory) != 0 {
		t.Errorf("SearchHistory = %d, want 0 for empty query list", len(next.SearchHistory))
	}
}

func TestResearcherRecordsSearchHistory(t *testing.T) {
	provider := &fakeProvider{
		name: "fake",
		results: map[string][]Result{
			"nvidia ceo": {{Title: "NVIDIA", URL: "https://example.com/nvidia", Snippet: "s"}},
		},
	}
	r := NewResearcher(provider, provider, newTestFetcher(t, nil), 10)

	state := newBaselineState()
	next := r.Run(context.Background(), state, []string{"nvidia ceo"})

	if len(next.SearchHistory) != 1 {
		t.Fatalf("SearchHistory = %d, want 1", len(next.SearchHistory))
	}
	if !next.SearchHistory[0].WasUseful {
		t.Error("expected record with results to be marked useful")
	}
}
