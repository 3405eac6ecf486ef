package search

import (
	"context"
	"sync"

	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/metrics"
)

// maxFetchAttemptsPerIteration bounds how many pending-content items get a
// full Tiered Fetcher pass in one Run call, keeping one iteration's wall
// time bounded regardless of how many results a query batch returned.
const maxFetchAttemptsPerIteration = 20

// Researcher is the Web Researcher node : it issues the
// Director's proposed queries, dedupes results by URL, and fetches raw
// content for anything the search snippet alone doesn't cover.
type Researcher struct {
	primary  Provider
	fallback Provider
	fetcher  *Fetcher
	resultsPerQuery int
}

// NewResearcher builds a Researcher from its provider pair and fetcher.
func NewResearcher(primary, fallback Provider, fetcher *Fetcher, resultsPerQuery int) *Researcher {
	if resultsPerQuery <= 0 {
		resultsPerQuery = 10
	}
	return &Researcher{primary: primary, fallback: fallback, fetcher: fetcher, resultsPerQuery: resultsPerQuery}
}

// Run executes the given queries against state's current phase and returns
// a mutated clone of state with search records, pending content, and any
// newly-discovered inaccessible URLs appended.
func (r *Researcher) Run(ctx context.Context, state *domain.InvestigationState, queries []string) *domain.InvestigationState {
	next := state.Clone()
	if len(queries) == 0 {
		return next
	}

	dual := next.CurrentPhase == domain.PhaseTriangulation || next.CurrentPhase == domain.PhaseAdversarial

	type queryResult struct {
		query    string
		provider string
		results  []Result
	}

	resultsCh := make(chan queryResult, len(queries)*2)
	var wg sync.WaitGroup

	issue := func(q string, p Provider) {
		defer wg.Done()
		results, err := p.Search(ctx, q, r.resultsPerQuery)
		metrics.RecordSearchCall(p.Name(), string(next.CurrentPhase))
		if err != nil {
			resultsCh <- queryResult{query: q, provider: p.Name()}
			return
		}
		resultsCh <- queryResult{query: q, provider: p.Name(), results: results}
	}

	for _, q := range queries {
		wg.Add(1)
		go issue(q, r.primary)
		if dual && r.fallback != r.primary {
			wg.Add(1)
			go issue(q, r.fallback)
		}
	}
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	seenURLs := map[string]bool{}
	fetchBudget := maxFetchAttemptsPerIteration

	for qr := range resultsCh {
		record := &domain.SearchRecord{
			Query:      qr.query,
			Provider:   qr.provider,
			Phase:      next.CurrentPhase,
			NumResults: len(qr.results),
			WasUseful:  len(qr.results) > 0,
		}
		for _, res := range qr.results {
			record.ResultURLs = append(record.ResultURLs, res.URL)
			record.Snippets = append(record.Snippets, res.Snippet)
		}
		next.SearchHistory = append(next.SearchHistory, record)

		for _, res := range qr.results {
			if res.URL == "" || seenURLs[res.URL] {
				continue
			}
			seenURLs[res.URL] = true

			item := &domain.PendingContentItem{
				URL:     res.URL,
				Title:   res.Title,
				Snippet: res.Snippet,
				Domain:  res.Domain,
				Query:   qr.query,
			}

			needsFetch := next.CurrentPhase != domain.PhaseBaseline && fetchBudget > 0
			if needsFetch {
				fetchBudget--
				result := r.fetcher.Fetch(ctx, res.URL)
				if result.Status == StatusOK {
					item.RawContent = result.Content
				} else {
					next.MarkInaccessible(res.URL, result.InaccessibleReason, qr.query, next.CurrentPhase)
				}
			}
			next.PendingContent = append(next.PendingContent, item)
		}
	}

	return next
}
