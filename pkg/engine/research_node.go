package engine

import (
	"context"

	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/search"
)

// researchNode adapts *search.Researcher to Worker: it reads the query
// list off the state's last Director decision (the Director proposes up
// to 5 per call) rather than taking them as a Run parameter, so it can sit
// in the same node registry as every other worker.
type researchNode struct {
	researcher *search.Researcher
}

func (r *researchNode) Name() string { return "web_research" }

func (r *researchNode) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	var queries []string
	if state.LastDecision != nil {
		queries = state.LastDecision.SearchQueries
	}
	startIdx := len(state.SearchHistory)
	next := r.researcher.Run(ctx, state, queries)
	for i := startIdx; i < len(next.SearchHistory); i++ {
		next.SearchHistory[i].Iteration = next.Iteration
	}
	return next
}
