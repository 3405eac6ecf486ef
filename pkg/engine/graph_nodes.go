package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/graphstore"
)

// graphPersistNode adapts *graphstore.Client.Persist to Worker. A nil
// client means graph persistence is disabled (config.Agent.EnableGraph ==
// false); the node then just logs and passes the state through unchanged,
// matching every other worker's "never halt the machine" contract.
type graphPersistNode struct {
	client *graphstore.Client
}

func (g *graphPersistNode) Name() string { return "graph_persist" }

func (g *graphPersistNode) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()
	if g.client == nil {
		next.LogError(g.Name(), "graph persistence disabled", time.Now())
		return next
	}
	if err := g.client.Persist(ctx, next); err != nil {
		next.LogError(g.Name(), fmt.Sprintf("persist failed: %v", err), time.Now())
	}
	return next
}

// graphReasoningNode runs the six discovery queries against the
// just-persisted graph and folds the resulting insights back into state
// ("always-on reasoning stage").
type graphReasoningNode struct {
	client *graphstore.Client
}

func (g *graphReasoningNode) Name() string { return "graph_reasoning" }

func (g *graphReasoningNode) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()
	if g.client == nil {
		next.LogError(g.Name(), "graph reasoning disabled", time.Now())
		return next
	}

	subjectID := resolveSubjectEntityID(next)
	if subjectID == "" {
		next.LogError(g.Name(), "no graph entity matches the investigation subject; skipping discovery queries", time.Now())
		return next
	}

	insights, err := g.client.RunDiscoveryQueries(ctx, subjectID)
	if err != nil {
		next.LogError(g.Name(), fmt.Sprintf("discovery queries failed: %v", err), time.Now())
	}
	next.GraphInsights = append(next.GraphInsights, insights...)
	return next
}

// resolveSubjectEntityID finds the entity that represents the investigation
// subject, preferring an exact case-folded name match typed as a person,
// falling back to any type.
func resolveSubjectEntityID(state *domain.InvestigationState) string {
	norm := domain.NormalizedName(state.Subject.FullName)
	var fallback string
	for _, e := range state.Entities {
		if domain.NormalizedName(e.Name) != norm {
			continue
		}
		if e.Type == domain.EntityPerson {
			return e.ID
		}
		if fallback == "" {
			fallback = e.ID
		}
	}
	return fallback
}
