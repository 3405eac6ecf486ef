package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
)

// minEntitiesForTemporalAnalysis is the skip threshold.
const minEntitiesForTemporalAnalysis = 2

// TemporalAnalyzer is the Temporal Analyzer worker : it
// extracts dated facts and detects contradictions between them, auto-
// generating an inconsistency risk flag for anything medium-or-higher
// severity.
type TemporalAnalyzer struct {
	gateway *llm.Gateway
}

func NewTemporalAnalyzer(gateway *llm.Gateway) *TemporalAnalyzer {
	return &TemporalAnalyzer{gateway: gateway}
}

func (t *TemporalAnalyzer) Name() string { return "temporal_analysis" }

func (t *TemporalAnalyzer) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()

	if len(next.Entities) < minEntitiesForTemporalAnalysis {
		next.LogError(t.Name(), "skipped: fewer than 2 entities", time.Now())
		return next
	}

	prompt := buildTemporalPrompt(next)
	req := buildRequest(t.gateway, domain.TaskTemporalAnalysis, temporalSystemPrompt, prompt, true, 3072)
	resp, err := t.gateway.Call(ctx, domain.TaskTemporalAnalysis, req)
	if err != nil {
		next.LogError(t.Name(), fmt.Sprintf("gateway call failed: %v", err), time.Now())
		return next
	}

	factByIndex := map[int]*domain.TemporalFact{}
	idx := 0
	gjson.Get(resp.Text, "temporal_facts").ForEach(func(_, v gjson.Result) bool {
		entityID := resolveEndpointAnyType(next, v.Get("entity").String())
		fact := domain.NewTemporalFact(v.Get("claim").String(), entityID, v.Get("confidence").Float())
		fact.StartDate = v.Get("start_date").String()
		fact.EndDate = v.Get("end_date").String()
		fact.AsOfDate = v.Get("as_of_date").String()
		fact.Category = v.Get("category").String()
		v.Get("sources").ForEach(func(_, s gjson.Result) bool {
			fact.Sources = append(fact.Sources, s.String())
			return true
		})
		next.TemporalFacts = append(next.TemporalFacts, fact)
		factByIndex[idx] = fact
		idx++
		return true
	})

	gjson.Get(resp.Text, "contradictions").ForEach(func(_, v gjson.Result) bool {
		a := factByIndex[int(v.Get("fact_index_a").Int())]
		b := factByIndex[int(v.Get("fact_index_b").Int())]
		if a == nil || b == nil {
			return true
		}
		severity := domain.RiskSeverity(v.Get("severity").String())
		contradiction := domain.NewTemporalContradiction(a.ID, b.ID, v.Get("description").String(), severity, v.Get("confidence").Float())
		next.TemporalContradictions = append(next.TemporalContradictions, contradiction)

		if contradiction.IsAutoFlagWorthy() {
			entityIDs := uniqueNonEmpty(a.EntityID, b.EntityID)
			next.AddRiskFlag(contradiction.ToRiskFlag(entityIDs))
		}
		return true
	})

	return next
}

func uniqueNonEmpty(values ...string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func buildTemporalPrompt(state *domain.InvestigationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n\nEntities:\n", state.Subject.FullName)
	for _, e := range state.Entities {
		fmt.Fprintf(&b, "- %s (%s): %s\n", e.Name, e.Type, e.Description)
	}
	b.WriteString("\nKnown facts:\n")
	for _, f := range state.Subject.KnownAssociations {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

const temporalSystemPrompt = `You are a temporal-analysis agent for a due-diligence investigation. ` +
	`Extract dated claims about entities and flag any that contradict each other (overlapping exclusive roles, impossible date ranges, conflicting as-of facts). ` +
	`Respond with a JSON object: {"temporal_facts": [{"claim": string, "entity": string, "start_date": string, ` +
	`"end_date": string, "as_of_date": string, "category": string, "confidence": number 0-1, "sources": [string]}], ` +
	`"contradictions": [{"fact_index_a": integer, "fact_index_b": integer, "description": string, ` +
	`"severity": one of "critical","high","medium","low","info", "confidence": number 0-1}]}. ` +
	`fact_index values are zero-based indices into temporal_facts.`
