package engine

import (
	"context"
	"fmt"
	"strings"

	internalerrors "github.com/deepresearch/investigator/internal/errors"
	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/jsonrepair"
	"github.com/deepresearch/investigator/pkg/metrics"
	"github.com/tidwall/gjson"
)

// persistentFailureLimit is the consecutive-gateway-failure count that
// forces synthesis.
const persistentFailureLimit = 3

// Director is the supervisor: given the full current state, it produces
// the next DirectorDecision by evaluating the planning protocol
// in order and stopping at the first rule that fires.
type Director struct {
	gateway             *llm.Gateway
	lookback, minNew    int
	diminishingDefaults bool
}

// NewDirector constructs a Director. lookback/minNew of 0 fall back to the
// defaults (2, 2).
func NewDirector(gateway *llm.Gateway, lookback, minNew int) *Director {
	if lookback <= 0 {
		lookback = 2
	}
	if minNew <= 0 {
		minNew = 2
	}
	return &Director{gateway: gateway, lookback: lookback, minNew: minNew}
}

func (d *Director) Name() string { return "director" }

// Plan evaluates the six-step planning protocol and returns a decision plus
// the updated state (failure-counter mutations, phase advancement).
func (d *Director) Plan(ctx context.Context, state *domain.InvestigationState) (*domain.DirectorDecision, *domain.InvestigationState) {
	next := state.Clone()

	// Step 1: hard limits.
	if next.Iteration >= next.MaxIterations {
		return synthesisDecision("max iterations reached"), next
	}

	// Step 2: persistent failure.
	if next.ConsecutiveGatewayFailures >= persistentFailureLimit {
		return synthesisDecision("persistent gateway failure"), next
	}

	// Step 3: diminishing returns.
	if next.DiminishingReturns(d.lookback, d.minNew) {
		return synthesisDecision("diminishing returns"), next
	}

	// Step 4: LLM planning call.
	decision, err := d.callPlanningLLM(ctx, next)
	if err == nil {
		next.ConsecutiveGatewayFailures = 0
		decision.SearchQueries = domain.DedupeQueries(decision.SearchQueries, next.UsedQueriesSet())
		decision.CapQueries()
		metrics.RecordDirectorDecision(string(decision.NextAction))
		next.LastDecision = decision
		return decision, next
	}

	// Step 5: budget exhausted.
	if internalerrors.IsType(err, internalerrors.ErrorTypeBudget) {
		decision := synthesisDecision("budget exhausted")
		next.LastDecision = decision
		metrics.RecordDirectorDecision(string(decision.NextAction))
		return decision, next
	}

	// Step 6: any other failure -> increment counter, deterministic fallback.
	next.ConsecutiveGatewayFailures++
	decision = d.fallbackDecision(next)
	next.LastDecision = decision
	metrics.RecordDirectorDecision(string(decision.NextAction))
	return decision, next
}

func synthesisDecision(reason string) *domain.DirectorDecision {
	return &domain.DirectorDecision{
		Reasoning:  reason,
		NextAction: domain.ActionGenerateReport,
		Phase:      domain.PhaseSynthesis,
	}
}

// callPlanningLLM builds the planning prompt and parses the gateway's JSON
// response into a DirectorDecision.
func (d *Director) callPlanningLLM(ctx context.Context, state *domain.InvestigationState) (*domain.DirectorDecision, error) {
	prompt := buildPlanningPrompt(state)
	resp, err := d.gateway.Call(ctx, domain.TaskPlanning, llm.CompletionRequest{
		Model: "planning",
		Messages: []llm.Message{
			{Role: "system", Content: directorSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:     0.2,
		MaxTokens:       2048,
		RequestJSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	repaired := jsonrepair.Repair(resp.Text)
	if repaired == "" || !gjson.Valid(repaired) {
		return nil, fmt.Errorf("director: planning response was not repairable JSON")
	}

	decision := &domain.DirectorDecision{
		Reasoning:              gjson.Get(repaired, "reasoning").String(),
		NextAction:             domain.Action(gjson.Get(repaired, "next_action").String()),
		Phase:                  domain.Phase(gjson.Get(repaired, "phase").String()),
		CompletenessConfidence: gjson.Get(repaired, "completeness_confidence").Float(),
	}
	gjson.Get(repaired, "search_queries").ForEach(func(_, v gjson.Result) bool {
		decision.SearchQueries = append(decision.SearchQueries, v.String())
		return true
	})
	gjson.Get(repaired, "target_entity_ids").ForEach(func(_, v gjson.Result) bool {
		decision.TargetEntityIDs = append(decision.TargetEntityIDs, v.String())
		return true
	})
	gjson.Get(repaired, "gaps").ForEach(func(_, v gjson.Result) bool {
		decision.Gaps = append(decision.Gaps, v.String())
		return true
	})

	if decision.NextAction == "" {
		return nil, fmt.Errorf("director: planning response missing next_action")
	}
	if decision.Phase == "" {
		decision.Phase = state.CurrentPhase
	}
	return decision, nil
}

const directorSystemPrompt = `You are the research director for an autonomous due-diligence investigation. ` +
	`Given the current investigation state, decide the single next action. ` +
	`Respond with a JSON object: {"reasoning": string, "next_action": one of ` +
	`"search_web","extract_facts","analyze_risks","map_connections","verify_sources","update_graph","generate_report","terminate", ` +
	`"search_queries": [string, up to 5], "target_entity_ids": [string], "phase": one of ` +
	`"baseline","breadth","depth","adversarial","triangulation","synthesis", "completeness_confidence": number 0-1, "gaps": [string]}. ` +
	`Never propose a search query that already appears in the search history.`

func buildPlanningPrompt(state *domain.InvestigationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s (%s at %s)\n", state.Subject.FullName, state.Subject.Role, state.Subject.Organization)
	fmt.Fprintf(&b, "Phase: %s, Iteration: %d/%d\n", state.CurrentPhase, state.Iteration, state.MaxIterations)
	fmt.Fprintf(&b, "Entities found so far: %d\n", len(state.Entities))
	for i, e := range state.Entities {
		if i >= 20 {
			fmt.Fprintf(&b, "... and %d more\n", len(state.Entities)-20)
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", e.Name, e.Type)
	}
	b.WriteString("Search history (do not repeat any of these queries):\n")
	for _, rec := range state.SearchHistory {
		fmt.Fprintf(&b, "- %q (%s, %d results)\n", rec.Query, rec.Phase, rec.NumResults)
	}
	b.WriteString("Open hypotheses:\n")
	for _, h := range state.Hypotheses {
		if h.Status == domain.HypothesisOpen {
			fmt.Fprintf(&b, "- %s (priority %d)\n", h.Description, h.Priority)
		}
	}
	if state.LastDecision != nil && len(state.LastDecision.Gaps) > 0 {
		b.WriteString("Previously identified gaps:\n")
		for _, g := range state.LastDecision.Gaps {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}
	return b.String()
}

// fallbackDecision implements the deterministic fallback: never
// repeats a used query, escalating from name-based baseline queries through
// discovered-entity combinations to phase-appropriate keyword templates.
func (d *Director) fallbackDecision(state *domain.InvestigationState) *domain.DirectorDecision {
	used := state.UsedQueriesSet()
	name := state.Subject.FullName

	var candidates []string
	if state.Iteration <= 1 {
		candidates = []string{
			fmt.Sprintf("%s %s", name, state.Subject.Organization),
			fmt.Sprintf("%s LinkedIn", name),
			fmt.Sprintf("%s biography", name),
		}
	} else {
		discovered := 0
		for _, e := range state.Entities {
			if e.Name == "" || domain.NormalizedName(e.Name) == domain.NormalizedName(name) {
				continue
			}
			candidates = append(candidates, fmt.Sprintf("%s %s", name, e.Name))
			discovered++
			if discovered >= 3 {
				break
			}
		}
		candidates = domain.DedupeQueries(candidates, used)
		if len(candidates) == 0 {
			candidates = phaseKeywordQueries(name, state.CurrentPhase)
		}
	}

	queries := domain.DedupeQueries(candidates, used)
	if len(queries) == 0 {
		return synthesisDecision("fallback exhausted all candidate queries")
	}

	decision := &domain.DirectorDecision{
		Reasoning:     "deterministic fallback after gateway failure",
		NextAction:    domain.ActionSearchWeb,
		SearchQueries: queries,
		Phase:         state.CurrentPhase,
	}
	decision.CapQueries()
	return decision
}

// phaseKeywordQueries returns the phase-appropriate keyword templates
// the fallback decision escalates to once discovered-entity
// combinations are exhausted.
func phaseKeywordQueries(name string, phase domain.Phase) []string {
	var keywords []string
	switch phase {
	case domain.PhaseBreadth:
		keywords = []string{"SEC filings", "board memberships"}
	case domain.PhaseDepth:
		keywords = []string{"controversy"}
	case domain.PhaseAdversarial:
		keywords = []string{"lawsuit", "fraud"}
	case domain.PhaseTriangulation:
		keywords = []string{"interview quotes"}
	default:
		keywords = []string{"news"}
	}
	queries := make([]string, 0, len(keywords))
	for _, k := range keywords {
		queries = append(queries, fmt.Sprintf("%s %s", name, k))
	}
	return queries
}
