package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
)

// minEntitiesForRiskAnalysis is the skip threshold states:
// "Skipped if |entities| < 2".
const minEntitiesForRiskAnalysis = 2

// placeholderArgument is substituted when a debater returns an empty
// argument, so the judge still has something to weigh ("Edge
// policy").
const placeholderArgument = "(no specific concerns identified)"

// RiskAnalyzer runs the three-agent adversarial-debate-and-judge protocol
// in one node visit: proponent and skeptic argue in
// parallel, then a judge synthesizes both arguments plus recent
// adversarial-phase search history into risk flags.
type RiskAnalyzer struct {
	gateway *llm.Gateway
}

func NewRiskAnalyzer(gateway *llm.Gateway) *RiskAnalyzer {
	return &RiskAnalyzer{gateway: gateway}
}

func (r *RiskAnalyzer) Name() string { return "risk_analysis" }

func (r *RiskAnalyzer) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()

	if len(next.Entities) < minEntitiesForRiskAnalysis {
		next.LogError(r.Name(), "skipped: fewer than 2 entities", time.Now())
		return next
	}

	summary := summarizeForDebate(next)

	var proponentArg, skepticArg string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		proponentArg = r.argue(ctx, domain.TaskRiskProponent, proponentSystemPrompt, summary)
	}()
	go func() {
		defer wg.Done()
		skepticArg = r.argue(ctx, domain.TaskRiskSkeptic, skepticSystemPrompt, summary)
	}()
	wg.Wait()

	if strings.TrimSpace(proponentArg) == "" {
		proponentArg = placeholderArgument
	}
	if strings.TrimSpace(skepticArg) == "" {
		skepticArg = placeholderArgument
	}

	now := time.Now()
	next.DebateTranscript = append(next.DebateTranscript,
		domain.DebateEntry{Role: "proponent", Content: proponentArg, Timestamp: now},
		domain.DebateEntry{Role: "skeptic", Content: skepticArg, Timestamp: now},
	)

	judgePrompt := buildJudgePrompt(next, proponentArg, skepticArg)
	req := buildRequest(r.gateway, domain.TaskRiskJudge, judgeSystemPrompt, judgePrompt, true, 3072)
	resp, err := r.gateway.Call(ctx, domain.TaskRiskJudge, req)
	if err != nil {
		next.LogError(r.Name(), fmt.Sprintf("judge call failed: %v", err), now)
		return next
	}

	narrative := gjson.Get(resp.Text, "narrative_summary").String()
	if narrative == "" {
		narrative = resp.Text
	}
	next.DebateTranscript = append(next.DebateTranscript, domain.DebateEntry{
		Role: "judge", Content: narrative, Timestamp: time.Now(),
	})

	gjson.Get(resp.Text, "risk_flags").ForEach(func(_, v gjson.Result) bool {
		flag := domain.NewRiskFlag(
			domain.RiskCategory(v.Get("category").String()),
			domain.RiskSeverity(v.Get("severity").String()),
			v.Get("title").String(),
			v.Get("description").String(),
			v.Get("confidence").Float(),
		)
		if flag.Title == "" {
			return true
		}
		v.Get("evidence_urls").ForEach(func(_, u gjson.Result) bool {
			flag.EvidenceURLs = append(flag.EvidenceURLs, u.String())
			return true
		})
		v.Get("affected_entity_ids").ForEach(func(_, id gjson.Result) bool {
			flag.AffectedEntityIDs = append(flag.AffectedEntityIDs, id.String())
			return true
		})
		v.Get("mitigating_factors").ForEach(func(_, m gjson.Result) bool {
			flag.MitigatingFactors = append(flag.MitigatingFactors, m.String())
			return true
		})
		next.AddRiskFlag(flag)
		return true
	})

	return next
}

// argue issues one fast-tier debate call and returns its plain-text
// argument, or "" on any gateway failure (the caller substitutes the
// placeholder).
func (r *RiskAnalyzer) argue(ctx context.Context, role domain.TaskRole, system, summary string) string {
	req := buildRequest(r.gateway, role, system, summary, false, 512)
	resp, err := r.gateway.Call(ctx, role, req)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(resp.Text)
}

func summarizeForDebate(state *domain.InvestigationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s (%s at %s)\n\n", state.Subject.FullName, state.Subject.Role, state.Subject.Organization)
	b.WriteString("Entities:\n")
	for _, e := range state.Entities {
		fmt.Fprintf(&b, "- %s (%s): %s\n", e.Name, e.Type, e.Description)
	}
	b.WriteString("\nConnections:\n")
	for _, c := range state.Connections {
		fmt.Fprintf(&b, "- %s -[%s]-> %s\n", c.SourceID, c.Type, c.TargetID)
	}
	b.WriteString("\nExisting risk flags:\n")
	for _, f := range state.RiskFlags {
		fmt.Fprintf(&b, "- [%s/%s] %s\n", f.Category, f.Severity, f.Title)
	}
	return b.String()
}

func buildJudgePrompt(state *domain.InvestigationState, proponentArg, skepticArg string) string {
	var b strings.Builder
	b.WriteString(summarizeForDebate(state))
	b.WriteString("\nAdversarial-phase search history:\n")
	count := 0
	for i := len(state.SearchHistory) - 1; i >= 0 && count < 20; i-- {
		rec := state.SearchHistory[i]
		if rec.Phase != domain.PhaseAdversarial {
			continue
		}
		fmt.Fprintf(&b, "- %q (%d results)\n", rec.Query, rec.NumResults)
		count++
	}
	fmt.Fprintf(&b, "\nProponent argument:\n%s\n\nSkeptic argument:\n%s\n", proponentArg, skepticArg)
	return b.String()
}

const proponentSystemPrompt = `You are the proponent in a due-diligence risk debate. ` +
	`Argue, in a short plain-text paragraph, that the subject presents LOW risk based on the available entities and connections.`

const skepticSystemPrompt = `You are the skeptic in a due-diligence risk debate. ` +
	`Argue, in a short plain-text paragraph, that the subject presents MEANINGFUL risk based on the available entities and connections.`

const judgeSystemPrompt = `You are the judge in a due-diligence risk debate. ` +
	`Weigh the proponent's and skeptic's arguments against the evidence and recent search history. ` +
	`Respond with a JSON object: {"risk_flags": [{"category": one of ` +
	`"regulatory","litigation","financial","reputational","association","inconsistency","sanctions","political_exposure", ` +
	`"severity": one of "critical","high","medium","low","info", "title": string, "description": string, ` +
	`"evidence_urls": [string], "affected_entity_ids": [string], "confidence": number 0-1, "mitigating_factors": [string]}], ` +
	`"narrative_summary": string}.`
