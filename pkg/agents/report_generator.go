package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/report"
)

// ReportGenerator is the Report Generation worker (, deep
// tier): the terminal node of the synthesis pipeline. It asks a deep-tier
// model for an overall rating, narrative, key findings and
// recommendations, then hands the whole structured payload to the
// out-of-core templater ("Report templating"). A templater
// failure falls back to the raw narrative; a gateway failure falls back to
// a fully deterministic report built straight from state.
type ReportGenerator struct {
	gateway *llm.Gateway
}

func NewReportGenerator(gateway *llm.Gateway) *ReportGenerator {
	return &ReportGenerator{gateway: gateway}
}

func (g *ReportGenerator) Name() string { return "report_generation" }

func (g *ReportGenerator) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()

	prompt := buildReportPrompt(next)
	req := buildRequest(g.gateway, domain.TaskReportGeneration, reportGenerationSystemPrompt, prompt, true, 4096)
	resp, err := g.gateway.Call(ctx, domain.TaskReportGeneration, req)
	if err != nil {
		next.LogError(g.Name(), fmt.Sprintf("gateway call failed: %v", err), time.Now())
		next.FinalReport = report.Fallback(next)
		return next
	}

	rating := gjson.Get(resp.Text, "overall_rating").String()
	if rating == "" {
		rating = "unrated"
	}
	narrative := gjson.Get(resp.Text, "narrative").String()
	if narrative == "" {
		narrative = resp.Text
	}

	var keyFindings []string
	gjson.Get(resp.Text, "key_findings").ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			keyFindings = append(keyFindings, s)
		}
		return true
	})

	var recommendations []string
	gjson.Get(resp.Text, "recommendations").ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			recommendations = append(recommendations, s)
		}
		return true
	})

	payload := report.FromState(next, narrative, rating, keyFindings, recommendations)
	payload.GeneratedAt = time.Now()

	rendered, err := report.Generate(payload)
	if err != nil {
		next.LogError(g.Name(), fmt.Sprintf("templater unavailable: %v", err), time.Now())
		next.FinalReport = narrative
		return next
	}

	next.FinalReport = rendered
	return next
}

func buildReportPrompt(state *domain.InvestigationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s (%s at %s)\n\n", state.Subject.FullName, state.Subject.Role, state.Subject.Organization)

	fmt.Fprintf(&b, "Entities (%d):\n", len(state.Entities))
	for _, e := range state.Entities {
		fmt.Fprintf(&b, "- %s (%s, confidence %.2f): %s\n", e.Name, e.Type, e.Confidence, e.Description)
	}

	fmt.Fprintf(&b, "\nConnections (%d):\n", len(state.Connections))
	for _, c := range state.Connections {
		fmt.Fprintf(&b, "- %s -[%s]-> %s\n", c.SourceID, c.Type, c.TargetID)
	}

	fmt.Fprintf(&b, "\nRisk flags (%d), severity order:\n", len(state.RiskFlags))
	for _, r := range domain.BySeverityDescending(state.RiskFlags) {
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n", r.Severity, r.Category, r.Title, r.Description)
	}

	b.WriteString("\nGraph insights:\n")
	for _, insight := range state.GraphInsights {
		fmt.Fprintf(&b, "- [%s] %s\n", insight.Kind, insight.Description)
	}

	b.WriteString("\nDebate transcript (final judge synthesis):\n")
	for _, entry := range state.DebateTranscript {
		if entry.Role == "judge" {
			fmt.Fprintf(&b, "- %s\n", entry.Content)
		}
	}

	fmt.Fprintf(&b, "\nOverall confidence so far: %.2f\n", state.OverallConfidence)
	if len(state.InaccessibleURLs) > 0 {
		fmt.Fprintf(&b, "Inaccessible sources: %d (factor into confidence assessment)\n", len(state.InaccessibleURLs))
	}

	return b.String()
}

const reportGenerationSystemPrompt = `You are a report-generation agent producing the narrative core of a due-diligence report. ` +
	`Given accumulated entities, connections, risk flags, graph insights, and the risk-debate judge's synthesis, write an executive-summary-style narrative, ` +
	`an overall rating, standalone key findings, and concrete recommendations. ` +
	`Respond with a JSON object: {"overall_rating": one of "low_risk","moderate_risk","elevated_risk","high_risk","insufficient_data", ` +
	`"narrative": string, "key_findings": [string], "recommendations": [string]}.`
