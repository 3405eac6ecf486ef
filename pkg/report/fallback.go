package report

import (
	"fmt"
	"strings"

	"github.com/deepresearch/investigator/pkg/domain"
)

// Fallback builds a fully deterministic report directly from state,
// bypassing both the LLM narrative and the templater. It is the last
// resort "Propagation rules" implies for a Report Generation
// node whose gateway call also fails: the investigation must still
// produce *something* rather than terminate with no artifact at all.
func Fallback(state *domain.InvestigationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Due Diligence Report: %s\n\n", state.Subject.FullName)
	fmt.Fprintf(&b, "_Automatically generated; narrative synthesis was unavailable._\n\n")

	fmt.Fprintf(&b, "## Executive Summary\n\n")
	fmt.Fprintf(&b, "%d entities, %d connections, and %d risk flags were accumulated over %d iteration(s). ",
		len(state.Entities), len(state.Connections), len(state.RiskFlags), state.Iteration)
	fmt.Fprintf(&b, "Overall confidence: %.0f%%.\n\n", state.OverallConfidence*100)

	b.WriteString("## Subject Profile\n\n")
	for _, e := range state.Entities {
		fmt.Fprintf(&b, "- %s (%s, confidence %.0f%%)\n", e.Name, e.Type, e.Confidence*100)
	}
	if len(state.Entities) == 0 {
		b.WriteString("_No entities were accumulated._\n")
	}
	b.WriteString("\n")

	b.WriteString("## Organizational Connections\n\n")
	byID := map[string]string{}
	for _, e := range state.Entities {
		byID[e.ID] = e.Name
	}
	for _, c := range state.Connections {
		fmt.Fprintf(&b, "- %s -[%s]-> %s\n", nameOr(byID, c.SourceID), c.Type, nameOr(byID, c.TargetID))
	}
	if len(state.Connections) == 0 {
		b.WriteString("_No connections were mapped._\n")
	}
	b.WriteString("\n")

	b.WriteString("## Risk Assessment\n\n")
	for _, r := range domain.BySeverityDescending(state.RiskFlags) {
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n", r.Severity, r.Category, r.Title, r.Description)
	}
	if len(state.RiskFlags) == 0 {
		b.WriteString("_No risk flags were raised._\n")
	}
	b.WriteString("\n")

	b.WriteString("## Confidence Assessment\n\n")
	fmt.Fprintf(&b, "Overall confidence: %.0f%%\n", state.OverallConfidence*100)
	if len(state.InaccessibleURLs) > 0 {
		b.WriteString("\nInaccessible sources:\n")
		for _, u := range state.InaccessibleURLs {
			fmt.Fprintf(&b, "- %s (%s)\n", u.URL, u.Reason)
		}
	}

	return b.String()
}
