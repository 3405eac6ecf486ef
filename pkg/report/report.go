// Package report renders an investigation's accumulated state into the
// markdown report the engine hands back to the operator (
// "Report structure"). Rendering is a pure, templater-first concern
// deliberately kept outside the state machine's reach (the
// "out-of-core templater" supplemented feature): Generate takes a payload,
// never an *domain.InvestigationState, so the report package stays
// reusable for any narrative-plus-facts shape a caller assembles.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/deepresearch/investigator/pkg/domain"
)

// EntitySummary is one row of the Subject Profile / connection narrative.
type EntitySummary struct {
	Name        string
	Type        domain.EntityType
	Description string
	Confidence  float64
	Sources     []string
}

// ConnectionSummary is one row of Organizational Connections.
type ConnectionSummary struct {
	SourceName  string
	TargetName  string
	Type        domain.RelationshipType
	Description string
	Confidence  float64
}

// RiskSummary is one row of Risk Assessment, already grouped by severity
// by the caller (domain.BySeverityDescending).
type RiskSummary struct {
	Category          domain.RiskCategory
	Severity          domain.RiskSeverity
	Title             string
	Description       string
	EvidenceURLs      []string
	Confidence        float64
	MitigatingFactors []string
}

// TimelineEntry is one dated fact surfaced in the Investigation Timeline.
type TimelineEntry struct {
	Date        string
	Description string
}

// Payload is everything Generate needs to render a full report; the
// caller (pkg/agents.ReportGenerator) is responsible for assembling it
// from an *domain.InvestigationState.
type Payload struct {
	SubjectName         string
	SubjectRole         string
	SubjectOrganization string
	GeneratedAt         time.Time

	OverallRating string // : Executive Summary carries an overall rating
	Narrative     string // LLM-authored executive summary / key findings prose

	Entities    []EntitySummary
	Connections []ConnectionSummary
	Risks       []RiskSummary // already severity-sorted by the caller
	Timeline    []TimelineEntry

	KeyFindings     []string
	OverallConfidence float64
	InaccessibleURLs []string // surfaced into Confidence Assessment per
	Recommendations   []string
}

// Generate renders payload through the report template. A template
// execution failure is the templater-unavailable case
// describes; the caller falls back to the raw narrative in that case, not
// Generate itself, so Generate always returns the template error verbatim.
func Generate(p Payload) (string, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"pct": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"join": strings.Join,
		"upper": strings.ToUpper,
	}).Parse(reportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FromState builds a Payload from a full investigation state. Risks are
// pre-sorted severity-descending ("grouped by severity");
// timeline entries are built from temporal facts sorted by start date,
// falling back to as-of date when no range applies.
func FromState(state *domain.InvestigationState, narrative, overallRating string, keyFindings, recommendations []string) Payload {
	p := Payload{
		SubjectName:         state.Subject.FullName,
		SubjectRole:         state.Subject.Role,
		SubjectOrganization: state.Subject.Organization,
		OverallRating:       overallRating,
		Narrative:           narrative,
		OverallConfidence:   state.OverallConfidence,
		KeyFindings:         keyFindings,
		Recommendations:     recommendations,
	}

	for _, e := range state.Entities {
		p.Entities = append(p.Entities, EntitySummary{
			Name: e.Name, Type: e.Type, Description: e.Description,
			Confidence: e.Confidence, Sources: e.Sources,
		})
	}

	byID := map[string]string{}
	for _, e := range state.Entities {
		byID[e.ID] = e.Name
	}
	for _, c := range state.Connections {
		p.Connections = append(p.Connections, ConnectionSummary{
			SourceName: nameOr(byID, c.SourceID), TargetName: nameOr(byID, c.TargetID),
			Type: c.Type, Description: c.Description, Confidence: c.Confidence,
		})
	}

	for _, r := range domain.BySeverityDescending(state.RiskFlags) {
		p.Risks = append(p.Risks, RiskSummary{
			Category: r.Category, Severity: r.Severity, Title: r.Title,
			Description: r.Description, EvidenceURLs: r.EvidenceURLs,
			Confidence: r.Confidence, MitigatingFactors: r.MitigatingFactors,
		})
	}

	p.Timeline = buildTimeline(state.TemporalFacts)

	for _, u := range state.InaccessibleURLs {
		p.InaccessibleURLs = append(p.InaccessibleURLs, u.URL)
	}

	return p
}

func nameOr(byID map[string]string, id string) string {
	if name, ok := byID[id]; ok {
		return name
	}
	return id
}

func buildTimeline(facts []*domain.TemporalFact) []TimelineEntry {
	sorted := make([]*domain.TemporalFact, len(facts))
	copy(sorted, facts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return timelineKey(sorted[i]) < timelineKey(sorted[j])
	})
	out := make([]TimelineEntry, 0, len(sorted))
	for _, f := range sorted {
		date := f.StartDate
		if date == "" {
			date = f.AsOfDate
		}
		out = append(out, TimelineEntry{Date: date, Description: f.Claim})
	}
	return out
}

func timelineKey(f *domain.TemporalFact) string {
	if f.StartDate != "" {
		return f.StartDate
	}
	return f.AsOfDate
}
