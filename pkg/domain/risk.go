package domain

import "github.com/google/uuid"

// RiskFlag records one identified risk affecting one or more entities.
type RiskFlag struct {
	ID                string       `json:"id"`
	Category          RiskCategory `json:"category"`
	Severity          RiskSeverity `json:"severity"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	EvidenceURLs      []string     `json:"evidence_urls,omitempty"`
	AffectedEntityIDs []string     `json:"affected_entity_ids,omitempty"`
	Confidence        float64      `json:"confidence"`
	MitigatingFactors []string     `json:"mitigating_factors,omitempty"`
}

// NewRiskFlag constructs a RiskFlag with a fresh id.
func NewRiskFlag(category RiskCategory, severity RiskSeverity, title, description string, confidence float64) *RiskFlag {
	return &RiskFlag{
		ID:          uuid.NewString(),
		Category:    category,
		Severity:    severity,
		Title:       title,
		Description: description,
		Confidence:  clamp01(confidence),
	}
}

// TitleKey returns the case-folded title used to deduplicate risk flags
// merged from the judge's output.
func (r *RiskFlag) TitleKey() string {
	return NormalizedName(r.Title)
}

// MergeFrom folds other into r: confidence becomes max, evidence/affected
// entities/mitigating factors union-merge.
func (r *RiskFlag) MergeFrom(other *RiskFlag) {
	if other.Confidence > r.Confidence {
		r.Confidence = other.Confidence
	}
	r.EvidenceURLs = unionStrings(r.EvidenceURLs, other.EvidenceURLs)
	r.AffectedEntityIDs = unionStrings(r.AffectedEntityIDs, other.AffectedEntityIDs)
	r.MitigatingFactors = unionStrings(r.MitigatingFactors, other.MitigatingFactors)
	if r.Description == "" {
		r.Description = other.Description
	}
}

// BySeverityDescending sorts risk flags from critical to info, stable on
// insertion order within a severity band.
func BySeverityDescending(flags []*RiskFlag) []*RiskFlag {
	out := make([]*RiskFlag, len(flags))
	copy(out, flags)
	// Stable insertion sort: the flag slice is small (tens, not thousands)
	// so O(n^2) is fine and keeps the within-band order the design relies on
	// for "grouped by severity" report rendering.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Severity.Rank() > out[j-1].Severity.Rank(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
