package domain

import "github.com/google/uuid"

// TemporalFact is a single dated claim about an entity. Start or End may be
// empty to represent an open endpoint.
type TemporalFact struct {
	ID         string   `json:"id"`
	Claim      string   `json:"claim"`
	EntityID   string   `json:"entity_id"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	AsOfDate   string   `json:"as_of_date,omitempty"`
	Category   string   `json:"category,omitempty"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
}

func NewTemporalFact(claim, entityID string, confidence float64) *TemporalFact {
	return &TemporalFact{
		ID:         uuid.NewString(),
		Claim:      claim,
		EntityID:   entityID,
		Confidence: clamp01(confidence),
	}
}

// TemporalContradiction links two facts whose date ranges or claims
// conflict.
type TemporalContradiction struct {
	ID          string       `json:"id"`
	FactIDA     string       `json:"fact_id_a"`
	FactIDB     string       `json:"fact_id_b"`
	Description string       `json:"description"`
	Severity    RiskSeverity `json:"severity"`
	Confidence  float64      `json:"confidence"`
}

func NewTemporalContradiction(factA, factB, description string, severity RiskSeverity, confidence float64) *TemporalContradiction {
	return &TemporalContradiction{
		ID:          uuid.NewString(),
		FactIDA:     factA,
		FactIDB:     factB,
		Description: description,
		Severity:    severity,
		Confidence:  clamp01(confidence),
	}
}

// IsAutoFlagWorthy reports whether this contradiction is medium-or-higher
// severity and should auto-generate an inconsistency risk flag.
func (c *TemporalContradiction) IsAutoFlagWorthy() bool {
	return c.Severity.AtLeast(SeverityMedium)
}

// ToRiskFlag builds the inconsistency risk flag this contradiction
// auto-generates, scoped to the two entities that own the conflicting
// facts.
func (c *TemporalContradiction) ToRiskFlag(entityIDs []string) *RiskFlag {
	flag := NewRiskFlag(RiskInconsistency, c.Severity, "Temporal inconsistency detected", c.Description, c.Confidence)
	flag.AffectedEntityIDs = entityIDs
	return flag
}
