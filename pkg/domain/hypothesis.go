package domain

import "github.com/google/uuid"

type HypothesisStatus string

const (
	HypothesisOpen         HypothesisStatus = "open"
	HypothesisConfirmed    HypothesisStatus = "confirmed"
	HypothesisRefuted      HypothesisStatus = "refuted"
	HypothesisInconclusive HypothesisStatus = "inconclusive"
)

// Hypothesis is an open investigation thread surfaced by a worker (most
// often the Connection Mapper's "suggested_investigations") for the
// Director to weigh when planning queries.
type Hypothesis struct {
	ID              string           `json:"id"`
	Description     string           `json:"description"`
	Status          HypothesisStatus `json:"status"`
	Priority        int              `json:"priority"`
	RelatedEntities []string         `json:"related_entity_ids,omitempty"`
	TriedQueries    []string         `json:"tried_queries,omitempty"`
	EvidenceFor     []string         `json:"evidence_for,omitempty"`
	EvidenceAgainst []string         `json:"evidence_against,omitempty"`
}

// NewHypothesis constructs an open Hypothesis, clamping priority to [1,10].
func NewHypothesis(description string, priority int, relatedEntities []string) *Hypothesis {
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}
	return &Hypothesis{
		ID:              uuid.NewString(),
		Description:     description,
		Status:          HypothesisOpen,
		Priority:        priority,
		RelatedEntities: relatedEntities,
	}
}
