package domain

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

// ConfidenceBreakdown is the optional 5-factor decomposition of an entity's
// overall confidence score.
type ConfidenceBreakdown struct {
	SourceReliability  float64 `json:"source_reliability"`
	Corroboration      float64 `json:"corroboration"`
	Recency            float64 `json:"recency"`
	ExtractionQuality  float64 `json:"extraction_quality"`
	ConsistencyWithRest float64 `json:"consistency_with_rest"`
}

// Entity is the unit of knowledge the investigation accumulates.
type Entity struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Type        EntityType           `json:"type"`
	Aliases     []string             `json:"aliases,omitempty"`
	Attributes  map[string]string    `json:"attributes,omitempty"`
	Sources     []string             `json:"sources,omitempty"`
	Confidence  float64              `json:"confidence"`
	Breakdown   *ConfidenceBreakdown `json:"confidence_breakdown,omitempty"`
	FirstSeen   int                  `json:"first_seen_iteration"`
	Description string               `json:"description,omitempty"`
}

// NewEntity constructs an Entity with a fresh id, clamping confidence to
// [0,1] and normalizing the entity type to a valid member of the closed set
// (unrecognized types fall back to EntityOrganization, the most permissive
// catch-all for corporate/entity mentions).
func NewEntity(name string, entityType EntityType, confidence float64, iteration int) *Entity {
	if !entityType.Valid() {
		entityType = EntityOrganization
	}
	return &Entity{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       entityType,
		Attributes: map[string]string{},
		Confidence: clamp01(confidence),
		FirstSeen:  iteration,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizedName lowercases, trims, and collapses internal whitespace —
// the form used for both exact and fuzzy dedup comparisons.
func NormalizedName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, " ")
}

// NameSimilarity returns a [0,1] similarity score between two normalized
// names using Levenshtein edit distance ratio: 1 - distance/max(len).
// Identical strings score 1; an empty/empty pair scores 1 (both collapse
// to "nothing said"), one empty and one non-empty scores 0.
func NameSimilarity(a, b string) float64 {
	na, nb := NormalizedName(a), NormalizedName(b)
	if na == nb {
		return 1.0
	}
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(na, nb)
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// MatchesForDedup reports whether two entities of the same type should
// collapse: exact match on normalized name always collapses; when
// fuzzyThreshold > 0, a normalized-name similarity >= fuzzyThreshold also
// collapses. fuzzyThreshold <= 0 disables fuzzy dedup (exact-only).
func (e *Entity) MatchesForDedup(other *Entity, fuzzyThreshold float64) bool {
	if e.Type != other.Type {
		return false
	}
	na, nb := NormalizedName(e.Name), NormalizedName(other.Name)
	if na == nb {
		return true
	}
	if fuzzyThreshold <= 0 {
		return false
	}
	return NameSimilarity(e.Name, other.Name) >= fuzzyThreshold
}

// MergeFrom folds other into e in place: confidence becomes the max of the
// two, sources/aliases/attributes union-merge, and e's description is
// replaced by other's only if e's was empty. Breakdown is kept from
// whichever side carries the higher confidence.
func (e *Entity) MergeFrom(other *Entity) {
	if other.Confidence > e.Confidence {
		e.Confidence = other.Confidence
		if other.Breakdown != nil {
			e.Breakdown = other.Breakdown
		}
	}
	e.Sources = unionStrings(e.Sources, other.Sources)
	e.Aliases = unionStrings(e.Aliases, other.Aliases)
	if e.Attributes == nil {
		e.Attributes = map[string]string{}
	}
	for k, v := range other.Attributes {
		if _, exists := e.Attributes[k]; !exists {
			e.Attributes[k] = v
		}
	}
	if e.Description == "" {
		e.Description = other.Description
	}
	if other.FirstSeen < e.FirstSeen {
		e.FirstSeen = other.FirstSeen
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
