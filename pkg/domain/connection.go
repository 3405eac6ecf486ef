package domain

import "github.com/google/uuid"

// Connection is a directed, typed edge between two entities.
type Connection struct {
	ID               string           `json:"id"`
	SourceID         string           `json:"source_id"`
	TargetID         string           `json:"target_id"`
	Type             RelationshipType `json:"type"`
	StartDate        string           `json:"start_date,omitempty"`
	EndDate          string           `json:"end_date,omitempty"`
	Sources          []string         `json:"sources,omitempty"`
	PrimarySourceURL string           `json:"primary_source_url,omitempty"`
	Confidence       float64          `json:"confidence"`
	Description      string           `json:"description,omitempty"`
}

// SetSources replaces c.Sources with sources and derives PrimarySourceURL
// from the first entry, mirroring how the graph store persists a single
// primary source alongside the full source list.
func (c *Connection) SetSources(sources []string) {
	c.Sources = sources
	if len(sources) > 0 {
		c.PrimarySourceURL = sources[0]
	}
}

// NewConnection constructs a Connection with a fresh id, normalizing an
// unrecognized relationship type down to RelRelatedTo (the allowlist
// fallback used identically by the graph store).
func NewConnection(sourceID, targetID string, relType RelationshipType, confidence float64) *Connection {
	if !relType.Valid() {
		relType = RelRelatedTo
	}
	return &Connection{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       relType,
		Confidence: clamp01(confidence),
	}
}

// Key returns the (source, target, type) identity tuple used for
// connection-idempotence deduplication.
func (c *Connection) Key() [3]string {
	return [3]string{c.SourceID, c.TargetID, string(c.Type)}
}

// MergeFrom folds other into c: confidence becomes the max, sources union,
// and dates/description fill in from other only if c's side is empty.
func (c *Connection) MergeFrom(other *Connection) {
	if other.Confidence > c.Confidence {
		c.Confidence = other.Confidence
	}
	c.Sources = unionStrings(c.Sources, other.Sources)
	if c.PrimarySourceURL == "" {
		c.PrimarySourceURL = other.PrimarySourceURL
	}
	if c.StartDate == "" {
		c.StartDate = other.StartDate
	}
	if c.EndDate == "" {
		c.EndDate = other.EndDate
	}
	if c.Description == "" {
		c.Description = other.Description
	}
}
