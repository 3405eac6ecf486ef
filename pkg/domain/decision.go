package domain

// DirectorDecision is the output of one Director planning call: the next
// action to dispatch plus whatever parameters that action needs.
type DirectorDecision struct {
	Reasoning            string   `json:"reasoning"`
	NextAction           Action   `json:"next_action"`
	SearchQueries        []string `json:"search_queries,omitempty"`
	TargetEntityIDs      []string `json:"target_entity_ids,omitempty"`
	Phase                Phase    `json:"phase"`
	CompletenessConfidence float64  `json:"completeness_confidence"`
	Gaps                 []string `json:"gaps,omitempty"`
}

// MaxSearchQueries is the hard cap on queries a single Director decision
// may propose.
const MaxSearchQueries = 5

// CapQueries truncates SearchQueries to MaxSearchQueries.
func (d *DirectorDecision) CapQueries() {
	if len(d.SearchQueries) > MaxSearchQueries {
		d.SearchQueries = d.SearchQueries[:MaxSearchQueries]
	}
}

// DedupeQueries drops any proposed query whose case-folded form already
// appears in usedQueries (also case-folded), preserving order.
func DedupeQueries(proposed []string, usedQueries map[string]bool) []string {
	out := make([]string, 0, len(proposed))
	seen := map[string]bool{}
	for _, q := range proposed {
		key := NormalizedName(q)
		if key == "" || usedQueries[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
