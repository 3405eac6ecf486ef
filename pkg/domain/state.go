package domain

import "time"

// Subject is the investigation target.
type Subject struct {
	FullName          string   `json:"full_name"`
	Role              string   `json:"role"`
	Organization      string   `json:"organization"`
	Aliases           []string `json:"aliases,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	KnownAssociations []string `json:"known_associations,omitempty"`
}

// IterationYield is the per-iteration (new_entities, new_facts) counter the
// Director's diminishing-returns check reads.
type IterationYield struct {
	Iteration   int `json:"iteration"`
	NewEntities int `json:"new_entities"`
	NewFacts    int `json:"new_facts"`
}

// GraphInsight is one discovery-query result surfaced after graph
// persistence (hidden intermediaries, shared locations, risk proximity,
// hub entities, temporal overlap, isolated clusters).
type GraphInsight struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	EntityIDs   []string `json:"entity_ids,omitempty"`
}

// DebateEntry is one utterance in the risk-analysis adversarial debate.
type DebateEntry struct {
	Role      string    `json:"role"` // proponent | skeptic | judge
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorLogEntry is one recorded non-fatal failure.
type ErrorLogEntry struct {
	Node      string    `json:"node"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PIIAnnotation records one PII span found by the redaction pass.
type PIIAnnotation struct {
	Kind   string `json:"kind"` // email | phone | ssn | ip
	Match  string `json:"match"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// InvestigationState is the single aggregate every node reads and mutates.
// It is passed by value semantics between node executions: a worker
// receives a snapshot (Clone), mutates its own copy, and returns a new
// state that replaces the engine's current one.
type InvestigationState struct {
	InvestigationID string  `json:"investigation_id"`
	Subject         Subject `json:"subject"`

	Entities    []*Entity     `json:"entities"`
	Connections []*Connection `json:"connections"`
	RiskFlags   []*RiskFlag   `json:"risk_flags"`

	SearchHistory   []*SearchRecord        `json:"search_history"`
	Hypotheses      []*Hypothesis          `json:"hypotheses"`
	PendingContent  []*PendingContentItem  `json:"pending_content"`

	CurrentPhase    Phase `json:"current_phase"`
	Iteration       int   `json:"iteration"`
	MaxIterations   int   `json:"max_iterations"`

	LastDecision *DirectorDecision `json:"last_decision,omitempty"`

	IterationYields []IterationYield `json:"iteration_yields"`

	OverallConfidence float64 `json:"overall_confidence"`

	CumulativeLLMCalls    int     `json:"cumulative_llm_calls"`
	CumulativeSearchCalls int     `json:"cumulative_search_calls"`
	EstimatedCostUSD      float64 `json:"estimated_cost_usd"`

	Terminated        bool   `json:"terminated"`
	TerminationReason string `json:"termination_reason,omitempty"`

	ErrorLog         []ErrorLogEntry    `json:"error_log"`
	InaccessibleURLs []InaccessibleURL  `json:"inaccessible_urls"`

	TemporalFacts          []*TemporalFact           `json:"temporal_facts"`
	TemporalContradictions []*TemporalContradiction  `json:"temporal_contradictions"`

	DebateTranscript []DebateEntry `json:"debate_transcript"`
	GraphInsights    []GraphInsight `json:"graph_insights"`

	PIIAnnotations []PIIAnnotation `json:"pii_annotations,omitempty"`

	FinalReport    string `json:"final_report,omitempty"`
	RedactedReport string `json:"redacted_report,omitempty"`

	// PhasesExecuted records each phase transition in first-observed
	// order, for run-metadata surfacing ("Phase discipline").
	PhasesExecuted []Phase `json:"phases_executed"`

	// ConsecutiveGatewayFailures backs the Director's persistent-failure
	// counter ; reset on any successful plan call.
	ConsecutiveGatewayFailures int `json:"consecutive_gateway_failures"`

	// FuzzyDedupThreshold configures entity-merge similarity; 0 disables
	// fuzzy dedup entirely (exact case-folded-name match only).
	FuzzyDedupThreshold float64 `json:"fuzzy_dedup_threshold"`
}

// NewInvestigationState seeds a fresh state for one subject.
func NewInvestigationState(id string, subject Subject, maxIterations int, fuzzyThreshold float64) *InvestigationState {
	return &InvestigationState{
		InvestigationID:     id,
		Subject:             subject,
		CurrentPhase:        PhaseBaseline,
		MaxIterations:       maxIterations,
		FuzzyDedupThreshold: fuzzyThreshold,
		PhasesExecuted:      []Phase{PhaseBaseline},
	}
}

// Clone returns a deep-enough copy for a worker's working snapshot: slices
// of pointers are copied (new backing arrays, same pointee pointers), which
// is sufficient because workers replace entries wholesale via Add*/Merge*
// rather than mutating entity/connection fields by reference outside of the
// merge helpers, which always operate on the receiver's own slice element.
func (s *InvestigationState) Clone() *InvestigationState {
	clone := *s
	clone.Entities = append([]*Entity{}, s.Entities...)
	clone.Connections = append([]*Connection{}, s.Connections...)
	clone.RiskFlags = append([]*RiskFlag{}, s.RiskFlags...)
	clone.SearchHistory = append([]*SearchRecord{}, s.SearchHistory...)
	clone.Hypotheses = append([]*Hypothesis{}, s.Hypotheses...)
	clone.PendingContent = append([]*PendingContentItem{}, s.PendingContent...)
	clone.IterationYields = append([]IterationYield{}, s.IterationYields...)
	clone.ErrorLog = append([]ErrorLogEntry{}, s.ErrorLog...)
	clone.InaccessibleURLs = append([]InaccessibleURL{}, s.InaccessibleURLs...)
	clone.TemporalFacts = append([]*TemporalFact{}, s.TemporalFacts...)
	clone.TemporalContradictions = append([]*TemporalContradiction{}, s.TemporalContradictions...)
	clone.DebateTranscript = append([]DebateEntry{}, s.DebateTranscript...)
	clone.GraphInsights = append([]GraphInsight{}, s.GraphInsights...)
	clone.PIIAnnotations = append([]PIIAnnotation{}, s.PIIAnnotations...)
	clone.PhasesExecuted = append([]Phase{}, s.PhasesExecuted...)
	return &clone
}

// AddEntity merges e into the state's entity set, following the
// exact/fuzzy dedup invariant, and returns the surviving entity (possibly e
// itself, possibly an existing entity that absorbed it).
func (s *InvestigationState) AddEntity(e *Entity) *Entity {
	for _, existing := range s.Entities {
		if existing.MatchesForDedup(e, s.FuzzyDedupThreshold) {
			existing.MergeFrom(e)
			return existing
		}
	}
	s.Entities = append(s.Entities, e)
	return e
}

// FindEntityByName resolves a display name to an entity id via exact
// case-folded match first, then (if threshold > 0) best fuzzy match at or
// above the threshold. Returns "" if nothing matches.
func (s *InvestigationState) FindEntityByName(name string, entityType EntityType) string {
	norm := NormalizedName(name)
	for _, e := range s.Entities {
		if e.Type == entityType && NormalizedName(e.Name) == norm {
			return e.ID
		}
	}
	if s.FuzzyDedupThreshold <= 0 {
		return ""
	}
	bestID := ""
	bestScore := s.FuzzyDedupThreshold
	for _, e := range s.Entities {
		if e.Type != entityType {
			continue
		}
		if score := NameSimilarity(e.Name, name); score >= bestScore {
			bestScore = score
			bestID = e.ID
		}
	}
	return bestID
}

// AddConnection merges c into the state's connection set, following the
// (source, target, type) uniqueness invariant.
func (s *InvestigationState) AddConnection(c *Connection) *Connection {
	key := c.Key()
	for _, existing := range s.Connections {
		if existing.Key() == key {
			existing.MergeFrom(c)
			return existing
		}
	}
	s.Connections = append(s.Connections, c)
	return c
}

// AddRiskFlag merges r into the state's risk-flag set, deduplicated by
// case-folded title.
func (s *InvestigationState) AddRiskFlag(r *RiskFlag) *RiskFlag {
	key := r.TitleKey()
	for _, existing := range s.RiskFlags {
		if existing.TitleKey() == key {
			existing.MergeFrom(r)
			return existing
		}
	}
	s.RiskFlags = append(s.RiskFlags, r)
	return r
}

// UsedQueriesSet returns the case-folded set of every query already issued,
// for the Director's non-repetition check.
func (s *InvestigationState) UsedQueriesSet() map[string]bool {
	used := make(map[string]bool, len(s.SearchHistory))
	for _, rec := range s.SearchHistory {
		used[NormalizedName(rec.Query)] = true
	}
	return used
}

// RecordYield appends this iteration's (new_entities, new_facts) counters;
// called unconditionally by the Fact Extractor even when there was no
// pending content, so the diminishing-returns counter keeps advancing.
func (s *InvestigationState) RecordYield(newEntities, newFacts int) {
	s.IterationYields = append(s.IterationYields, IterationYield{
		Iteration:   s.Iteration,
		NewEntities: newEntities,
		NewFacts:    newFacts,
	})
}

// DiminishingReturns reports whether each of the last `lookback` recorded
// yields produced fewer than `minNew` new entities. Fewer than `lookback`
// recorded yields never triggers (not enough history yet).
func (s *InvestigationState) DiminishingReturns(lookback, minNew int) bool {
	if len(s.IterationYields) < lookback {
		return false
	}
	recent := s.IterationYields[len(s.IterationYields)-lookback:]
	for _, y := range recent {
		if y.NewEntities >= minNew {
			return false
		}
	}
	return true
}

// AdvancePhase records a transition to next if it is a true advance (never
// regresses), appending to PhasesExecuted in first-observed order.
func (s *InvestigationState) AdvancePhase(next Phase) {
	if next.Rank() <= s.CurrentPhase.Rank() {
		return
	}
	s.CurrentPhase = next
	s.PhasesExecuted = append(s.PhasesExecuted, next)
}

// LogError appends a node failure to the error log; this never halts the
// state machine.
func (s *InvestigationState) LogError(node, message string, ts time.Time) {
	s.ErrorLog = append(s.ErrorLog, ErrorLogEntry{Node: node, Message: message, Timestamp: ts})
}

// MarkInaccessible appends a URL the fetcher gave up on.
func (s *InvestigationState) MarkInaccessible(url, reason, query string, phase Phase) {
	s.InaccessibleURLs = append(s.InaccessibleURLs, InaccessibleURL{
		URL: url, Reason: reason, Query: query, Phase: phase,
	})
}

// ClearPendingContent empties the pending-content buffer (called by the
// Fact Extractor after distilling a batch).
func (s *InvestigationState) ClearPendingContent() {
	s.PendingContent = nil
}

// EntityByID looks up an entity by id, or nil.
func (s *InvestigationState) EntityByID(id string) *Entity {
	for _, e := range s.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// RemapConnectionEndpoints rewrites every connection endpoint through
// merge, where merge maps a merged-away entity id to its survivor id. Used
// by entity resolution during synthesis.
func (s *InvestigationState) RemapConnectionEndpoints(merge map[string]string) {
	for _, c := range s.Connections {
		if survivor, ok := merge[c.SourceID]; ok {
			c.SourceID = survivor
		}
		if survivor, ok := merge[c.TargetID]; ok {
			c.TargetID = survivor
		}
	}
}
