// Package domain holds the investigation's central, serializable data
// model: the aggregate InvestigationState every worker reads and mutates,
// and the closed vocabularies (entity/relationship/risk/phase/action/
// provider/tier) that are shared between LLM prompts, the graph store's
// allowlists, and the report renderer.
package domain

// EntityType is the closed set of entity kinds the extractor may emit.
type EntityType string

const (
	EntityPerson              EntityType = "person"
	EntityOrganization        EntityType = "organization"
	EntityLocation            EntityType = "location"
	EntityEvent               EntityType = "event"
	EntityDocument            EntityType = "document"
	EntityFinancialInstrument EntityType = "financial_instrument"
)

// ValidEntityTypes lists every EntityType in prompt/allowlist order.
var ValidEntityTypes = []EntityType{
	EntityPerson, EntityOrganization, EntityLocation,
	EntityEvent, EntityDocument, EntityFinancialInstrument,
}

func (t EntityType) Valid() bool {
	for _, v := range ValidEntityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// RelationshipType is the closed vocabulary of connection edges.
type RelationshipType string

const (
	RelWorksAt        RelationshipType = "WORKS_AT"
	RelBoardMemberOf   RelationshipType = "BOARD_MEMBER_OF"
	RelFoundedBy       RelationshipType = "FOUNDED"
	RelInvestedIn      RelationshipType = "INVESTED_IN"
	RelSubsidiaryOf    RelationshipType = "SUBSIDIARY_OF"
	RelRelatedTo       RelationshipType = "RELATED_TO"
	RelKnows           RelationshipType = "KNOWS"
	RelFamilyOf        RelationshipType = "FAMILY_OF"
	RelSuedBy          RelationshipType = "SUED_BY"
	RelRegulatedBy     RelationshipType = "REGULATED_BY"
	RelMentionedIn     RelationshipType = "MENTIONED_IN"
	RelPartnerOf       RelationshipType = "PARTNER_OF"
	RelAdvisorTo       RelationshipType = "ADVISOR_TO"
	RelDonorTo         RelationshipType = "DONOR_TO"
	RelPreviouslyAt    RelationshipType = "PREVIOUSLY_AT"
)

var ValidRelationshipTypes = []RelationshipType{
	RelWorksAt, RelBoardMemberOf, RelFoundedBy, RelInvestedIn, RelSubsidiaryOf,
	RelRelatedTo, RelKnows, RelFamilyOf, RelSuedBy, RelRegulatedBy,
	RelMentionedIn, RelPartnerOf, RelAdvisorTo, RelDonorTo, RelPreviouslyAt,
}

func (r RelationshipType) Valid() bool {
	for _, v := range ValidRelationshipTypes {
		if v == r {
			return true
		}
	}
	return false
}

// RiskCategory is the closed set of risk-flag categories.
type RiskCategory string

const (
	RiskRegulatory        RiskCategory = "regulatory"
	RiskLitigation        RiskCategory = "litigation"
	RiskFinancial         RiskCategory = "financial"
	RiskReputational      RiskCategory = "reputational"
	RiskAssociation       RiskCategory = "association"
	RiskInconsistency     RiskCategory = "inconsistency"
	RiskSanctions         RiskCategory = "sanctions"
	RiskPoliticalExposure RiskCategory = "political_exposure"
)

var ValidRiskCategories = []RiskCategory{
	RiskRegulatory, RiskLitigation, RiskFinancial, RiskReputational,
	RiskAssociation, RiskInconsistency, RiskSanctions, RiskPoliticalExposure,
}

// RiskSeverity is an ordinal: Critical > High > Medium > Low > Info.
type RiskSeverity string

const (
	SeverityCritical RiskSeverity = "critical"
	SeverityHigh     RiskSeverity = "high"
	SeverityMedium   RiskSeverity = "medium"
	SeverityLow      RiskSeverity = "low"
	SeverityInfo     RiskSeverity = "info"
)

var severityRank = map[RiskSeverity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the severity's ordinal position; unknown severities rank
// below SeverityInfo so they sort last in a descending listing.
func (s RiskSeverity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is the same severity as, or more severe than,
// other.
func (s RiskSeverity) AtLeast(other RiskSeverity) bool {
	return s.Rank() >= other.Rank()
}

// Phase is the closed, strictly-advancing investigation phase sequence.
type Phase string

const (
	PhaseBaseline      Phase = "baseline"
	PhaseBreadth       Phase = "breadth"
	PhaseDepth         Phase = "depth"
	PhaseAdversarial   Phase = "adversarial"
	PhaseTriangulation Phase = "triangulation"
	PhaseSynthesis     Phase = "synthesis"
)

var phaseOrder = []Phase{
	PhaseBaseline, PhaseBreadth, PhaseDepth, PhaseAdversarial, PhaseTriangulation, PhaseSynthesis,
}

// Rank returns the phase's position in the fixed ordering, or -1 if unknown.
func (p Phase) Rank() int {
	for i, v := range phaseOrder {
		if v == p {
			return i
		}
	}
	return -1
}

// Action is the closed set of next-actions a Director decision may choose.
type Action string

const (
	ActionSearchWeb      Action = "search_web"
	ActionExtractFacts   Action = "extract_facts"
	ActionAnalyzeRisks   Action = "analyze_risks"
	ActionMapConnections Action = "map_connections"
	ActionVerifySources  Action = "verify_sources"
	ActionUpdateGraph    Action = "update_graph"
	ActionGenerateReport Action = "generate_report"
	ActionTerminate      Action = "terminate"
)

// Provider is the closed set of LLM backends the gateway routes across.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Tier is the LLM cost/capability tier a task is routed to.
type Tier string

const (
	TierDeep Tier = "deep"
	TierFast Tier = "fast"
)

// TaskRole names a logical LLM call site; used to look up its configured
// Tier and to label metrics/logs.
type TaskRole string

const (
	TaskPlanning           TaskRole = "planning"
	TaskFactExtraction     TaskRole = "fact_extraction"
	TaskRiskProponent      TaskRole = "risk_proponent"
	TaskRiskSkeptic        TaskRole = "risk_skeptic"
	TaskRiskJudge          TaskRole = "risk_judge"
	TaskConnectionMapping  TaskRole = "connection_mapping"
	TaskTemporalAnalysis   TaskRole = "temporal_analysis"
	TaskSourceVerification TaskRole = "source_verification"
	TaskEntityResolution   TaskRole = "entity_resolution"
	TaskReportGeneration   TaskRole = "report_generation"
)
