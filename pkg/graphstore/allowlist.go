package graphstore

import "github.com/deepresearch/investigator/pkg/domain"

// fallbackLabel and fallbackRelationship are the safe substitutions used
// for anything not on the allowlist, so label interpolation into the
// query language is always safe.
const (
	fallbackLabel          = "Entity"
	fallbackRelationship   = "RELATED_TO"
	riskFlagLabel          = "RiskFlag"
	flaggedForRelationship = "FLAGGED_FOR"
)

// entityLabels maps each closed EntityType to its Neo4j node label. Every
// label here, plus fallbackLabel and riskFlagLabel, is the complete set of
// labels this package will ever interpolate into a query.
var entityLabels = map[domain.EntityType]string{
	domain.EntityPerson:              "Person",
	domain.EntityOrganization:        "Organization",
	domain.EntityLocation:            "Location",
	domain.EntityEvent:               "Event",
	domain.EntityDocument:            "Document",
	domain.EntityFinancialInstrument: "FinancialInstrument",
}

// relationshipTypes maps each closed RelationshipType to its Cypher edge
// type. Identical to the domain vocabulary's string values today, but kept
// as an explicit table (rather than string(t)) so a future rename on either
// side doesn't silently become a graph-query injection path.
var relationshipTypes = map[domain.RelationshipType]string{
	domain.RelWorksAt:        "WORKS_AT",
	domain.RelBoardMemberOf:  "BOARD_MEMBER_OF",
	domain.RelFoundedBy:      "FOUNDED",
	domain.RelInvestedIn:     "INVESTED_IN",
	domain.RelSubsidiaryOf:   "SUBSIDIARY_OF",
	domain.RelRelatedTo:      "RELATED_TO",
	domain.RelKnows:          "KNOWS",
	domain.RelFamilyOf:       "FAMILY_OF",
	domain.RelSuedBy:         "SUED_BY",
	domain.RelRegulatedBy:    "REGULATED_BY",
	domain.RelMentionedIn:    "MENTIONED_IN",
	domain.RelPartnerOf:      "PARTNER_OF",
	domain.RelAdvisorTo:      "ADVISOR_TO",
	domain.RelDonorTo:        "DONOR_TO",
	domain.RelPreviouslyAt:   "PREVIOUSLY_AT",
}

// labelFor resolves an entity type to its allowlisted Neo4j label, falling
// back to the generic Entity label for anything unrecognized.
func labelFor(t domain.EntityType) string {
	if l, ok := entityLabels[t]; ok {
		return l
	}
	return fallbackLabel
}

// relationshipFor resolves a relationship type to its allowlisted Cypher
// edge type, falling back to RELATED_TO for anything unrecognized.
func relationshipFor(t domain.RelationshipType) string {
	if r, ok := relationshipTypes[t]; ok {
		return r
	}
	return fallbackRelationship
}

// allEntityLabels lists every label the schema setup must index, including
// the fallback label (entities normalized to it still need a constraint).
func allEntityLabels() []string {
	labels := make([]string, 0, len(entityLabels)+1)
	seen := map[string]bool{}
	for _, l := range entityLabels {
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	if !seen[fallbackLabel] {
		labels = append(labels, fallbackLabel)
	}
	return labels
}
