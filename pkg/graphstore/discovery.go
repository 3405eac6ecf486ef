package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/metrics"
)

// RunDiscoveryQueries executes the six named discovery queries against the
// just-persisted graph, anchored on subjectEntityID, and returns the
// resulting GraphInsight records in a fixed order.
func (c *Client) RunDiscoveryQueries(ctx context.Context, subjectEntityID string) ([]domain.GraphInsight, error) {
	queries := []func(context.Context, string) ([]domain.GraphInsight, error){
		c.hiddenIntermediaries,
		c.sharedLocations,
		c.riskProximity,
		c.hubEntities,
		c.temporalOverlap,
		c.isolatedClusters,
	}

	var insights []domain.GraphInsight
	for _, q := range queries {
		found, err := q(ctx, subjectEntityID)
		if err != nil {
			metrics.RecordGraphQuery("discovery_query", false)
			return insights, err
		}
		metrics.RecordGraphQuery("discovery_query", true)
		insights = append(insights, found...)
	}
	return insights, nil
}

// hiddenIntermediaries finds entities reachable from subject via two or
// more independent length<=2 paths.
func (c *Client) hiddenIntermediaries(ctx context.Context, subjectID string) ([]domain.GraphInsight, error) {
	query := `
		MATCH (subject {entity_id: $subject_id})
		MATCH p = (subject)-[*1..2]-(mid)
		WHERE mid.entity_id <> $subject_id
		WITH mid, count(DISTINCT p) AS pathCount
		WHERE pathCount >= 2
		RETURN mid.entity_id AS id, mid.name AS name, pathCount
		ORDER BY pathCount DESC
		LIMIT 20
	`
	rows, err := c.readRows(ctx, query, map[string]interface{}{"subject_id": subjectID})
	if err != nil {
		return nil, err
	}

	var insights []domain.GraphInsight
	for _, row := range rows {
		id := stringField(row, "id")
		name := stringField(row, "name")
		insights = append(insights, domain.GraphInsight{
			Kind:        "hidden_intermediary",
			Description: fmt.Sprintf("%s connects to the subject via multiple independent short paths", name),
			EntityIDs:   []string{id},
		})
	}
	return insights, nil
}

// sharedLocations finds organization pairs sharing an identical non-empty
// location attribute (a shell-company indicator).
func (c *Client) sharedLocations(ctx context.Context, _ string) ([]domain.GraphInsight, error) {
	query := `
		MATCH (a:Organization), (b:Organization)
		WHERE a.entity_id < b.entity_id
		  AND a.location IS NOT NULL AND a.location <> ""
		  AND a.location = b.location
		RETURN a.entity_id AS aID, a.name AS aName, b.entity_id AS bID, b.name AS bName, a.location AS location
		LIMIT 20
	`
	rows, err := c.readRows(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var insights []domain.GraphInsight
	for _, row := range rows {
		aID, bID := stringField(row, "aID"), stringField(row, "bID")
		aName, bName := stringField(row, "aName"), stringField(row, "bName")
		insights = append(insights, domain.GraphInsight{
			Kind:        "shared_location",
			Description: fmt.Sprintf("%s and %s share a registered location (possible shell-company indicator)", aName, bName),
			EntityIDs:   []string{aID, bID},
		})
	}
	return insights, nil
}

// riskProximity finds the shortest path (<=4 hops) from subject to any
// high or critical severity risk flag.
func (c *Client) riskProximity(ctx context.Context, subjectID string) ([]domain.GraphInsight, error) {
	query := `
		MATCH (subject {entity_id: $subject_id})
		MATCH (f:RiskFlag)
		WHERE f.severity IN ["high", "critical"]
		MATCH p = shortestPath((subject)-[*1..4]-(f))
		RETURN f.flag_id AS flagID, f.title AS title, f.severity AS severity, length(p) AS hops
		ORDER BY hops ASC
		LIMIT 20
	`
	rows, err := c.readRows(ctx, query, map[string]interface{}{"subject_id": subjectID})
	if err != nil {
		return nil, err
	}

	var insights []domain.GraphInsight
	for _, row := range rows {
		flagID := stringField(row, "flagID")
		title := stringField(row, "title")
		severity := stringField(row, "severity")
		hops := intField(row, "hops")
		insights = append(insights, domain.GraphInsight{
			Kind:        "risk_proximity",
			Description: fmt.Sprintf("%s severity risk %q is %d hop(s) from the subject", severity, title, hops),
			EntityIDs:   []string{flagID},
		})
	}
	return insights, nil
}

// hubEntities finds the top non-flag nodes by degree (degree >= 3).
func (c *Client) hubEntities(ctx context.Context, _ string) ([]domain.GraphInsight, error) {
	query := `
		MATCH (n)
		WHERE NOT n:RiskFlag
		WITH n, size([(n)-[]-() | 1]) AS degree
		WHERE degree >= 3
		RETURN n.entity_id AS id, n.name AS name, degree
		ORDER BY degree DESC
		LIMIT 20
	`
	rows, err := c.readRows(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var insights []domain.GraphInsight
	for _, row := range rows {
		id := stringField(row, "id")
		name := stringField(row, "name")
		degree := intField(row, "degree")
		insights = append(insights, domain.GraphInsight{
			Kind:        "hub_entity",
			Description: fmt.Sprintf("%s is a hub entity with %d connections", name, degree),
			EntityIDs:   []string{id},
		})
	}
	return insights, nil
}

// temporalOverlap finds pairs of organizations linked to the same person
// with non-null start dates (concurrent affiliations).
func (c *Client) temporalOverlap(ctx context.Context, _ string) ([]domain.GraphInsight, error) {
	query := `
		MATCH (p:Person)-[r1]->(a:Organization), (p)-[r2]->(b:Organization)
		WHERE a.entity_id < b.entity_id
		  AND r1.start_date IS NOT NULL AND r1.start_date <> ""
		  AND r2.start_date IS NOT NULL AND r2.start_date <> ""
		RETURN p.entity_id AS personID, p.name AS personName,
		       a.entity_id AS aID, a.name AS aName, b.entity_id AS bID, b.name AS bName
		LIMIT 20
	`
	rows, err := c.readRows(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var insights []domain.GraphInsight
	for _, row := range rows {
		personID := stringField(row, "personID")
		personName := stringField(row, "personName")
		aID, bID := stringField(row, "aID"), stringField(row, "bID")
		aName, bName := stringField(row, "aName"), stringField(row, "bName")
		insights = append(insights, domain.GraphInsight{
			Kind:        "temporal_overlap",
			Description: fmt.Sprintf("%s held concurrent roles at %s and %s", personName, aName, bName),
			EntityIDs:   []string{personID, aID, bID},
		})
	}
	return insights, nil
}

// isolatedClusters finds non-flag nodes with no path of length <= 4 to the
// subject.
func (c *Client) isolatedClusters(ctx context.Context, subjectID string) ([]domain.GraphInsight, error) {
	query := `
		MATCH (subject {entity_id: $subject_id})
		MATCH (n)
		WHERE NOT n:RiskFlag AND n.entity_id <> $subject_id
		  AND NOT EXISTS {
		    MATCH p = (subject)-[*1..4]-(n)
		  }
		RETURN n.entity_id AS id, n.name AS name
		LIMIT 20
	`
	rows, err := c.readRows(ctx, query, map[string]interface{}{"subject_id": subjectID})
	if err != nil {
		return nil, err
	}

	var insights []domain.GraphInsight
	for _, row := range rows {
		id := stringField(row, "id")
		name := stringField(row, "name")
		insights = append(insights, domain.GraphInsight{
			Kind:        "isolated_cluster",
			Description: fmt.Sprintf("%s has no path to the subject within 4 hops", name),
			EntityIDs:   []string{id},
		})
	}
	return insights, nil
}

// readRows runs a read-only query and materializes every record as a
// string-keyed map, so discovery-query result handling stays independent
// of neo4j.Record's positional API.
func (c *Client) readRows(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := c.read(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		var rows []map[string]interface{}
		for res.Next(ctx) {
			rows = append(rows, res.Record().AsMap())
		}
		return rows, res.Err()
	})
	if err != nil {
		return nil, err
	}
	rows, _ := result.([]map[string]interface{})
	return rows, nil
}

func stringField(row map[string]interface{}, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func intField(row map[string]interface{}, key string) int {
	switch v := row[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
