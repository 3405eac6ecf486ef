package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/metrics"
)

// Persist runs the full synthesis persistence protocol (steps
// 1-6): schema setup, wipe, then upsert every entity, connection, and risk
// flag from state. Intended to run once per investigation, in synthesis.
func (c *Client) Persist(ctx context.Context, state *domain.InvestigationState) error {
	if err := c.EnsureSchema(ctx); err != nil {
		metrics.RecordGraphQuery("ensure_schema", false)
		return fmt.Errorf("ensure schema: %w", err)
	}
	metrics.RecordGraphQuery("ensure_schema", true)

	if err := c.WipeAll(ctx); err != nil {
		metrics.RecordGraphQuery("wipe_all", false)
		return fmt.Errorf("wipe graph: %w", err)
	}
	metrics.RecordGraphQuery("wipe_all", true)

	for _, e := range state.Entities {
		if err := c.UpsertEntity(ctx, state.InvestigationID, e); err != nil {
			metrics.RecordGraphQuery("upsert_entity", false)
			return fmt.Errorf("upsert entity %s: %w", e.ID, err)
		}
	}
	metrics.RecordGraphQuery("upsert_entity", true)

	entityByID := map[string]*domain.Entity{}
	for _, e := range state.Entities {
		entityByID[e.ID] = e
	}

	for _, conn := range state.Connections {
		if entityByID[conn.SourceID] == nil || entityByID[conn.TargetID] == nil {
			continue // unresolvable endpoint (e.g. merged away); skip rather than fail the whole run
		}
		if err := c.UpsertConnection(ctx, entityByID[conn.SourceID].Type, entityByID[conn.TargetID].Type, conn); err != nil {
			metrics.RecordGraphQuery("upsert_connection", false)
			return fmt.Errorf("upsert connection %s: %w", conn.ID, err)
		}
	}
	metrics.RecordGraphQuery("upsert_connection", true)

	for _, flag := range state.RiskFlags {
		affectedIDs := make([]string, 0, len(flag.AffectedEntityIDs))
		affected := make([]domain.EntityType, 0, len(flag.AffectedEntityIDs))
		for _, id := range flag.AffectedEntityIDs {
			if e := entityByID[id]; e != nil {
				affectedIDs = append(affectedIDs, id)
				affected = append(affected, e.Type)
			}
		}
		if err := c.UpsertRiskFlag(ctx, flag); err != nil {
			metrics.RecordGraphQuery("upsert_risk_flag", false)
			return fmt.Errorf("upsert risk flag %s: %w", flag.ID, err)
		}
		if err := c.LinkRiskFlagToEntities(ctx, flag.ID, affectedIDs, affected); err != nil {
			metrics.RecordGraphQuery("link_risk_flag", false)
			return fmt.Errorf("link risk flag %s: %w", flag.ID, err)
		}
	}
	metrics.RecordGraphQuery("upsert_risk_flag", true)

	return nil
}

// UpsertEntity creates or updates a node labelled by e.Type's allowlisted
// label, keyed on entity_id.
func (c *Client) UpsertEntity(ctx context.Context, investigationID string, e *domain.Entity) error {
	label := labelFor(e.Type)
	query := fmt.Sprintf(`
		MERGE (n:%s {entity_id: $id})
		SET n.name = $name,
		    n.aliases = $aliases,
		    n.sources = $sources,
		    n.confidence = $confidence,
		    n.description = $description,
		    n.investigation_id = $investigation_id,
		    n.updated_at = $updated_at
	`, label)

	params := map[string]interface{}{
		"id":               e.ID,
		"name":             e.Name,
		"aliases":          e.Aliases,
		"sources":          e.Sources,
		"confidence":       e.Confidence,
		"description":      e.Description,
		"investigation_id": investigationID,
		"updated_at":       time.Now().UTC().Format(time.RFC3339),
	}
	return c.runWrite(ctx, query, params)
}

// UpsertConnection creates or updates a typed edge between two existing
// entities, matched by label (so MERGE can use an indexed lookup) and
// entity_id. The MERGE is keyed on connection_id: re-running with the same
// connection id, endpoints and type updates the edge's attributes in place
// rather than creating a duplicate.
func (c *Client) UpsertConnection(ctx context.Context, sourceType, targetType domain.EntityType, conn *domain.Connection) error {
	sourceLabel := labelFor(sourceType)
	targetLabel := labelFor(targetType)
	relType := relationshipFor(conn.Type)

	query := fmt.Sprintf(`
		MATCH (src:%s {entity_id: $source_id})
		MATCH (tgt:%s {entity_id: $target_id})
		MERGE (src)-[r:%s {connection_id: $id}]->(tgt)
		SET r.description = $description,
		    r.confidence = $confidence,
		    r.sources = $sources,
		    r.primary_source_url = $primary_source_url,
		    r.start_date = $start_date,
		    r.end_date = $end_date,
		    r.extracted_at = $extracted_at
	`, sourceLabel, targetLabel, relType)

	params := map[string]interface{}{
		"source_id":          conn.SourceID,
		"target_id":          conn.TargetID,
		"id":                 conn.ID,
		"description":        conn.Description,
		"confidence":         conn.Confidence,
		"sources":            conn.Sources,
		"primary_source_url": conn.PrimarySourceURL,
		"start_date":         conn.StartDate,
		"end_date":           conn.EndDate,
		"extracted_at":       time.Now().UTC().Format(time.RFC3339),
	}
	return c.runWrite(ctx, query, params)
}

// UpsertRiskFlag creates or updates a RiskFlag node, keyed on flag_id.
func (c *Client) UpsertRiskFlag(ctx context.Context, flag *domain.RiskFlag) error {
	query := fmt.Sprintf(`
		MERGE (f:%s {flag_id: $id})
		SET f.category = $category,
		    f.severity = $severity,
		    f.title = $title,
		    f.description = $description,
		    f.evidence_urls = $evidence_urls,
		    f.confidence = $confidence
	`, riskFlagLabel)

	params := map[string]interface{}{
		"id":            flag.ID,
		"category":      string(flag.Category),
		"severity":      string(flag.Severity),
		"title":         flag.Title,
		"description":   flag.Description,
		"evidence_urls": flag.EvidenceURLs,
		"confidence":    flag.Confidence,
	}
	return c.runWrite(ctx, query, params)
}

// LinkRiskFlagToEntities creates FLAGGED_FOR edges from a risk flag to each
// affected entity.
func (c *Client) LinkRiskFlagToEntities(ctx context.Context, flagID string, entityIDs []string, entityTypes []domain.EntityType) error {
	for i, id := range entityIDs {
		if i >= len(entityTypes) {
			break
		}
		label := labelFor(entityTypes[i])
		query := fmt.Sprintf(`
			MATCH (f:%s {flag_id: $flag_id})
			MATCH (e:%s {entity_id: $entity_id})
			MERGE (f)-[:%s]->(e)
		`, riskFlagLabel, label, flaggedForRelationship)

		if err := c.runWrite(ctx, query, map[string]interface{}{
			"flag_id":   flagID,
			"entity_id": id,
		}); err != nil {
			return err
		}
	}
	return nil
}
