package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// EnsureSchema creates the uniqueness constraints and indexes
// step 2 requires: entity_id unique per label, flag_id unique on risk
// flags, and indexes on name and severity. IF NOT EXISTS makes every
// statement idempotent across repeated investigation runs.
func (c *Client) EnsureSchema(ctx context.Context) error {
	var statements []string
	for _, label := range allEntityLabels() {
		statements = append(statements,
			fmt.Sprintf("CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (e:%s) REQUIRE e.entity_id IS UNIQUE", constraintName(label), label),
			fmt.Sprintf("CREATE INDEX %s_name_idx IF NOT EXISTS FOR (e:%s) ON (e.name)", constraintName(label), label),
		)
	}
	statements = append(statements,
		fmt.Sprintf("CREATE CONSTRAINT riskflag_id_unique IF NOT EXISTS FOR (f:%s) REQUIRE f.flag_id IS UNIQUE", riskFlagLabel),
		fmt.Sprintf("CREATE INDEX riskflag_severity_idx IF NOT EXISTS FOR (f:%s) ON (f.severity)", riskFlagLabel),
	)

	for _, stmt := range statements {
		if err := c.runSchemaStatement(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

func (c *Client) runSchemaStatement(ctx context.Context, query string) error {
	_, err := c.write(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

// WipeAll deletes every node and relationship in the database. The
// investigator is single-tenant : each investigation
// run persists its own fully-resolved graph, so a stale prior run's nodes
// would otherwise corrupt the discovery queries.
func (c *Client) WipeAll(ctx context.Context) error {
	return c.runWrite(ctx, "MATCH (n) DETACH DELETE n", nil)
}

// constraintName turns a label into a lowercase identifier segment safe for
// use in a generated constraint/index name.
func constraintName(label string) string {
	out := make([]rune, 0, len(label))
	for i, r := range label {
		if i > 0 && r >= 'A' && r <= 'Z' {
			out = append(out, '_')
		}
		out = append(out, toLower(r))
	}
	return string(out)
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
