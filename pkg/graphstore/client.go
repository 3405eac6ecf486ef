// Package graphstore persists the investigation's identity graph to Neo4j
// and runs the post-persistence discovery queries. Labels
// and relationship types are allowlisted before interpolation into Cypher;
// every other value travels as a query parameter.
package graphstore

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	sharederrors "github.com/deepresearch/investigator/pkg/shared/errors"
)

// Client wraps a Neo4j driver with the connection settings the investigator
// needs: a single database name (single-tenant, step 3 wipes
// it wholesale per investigation) and a bounded connection pool.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// ClientConfig mirrors config.GraphConfig without importing internal/config,
// keeping pkg/graphstore importable independent of the CLI's config layer.
type ClientConfig struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// NewClient opens a Neo4j driver and verifies connectivity before returning.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *config.Config) {
			c.MaxConnectionPoolSize = 50
			c.ConnectionAcquisitionTimeout = cfg.Timeout
			c.SocketConnectTimeout = cfg.Timeout
		},
	)
	if err != nil {
		return nil, sharederrors.NetworkError("create neo4j driver", cfg.URI, err)
	}

	client := &Client{driver: driver, database: cfg.Database, timeout: cfg.Timeout}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, sharederrors.NetworkError("verify neo4j connectivity", cfg.URI, err)
	}

	return client, nil
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

// write runs a write transaction against the client's database.
func (c *Client) write(ctx context.Context, work neo4j.ManagedTransactionWork) (interface{}, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()
	return session.ExecuteWrite(ctx, work)
}

// read runs a read transaction against the client's database.
func (c *Client) read(ctx context.Context, work neo4j.ManagedTransactionWork) (interface{}, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()
	return session.ExecuteRead(ctx, work)
}

// runWrite executes a single parameterized Cypher statement as a write and
// discards its result, the shape nearly all of the upsert helpers need.
func (c *Client) runWrite(ctx context.Context, query string, params map[string]interface{}) error {
	_, err := c.write(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}
