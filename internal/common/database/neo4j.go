// internal/common/database/neo4j.go
package database

import (
	"context"
	"fmt"
	"time"

	"cypher-catalog/internal/common/config"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// AccessMode selects read or write routing for a session.
type AccessMode int

const (
	ReadAccess AccessMode = iota
	WriteAccess
)

func (m AccessMode) String() string {
	if m == WriteAccess {
		return "write"
	}
	return "read"
}

// GraphStore runs one statement in its own session and returns every record.
// The session is always closed before Run returns.
type GraphStore interface {
	Run(ctx context.Context, mode AccessMode, cypher string, params map[string]any) ([]*neo4j.Record, error)
}

// Neo4jClient wraps the Neo4j driver
type Neo4jClient struct {
	driver       neo4j.DriverWithContext
	database     string
	queryTimeout time.Duration
}

// NewNeo4j creates a driver and verifies the server is reachable.
func NewNeo4j(ctx context.Context, cfg config.Neo4jConfig) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
			if cfg.ConnectTimeout > 0 {
				c.SocketConnectTimeout = config.GetDuration(cfg.ConnectTimeout)
				c.ConnectionAcquisitionTimeout = config.GetDuration(cfg.ConnectTimeout)
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	client := &Neo4jClient{
		driver:       driver,
		database:     cfg.Database,
		queryTimeout: config.GetDuration(cfg.QueryTimeout),
	}

	if err := client.Ping(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, err
	}
	return client, nil
}

// Run executes an auto-commit statement. Auto-commit is used instead of a managed
// transaction so the driver never replays a statement on transient errors.
func (c *Neo4jClient) Run(ctx context.Context, mode AccessMode, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	accessMode := neo4j.AccessModeRead
	if mode == WriteAccess {
		accessMode = neo4j.AccessModeWrite
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   accessMode,
		DatabaseName: c.database,
	})
	defer session.Close(context.Background())

	var txOpts []func(*neo4j.TransactionConfig)
	if c.queryTimeout > 0 {
		txOpts = append(txOpts, neo4j.WithTxTimeout(c.queryTimeout))
	}

	result, err := session.Run(ctx, cypher, params, txOpts...)
	if err != nil {
		return nil, fmt.Errorf("neo4j run failed: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4j collect failed: %w", err)
	}
	return records, nil
}

// Ping tests the Neo4j connection
func (c *Neo4jClient) Ping(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j ping failed: %w", err)
	}
	return nil
}

// Close closes the driver and its connection pool
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver != nil {
		return c.driver.Close(ctx)
	}
	return nil
}
