// Package graph is a small Cypher client used to mirror the ATT&CK
// mitigates graph into Neo4j for exploration outside the router.
package graph

import (
	"context"
	"time"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// GraphClient executes Cypher against a graph database. Implementations must
// be safe for concurrent use once connected.
type GraphClient interface {
	// Connect establishes and verifies the connection.
	Connect(ctx context.Context) error

	Close(ctx context.Context) error

	Health(ctx context.Context) types.HealthStatus

	// Query runs a read-only statement.
	Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)

	// ExecuteWrite runs statements in order inside one write transaction.
	// Either every statement commits or none does.
	ExecuteWrite(ctx context.Context, statements []Statement) (QuerySummary, error)
}

// Statement is one parameterised Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
}

// QueryResult holds the rows of a read query.
type QueryResult struct {
	Records []map[string]any
	Columns []string
	Summary QuerySummary
}

// QuerySummary aggregates write counters across statements.
type QuerySummary struct {
	ExecutionTime        time.Duration
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
}

// Add accumulates counters from another summary.
func (s *QuerySummary) Add(other QuerySummary) {
	s.NodesCreated += other.NodesCreated
	s.NodesDeleted += other.NodesDeleted
	s.RelationshipsCreated += other.RelationshipsCreated
	s.RelationshipsDeleted += other.RelationshipsDeleted
	s.PropertiesSet += other.PropertiesSet
}

// GraphClientConfig contains connection settings.
type GraphClientConfig struct {
	// URI such as bolt://host:7687, bolt+s://host:7687 or neo4j://host.
	URI      string `mapstructure:"uri" yaml:"uri" validate:"required"`
	Username string `mapstructure:"username" yaml:"username" validate:"required"`
	Password string `mapstructure:"password" yaml:"password" validate:"required"`
	// Database is empty for the server default.
	Database string `mapstructure:"database" yaml:"database"`

	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time"`
}

// DefaultConfig returns local development defaults.
func DefaultConfig() GraphClientConfig {
	return GraphClientConfig{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		MaxConnectionPoolSize:   10,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c GraphClientConfig) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxTransactionRetryTime must be positive")
	}
	return nil
}
