package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Neo4jClient implements GraphClient with the official Neo4j driver.
type Neo4jClient struct {
	config GraphClientConfig

	mu     sync.RWMutex
	driver neo4j.DriverWithContext
}

// NewNeo4jClient validates config. Call Connect before use.
func NewNeo4jClient(config GraphClientConfig) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Neo4jClient{config: config}, nil
}

// Connect creates the driver and verifies connectivity, retrying with
// exponential backoff.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")
	driverConfig := func(config *neo4j.Config) {
		if c.config.MaxConnectionPoolSize > 0 {
			config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		}
		config.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		config.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
	}

	const maxRetries = 5
	delay := 100 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, driverConfig)
		if err == nil {
			if err = driver.VerifyConnectivity(ctx); err == nil {
				c.mu.Lock()
				c.driver = driver
				c.mu.Unlock()
				return nil
			}
			driver.Close(ctx)
		}
		lastErr = err

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return types.WrapError(ErrCodeGraphConnectionFailed, "connection attempt cancelled", ctx.Err())
		}
		if delay *= 2; delay > c.config.ConnectionTimeout {
			delay = c.config.ConnectionTimeout
		}
	}

	return types.WrapError(ErrCodeGraphConnectionFailed,
		fmt.Sprintf("failed to connect to %s after %d attempts", c.config.URI, maxRetries), lastErr)
}

func (c *Neo4jClient) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	if err != nil {
		return types.WrapError(ErrCodeGraphConnectionClosed, "failed to close driver", err)
	}
	return nil
}

func (c *Neo4jClient) Health(ctx context.Context) types.HealthStatus {
	driver, err := c.currentDriver()
	if err != nil {
		return types.Unhealthy("driver not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}
	return types.Healthy("connected to Neo4j")
}

func (c *Neo4jClient) currentDriver() (neo4j.DriverWithContext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.driver == nil {
		return nil, types.NewError(ErrCodeGraphConnectionClosed, "driver not connected")
	}
	return c.driver, nil
}

func (c *Neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	driver, err := c.currentDriver()
	if err != nil {
		return QueryResult{}, err
	}

	start := time.Now()
	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.config.Database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return convertNeo4jResult(records, summary), nil
	})
	if err != nil {
		return QueryResult{}, types.WrapError(ErrCodeGraphQueryFailed, "query execution failed", err)
	}

	qr := result.(QueryResult)
	qr.Summary.ExecutionTime = time.Since(start)
	return qr, nil
}

func (c *Neo4jClient) ExecuteWrite(ctx context.Context, statements []Statement) (QuerySummary, error) {
	driver, err := c.currentDriver()
	if err != nil {
		return QuerySummary{}, err
	}

	start := time.Now()
	session := driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var total QuerySummary
		for i, st := range statements {
			res, err := tx.Run(ctx, st.Cypher, st.Params)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i, err)
			}
			summary, err := res.Consume(ctx)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i, err)
			}
			total.Add(summarize(summary))
		}
		return total, nil
	})
	if err != nil {
		return QuerySummary{}, types.WrapError(ErrCodeGraphWriteFailed, "write transaction failed", err)
	}

	summary := result.(QuerySummary)
	summary.ExecutionTime = time.Since(start)
	return summary, nil
}

func convertNeo4jResult(records []*neo4j.Record, summary neo4j.ResultSummary) QueryResult {
	result := QueryResult{
		Records: make([]map[string]any, 0, len(records)),
		Columns: []string{},
	}
	if len(records) > 0 {
		result.Columns = records[0].Keys
	}
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = record.Values[i]
		}
		result.Records = append(result.Records, row)
	}
	result.Summary = summarize(summary)
	return result
}

func summarize(summary neo4j.ResultSummary) QuerySummary {
	if summary == nil || summary.Counters() == nil {
		return QuerySummary{}
	}
	counters := summary.Counters()
	return QuerySummary{
		NodesCreated:         counters.NodesCreated(),
		NodesDeleted:         counters.NodesDeleted(),
		RelationshipsCreated: counters.RelationshipsCreated(),
		RelationshipsDeleted: counters.RelationshipsDeleted(),
		PropertiesSet:        counters.PropertiesSet(),
	}
}
