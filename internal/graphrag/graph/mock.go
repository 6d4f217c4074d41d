package graph

import (
	"context"
	"sync"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// MockGraphClient records statements instead of talking to a database.
type MockGraphClient struct {
	mu sync.RWMutex

	connected    bool
	transactions [][]Statement
	queryResults []QueryResult

	queryError error
	writeError error
}

func NewMockGraphClient() *MockGraphClient {
	return &MockGraphClient{}
}

func (m *MockGraphClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *MockGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *MockGraphClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return types.Unhealthy("mock graph client not connected")
	}
	return types.Healthy("mock graph client")
}

// Query returns queued results in FIFO order, or an empty result.
func (m *MockGraphClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queryError != nil {
		return QueryResult{}, m.queryError
	}
	if len(m.queryResults) == 0 {
		return QueryResult{}, nil
	}
	res := m.queryResults[0]
	m.queryResults = m.queryResults[1:]
	return res, nil
}

func (m *MockGraphClient) ExecuteWrite(ctx context.Context, statements []Statement) (QuerySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return QuerySummary{}, types.NewError(ErrCodeGraphConnectionClosed, "driver not connected")
	}
	if m.writeError != nil {
		return QuerySummary{}, m.writeError
	}
	m.transactions = append(m.transactions, append([]Statement(nil), statements...))
	return QuerySummary{}, nil
}

func (m *MockGraphClient) AddQueryResult(result QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryResults = append(m.queryResults, result)
}

func (m *MockGraphClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
}

func (m *MockGraphClient) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeError = err
}

// Transactions returns every committed write transaction.
func (m *MockGraphClient) Transactions() [][]Statement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]Statement(nil), m.transactions...)
}
