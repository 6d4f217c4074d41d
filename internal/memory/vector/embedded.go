package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// EmbeddedVectorStore keeps records in memory and searches them by brute
// force. It suits tests and single-process runs over the ATT&CK corpus, which
// is small enough that a linear scan is fast.
type EmbeddedVectorStore struct {
	mu      sync.RWMutex
	records map[string]VectorRecord
	dims    int
	metric  Metric
	closed  bool
}

// NewEmbeddedVectorStore creates an empty in-memory store.
func NewEmbeddedVectorStore(dims int, metric Metric) *EmbeddedVectorStore {
	if metric == "" {
		metric = MetricL2
	}
	return &EmbeddedVectorStore{
		records: make(map[string]VectorRecord),
		dims:    dims,
		metric:  metric,
	}
}

func (s *EmbeddedVectorStore) Store(ctx context.Context, record VectorRecord) error {
	return s.StoreBatch(ctx, []VectorRecord{record})
}

func (s *EmbeddedVectorStore) StoreBatch(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateForStore(records, s.dims); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}
	for _, record := range records {
		s.records[record.ID] = record
	}
	return nil
}

func (s *EmbeddedVectorStore) ReplaceAll(ctx context.Context, records []VectorRecord) error {
	if err := validateForStore(records, s.dims); err != nil {
		return err
	}

	next := make(map[string]VectorRecord, len(records))
	for _, record := range records {
		next[record.ID] = record
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}
	s.records = next
	return nil
}

func (s *EmbeddedVectorStore) Search(ctx context.Context, query VectorQuery) ([]VectorResult, error) {
	if err := query.Validate(s.dims); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	r := newRanker(query, s.metric)
	for _, record := range s.records {
		if err := ctx.Err(); err != nil {
			return nil, types.WrapError(ErrCodeVectorSearchFailed, "search cancelled", err)
		}
		r.offer(record)
	}
	return r.top(), nil
}

func (s *EmbeddedVectorStore) Get(ctx context.Context, id string) (*VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}
	record, exists := s.records[id]
	if !exists {
		return nil, types.NewError(ErrCodeVectorNotFound,
			fmt.Sprintf("vector record not found: %s", id))
	}
	return &record, nil
}

func (s *EmbeddedVectorStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}
	delete(s.records, id)
	return nil
}

func (s *EmbeddedVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed()
	}
	return len(s.records), nil
}

func (s *EmbeddedVectorStore) Metric() Metric {
	return s.metric
}

func (s *EmbeddedVectorStore) Health(ctx context.Context) types.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.Unhealthy("embedded vector store is closed")
	}
	return types.Healthy(fmt.Sprintf("embedded vector store operational with %d records (dims: %d, metric: %s)",
		len(s.records), s.dims, s.metric))
}

func (s *EmbeddedVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.records = nil
	return nil
}
