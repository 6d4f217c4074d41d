package vector

import (
	"context"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// VectorStore persists embedded records and answers nearest-neighbor queries
// ordered by ascending distance. Implementations must be safe for concurrent
// readers; writes are expected from a single ingestion job.
type VectorStore interface {
	// Store adds or replaces a single record.
	Store(ctx context.Context, record VectorRecord) error

	// StoreBatch adds or replaces records in one unit: all are written or none.
	StoreBatch(ctx context.Context, records []VectorRecord) error

	// ReplaceAll atomically swaps the whole collection for records. Readers
	// observe either the old collection or the new one.
	ReplaceAll(ctx context.Context, records []VectorRecord) error

	// Search returns up to TopK records closest to the query embedding that
	// satisfy every equality filter.
	Search(ctx context.Context, query VectorQuery) ([]VectorResult, error)

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*VectorRecord, error)

	// Delete removes a record. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// Metric returns the distance metric used for ranking.
	Metric() Metric

	Health(ctx context.Context) types.HealthStatus

	Close() error
}
