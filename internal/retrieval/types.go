package retrieval

import (
	"context"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Record is one indexed technique or mitigation.
type Record struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Metadata attack.Metadata `json:"metadata"`
}

// Hit is a search result. Lower Distance is better.
type Hit struct {
	Record   Record  `json:"record"`
	Distance float64 `json:"distance"`
}

// Query is a similarity query. Exactly one of Text or Embedding is set.
// Filter holds exact-match metadata conditions, e.g. {"type": "technique"}.
type Query struct {
	Text      string
	Embedding []float64
	K         int
	Filter    map[string]string
}

// TypeFilter restricts a query to one node type.
func TypeFilter(t attack.NodeType) map[string]string {
	return map[string]string{attack.FieldType: string(t)}
}

// IDFilter restricts a query to one catalog id.
func IDFilter(mitreID string) map[string]string {
	return map[string]string{attack.FieldMitreID: mitreID}
}

// Searcher is the read side of the index.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// SimilarityIndex is the full read/write contract used by ingestion and the
// query path.
type SimilarityIndex interface {
	Searcher

	// Upsert embeds and stores records as one batch.
	Upsert(ctx context.Context, records []Record) error

	// Rebuild atomically replaces the whole collection with records.
	Rebuild(ctx context.Context, records []Record) error

	Count(ctx context.Context) (int, error)

	Health(ctx context.Context) types.HealthStatus
}
