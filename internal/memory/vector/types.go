package vector

import (
	"fmt"
	"time"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// VectorRecord is a stored embedding with its source text and metadata.
type VectorRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewVectorRecord creates a VectorRecord stamped with the current time.
func NewVectorRecord(id, content string, embedding []float64, metadata map[string]any) *VectorRecord {
	return &VectorRecord{
		ID:        id,
		Content:   content,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Validate ensures the record has an ID, content and an embedding.
func (vr *VectorRecord) Validate() error {
	if vr.ID == "" {
		return types.NewError(ErrCodeVectorStoreFailed, "vector record ID cannot be empty")
	}
	if vr.Content == "" {
		return types.NewError(ErrCodeVectorStoreFailed, "vector record content cannot be empty")
	}
	if len(vr.Embedding) == 0 {
		return types.NewError(ErrCodeVectorStoreFailed, "vector record embedding cannot be empty")
	}
	return nil
}

func (vr *VectorRecord) Dimensions() int {
	return len(vr.Embedding)
}

// VectorQuery is a nearest-neighbor query over a pre-computed embedding.
type VectorQuery struct {
	Embedding []float64      `json:"embedding"`
	TopK      int            `json:"top_k"`
	Filters   map[string]any `json:"filters,omitempty"` // exact-match metadata filters, AND semantics
	// MaxDistance drops results farther than this value. Zero disables the cut.
	MaxDistance float64 `json:"max_distance,omitempty"`
}

// NewVectorQuery creates a query returning the topK closest records.
func NewVectorQuery(embedding []float64, topK int) *VectorQuery {
	return &VectorQuery{Embedding: embedding, TopK: topK}
}

// WithFilters adds metadata filters to the query.
func (vq *VectorQuery) WithFilters(filters map[string]any) *VectorQuery {
	vq.Filters = filters
	return vq
}

// WithMaxDistance sets the distance cut-off.
func (vq *VectorQuery) WithMaxDistance(d float64) *VectorQuery {
	vq.MaxDistance = d
	return vq
}

// Validate checks the query against the store dimensionality.
func (vq *VectorQuery) Validate(dims int) error {
	if len(vq.Embedding) == 0 {
		return types.NewError(ErrCodeVectorSearchFailed, "vector query must have an embedding")
	}
	if len(vq.Embedding) != dims {
		return types.NewError(ErrCodeVectorSearchFailed,
			fmt.Sprintf("query embedding dimensions mismatch: expected %d, got %d", dims, len(vq.Embedding)))
	}
	if vq.TopK <= 0 {
		return types.NewError(ErrCodeVectorSearchFailed,
			fmt.Sprintf("vector query top_k must be greater than 0, got %d", vq.TopK))
	}
	if vq.MaxDistance < 0 {
		return types.NewError(ErrCodeVectorSearchFailed,
			fmt.Sprintf("vector query max_distance must not be negative, got %f", vq.MaxDistance))
	}
	return nil
}

// VectorResult is a search hit. Lower Distance means a closer match.
type VectorResult struct {
	Record   VectorRecord `json:"record"`
	Distance float64      `json:"distance"`
}

func validateForStore(records []VectorRecord, dims int) error {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return types.WrapError(ErrCodeVectorStoreFailed,
				fmt.Sprintf("invalid record at index %d", i), err)
		}
		if len(records[i].Embedding) != dims {
			return types.NewError(ErrCodeVectorStoreFailed,
				fmt.Sprintf("record %d: embedding dimensions mismatch: expected %d, got %d",
					i, dims, len(records[i].Embedding)))
		}
	}
	return nil
}
