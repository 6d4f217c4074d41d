package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Jaiwincr7/rag-based-model/internal/memory/embedder"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/vector"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Index implements SimilarityIndex on top of an embedder and a vector store.
// It is safe for concurrent searches.
type Index struct {
	store    vector.VectorStore
	embedder embedder.Embedder
	logger   *slog.Logger
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) IndexOption {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewIndex wires an embedder to a vector store. The store dimensions are not
// introspectable, so mismatches surface on the first write or search.
func NewIndex(store vector.VectorStore, emb embedder.Embedder, opts ...IndexOption) (*Index, error) {
	if store == nil {
		return nil, types.NewError(types.RETRIEVAL_FAILED, "vector store is required")
	}
	if emb == nil {
		return nil, types.NewError(types.RETRIEVAL_FAILED, "embedder is required")
	}

	idx := &Index{
		store:    store,
		embedder: emb,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

func (i *Index) Upsert(ctx context.Context, records []Record) error {
	vrs, err := i.prepare(ctx, records)
	if err != nil {
		return err
	}
	if err := i.store.StoreBatch(ctx, vrs); err != nil {
		return types.WrapError(types.INGEST_UPSERT_FAILED, "failed to upsert records", err)
	}
	i.logger.DebugContext(ctx, "upserted records", "count", len(vrs))
	return nil
}

func (i *Index) Rebuild(ctx context.Context, records []Record) error {
	vrs, err := i.prepare(ctx, records)
	if err != nil {
		return err
	}
	if err := i.store.ReplaceAll(ctx, vrs); err != nil {
		return types.WrapError(types.INGEST_UPSERT_FAILED, "failed to replace collection", err)
	}
	i.logger.DebugContext(ctx, "rebuilt collection", "count", len(vrs))
	return nil
}

// prepare embeds every record text in one batch and builds store records.
func (i *Index) prepare(ctx context.Context, records []Record) ([]vector.VectorRecord, error) {
	texts := make([]string, len(records))
	for n, r := range records {
		texts[n] = r.Text
	}

	embeddings, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, types.WrapError(types.INGEST_EMBED_FAILED, "failed to embed records", err)
	}
	if len(embeddings) != len(records) {
		return nil, types.NewError(types.INGEST_EMBED_FAILED,
			fmt.Sprintf("embedder returned %d vectors for %d records", len(embeddings), len(records)))
	}

	out := make([]vector.VectorRecord, len(records))
	for n, r := range records {
		md, err := encodeMetadata(r.Metadata)
		if err != nil {
			return nil, types.WrapError(types.INGEST_UPSERT_FAILED,
				fmt.Sprintf("failed to encode metadata for %s", r.ID), err)
		}
		out[n] = *vector.NewVectorRecord(r.ID, r.Text, embeddings[n], md)
	}
	return out, nil
}

// Search embeds q.Text (unless an embedding is supplied) and returns up to K
// hits in ascending distance order.
func (i *Index) Search(ctx context.Context, q Query) ([]Hit, error) {
	if q.K <= 0 {
		return nil, types.NewError(types.RETRIEVAL_FAILED, fmt.Sprintf("k must be positive, got %d", q.K))
	}

	embedding := q.Embedding
	if len(embedding) == 0 {
		var err error
		embedding, err = i.embedder.Embed(ctx, q.Text)
		if err != nil {
			return nil, retrievalError("failed to embed query", err)
		}
	}
	// A zero vector sits at the same distance from every unit-norm record.
	if isZero(embedding) {
		return []Hit{}, nil
	}

	results, err := i.store.Search(ctx, *vector.NewVectorQuery(embedding, q.K).WithFilters(toFilters(q.Filter)))
	if err != nil {
		return nil, retrievalError("similarity search failed", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		rec, err := recordFromVector(res.Record)
		if err != nil {
			return nil, types.WrapError(types.RETRIEVAL_FAILED,
				fmt.Sprintf("failed to decode metadata for %s", res.Record.ID), err)
		}
		hits = append(hits, Hit{Record: rec, Distance: res.Distance})
	}
	return hits, nil
}

func (i *Index) Count(ctx context.Context) (int, error) {
	return i.store.Count(ctx)
}

// Health combines the store and embedder status.
func (i *Index) Health(ctx context.Context) types.HealthStatus {
	return types.AggregateHealth(map[string]types.HealthStatus{
		"vector_store": i.store.Health(ctx),
		"embedder":     i.embedder.Health(ctx),
	})
}

// Close releases the underlying store.
func (i *Index) Close() error {
	return i.store.Close()
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// retrievalError classifies deadline and cancellation as RETRIEVAL_TIMEOUT.
func retrievalError(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &types.RAGError{Code: types.RETRIEVAL_TIMEOUT, Message: msg, Retryable: true, Cause: err}
	}
	return types.WrapError(types.RETRIEVAL_FAILED, msg, err)
}
