package retrieval

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Span names emitted by TracedIndex.
const (
	SpanIndexSearch  = "mitrerag.index.search"
	SpanIndexUpsert  = "mitrerag.index.upsert"
	SpanIndexRebuild = "mitrerag.index.rebuild"
)

// Span attribute keys.
const (
	AttrQueryK       = "mitrerag.index.k"
	AttrQueryFilter  = "mitrerag.index.filter"
	AttrHitCount     = "mitrerag.index.hits"
	AttrBestDistance = "mitrerag.index.best_distance"
	AttrRecordCount  = "mitrerag.index.records"
)

// TracedIndex wraps a SimilarityIndex with OpenTelemetry spans.
type TracedIndex struct {
	inner  SimilarityIndex
	tracer trace.Tracer
}

// NewTracedIndex wraps inner; tracer is typically otel.Tracer("mitrerag.retrieval").
func NewTracedIndex(inner SimilarityIndex, tracer trace.Tracer) *TracedIndex {
	return &TracedIndex{inner: inner, tracer: tracer}
}

func (t *TracedIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	ctx, span := t.tracer.Start(ctx, SpanIndexSearch)
	defer span.End()

	span.SetAttributes(
		attribute.Int(AttrQueryK, q.K),
		attribute.String(AttrQueryFilter, formatFilter(q.Filter)),
	)

	hits, err := t.inner.Search(ctx, q)
	if err != nil {
		recordFailure(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int(AttrHitCount, len(hits)))
	if len(hits) > 0 {
		span.SetAttributes(attribute.Float64(AttrBestDistance, hits[0].Distance))
	}
	span.SetStatus(codes.Ok, "")
	return hits, nil
}

func (t *TracedIndex) Upsert(ctx context.Context, records []Record) error {
	return t.write(ctx, SpanIndexUpsert, records, t.inner.Upsert)
}

func (t *TracedIndex) Rebuild(ctx context.Context, records []Record) error {
	return t.write(ctx, SpanIndexRebuild, records, t.inner.Rebuild)
}

func (t *TracedIndex) write(ctx context.Context, name string, records []Record, fn func(context.Context, []Record) error) error {
	ctx, span := t.tracer.Start(ctx, name)
	defer span.End()

	span.SetAttributes(attribute.Int(AttrRecordCount, len(records)))
	if err := fn(ctx, records); err != nil {
		recordFailure(span, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (t *TracedIndex) Count(ctx context.Context) (int, error) {
	return t.inner.Count(ctx)
}

func (t *TracedIndex) Health(ctx context.Context) types.HealthStatus {
	return t.inner.Health(ctx)
}

func recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := types.CodeOf(err); code != "" {
		span.SetAttributes(attribute.String("error.code", string(code)))
	}
}

// formatFilter renders a filter as "k=v,k=v" in key order.
func formatFilter(f map[string]string) string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + f[k]
	}
	return strings.Join(parts, ",")
}
