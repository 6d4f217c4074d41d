package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/vector"
)

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracedIndex(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	idx, emb := newTestIndex(t, vector.NewEmbeddedVectorStore(4, vector.MetricL2))
	traced := NewTracedIndex(idx, tp.Tracer("test"))

	ctx := context.Background()
	require.NoError(t, traced.Upsert(ctx, []Record{keyloggingRecord(), cpRecord()}))

	emb.SetVector("keylogging", []float64{1, 0, 0, 0})
	hits, err := traced.Search(ctx, Query{Text: "keylogging", K: 3, Filter: TypeFilter(attack.NodeTypeTechnique)})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = traced.Search(ctx, Query{Text: "bad", K: 0})
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, SpanIndexUpsert, spans[0].Name())
	v, ok := spanAttr(spans[0], AttrRecordCount)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())

	assert.Equal(t, SpanIndexSearch, spans[1].Name())
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	v, ok = spanAttr(spans[1], AttrQueryFilter)
	require.True(t, ok)
	assert.Equal(t, "type=technique", v.AsString())
	v, ok = spanAttr(spans[1], AttrHitCount)
	require.True(t, ok)
	assert.Equal(t, int64(1), v.AsInt64())

	assert.Equal(t, codes.Error, spans[2].Status().Code)
	v, ok = spanAttr(spans[2], "error.code")
	require.True(t, ok)
	assert.Equal(t, "RETRIEVAL_FAILED", v.AsString())
}
