package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/embedder"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/vector"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

func keyloggingRecord() Record {
	return Record{
		ID:   "attack-pattern--keylog",
		Text: "ID: T1056.001\nName: Keylogging",
		Metadata: attack.Metadata{
			StixID:            "attack-pattern--keylog",
			MitreID:           "T1056.001",
			Name:              "Keylogging",
			Type:              attack.NodeTypeTechnique,
			Tactics:           []string{"credential access", "collection"},
			LinkedMitigations: []attack.NeighborSummary{{MitreID: "M1043", Name: "Credential Access Protection"}},
			LinkedTechniques:  []attack.NeighborSummary{},
			DetectionText:     "Monitor hooks.",
		},
	}
}

func cpRecord() Record {
	return Record{
		ID:   "course-of-action--cap",
		Text: "ID: M1043\nName: Credential Access Protection",
		Metadata: attack.Metadata{
			StixID:            "course-of-action--cap",
			MitreID:           "M1043",
			Name:              "Credential Access Protection",
			Type:              attack.NodeTypeMitigation,
			Tactics:           []string{},
			LinkedMitigations: []attack.NeighborSummary{},
			LinkedTechniques:  []attack.NeighborSummary{{MitreID: "T1056.001", Name: "Keylogging"}},
			DetectionText:     attack.DefaultDetectionText,
		},
	}
}

func newTestIndex(t *testing.T, store vector.VectorStore) (*Index, *embedder.MockEmbedder) {
	t.Helper()
	emb := embedder.NewMockEmbedder()
	emb.SetDimensions(4)
	emb.SetVector(keyloggingRecord().Text, []float64{1, 0, 0, 0})
	emb.SetVector(cpRecord().Text, []float64{0, 1, 0, 0})

	idx, err := NewIndex(store, emb)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, emb
}

func TestIndex_RoundTripsMetadataAcrossBackends(t *testing.T) {
	sqliteStore, err := vector.NewSqliteVecStore(vector.SqliteVecConfig{DBPath: t.TempDir() + "/idx.db", Dims: 4})
	require.NoError(t, err)
	badgerStore, err := vector.NewBadgerVectorStore(vector.BadgerVecConfig{InMemory: true, Dims: 4})
	require.NoError(t, err)

	stores := map[string]vector.VectorStore{
		"embedded": vector.NewEmbeddedVectorStore(4, vector.MetricL2),
		"sqlite":   sqliteStore,
		"badger":   badgerStore,
	}

	ctx := context.Background()
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			idx, emb := newTestIndex(t, store)
			require.NoError(t, idx.Upsert(ctx, []Record{keyloggingRecord(), cpRecord()}))

			emb.SetVector("keylogging", []float64{0.9, 0.1, 0, 0})
			hits, err := idx.Search(ctx, Query{Text: "keylogging", K: 5, Filter: TypeFilter(attack.NodeTypeTechnique)})
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, keyloggingRecord(), hits[0].Record)
			assert.Less(t, hits[0].Distance, 0.1)

			byID, err := idx.Search(ctx, Query{Text: "anything", K: 1, Filter: IDFilter("M1043")})
			require.NoError(t, err)
			require.Len(t, byID, 1)
			assert.Equal(t, cpRecord(), byID[0].Record)

			count, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, count)
		})
	}
}

func TestIndex_RebuildReplacesCollection(t *testing.T) {
	ctx := context.Background()
	idx, _ := newTestIndex(t, vector.NewEmbeddedVectorStore(4, vector.MetricL2))

	require.NoError(t, idx.Upsert(ctx, []Record{keyloggingRecord(), cpRecord()}))
	require.NoError(t, idx.Rebuild(ctx, []Record{cpRecord()}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndex_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("embed failure on upsert", func(t *testing.T) {
		idx, emb := newTestIndex(t, vector.NewEmbeddedVectorStore(4, vector.MetricL2))
		emb.SetBatchError(errors.New("model missing"))
		err := idx.Upsert(ctx, []Record{cpRecord()})
		assert.Equal(t, types.INGEST_EMBED_FAILED, types.CodeOf(err))
	})

	t.Run("dimension mismatch on upsert", func(t *testing.T) {
		idx, _ := newTestIndex(t, vector.NewEmbeddedVectorStore(8, vector.MetricL2))
		err := idx.Upsert(ctx, []Record{cpRecord()})
		assert.Equal(t, types.INGEST_UPSERT_FAILED, types.CodeOf(err))
	})

	t.Run("invalid k", func(t *testing.T) {
		idx, _ := newTestIndex(t, vector.NewEmbeddedVectorStore(4, vector.MetricL2))
		_, err := idx.Search(ctx, Query{Text: "x"})
		assert.Equal(t, types.RETRIEVAL_FAILED, types.CodeOf(err))
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		idx, _ := newTestIndex(t, vector.NewEmbeddedVectorStore(4, vector.MetricL2))
		require.NoError(t, idx.Upsert(ctx, []Record{cpRecord()}))

		expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()
		_, err := idx.Search(expired, Query{Embedding: []float64{1, 0, 0, 0}, K: 1})
		require.Error(t, err)
		assert.Equal(t, types.RETRIEVAL_TIMEOUT, types.CodeOf(err))
		assert.True(t, types.IsRetryable(err))
	})

	t.Run("constructor requires collaborators", func(t *testing.T) {
		_, err := NewIndex(nil, embedder.NewMockEmbedder())
		assert.Error(t, err)
		_, err = NewIndex(vector.NewEmbeddedVectorStore(4, ""), nil)
		assert.Error(t, err)
	})
}

func TestIndex_Health(t *testing.T) {
	ctx := context.Background()
	idx, emb := newTestIndex(t, vector.NewEmbeddedVectorStore(4, vector.MetricL2))
	assert.True(t, idx.Health(ctx).IsHealthy())

	emb.SetHealthStatus(types.Degraded("slow"))
	status := idx.Health(ctx)
	assert.True(t, status.IsDegraded())
	assert.Contains(t, status.Message, "embedder: slow")
}

func TestIndex_ZeroQueryVectorHasNoHits(t *testing.T) {
	ctx := context.Background()
	idx, err := NewIndex(vector.NewEmbeddedVectorStore(64, vector.MetricL2), embedder.NewHashingEmbedder(64))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	require.NoError(t, idx.Upsert(ctx, []Record{keyloggingRecord(), cpRecord()}))

	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{name: "punctuation only", query: Query{Text: "???", K: 2}, want: 0},
		{name: "blank", query: Query{Text: "   ", K: 2}, want: 0},
		{name: "explicit zero embedding", query: Query{Embedding: make([]float64, 64), K: 2}, want: 0},
		{name: "word query", query: Query{Text: "keylogging", K: 2}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := idx.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, hits, tt.want)
		})
	}
}
