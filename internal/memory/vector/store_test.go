package vector

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

const testDims = 3

// testBackends opens one fresh store per backend.
func testBackends(t *testing.T) map[string]VectorStore {
	t.Helper()

	sqliteStore, err := NewSqliteVecStore(SqliteVecConfig{
		DBPath:    filepath.Join(t.TempDir(), "vectors.db"),
		TableName: "test_vectors",
		Dims:      testDims,
	})
	require.NoError(t, err)

	badgerStore, err := NewBadgerVectorStore(BadgerVecConfig{
		Dir:  t.TempDir(),
		Dims: testDims,
	})
	require.NoError(t, err)

	stores := map[string]VectorStore{
		"embedded": NewEmbeddedVectorStore(testDims, MetricL2),
		"sqlite":   sqliteStore,
		"badger":   badgerStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func rec(id, typ string, embedding ...float64) VectorRecord {
	return *NewVectorRecord(id, "content of "+id, embedding, map[string]any{
		"type":     typ,
		"mitre_id": id,
		"tactics":  []any{"collection"},
	})
}

func ids(results []VectorResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Record.ID
	}
	return out
}

func TestVectorStores_SearchOrdersByAscendingDistance(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.StoreBatch(ctx, []VectorRecord{
				rec("T0003", "technique", 0, 0, 1),
				rec("T0001", "technique", 1, 0, 0),
				rec("T0002", "technique", 0.8, 0.6, 0),
				rec("M0001", "mitigation", 1, 0, 0),
			}))

			results, err := store.Search(ctx, *NewVectorQuery([]float64{1, 0, 0}, 10).
				WithFilters(map[string]any{"type": "technique"}))
			require.NoError(t, err)
			require.Equal(t, []string{"T0001", "T0002", "T0003"}, ids(results))

			assert.InDelta(t, 0.0, results[0].Distance, 1e-9)
			assert.InDelta(t, 0.4, results[1].Distance, 1e-9)
			assert.InDelta(t, 2.0, results[2].Distance, 1e-9)
			for i := 1; i < len(results); i++ {
				assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
			}
			assert.Equal(t, "technique", results[0].Record.Metadata["type"])
		})
	}
}

func TestVectorStores_FiltersTopKAndMaxDistance(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.StoreBatch(ctx, []VectorRecord{
				rec("T0001", "technique", 1, 0, 0),
				rec("T0002", "technique", 0, 1, 0),
				rec("M0001", "mitigation", 1, 0, 0),
			}))

			byID, err := store.Search(ctx, *NewVectorQuery([]float64{0, 0, 1}, 1).
				WithFilters(map[string]any{"mitre_id": "T0002"}))
			require.NoError(t, err)
			assert.Equal(t, []string{"T0002"}, ids(byID))

			top1, err := store.Search(ctx, *NewVectorQuery([]float64{1, 0, 0}, 1))
			require.NoError(t, err)
			assert.Len(t, top1, 1)

			near, err := store.Search(ctx, *NewVectorQuery([]float64{1, 0, 0}, 10).WithMaxDistance(1.0))
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"T0001", "M0001"}, ids(near))

			none, err := store.Search(ctx, *NewVectorQuery([]float64{1, 0, 0}, 10).
				WithFilters(map[string]any{"type": "tactic"}))
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestVectorStores_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.StoreBatch(ctx, []VectorRecord{
				rec("T0001", "technique", 1, 0, 0),
				rec("T0002", "technique", 0, 1, 0),
			}))

			next := []VectorRecord{
				rec("T0002", "technique", 0, 0, 1),
				rec("T0003", "technique", 0, 1, 0),
			}
			require.NoError(t, store.ReplaceAll(ctx, next))
			// a second identical rebuild leaves the same contents
			require.NoError(t, store.ReplaceAll(ctx, next))

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			_, err = store.Get(ctx, "T0001")
			assert.Equal(t, ErrCodeVectorNotFound, types.CodeOf(err))

			got, err := store.Get(ctx, "T0002")
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 0, 1}, got.Embedding)
		})
	}
}

func TestVectorStores_ReplaceAllRejectsInvalidBatch(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Store(ctx, rec("T0001", "technique", 1, 0, 0)))

			err := store.ReplaceAll(ctx, []VectorRecord{
				rec("T0002", "technique", 1, 0, 0),
				rec("T0003", "technique", 1, 0),
			})
			require.Error(t, err)
			assert.Equal(t, ErrCodeVectorStoreFailed, types.CodeOf(err))

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestVectorStores_GetDeleteAndClose(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Store(ctx, rec("M1043", "mitigation", 0, 1, 0)))

			got, err := store.Get(ctx, "M1043")
			require.NoError(t, err)
			assert.Equal(t, "content of M1043", got.Content)
			assert.Equal(t, "M1043", got.Metadata["mitre_id"])

			require.NoError(t, store.Delete(ctx, "M1043"))
			require.NoError(t, store.Delete(ctx, "M1043"))
			_, err = store.Get(ctx, "M1043")
			assert.Equal(t, ErrCodeVectorNotFound, types.CodeOf(err))

			assert.True(t, store.Health(ctx).IsHealthy())
			require.NoError(t, store.Close())
			assert.True(t, store.Health(ctx).IsUnhealthy())

			_, err = store.Search(ctx, *NewVectorQuery([]float64{1, 0, 0}, 1))
			assert.Equal(t, ErrCodeVectorStoreUnavailable, types.CodeOf(err))
		})
	}
}

func TestVectorQuery_Validate(t *testing.T) {
	tests := []struct {
		name  string
		query VectorQuery
		ok    bool
	}{
		{"valid", VectorQuery{Embedding: []float64{1, 0, 0}, TopK: 3}, true},
		{"no embedding", VectorQuery{TopK: 3}, false},
		{"wrong dims", VectorQuery{Embedding: []float64{1, 0}, TopK: 3}, false},
		{"zero top_k", VectorQuery{Embedding: []float64{1, 0, 0}}, false},
		{"negative max distance", VectorQuery{Embedding: []float64{1, 0, 0}, TopK: 1, MaxDistance: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(testDims)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, ErrCodeVectorSearchFailed, types.CodeOf(err))
		})
	}
}

func TestMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricL2, m)

	_, err = ParseMetric("dot")
	assert.Equal(t, ErrCodeInvalidConfig, types.CodeOf(err))

	a := []float64{1, 0}
	b := []float64{0, 1}
	assert.InDelta(t, 2.0, MetricL2.Distance(a, b), 1e-9)
	assert.InDelta(t, 1.0, MetricCosine.Distance(a, b), 1e-9)
	assert.InDelta(t, 0.0, MetricCosine.Distance(a, a), 1e-9)
}

func TestNewVectorStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     VectorStoreConfig
		wantErr types.ErrorCode
	}{
		{"embedded default", VectorStoreConfig{Dimensions: 384}, ""},
		{"sqlite", VectorStoreConfig{Backend: "sqlite", StoragePath: filepath.Join(t.TempDir(), "nested", "v.db"), Dimensions: 384}, ""},
		{"badger", VectorStoreConfig{Backend: "badger", StoragePath: filepath.Join(t.TempDir(), "badger"), Dimensions: 384, Metric: "cosine"}, ""},
		{"sqlite without path", VectorStoreConfig{Backend: "sqlite", Dimensions: 384}, ErrCodeInvalidConfig},
		{"unknown backend", VectorStoreConfig{Backend: "chroma", Dimensions: 384}, ErrCodeInvalidConfig},
		{"bad dims", VectorStoreConfig{Dimensions: 0}, ErrCodeInvalidConfig},
		{"bad metric", VectorStoreConfig{Dimensions: 384, Metric: "manhattan"}, ErrCodeInvalidConfig},
		{"bad table name", VectorStoreConfig{Backend: "sqlite", StoragePath: filepath.Join(t.TempDir(), "v.db"), Collection: "x; DROP", Dimensions: 384}, ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewVectorStore(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, types.CodeOf(err), fmt.Sprint(err))
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.True(t, store.Health(context.Background()).IsHealthy())

			want, _ := ParseMetric(tt.cfg.Metric)
			assert.Equal(t, want, store.Metric())
		})
	}
}
