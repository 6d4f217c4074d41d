package vector

import (
	"fmt"
	"math"
	"sort"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Metric is a distance function. For every supported metric a smaller value
// means a closer match.
type Metric string

const (
	// MetricL2 is squared euclidean distance. On unit vectors it ranges over [0, 4].
	MetricL2 Metric = "l2"
	// MetricCosine is 1 - cosine similarity, ranging over [0, 2].
	MetricCosine Metric = "cosine"
)

// ParseMetric validates a metric name. An empty name selects MetricL2.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case "", MetricL2:
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", types.NewError(ErrCodeInvalidConfig,
			fmt.Sprintf("unknown distance metric %q, must be one of: l2, cosine", name))
	}
}

// Distance computes the metric between two vectors of equal length.
func (m Metric) Distance(a, b []float64) float64 {
	if m == MetricCosine {
		return 1 - cosineSimilarity(a, b)
	}
	return squaredL2(a, b)
}

func squaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// cosineSimilarity returns (a . b) / (|a| |b|), or 0 for a zero vector.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ranker accumulates candidate results for one query.
type ranker struct {
	query   VectorQuery
	metric  Metric
	results []VectorResult
}

func newRanker(query VectorQuery, metric Metric) *ranker {
	return &ranker{query: query, metric: metric}
}

// offer scores a record and keeps it when it passes the filters and cut-off.
func (r *ranker) offer(record VectorRecord) {
	if !matchesFilters(record, r.query.Filters) {
		return
	}
	d := r.metric.Distance(r.query.Embedding, record.Embedding)
	if r.query.MaxDistance > 0 && d > r.query.MaxDistance {
		return
	}
	r.results = append(r.results, VectorResult{Record: record, Distance: d})
}

// top returns the TopK results by ascending distance; ties break on ID so the
// ordering is stable across backends.
func (r *ranker) top() []VectorResult {
	sort.Slice(r.results, func(i, j int) bool {
		if r.results[i].Distance != r.results[j].Distance {
			return r.results[i].Distance < r.results[j].Distance
		}
		return r.results[i].Record.ID < r.results[j].Record.ID
	})
	if len(r.results) > r.query.TopK {
		r.results = r.results[:r.query.TopK]
	}
	if r.results == nil {
		return []VectorResult{}
	}
	return r.results
}

// matchesFilters checks every filter against the record metadata (AND
// semantics). Values are compared by their string form so filters behave the
// same on in-memory and JSON-decoded metadata.
func matchesFilters(record VectorRecord, filters map[string]any) bool {
	if len(filters) == 0 {
		return true
	}
	if record.Metadata == nil {
		return false
	}

	for key, want := range filters {
		got, ok := record.Metadata[key]
		if !ok {
			return false
		}
		if !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

func scalarEqual(a, b any) bool {
	switch a.(type) {
	case []any, map[string]any, []string:
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
