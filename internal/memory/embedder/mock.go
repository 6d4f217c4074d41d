package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"sync"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// MockEmbedder is a deterministic Embedder for tests. Unknown texts map to a
// SHA256-seeded pseudo-random unit vector; SetVector pins exact vectors so
// tests can control distances.
type MockEmbedder struct {
	mu         sync.RWMutex
	dimensions int
	pinned     map[string][]float64
	embedCalls []string
	embedError error
	batchError error
	health     types.HealthStatus
}

// NewMockEmbedder creates a mock producing 384-dimensional vectors.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		dimensions: NativeDimensions,
		pinned:     make(map[string][]float64),
		health:     types.Healthy("mock embedder"),
	}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.embedCalls = append(m.embedCalls, text)
	if m.embedError != nil {
		return nil, m.embedError
	}
	return m.vector(text), nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.batchError != nil {
		return nil, m.batchError
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *MockEmbedder) vector(text string) []float64 {
	if v, ok := m.pinned[text]; ok {
		return append([]float64(nil), v...)
	}

	hash := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(hash[:8]))))

	v := make([]float64, m.dimensions)
	for i := range v {
		v[i] = rng.Float64()*2 - 1
	}
	return normalizeVector(v)
}

// SetVector pins the embedding returned for text. The vector is normalised.
func (m *MockEmbedder) SetVector(text string, v []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned[text] = normalizeVector(append([]float64(nil), v...))
}

func (m *MockEmbedder) Dimensions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimensions
}

func (m *MockEmbedder) Model() string {
	return "mock-embedder"
}

func (m *MockEmbedder) Health(ctx context.Context) types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// SetDimensions changes the output width for unpinned texts.
func (m *MockEmbedder) SetDimensions(dims int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = dims
}

// SetEmbedError configures Embed to fail.
func (m *MockEmbedder) SetEmbedError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedError = err
}

// SetBatchError configures EmbedBatch to fail.
func (m *MockEmbedder) SetBatchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchError = err
}

func (m *MockEmbedder) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = status
}

// EmbedCalls returns the texts passed to Embed, in call order.
func (m *MockEmbedder) EmbedCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.embedCalls...)
}
