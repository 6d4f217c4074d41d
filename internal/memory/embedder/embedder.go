package embedder

import (
	"context"
	"math"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Embedder turns text into fixed-length vectors. Every implementation returns
// unit-length vectors so squared L2 distance and cosine distance agree on
// ranking. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch embeds texts in order. Partial results are never returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	Dimensions() int

	Model() string

	Health(ctx context.Context) types.HealthStatus
}

// EmbedderConfig holds configuration for embedding providers.
type EmbedderConfig struct {
	// Provider is one of "native", "hashing" or "mock".
	Provider string `yaml:"provider" json:"provider" mapstructure:"provider" validate:"required,oneof=native hashing mock"`

	// Model is the HuggingFace repository for the native provider.
	Model string `yaml:"model" json:"model" mapstructure:"model"`

	// Dimensions applies to the hashing and mock providers. The native model
	// always produces 384.
	Dimensions int `yaml:"dimensions" json:"dimensions" mapstructure:"dimensions" validate:"gte=0"`

	// CacheDir overrides the HuggingFace download cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" mapstructure:"cache_dir"`
}

// DefaultEmbedderConfig returns the native all-MiniLM-L6-v2 configuration.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider:   string(EmbedderTypeNative),
		Model:      DefaultNativeModel,
		Dimensions: NativeDimensions,
	}
}

// normalizeVector scales v to unit length. Zero vectors are returned as is.
func normalizeVector(v []float64) []float64 {
	var sum float64
	for _, val := range v {
		sum += val * val
	}
	if sum == 0 {
		return v
	}

	norm := math.Sqrt(sum)
	normalized := make([]float64, len(v))
	for i, val := range v {
		normalized[i] = val / norm
	}
	return normalized
}
