package embedder

import (
	"fmt"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// EmbedderType represents available embedder implementations.
type EmbedderType string

const (
	// EmbedderTypeNative runs all-MiniLM-L6-v2 locally through GoMLX. 384 dims.
	EmbedderTypeNative EmbedderType = "native"

	// EmbedderTypeHashing is a dependency-free bag-of-words feature hasher.
	// Useful offline and in CI; retrieval quality is lexical only.
	EmbedderTypeHashing EmbedderType = "hashing"

	// EmbedderTypeMock produces deterministic pseudo-random vectors.
	EmbedderTypeMock EmbedderType = "mock"
)

// CreateEmbedder creates an embedder based on the provided configuration.
// Callers construct it once at startup and share it.
func CreateEmbedder(config EmbedderConfig) (Embedder, error) {
	if err := ValidateEmbedderConfig(config); err != nil {
		return nil, err
	}

	switch EmbedderType(config.Provider) {
	case EmbedderTypeNative:
		emb, err := NewNativeEmbedder(NativeConfig{
			Repo:     config.Model,
			CacheDir: config.CacheDir,
		})
		if err != nil {
			return nil, err
		}
		return emb, nil

	case EmbedderTypeHashing:
		return NewHashingEmbedder(config.Dimensions), nil

	default:
		mock := NewMockEmbedder()
		if config.Dimensions > 0 {
			mock.SetDimensions(config.Dimensions)
		}
		return mock, nil
	}
}

// ValidateEmbedderConfig validates an embedder configuration.
func ValidateEmbedderConfig(config EmbedderConfig) error {
	if config.Provider == "" {
		return types.NewError(ErrCodeInvalidConfig, "embedder provider cannot be empty")
	}
	if config.Dimensions < 0 {
		return types.NewError(ErrCodeInvalidConfig, "embedder dimensions must be non-negative")
	}

	switch EmbedderType(config.Provider) {
	case EmbedderTypeNative, EmbedderTypeHashing, EmbedderTypeMock:
		return nil
	default:
		return types.NewError(ErrCodeInvalidConfig,
			fmt.Sprintf("unknown embedder provider '%s' - must be 'native', 'hashing' or 'mock'",
				config.Provider))
	}
}
