package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// DefaultHashingDimensions matches the native model so indexes built with
// either provider share a schema.
const DefaultHashingDimensions = 384

// HashingEmbedder maps lower-cased word unigrams and bigrams into a fixed
// number of signed buckets (the hashing trick). Texts sharing words land close
// together; there is no semantic generalisation.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates a feature-hashing embedder. dims <= 0 selects
// DefaultHashingDimensions.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.WrapError(ErrCodeEmbeddingFailed, "context canceled", err)
	}
	return h.vector(text), nil
}

func (h *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, types.WrapError(ErrCodeEmbeddingBatchFailed,
				fmt.Sprintf("context canceled after %d/%d embeddings", i, len(texts)), err)
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashingEmbedder) vector(text string) []float64 {
	v := make([]float64, h.dims)
	words := tokenizeWords(text)
	for i, w := range words {
		h.add(v, w)
		if i > 0 {
			h.add(v, words[i-1]+" "+w)
		}
	}
	return normalizeVector(v)
}

func (h *HashingEmbedder) add(v []float64, feature string) {
	hasher := fnv.New64a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	bucket := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		v[bucket]--
	} else {
		v[bucket]++
	}
}

func tokenizeWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (h *HashingEmbedder) Dimensions() int {
	return h.dims
}

func (h *HashingEmbedder) Model() string {
	return fmt.Sprintf("fnv-hashing-%d", h.dims)
}

func (h *HashingEmbedder) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("hashing embedder operational")
}
