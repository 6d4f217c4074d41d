package embedder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/buckhx/gobert/tokenize"
	"github.com/buckhx/gobert/tokenize/vocab"
	"github.com/gomlx/go-huggingface/hub"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gopjrt/dtypes"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	mlcontext "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/onnx-gomlx/onnx"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

const (
	// DefaultNativeModel is the sentence-transformers model used for indexing.
	DefaultNativeModel = "sentence-transformers/all-MiniLM-L6-v2"

	// NativeDimensions is the output width of all-MiniLM-L6-v2.
	NativeDimensions = 384

	nativeSeqLen = 256
)

// NativeConfig configures NewNativeEmbedder.
type NativeConfig struct {
	Repo     string // HuggingFace repository, defaults to DefaultNativeModel
	CacheDir string // optional download cache override
}

// NativeEmbedder runs all-MiniLM-L6-v2 locally: BERT WordPiece tokenization
// via gobert, the ONNX graph via GoMLX, masked mean pooling over
// last_hidden_state, then L2 normalisation. This is the same pipeline
// sentence-transformers applies, so distances match a Chroma index built with
// the Python model.
//
// Construct one per process and share it. Calls are serialised because the
// GoMLX context holding the model variables is shared.
type NativeEmbedder struct {
	mu        sync.Mutex
	repo      string
	model     *onnx.Model
	ctx       *mlcontext.Context
	backend   backends.Backend
	tokenizer tokenize.FeatureFactory
}

// NewNativeEmbedder downloads (or reuses the cached) ONNX model and vocabulary
// and initialises the GoMLX backend.
func NewNativeEmbedder(cfg NativeConfig) (*NativeEmbedder, error) {
	if cfg.Repo == "" {
		cfg.Repo = DefaultNativeModel
	}

	backend, err := backends.New()
	if err != nil {
		return nil, types.WrapError(ErrCodeEmbedderUnavailable, "failed to initialize GoMLX backend", err)
	}

	repo := hub.New(cfg.Repo)
	if cfg.CacheDir != "" {
		repo = repo.WithCacheDir(cfg.CacheDir)
	}

	modelPath, err := repo.DownloadFile("onnx/model.onnx")
	if err != nil {
		return nil, types.WrapError(ErrCodeEmbedderUnavailable,
			fmt.Sprintf("failed to download %s model from HuggingFace", cfg.Repo), err)
	}

	model, err := onnx.ReadFile(modelPath)
	if err != nil {
		return nil, types.WrapError(ErrCodeEmbedderUnavailable,
			fmt.Sprintf("failed to load ONNX model from %s", modelPath), err)
	}

	mlctx := mlcontext.New()
	if err := model.VariablesToContext(mlctx); err != nil {
		return nil, types.WrapError(ErrCodeEmbedderUnavailable, "failed to extract model variables to context", err)
	}

	vocabPath, err := repo.DownloadFile("vocab.txt")
	if err != nil {
		return nil, types.WrapError(ErrCodeEmbedderUnavailable, "failed to download vocabulary from HuggingFace", err)
	}

	vocabDict, err := vocab.FromFile(vocabPath)
	if err != nil {
		return nil, types.WrapError(ErrCodeEmbedderUnavailable,
			fmt.Sprintf("failed to load vocabulary from %s", vocabPath), err)
	}

	bertTokenizer := tokenize.NewTokenizer(vocabDict,
		tokenize.WithLower(true),
		tokenize.WithUnknownToken("[UNK]"))

	return &NativeEmbedder{
		repo:    cfg.Repo,
		model:   model,
		ctx:     mlctx,
		backend: backend,
		tokenizer: tokenize.FeatureFactory{
			Tokenizer: bertTokenizer,
			SeqLen:    nativeSeqLen,
		},
	}, nil
}

func (e *NativeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.WrapError(ErrCodeEmbeddingFailed, "context canceled", err)
	}

	feature := e.tokenizer.Feature(text)
	if len(feature.TokenIDs) == 0 {
		return nil, types.NewError(ErrCodeEmbeddingFailed, "tokenization failed: no tokens produced")
	}

	// The tokenizer produces int32; the ONNX graph expects int64.
	inputIDs := make([]int64, len(feature.TokenIDs))
	attentionMask := make([]int64, len(feature.Mask))
	tokenTypeIDs := make([]int64, len(feature.TypeIDs))
	for i := range feature.TokenIDs {
		inputIDs[i] = int64(feature.TokenIDs[i])
		attentionMask[i] = int64(feature.Mask[i])
		tokenTypeIDs[i] = int64(feature.TypeIDs[i])
	}

	e.mu.Lock()
	result, err := mlcontext.ExecOnce(e.backend, e.ctx, func(ctx *mlcontext.Context, inputs []*Node) *Node {
		g := inputs[0].Graph()
		mask := inputs[1]

		outputs := e.model.CallGraph(ctx, g, map[string]*Node{
			"input_ids":      inputs[0],
			"attention_mask": mask,
			"token_type_ids": inputs[2],
		}, "last_hidden_state")
		hidden := outputs[0] // [batch, seq, hidden]

		// mean over non-padding tokens
		maskExpanded := ConvertType(ExpandDims(mask, -1), hidden.DType())
		summed := ReduceSum(Mul(hidden, maskExpanded), 1)
		counts := Add(ReduceSum(maskExpanded, 1), Const(g, float32(1e-9)))
		return Div(summed, counts)
	}, [][]int64{inputIDs}, [][]int64{attentionMask}, [][]int64{tokenTypeIDs})
	e.mu.Unlock()

	if err != nil {
		return nil, types.WrapError(ErrCodeEmbeddingFailed, "GoMLX graph execution failed", err)
	}

	embedding, err := tensorRow(result)
	if err != nil {
		return nil, types.WrapError(ErrCodeEmbeddingFailed, "failed to read embedding tensor", err)
	}
	if len(embedding) != NativeDimensions {
		return nil, types.NewError(ErrCodeEmbeddingFailed,
			fmt.Sprintf("unexpected embedding dimension: got %d, want %d", len(embedding), NativeDimensions))
	}

	return normalizeVector(embedding), nil
}

// tensorRow extracts the single row of a [1, N] tensor as float64.
func tensorRow(tensor *tensors.Tensor) ([]float64, error) {
	shape := tensor.Shape()
	if shape.Rank() != 2 || shape.Dimensions[0] != 1 {
		return nil, fmt.Errorf("expected shape [1, N], got %v", shape)
	}

	switch tensor.DType() {
	case dtypes.Float32:
		data := tensors.CopyFlatData[float32](tensor)
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	case dtypes.Float64:
		return tensors.CopyFlatData[float64](tensor), nil
	default:
		return nil, fmt.Errorf("unsupported tensor dtype: %v", tensor.DType())
	}
}

// EmbedBatch embeds texts one at a time.
func (e *NativeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, types.WrapError(ErrCodeEmbeddingBatchFailed,
				fmt.Sprintf("context canceled after %d/%d embeddings", i, len(texts)), err)
		}

		embedding, err := e.Embed(ctx, text)
		if err != nil {
			return nil, types.WrapError(ErrCodeEmbeddingBatchFailed,
				fmt.Sprintf("failed to generate embedding %d/%d", i+1, len(texts)), err)
		}
		results[i] = embedding
	}
	return results, nil
}

func (e *NativeEmbedder) Dimensions() int {
	return NativeDimensions
}

func (e *NativeEmbedder) Model() string {
	return e.repo
}

// Health embeds a probe sentence with a short deadline.
func (e *NativeEmbedder) Health(ctx context.Context) types.HealthStatus {
	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := e.Embed(healthCtx, "health check"); err != nil {
		return types.Degraded(fmt.Sprintf("native embedder failed health check: %v", err))
	}
	return types.Healthy(fmt.Sprintf("native embedder operational (%s via GoMLX)", e.repo))
}
