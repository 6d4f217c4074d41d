package vector

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// VectorStoreConfig selects and configures a backend.
type VectorStoreConfig struct {
	Backend     string // "embedded", "sqlite" or "badger"
	StoragePath string // database file for sqlite, data directory for badger
	Collection  string // table name (sqlite) or key namespace (badger)
	Dimensions  int    // 384 for all-MiniLM-L6-v2
	Metric      string // "l2" or "cosine"
}

// NewVectorStore creates a vector store based on the configuration.
//   - "embedded": in-memory, lost on exit
//   - "sqlite": single database file
//   - "badger": BadgerDB directory
func NewVectorStore(cfg VectorStoreConfig) (VectorStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, types.NewError(ErrCodeInvalidConfig,
			fmt.Sprintf("dimensions must be positive, got %d", cfg.Dimensions))
	}
	metric, err := ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "embedded", "":
		return NewEmbeddedVectorStore(cfg.Dimensions, metric), nil

	case "sqlite":
		if cfg.StoragePath == "" {
			return nil, types.NewError(ErrCodeInvalidConfig, "storage_path is required for sqlite backend")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o755); err != nil {
			return nil, types.WrapError(ErrCodeVectorStoreFailed, "failed to create storage directory", err)
		}
		store, err := NewSqliteVecStore(SqliteVecConfig{
			DBPath:    cfg.StoragePath,
			TableName: cfg.Collection,
			Dims:      cfg.Dimensions,
			Metric:    metric,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "badger":
		if cfg.StoragePath == "" {
			return nil, types.NewError(ErrCodeInvalidConfig, "storage_path is required for badger backend")
		}
		if err := os.MkdirAll(cfg.StoragePath, 0o755); err != nil {
			return nil, types.WrapError(ErrCodeVectorStoreFailed, "failed to create storage directory", err)
		}
		store, err := NewBadgerVectorStore(BadgerVecConfig{
			Dir:        cfg.StoragePath,
			Collection: cfg.Collection,
			Dims:       cfg.Dimensions,
			Metric:     metric,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, types.NewError(ErrCodeInvalidConfig,
			fmt.Sprintf("unknown backend '%s', must be one of: embedded, sqlite, badger", cfg.Backend))
	}
}
