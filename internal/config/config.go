package config

import (
	"time"

	"github.com/Jaiwincr7/rag-based-model/internal/graphrag/graph"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/embedder"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/vector"
	"github.com/Jaiwincr7/rag-based-model/internal/observability"
)

// Config is the root configuration for mitrerag.
type Config struct {
	Ingest      IngestConfig                `mapstructure:"ingest" yaml:"ingest"`
	Embedder    embedder.EmbedderConfig     `mapstructure:"embedder" yaml:"embedder"`
	Index       IndexConfig                 `mapstructure:"index" yaml:"index"`
	Router      RouterConfig                `mapstructure:"router" yaml:"router"`
	GraphExport GraphExportConfig           `mapstructure:"graph_export" yaml:"graph_export"`
	Cache       CacheConfig                 `mapstructure:"cache" yaml:"cache"`
	Server      ServerConfig                `mapstructure:"server" yaml:"server"`
	Logging     observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing     observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics     observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// IngestConfig controls the offline pipeline.
type IngestConfig struct {
	BundlePath string `mapstructure:"bundle_path" yaml:"bundle_path" validate:"required"`
	// Rebuild replaces the whole collection instead of upserting into it.
	Rebuild bool `mapstructure:"rebuild" yaml:"rebuild"`
}

// IndexConfig selects the vector store behind the similarity index.
type IndexConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=embedded sqlite badger"`
	Path       string `mapstructure:"path" yaml:"path"`
	Collection string `mapstructure:"collection" yaml:"collection" validate:"required"`
	Metric     string `mapstructure:"metric" yaml:"metric" validate:"required,oneof=l2 cosine"`
}

// StoreConfig converts to the vector store factory config.
func (c IndexConfig) StoreConfig(dims int) vector.VectorStoreConfig {
	return vector.VectorStoreConfig{
		Backend:     c.Backend,
		StoragePath: c.Path,
		Collection:  c.Collection,
		Dimensions:  dims,
		Metric:      c.Metric,
	}
}

// RouterConfig holds the query-time constants.
type RouterConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold" yaml:"confidence_threshold" validate:"gt=0"`
	QueryTimeout        time.Duration `mapstructure:"query_timeout" yaml:"query_timeout" validate:"min=0"`
}

// GraphExportConfig mirrors the graph into Neo4j after ingestion.
type GraphExportConfig struct {
	Enabled bool                    `mapstructure:"enabled" yaml:"enabled"`
	Neo4j   graph.GraphClientConfig `mapstructure:"neo4j" yaml:"neo4j" validate:"-"`
}

// CacheConfig puts a Redis answer cache in front of the router.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	URL       string        `mapstructure:"url" yaml:"url" validate:"required_if=Enabled true"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"min=0"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`
}
