package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Jaiwincr7/rag-based-model/internal/graphrag/graph"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/embedder"
	"github.com/Jaiwincr7/rag-based-model/internal/observability"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Ingest: IngestConfig{
			BundlePath: "enterprise-attack.json",
			Rebuild:    true,
		},
		Embedder: embedder.DefaultEmbedderConfig(),
		Index: IndexConfig{
			Backend:    "sqlite",
			Path:       filepath.Join(homeDir, "index.db"),
			Collection: "mitre_attack",
			Metric:     "l2",
		},
		Router: RouterConfig{
			ConfidenceThreshold: 1.2,
			QueryTimeout:        10 * time.Second,
		},
		GraphExport: GraphExportConfig{
			Enabled: false,
			Neo4j:   graph.DefaultConfig(),
		},
		Cache: CacheConfig{
			Enabled:   false,
			URL:       "redis://localhost:6379/0",
			KeyPrefix: "mitrerag:answer:",
			TTL:       time.Hour,
		},
		Server: ServerConfig{
			Address:         ":8000",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Provider:    "otlp",
			Endpoint:    "localhost:4317",
			ServiceName: "mitrerag",
			SampleRate:  1.0,
		},
		Metrics: observability.MetricsConfig{
			Enabled:  true,
			Provider: "prometheus",
		},
	}
}

// DefaultHomeDir returns ~/.mitrerag, or a directory under the system temp
// dir when the user home cannot be determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".mitrerag")
	}
	return filepath.Join(userHome, ".mitrerag")
}

// DefaultConfigPath returns the config file path inside homeDir.
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}
