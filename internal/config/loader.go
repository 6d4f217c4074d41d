package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. MITRERAG_INDEX_BACKEND.
const EnvPrefix = "MITRERAG"

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{validator: validator}
}

// Load reads path over the defaults, applies environment overrides and
// validates. A missing file is an error.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	return l.load(path, true)
}

// LoadWithDefaults behaves like Load but treats a missing file as empty.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	return l.load(path, false)
}

func (l *viperConfigLoader) load(path string, required bool) (*Config, error) {
	v := newViper()

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to read config file", err)
			}
		case errors.Is(statErr, fs.ErrNotExist):
			if required {
				return nil, types.WrapError(types.CONFIG_NOT_FOUND, "config file not found: "+path, statErr)
			}
		default:
			return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to stat config file", statErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}
	applyInterpolation(&cfg)

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "configuration validation failed", err)
	}
	return &cfg, nil
}

// newViper registers every default so that environment overrides apply to
// keys absent from the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	defaults := map[string]any{
		"ingest.bundle_path": d.Ingest.BundlePath,
		"ingest.rebuild":     d.Ingest.Rebuild,

		"embedder.provider":   d.Embedder.Provider,
		"embedder.model":      d.Embedder.Model,
		"embedder.dimensions": d.Embedder.Dimensions,
		"embedder.cache_dir":  d.Embedder.CacheDir,

		"index.backend":    d.Index.Backend,
		"index.path":       d.Index.Path,
		"index.collection": d.Index.Collection,
		"index.metric":     d.Index.Metric,

		"router.confidence_threshold": d.Router.ConfidenceThreshold,
		"router.query_timeout":        d.Router.QueryTimeout,

		"graph_export.enabled":                          d.GraphExport.Enabled,
		"graph_export.neo4j.uri":                        d.GraphExport.Neo4j.URI,
		"graph_export.neo4j.username":                   d.GraphExport.Neo4j.Username,
		"graph_export.neo4j.password":                   d.GraphExport.Neo4j.Password,
		"graph_export.neo4j.database":                   d.GraphExport.Neo4j.Database,
		"graph_export.neo4j.max_connection_pool_size":   d.GraphExport.Neo4j.MaxConnectionPoolSize,
		"graph_export.neo4j.connection_timeout":         d.GraphExport.Neo4j.ConnectionTimeout,
		"graph_export.neo4j.max_transaction_retry_time": d.GraphExport.Neo4j.MaxTransactionRetryTime,

		"cache.enabled":    d.Cache.Enabled,
		"cache.url":        d.Cache.URL,
		"cache.key_prefix": d.Cache.KeyPrefix,
		"cache.ttl":        d.Cache.TTL,

		"server.address":          d.Server.Address,
		"server.allowed_origins":  d.Server.AllowedOrigins,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,

		"logging.level":  d.Logging.Level,
		"logging.format": d.Logging.Format,

		"tracing.enabled":       d.Tracing.Enabled,
		"tracing.provider":      d.Tracing.Provider,
		"tracing.endpoint":      d.Tracing.Endpoint,
		"tracing.service_name":  d.Tracing.ServiceName,
		"tracing.sample_rate":   d.Tracing.SampleRate,
		"tracing.tls_cert_file": d.Tracing.TLSCertFile,
		"tracing.insecure":      d.Tracing.Insecure,

		"metrics.enabled":  d.Metrics.Enabled,
		"metrics.provider": d.Metrics.Provider,
		"metrics.endpoint": d.Metrics.Endpoint,
		"metrics.insecure": d.Metrics.Insecure,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset variables are left as written.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}

// applyInterpolation expands ${VAR} in the fields that commonly carry paths,
// endpoints or secrets.
func applyInterpolation(cfg *Config) {
	fields := []*string{
		&cfg.Ingest.BundlePath,
		&cfg.Embedder.CacheDir,
		&cfg.Index.Path,
		&cfg.GraphExport.Neo4j.URI,
		&cfg.GraphExport.Neo4j.Username,
		&cfg.GraphExport.Neo4j.Password,
		&cfg.Cache.URL,
		&cfg.Server.Address,
		&cfg.Tracing.Endpoint,
		&cfg.Tracing.TLSCertFile,
		&cfg.Metrics.Endpoint,
	}
	for _, f := range fields {
		*f = interpolateString(*f)
	}
}
