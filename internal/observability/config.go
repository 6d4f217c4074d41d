package observability

import (
	"fmt"
	"strings"
)

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Provider    string  `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=otlp noop"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"min=0,max=1"`
	TLSCertFile string  `yaml:"tls_cert_file" mapstructure:"tls_cert_file"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
}

// Validate checks the fields that matter when tracing is enabled.
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	provider := strings.ToLower(c.Provider)
	if provider != "otlp" && provider != "noop" {
		return fmt.Errorf("invalid tracing provider: %s (must be one of: otlp, noop)", c.Provider)
	}
	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}
	if provider == "otlp" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when tracing is enabled")
	}
	return nil
}

// MetricsConfig contains metrics export configuration. The prometheus
// provider is scraped through the server's /metrics route; otlp pushes to
// Endpoint.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=prometheus otlp"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// Validate checks the fields that matter when metrics are enabled.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch strings.ToLower(c.Provider) {
	case "prometheus":
		return nil
	case "otlp":
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint is required for the otlp metrics provider")
		}
		return nil
	default:
		return fmt.Errorf("invalid metrics provider: %s (must be one of: prometheus, otlp)", c.Provider)
	}
}
