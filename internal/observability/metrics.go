package observability

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// MeterName names the meter used by the router.
const MeterName = "github.com/Jaiwincr7/rag-based-model/router"

// Metrics bundles a meter provider with the HTTP handler that exposes it.
type Metrics struct {
	provider metric.MeterProvider
	handler  http.Handler
	shutdown func(context.Context) error
}

// InitMetrics creates the meter provider for cfg. The prometheus provider
// uses its own registry, which also carries Go runtime and process
// collectors. Disabled metrics yield a no-op provider and a 404 handler.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{
			provider: noop.NewMeterProvider(),
			handler:  http.NotFoundHandler(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(ErrCodeInvalidConfig, "invalid metrics config", err)
	}

	switch strings.ToLower(cfg.Provider) {
	case "otlp":
		return initOTLPMetrics(ctx, cfg)
	default:
		return initPrometheusMetrics()
	}
}

func initPrometheusMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, types.WrapError(ErrCodeExporterFailed, "failed to create prometheus exporter", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		shutdown: provider.Shutdown,
	}, nil
}

func initOTLPMetrics(ctx context.Context, cfg MetricsConfig) (*Metrics, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, types.WrapError(ErrCodeExporterFailed, "failed to create otlp metrics exporter", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))

	return &Metrics{
		provider: provider,
		handler:  http.NotFoundHandler(),
		shutdown: provider.Shutdown,
	}, nil
}

// Meter returns a named meter.
func (m *Metrics) Meter(name string) metric.Meter {
	return m.provider.Meter(name)
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Shutdown flushes and stops the provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.shutdown(ctx); err != nil {
		return types.WrapError(ErrCodeShutdownFailed, "failed to shutdown meter provider", err)
	}
	return nil
}
