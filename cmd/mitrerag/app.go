package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Jaiwincr7/rag-based-model/internal/cache"
	"github.com/Jaiwincr7/rag-based-model/internal/config"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/embedder"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/vector"
	"github.com/Jaiwincr7/rag-based-model/internal/observability"
	"github.com/Jaiwincr7/rag-based-model/internal/retrieval"
	"github.com/Jaiwincr7/rag-based-model/internal/router"
)

// app holds the long-lived components built from one configuration.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracing *sdktrace.TracerProvider
	metrics *observability.Metrics
	health  *observability.HealthMonitor

	embedder embedder.Embedder
	index    *retrieval.Index
	// search is index wrapped with tracing; everything reads and writes
	// through it.
	search retrieval.SimilarityIndex
}

// newApp wires observability, the embedder and the similarity index. The
// caller must Close it.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := observability.NewLogger(cfg.Logging, logOut)
	a := &app{
		cfg:    cfg,
		logger: logger,
		health: observability.NewHealthMonitor(logger),
	}

	tp, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.tracing = tp

	metrics, err := observability.InitMetrics(ctx, cfg.Metrics)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.metrics = metrics

	emb, err := embedder.CreateEmbedder(cfg.Embedder)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.embedder = emb

	store, err := vector.NewVectorStore(cfg.Index.StoreConfig(emb.Dimensions()))
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	index, err := retrieval.NewIndex(store, emb, retrieval.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		a.Close(ctx)
		return nil, err
	}
	a.index = index
	a.search = retrieval.NewTracedIndex(index, tp.Tracer(observability.TracerName))

	a.health.Register("embedder", emb)
	a.health.Register("index", a.search)

	logger.Debug("components ready",
		"embedder", emb.Model(),
		"dimensions", emb.Dimensions(),
		"backend", cfg.Index.Backend,
		"collection", cfg.Index.Collection)
	return a, nil
}

// newRouter builds the router over the traced index.
func (a *app) newRouter() (*router.Router, error) {
	return router.New(a.search,
		router.WithConfidenceThreshold(a.cfg.Router.ConfidenceThreshold),
		router.WithQueryTimeout(a.cfg.Router.QueryTimeout),
		router.WithLogger(a.logger),
		router.WithMeter(a.metrics.Meter(observability.MeterName)))
}

// newSolver is newRouter behind the answer cache when one is configured.
// The returned close func releases the cache connection.
func (a *app) newSolver(ctx context.Context) (router.Solver, func() error, error) {
	r, err := a.newRouter()
	if err != nil {
		return nil, nil, err
	}
	if !a.cfg.Cache.Enabled {
		return r, func() error { return nil }, nil
	}

	rc, err := a.openCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	a.health.Register("cache", rc)
	return cache.Cached(r, rc, a.cfg.Cache.TTL, cache.WithLogger(a.logger)), rc.Close, nil
}

func (a *app) openCache(ctx context.Context) (*cache.RedisCache, error) {
	return cache.NewRedisCache(ctx, cache.RedisOptions{
		URL:       a.cfg.Cache.URL,
		KeyPrefix: a.cfg.Cache.KeyPrefix,
	})
}

// purgeCache drops cached answers after the index changed underneath them.
func (a *app) purgeCache(ctx context.Context) error {
	if !a.cfg.Cache.Enabled {
		return nil
	}
	rc, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	removed, err := rc.Purge(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("answer cache purged", "removed", removed)
	return nil
}

// Close releases the index and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.metrics != nil {
		errs = append(errs, a.metrics.Shutdown(ctx))
	}
	if a.tracing != nil {
		errs = append(errs, observability.ShutdownTracing(ctx, a.tracing))
	}
	return errors.Join(errs...)
}

func jsonOutput(cmd *cobra.Command) bool {
	f := cmd.Flag("output")
	return f != nil && f.Value.String() == string(FormatJSON)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
