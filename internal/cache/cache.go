// Package cache stores router answers keyed by query text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Jaiwincr7/rag-based-model/internal/router"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

const (
	ErrCodeCacheUnavailable types.ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeCacheDecode      types.ErrorCode = "CACHE_DECODE_FAILED"
	ErrCodeCacheConfig      types.ErrorCode = "CACHE_INVALID_CONFIG"
)

// Cache is an answer store.
type Cache interface {
	// Get returns the cached answer and whether it was present.
	Get(ctx context.Context, key string) (router.Answer, bool, error)
	Set(ctx context.Context, key string, ans router.Answer, ttl time.Duration) error
	// Purge drops every stored answer and reports how many were removed.
	Purge(ctx context.Context) (int, error)
	Health(ctx context.Context) types.HealthStatus
	Close() error
}

// Key derives the cache key for a query. Surrounding and repeated whitespace
// is ignored; case is preserved since retrieval sees the raw text.
func Key(query string) string {
	sum := sha256.Sum256([]byte(strings.Join(strings.Fields(query), " ")))
	return hex.EncodeToString(sum[:])
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (router.Answer, bool, error) {
	return router.Answer{}, false, nil
}

func (Noop) Set(context.Context, string, router.Answer, time.Duration) error { return nil }

func (Noop) Purge(context.Context) (int, error) { return 0, nil }

func (Noop) Health(context.Context) types.HealthStatus {
	return types.Healthy("cache disabled")
}

func (Noop) Close() error { return nil }

// CachedSolver serves repeated queries from a Cache.
type CachedSolver struct {
	solver router.Solver
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a CachedSolver.
type Option func(*CachedSolver)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedSolver) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cached wraps solver with cache. Retrieval failures are never cached, and
// cache errors fall back to the wrapped solver.
func Cached(solver router.Solver, cache Cache, ttl time.Duration, opts ...Option) *CachedSolver {
	c := &CachedSolver{
		solver: solver,
		cache:  cache,
		ttl:    ttl,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedSolver) Answer(ctx context.Context, query string) router.Answer {
	key := Key(query)

	ans, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "cache read failed", "error", err)
	case ok:
		c.logger.DebugContext(ctx, "cache hit", "intent", ans.Intent)
		return ans
	}

	ans = c.solver.Answer(ctx, query)
	if ans.Outcome == router.OutcomeRetrievalFailed {
		return ans
	}
	if err := c.cache.Set(ctx, key, ans, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "error", err)
	}
	return ans
}
