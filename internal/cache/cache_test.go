package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaiwincr7/rag-based-model/internal/router"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

type countingSolver struct {
	mu      sync.Mutex
	calls   int
	outcome router.Outcome
}

func (s *countingSolver) Answer(ctx context.Context, query string) router.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	outcome := s.outcome
	if outcome == "" {
		outcome = router.OutcomeAnswered
	}
	return router.Answer{Intent: router.IntentSemanticSearch, Outcome: outcome, Text: fmt.Sprintf("answer %d to %s", s.calls, query)}
}

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("defenses for keylogging"), Key("  defenses   for keylogging "))
	assert.NotEqual(t, Key("Keylogging"), Key("keylogging"))
	assert.Len(t, Key("x"), 64)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedis(t)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := router.Answer{Intent: router.IntentMitigatedBy, Outcome: router.OutcomeEmpty, Text: "ℹ️ Audit has no mapped techniques."}
	require.NoError(t, c.Set(ctx, "k", want, time.Minute))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"k"))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedis(t)
	require.NoError(t, mr.Set(DefaultKeyPrefix+"bad", "{not json"))

	_, _, err := c.Get(ctx, "bad")
	require.Error(t, err)
	assert.Equal(t, ErrCodeCacheDecode, types.CodeOf(err))
}

func TestRedisCache_Purge(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedis(t)
	ans := router.Answer{Intent: router.IntentCatalogLookup, Outcome: router.OutcomeAnswered, Text: "📄 T1041"}
	for i := 0; i < 1200; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), ans, time.Minute))
	}
	require.NoError(t, mr.Set("other:key", "kept"))

	removed, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1200, removed)
	assert.Equal(t, []string{"other:key"}, mr.Keys())

	removed, err = c.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	mr.Close()
	_, err = c.Purge(ctx)
	assert.Equal(t, ErrCodeCacheUnavailable, types.CodeOf(err))
}

func TestRedisCache_Health(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedis(t)
	assert.True(t, c.Health(ctx).IsHealthy())

	mr.Close()
	assert.True(t, c.Health(ctx).IsUnhealthy())
}

func TestNewRedisCache_Errors(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisOptions{URL: "://bad"})
	assert.Equal(t, ErrCodeCacheConfig, types.CodeOf(err))

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisCache(context.Background(), RedisOptions{URL: "redis://" + addr, ConnectTimeout: 200 * time.Millisecond})
	assert.Equal(t, ErrCodeCacheUnavailable, types.CodeOf(err))
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedis(t)
	solver := &countingSolver{}
	cached := Cached(solver, c, time.Minute)

	first := cached.Answer(ctx, "defenses for keylogging")
	second := cached.Answer(ctx, " defenses for  keylogging")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, solver.calls)

	cached.Answer(ctx, "something else")
	assert.Equal(t, 2, solver.calls)
}

func TestCached_SkipsRetrievalFailures(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedis(t)
	solver := &countingSolver{outcome: router.OutcomeRetrievalFailed}
	cached := Cached(solver, c, time.Minute)

	cached.Answer(ctx, "q")
	cached.Answer(ctx, "q")
	assert.Equal(t, 2, solver.calls)
}

func TestCached_FallsBackWhenCacheDown(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedis(t)
	solver := &countingSolver{}
	cached := Cached(solver, c, time.Minute)

	mr.Close()
	ans := cached.Answer(ctx, "q")
	assert.Equal(t, router.OutcomeAnswered, ans.Outcome)
	assert.Equal(t, 1, solver.calls)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	solver := &countingSolver{}
	cached := Cached(solver, Noop{}, time.Minute)

	cached.Answer(ctx, "q")
	cached.Answer(ctx, "q")
	assert.Equal(t, 2, solver.calls)
	assert.True(t, Noop{}.Health(ctx).IsHealthy())
	removed, err := Noop{}.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
