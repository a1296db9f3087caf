package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/propview/backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	cache := NewRedisCacheFromClient(client, zaptest.NewLogger(t))
	t.Cleanup(func() { cache.Close() })
	return cache, s
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	cache, s := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "extraction:key", []byte(`{"ok":true}`), time.Minute))
	assert.True(t, s.Exists("propview:extraction:key"))

	got, err := cache.Get(ctx, "extraction:key")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(got))

	exists, err := cache.Exists(ctx, "extraction:key")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "extraction:key"))

	_, err = cache.Get(ctx, "extraction:key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err = cache.Exists(ctx, "extraction:key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_TTL(t *testing.T) {
	cache, s := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "ttl", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, s.TTL("propview:ttl"))

	s.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "ttl")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisCache_Unavailable(t *testing.T) {
	cache, s := newTestRedisCache(t)
	s.Close()

	_, err := cache.Get(context.Background(), "any")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	err = cache.Set(context.Background(), "any", []byte("v"), time.Minute)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestNewRedisCache(t *testing.T) {
	t.Run("connects with a redis url", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		defer s.Close()

		cache, err := NewRedisCache(context.Background(), "redis://"+s.Addr()+"/0", zaptest.NewLogger(t))
		require.NoError(t, err)
		defer cache.Close()

		require.NoError(t, cache.Set(context.Background(), "k", []byte("v"), time.Minute))
	})

	t.Run("rejects a malformed url", func(t *testing.T) {
		_, err := NewRedisCache(context.Background(), "not-a-redis-url", zaptest.NewLogger(t))
		assert.Error(t, err)
	})
}
