package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, MovieDetailKey(1), []byte(`{"id":1}`), time.Minute))
	got, ok, err := c.Get(ctx, "movie:detail:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":1}`, string(got))

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, MovieDetailKey(1))
	require.NoError(t, err)
	assert.False(t, ok, "entry expires at its deadline")
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "missing"))
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestNewRedisCacheFromURL(t *testing.T) {
	c, err := NewRedisCacheFromURL("redis://localhost:6379/2", "")
	require.NoError(t, err)
	assert.Equal(t, defaultPrefix, c.prefix)
	assert.NoError(t, c.Close())

	_, err = NewRedisCacheFromURL("http://nope", "")
	assert.Error(t, err)
}

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	_, ok, err := c.Get(ctx, MovieDetailKey(7))
	require.NoError(t, err)
	assert.False(t, ok, "missing key is a miss, not an error")

	require.NoError(t, c.Set(ctx, MovieDetailKey(7), []byte(`{"id":7}`), time.Minute))
	assert.True(t, mr.Exists(defaultPrefix+"movie:detail:7"), "keys are stored under the prefix")

	got, ok, err := c.Get(ctx, MovieDetailKey(7))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":7}`, string(got))

	mr.FastForward(time.Minute)
	_, ok, err = c.Get(ctx, MovieDetailKey(7))
	require.NoError(t, err)
	assert.False(t, ok, "entry expires with its ttl")
}

func TestRedisCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists(defaultPrefix+"k"))
	assert.NoError(t, c.Delete(ctx, "missing"))
	assert.NoError(t, c.Ping(ctx))
}

func TestRedisCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1}), "")
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Error(t, c.Delete(ctx, "k"))
}
