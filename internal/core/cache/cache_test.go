package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"recipe-assistant/internal/pkg/common"
)

var epoch = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func TestTimedCacheExpiry(t *testing.T) {
	clock := common.NewManualClock(epoch)
	c := NewTimedCache[string]("ingredient", 24*time.Hour, WithClock(clock))

	c.Put("onion", "https://example.com/onion.jpg")

	clock.Advance(24 * time.Hour)
	v, ok := c.Get("onion")
	require.True(t, ok, "entry exactly at ttl is still fresh")
	require.Equal(t, "https://example.com/onion.jpg", v)

	clock.Advance(time.Second)
	_, ok = c.Get("onion")
	require.False(t, ok)
	require.Equal(t, 0, c.Len(), "expired entry is removed on read")

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, int64(1), stats.Evictions)
}

func TestTimedCachePutResetsInsertion(t *testing.T) {
	clock := common.NewManualClock(epoch)
	c := NewTimedCache[int]("video", time.Minute, WithClock(clock))

	c.Put("k", 1)
	clock.Advance(50 * time.Second)
	c.Put("k", 2)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestTimedCacheMaxSize(t *testing.T) {
	clock := common.NewManualClock(epoch)
	c := NewTimedCache[int]("dish", time.Hour, WithClock(clock), WithMaxSize(2))

	c.Put("a", 1)
	clock.Advance(time.Second)
	c.Put("b", 2)
	clock.Advance(time.Second)
	c.Put("c", 3)

	require.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	require.False(t, ok, "oldest entry is evicted first")
}

func TestTimedCachePurge(t *testing.T) {
	clock := common.NewManualClock(epoch)
	c := NewTimedCache[int]("detail", time.Minute, WithClock(clock))
	c.Put("a", 1)
	c.Put("b", 2)
	clock.Advance(2 * time.Minute)
	c.Put("c", 3)

	require.Equal(t, 2, c.Purge())
	require.Equal(t, 1, c.Len())
}

func TestTimedCacheConcurrentAccess(t *testing.T) {
	c := NewTimedCache[int]("concurrent", time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put("shared", i)
			_, _ = c.Get("shared")
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, c.Len())
}

func TestTieredWithoutRemote(t *testing.T) {
	tiered := NewTiered[string](NewTimedCache[string]("detail", time.Hour), nil)
	ctx := context.Background()

	_, ok := tiered.Get(ctx, "recipe_x")
	require.False(t, ok)

	tiered.Put(ctx, "recipe_x", "value")
	v, ok := tiered.Get(ctx, "recipe_x")
	require.True(t, ok)
	require.Equal(t, "value", v)
}

func TestTieredRemoteErrorIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	tiered := NewTiered(NewTimedCache[string]("detail", time.Hour), NewRedisStore[string](client, "test:", time.Hour))
	ctx := context.Background()

	_, ok := tiered.Get(ctx, "missing")
	require.False(t, ok)

	tiered.Put(ctx, "k", "v")
	v, ok := tiered.Get(ctx, "k")
	require.True(t, ok, "local tier still serves when redis is down")
	require.Equal(t, "v", v)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	type payload struct {
		Name string `json:"name"`
	}
	store := NewRedisStore[payload](client, "recipe-assistant-test:", time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "present", payload{Name: "pasta"}))
	got, err := store.Get(ctx, "present")
	require.NoError(t, err)
	require.Equal(t, "pasta", got.Name)

	// Redis 命中後回填本地層，期限不超過 Redis 剩餘時間
	clock := common.NewManualClock(epoch)
	local := NewTimedCache[payload]("detail", time.Hour, WithClock(clock))
	tiered := NewTiered(local, store)
	_, ok := tiered.Get(ctx, "present")
	require.True(t, ok)
	require.Equal(t, 1, local.Len())

	clock.Advance(time.Minute + time.Second)
	_, ok = local.Get("present")
	require.False(t, ok)
}

func TestTimedCachePutRemaining(t *testing.T) {
	clock := common.NewManualClock(epoch)
	c := NewTimedCache[string]("detail", time.Hour, WithClock(clock))

	c.PutRemaining("short", "v", 10*time.Minute)
	c.PutRemaining("full", "v", 2*time.Hour)
	c.PutRemaining("unbounded", "v", -1)

	clock.Advance(10 * time.Minute)
	_, ok := c.Get("short")
	require.True(t, ok, "boundary is inclusive")

	clock.Advance(time.Second)
	_, ok = c.Get("short")
	require.False(t, ok)

	clock.Advance(50 * time.Minute)
	_, ok = c.Get("full")
	require.False(t, ok, "never outlives the local ttl")
	_, ok = c.Get("unbounded")
	require.False(t, ok)
}
