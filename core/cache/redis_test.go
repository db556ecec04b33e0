package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/squadcart/core/cache"
)

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	prefix := "squadcart-test-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = client.Del(context.Background(), prefix+":cache:gen").Err() })
	c := cache.NewRedis(client, cache.WithRedisPrefix(prefix), cache.WithRedisDefaultTTL(time.Minute))

	_, ok := get(t, c, "/orders")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "/orders", []byte("o"), 0, cache.TagOrders))
	require.NoError(t, c.Set(ctx, "/products", []byte("p"), 0, cache.TagProducts))

	v, ok := get(t, c, "/orders")
	require.True(t, ok)
	assert.Equal(t, "o", string(v))

	require.NoError(t, c.InvalidateTags(ctx, cache.TagOrders))
	_, ok = get(t, c, "/orders")
	assert.False(t, ok)
	_, ok = get(t, c, "/products")
	assert.True(t, ok)

	require.NoError(t, c.Reset(ctx))
	_, ok = get(t, c, "/products")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "/products", []byte("p2"), 0))
	v, ok = get(t, c, "/products")
	require.True(t, ok)
	assert.Equal(t, "p2", string(v))
}
