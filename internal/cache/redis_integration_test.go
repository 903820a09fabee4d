//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())

	b := NewRedis(client, "test:")
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRedis_Integration(t *testing.T) {
	b := newTestRedisBackend(t)
	ctx := context.Background()
	clock := newFakeClock()
	c := New(b, WithNow(clock.Now))

	require.NoError(t, c.Put(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Put(ctx, "b", []byte("2"), 2*time.Hour))

	e, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", string(e.Value))

	clock.Advance(90 * time.Minute)
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)

	n, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Entries)

	require.NoError(t, c.Clear(ctx))
	info, err = c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Entries)
}
