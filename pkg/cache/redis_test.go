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

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheFromClient(client, "test:"), mr
}

type payload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", payload{ID: "x", Count: 2}, time.Minute))
	assert.True(t, mr.Exists("test:a"))

	var got payload
	require.NoError(t, c.Get(ctx, "a", &got))
	assert.Equal(t, payload{ID: "x", Count: 2}, got)

	assert.Equal(t, time.Minute, mr.TTL("test:a"))
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	err := c.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Second))
	mr.FastForward(2 * time.Second)

	assert.False(t, mr.Exists("test:a"))
	var got int
	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrCacheMiss)
}

func TestDeleteAndPattern(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"reservations:mine:u1", "reservations:driver:u1", "reservations:mine:u2", "trips:x"} {
		require.NoError(t, c.Set(ctx, k, 1, time.Minute))
	}

	n, err := c.DeletePattern(ctx, "reservations:*:u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.False(t, mr.Exists("test:reservations:mine:u1"))
	assert.True(t, mr.Exists("test:reservations:mine:u2"))

	require.NoError(t, c.Delete(ctx, "trips:x"))
	assert.False(t, mr.Exists("test:trips:x"))
	require.NoError(t, c.Delete(ctx))
}

func TestPing(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
