package thumbnail

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKeyChangesWithModTime(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, Key("/a.pdf", t1), Key("/a.pdf", t1))
	require.NotEqual(t, Key("/a.pdf", t1), Key("/a.pdf", t1.Add(time.Second)))
	require.NotEqual(t, Key("/a.pdf", t1), Key("/b.pdf", t1))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "a.jpg"))
	ref, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a.jpg", ref)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	require.False(t, ok)
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	c := NewRedisCache(client, "test:thumb:", 0)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "k1", "report.jpg"))
	require.True(t, m.Exists("test:thumb:k1"))

	ref, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "report.jpg", ref)

	require.NoError(t, c.Delete(ctx, "k1"))
	_, ok, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	c := NewRedisCache(client, "", time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k2", "x.jpg"))
	require.True(t, m.Exists("thumb:k2"))

	// advance miniredis clock past TTL
	m.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "k2")
	require.NoError(t, err)
	require.False(t, ok)
}
