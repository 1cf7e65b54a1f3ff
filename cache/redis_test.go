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

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("failed to close miniredis client: %v", err)
		}
	})

	return mr, client
}

func TestRedisGetSet(t *testing.T) {
	mr, client := newMiniredisClient(t)
	m := NewRedis(client, "games", time.Minute)
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "tags:v1:abc")
	require.NoError(t, err)
	assert.False(t, ok, "empty store should miss")

	require.NoError(t, m.Set(ctx, "tags:v1:abc", []byte(`["Indie"]`)))

	got, ok, err := m.Get(ctx, "tags:v1:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["Indie"]`, string(got))
	assert.True(t, mr.Exists("games:memo:tags:v1:abc"), "key should be prefixed")
}

func TestRedisEntriesExpire(t *testing.T) {
	mr, client := newMiniredisClient(t)
	m := NewRedis(client, "games", time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	mr.FastForward(2 * time.Minute)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after ttl")
}

func TestRedisUnavailable(t *testing.T) {
	mr, client := newMiniredisClient(t)
	m := NewRedis(client, "", 0)
	mr.Close()

	_, _, err := m.Get(context.Background(), "k")
	assert.Error(t, err)
}
