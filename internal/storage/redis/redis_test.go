package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront-cart/internal/storage"
	"github.com/fjod/storefront-cart/internal/storage/storagetest"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a Storage pointing at it
func setupTestRedis(t *testing.T, ttl time.Duration) (*Storage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return New(client, ttl), mr
}

func TestStorage_Contract(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	storagetest.Run(t, s)
}

func TestSet_UsesPrefixedKey(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	require.NoError(t, s.Set(context.Background(), "cart:abc", []byte(`[]`)))

	got, err := mr.Get("storefront:cart:abc")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
	assert.Zero(t, mr.TTL("storefront:cart:abc"), "no expiry without ttl")
}

func TestSet_WithTTL(t *testing.T) {
	s, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart:abc", []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("storefront:cart:abc"))

	mr.FastForward(2 * time.Hour)

	_, err := s.Get(ctx, "cart:abc")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGet_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Get(context.Background(), "cart:abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}
