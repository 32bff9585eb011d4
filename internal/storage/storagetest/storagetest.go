// Package storagetest holds the behaviour every storage.Storage must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/fjod/storefront-cart/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the storage.Storage contract. Keys are prefixed
// with the test name so backends can be shared between subtests.
func Run(t *testing.T, s storage.Storage) {
	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(context.Background(), "missing:"+t.Name())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SetThenGet", func(t *testing.T) {
		ctx := context.Background()
		key := "cart:" + t.Name()
		value := []byte(`[{"name":"Lamp","price":10,"image":"lamp.png","quantity":2}]`)

		require.NoError(t, s.Set(ctx, key, value))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		ctx := context.Background()
		key := "cart:" + t.Name()

		require.NoError(t, s.Set(ctx, key, []byte(`[1]`)))
		require.NoError(t, s.Set(ctx, key, []byte(`[2]`)))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte(`[2]`), got)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := context.Background()
		key := "cart:" + t.Name()

		require.NoError(t, s.Set(ctx, key, []byte(`[]`)))
		require.NoError(t, s.Delete(ctx, key))

		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.NoError(t, s.Delete(context.Background(), "missing:"+t.Name()))
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		ctx := context.Background()
		a, b := "cart:a:"+t.Name(), "cart:b:"+t.Name()

		require.NoError(t, s.Set(ctx, a, []byte(`["a"]`)))
		require.NoError(t, s.Set(ctx, b, []byte(`["b"]`)))
		require.NoError(t, s.Delete(ctx, a))

		got, err := s.Get(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, []byte(`["b"]`), got)
	})
}
