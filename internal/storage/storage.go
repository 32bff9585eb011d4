// Package storage defines the persistent key-value store that cart data lives in.
package storage

import (
	"context"
	"errors"
)

// Storage is a persistent key-value store. Values are opaque bytes.
// Delete of a missing key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")
