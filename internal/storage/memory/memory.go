// Package memory implements an in-memory storage.Storage.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/fjod/storefront-cart/internal/storage"
)

// Storage keeps values in a map. Contents do not survive a restart.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func New() *Storage {
	return &Storage{values: make(map[string][]byte)}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = slices.Clone(value)
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
