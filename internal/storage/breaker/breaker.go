// Package breaker wraps a remote storage.Storage in a circuit breaker so a
// failing backend is skipped quickly instead of timing out on every request.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront-cart/internal/storage"
	"github.com/sony/gobreaker/v2"
)

type Settings struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// OnStateChange is optional.
	OnStateChange func(name string, from, to gobreaker.State)
}

type Storage struct {
	next storage.Storage
	cb   *gobreaker.CircuitBreaker[[]byte]
}

func New(next storage.Storage, settings Settings) *Storage {
	failures := settings.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    settings.Name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a missing key is an answer, not a backend failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrNotFound)
		},
		OnStateChange: settings.OnStateChange,
	})

	return &Storage{next: next, cb: cb}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.cb.Execute(func() ([]byte, error) {
		return s.next.Get(ctx, key)
	})
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.cb.Execute(func() ([]byte, error) {
		return nil, s.next.Set(ctx, key, value)
	})
	return err
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() ([]byte, error) {
		return nil, s.next.Delete(ctx, key)
	})
	return err
}

// State reports the breaker state, for health checks.
func (s *Storage) State() gobreaker.State {
	return s.cb.State()
}
