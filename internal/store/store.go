// Package store owns the persisted cart: every read and write of a cart key
// goes through Store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront-cart/internal/domain"
	"github.com/fjod/storefront-cart/internal/storage"
	"go.uber.org/zap"
)

// DefaultKey is the key a single-shopper cart is stored under.
const DefaultKey = "cart"

type Store struct {
	storage storage.Storage
	key     string
	pricing domain.Pricing
	log     *zap.Logger
}

type Option func(*Store)

// WithKey stores the cart under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithPricing replaces domain.DefaultPricing.
func WithPricing(p domain.Pricing) Option {
	return func(s *Store) { s.pricing = p }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: st,
		key:     DefaultKey,
		pricing: domain.DefaultPricing,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key is the storage key this store reads and writes.
func (s *Store) Key() string {
	return s.key
}

// Load returns the persisted cart. Missing, malformed or unreadable data
// yields an empty cart; problems are logged, never returned.
func (s *Store) Load(ctx context.Context) domain.Cart {
	cart, err := s.load(ctx)
	if err != nil {
		s.log.Warn("cart storage read failed, using empty cart", zap.String("key", s.key), zap.Error(err))
		return domain.Cart{}
	}
	return cart
}

// load is Load for writers: malformed data still reads as empty, but a
// backend failure is returned so nothing is saved over a cart never read.
func (s *Store) load(ctx context.Context) (domain.Cart, error) {
	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart: %w", err)
	}

	cart, err := domain.DecodeCart(data)
	if err != nil {
		s.log.Warn("discarding malformed cart", zap.String("key", s.key), zap.Error(err))
		return domain.Cart{}, nil
	}
	return cart, nil
}

// Save persists cart, replacing whatever was stored.
func (s *Store) Save(ctx context.Context, cart domain.Cart) error {
	data, err := domain.EncodeCart(cart)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// AddItem adds one unit of the named product. price is the display string.
func (s *Store) AddItem(ctx context.Context, name, price, image string) (domain.Cart, error) {
	return s.update(ctx, func(c domain.Cart) (domain.Cart, error) {
		return c.AddItem(name, price, image)
	})
}

// SetQuantity sets the quantity at index, clamped to at least 1.
func (s *Store) SetQuantity(ctx context.Context, index, quantity int) (domain.Cart, error) {
	return s.update(ctx, func(c domain.Cart) (domain.Cart, error) {
		return c.SetQuantity(index, quantity)
	})
}

// RemoveItem deletes the item at index.
func (s *Store) RemoveItem(ctx context.Context, index int) (domain.Cart, error) {
	return s.update(ctx, func(c domain.Cart) (domain.Cart, error) {
		return c.RemoveItem(index)
	})
}

// Clear drops the persisted cart.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Totals computes the price breakdown of the persisted cart.
func (s *Store) Totals(ctx context.Context) domain.Totals {
	return s.pricing.Totals(s.Load(ctx))
}

// TotalQuantity is the badge count of the persisted cart.
func (s *Store) TotalQuantity(ctx context.Context) int {
	return s.Load(ctx).TotalQuantity()
}

// Pricing returns the pricing rules this store computes totals with.
func (s *Store) Pricing() domain.Pricing {
	return s.pricing
}

// update loads, applies op and saves. A failing load or op saves nothing.
func (s *Store) update(ctx context.Context, op func(domain.Cart) (domain.Cart, error)) (domain.Cart, error) {
	cart, err := s.load(ctx)
	if err != nil {
		s.log.Error("cart load failed, update aborted", zap.String("key", s.key), zap.Error(err))
		return domain.Cart{}, err
	}

	updated, err := op(cart)
	if err != nil {
		return cart, err
	}

	if err := s.Save(ctx, updated); err != nil {
		s.log.Error("cart save failed", zap.String("key", s.key), zap.Error(err))
		return cart, err
	}
	return updated, nil
}
