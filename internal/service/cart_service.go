package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fjod/storefront-cart/internal/domain"
	"github.com/fjod/storefront-cart/internal/storage"
	"github.com/fjod/storefront-cart/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidSession = errors.New("invalid session id")

// sharedLoadTimeout bounds a coalesced load, which outlives the caller that
// started it.
const sharedLoadTimeout = 5 * time.Second

// Summary is what a checkout page renders: the cart, its totals and the
// badge count.
type Summary struct {
	Cart   domain.Cart
	Totals domain.Totals
	Badge  int
}

// CartService keeps one cart per shopper session.
type CartService struct {
	storage storage.Storage
	pricing domain.Pricing
	log     *zap.Logger
	sfg     singleflight.Group // coalesces concurrent loads of one session
}

func NewCartService(st storage.Storage, pricing domain.Pricing, log *zap.Logger) *CartService {
	return &CartService{
		storage: st,
		pricing: pricing,
		log:     log,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	cs, err := s.cartStore(sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	v, _, _ := s.sfg.Do(cs.Key(), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		return cs.Load(loadCtx), nil
	})
	return v.(domain.Cart), nil
}

func (s *CartService) Summary(ctx context.Context, sessionID string) (Summary, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(cart), nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID, name, price, image string) (Summary, error) {
	cs, err := s.cartStore(sessionID)
	if err != nil {
		return Summary{}, err
	}

	cart, err := cs.AddItem(ctx, name, price, image)
	if err != nil {
		return Summary{}, err
	}
	s.log.Debug("item added", zap.String("session_id", sessionID), zap.String("name", name))
	return s.summarize(cart), nil
}

func (s *CartService) SetQuantity(ctx context.Context, sessionID string, index, quantity int) (Summary, error) {
	cs, err := s.cartStore(sessionID)
	if err != nil {
		return Summary{}, err
	}

	cart, err := cs.SetQuantity(ctx, index, quantity)
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(cart), nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, index int) (Summary, error) {
	cs, err := s.cartStore(sessionID)
	if err != nil {
		return Summary{}, err
	}

	cart, err := cs.RemoveItem(ctx, index)
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(cart), nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	cs, err := s.cartStore(sessionID)
	if err != nil {
		return err
	}

	if err := cs.Clear(ctx); err != nil {
		s.log.Error("clear cart failed", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (s *CartService) cartStore(sessionID string) (*store.Store, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	return store.New(s.storage,
		store.WithKey(cartKey(sessionID)),
		store.WithPricing(s.pricing),
		store.WithLogger(s.log.With(zap.String("session_id", sessionID))),
	), nil
}

func (s *CartService) summarize(cart domain.Cart) Summary {
	return Summary{
		Cart:   cart,
		Totals: s.pricing.Totals(cart),
		Badge:  cart.TotalQuantity(),
	}
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}
