// Package poller empties a shopper's cart once their checkout completes.
package poller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type CartClearer interface {
	ClearCart(ctx context.Context, sessionID string) error
}

// CheckoutCompleted is the event payload; other fields are ignored.
type CheckoutCompleted struct {
	SessionID string `json:"session_id"`
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

type Poller struct {
	carts  CartClearer
	reader *kafka.Reader
	log    *zap.Logger
}

func NewPoller(carts CartClearer, cfg Config, log *zap.Logger) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{carts: carts, reader: reader, log: log}
}

// Run consumes events until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.clearCartFromNextMessage(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error("error closing reader", zap.Error(err))
	}
}

func (p *Poller) clearCartFromNextMessage(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Error("error reading message", zap.Error(err))
		}
		return
	}

	if err := p.handle(ctx, m.Value); err != nil {
		p.log.Warn("skipping checkout event",
			zap.Int64("offset", m.Offset),
			zap.Error(err),
		)
	}
}

var errMissingSession = errors.New("missing or invalid session_id")

func (p *Poller) handle(ctx context.Context, value []byte) error {
	var event CheckoutCompleted
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	if event.SessionID == "" {
		return errMissingSession
	}

	if err := p.carts.ClearCart(ctx, event.SessionID); err != nil {
		return err
	}
	p.log.Info("cart cleared after checkout", zap.String("session_id", event.SessionID))
	return nil
}
