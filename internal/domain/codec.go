package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// storedItem is the persisted layout of a line item:
// {"name": ..., "price": 19.99, "image": ..., "quantity": 2}
type storedItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// priceNumber writes a decimal as a bare JSON number.
type priceNumber decimal.Decimal

func (p priceNumber) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(p).String()), nil
}

type encodedItem struct {
	Name     string      `json:"name"`
	Price    priceNumber `json:"price"`
	Image    string      `json:"image"`
	Quantity int         `json:"quantity"`
}

// EncodeCart serializes the cart as a JSON array of line items.
func EncodeCart(c Cart) ([]byte, error) {
	items := make([]encodedItem, len(c.Items))
	for i, li := range c.Items {
		items[i] = encodedItem{
			Name:     li.Name,
			Price:    priceNumber(li.UnitPrice),
			Image:    li.Image,
			Quantity: li.Quantity,
		}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

// DecodeCart parses the persisted layout. Empty input and JSON null decode to
// an empty cart; anything else that is not a valid cart wraps ErrMalformedStorage.
func DecodeCart(data []byte) (Cart, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Cart{}, nil
	}

	var items []storedItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Cart{}, fmt.Errorf("%w: unmarshal cart failed: %v", ErrMalformedStorage, err)
	}

	cart := Cart{Items: make([]LineItem, 0, len(items))}
	for _, it := range items {
		cart.Items = append(cart.Items, LineItem{
			Name:      it.Name,
			UnitPrice: it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}
	if err := cart.Validate(); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}
	return cart, nil
}
