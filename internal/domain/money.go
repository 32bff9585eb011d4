package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Pricing holds the store-wide shipping and tax rules.
type Pricing struct {
	ShippingFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultPricing is a flat 49.99 shipping fee and 8% tax.
var DefaultPricing = Pricing{
	ShippingFee: decimal.RequireFromString("49.99"),
	TaxRate:     decimal.RequireFromString("0.08"),
}

// Totals is the derived monetary breakdown of a cart. Values are exact;
// round only when formatting.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Totals computes the breakdown for c. Shipping is charged only on a
// non-zero subtotal.
func (p Pricing) Totals(c Cart) Totals {
	subtotal := decimal.Zero
	for _, li := range c.Items {
		subtotal = subtotal.Add(li.LineTotal())
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = p.ShippingFee
	}

	tax := subtotal.Mul(p.TaxRate)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// ParsePrice parses a display price such as "$1,299.99". Surrounding space,
// one leading currency symbol and grouping commas are ignored.
func ParsePrice(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if r, size := utf8.DecodeRuneInString(raw); size > 0 && unicode.Is(unicode.Sc, r) {
		raw = strings.TrimSpace(raw[size:])
	}
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %q is empty", ErrInvalidPrice, s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidPrice, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidPrice, s)
	}
	return d, nil
}

// FormatMoney renders d rounded to cents, e.g. "$71.59".
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
