package domain

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// MaxQuantity caps a single line item. Adds past it are ignored and larger
// quantities are clamped.
const MaxQuantity = 9999

// LineItem is one product entry in the cart. Name is unique within a cart.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Image     string
	Quantity  int
}

// LineTotal is UnitPrice multiplied by Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is an ordered collection of line items for one shopper.
// Operations never modify the receiver; they return the updated cart.
type Cart struct {
	Items []LineItem
}

// IsEmpty reports whether the cart holds no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IndexOf returns the position of the item with the given name, or -1.
func (c Cart) IndexOf(name string) int {
	return slices.IndexFunc(c.Items, func(li LineItem) bool { return li.Name == name })
}

// AddItem increments the quantity of an existing item with the same name or
// appends a new item with quantity 1. price is a display string such as "$19.99".
func (c Cart) AddItem(name, price, image string) (Cart, error) {
	unitPrice, err := ParsePrice(price)
	if err != nil {
		return c, err
	}

	out := c.clone()
	if i := out.IndexOf(name); i != -1 {
		if out.Items[i].Quantity < MaxQuantity {
			out.Items[i].Quantity++
		}
		return out, nil
	}

	out.Items = append(out.Items, LineItem{
		Name:      name,
		UnitPrice: unitPrice,
		Image:     image,
		Quantity:  1,
	})
	return out, nil
}

// SetQuantity sets the quantity of the item at index, clamped to
// [1, MaxQuantity].
func (c Cart) SetQuantity(index, quantity int) (Cart, error) {
	if err := c.checkIndex(index); err != nil {
		return c, err
	}

	out := c.clone()
	out.Items[index].Quantity = min(max(quantity, 1), MaxQuantity)
	return out, nil
}

// RemoveItem deletes the item at index.
func (c Cart) RemoveItem(index int) (Cart, error) {
	if err := c.checkIndex(index); err != nil {
		return c, err
	}

	out := c.clone()
	out.Items = slices.Delete(out.Items, index, index+1)
	return out, nil
}

// TotalQuantity is the sum of all quantities, shown on the cart badge.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, li := range c.Items {
		total += li.Quantity
	}
	return total
}

// Totals computes the price breakdown with DefaultPricing.
func (c Cart) Totals() Totals {
	return DefaultPricing.Totals(c)
}

// Equal reports whether both carts hold the same items in the same order.
// Prices compare by value, so 10 and 10.00 are equal.
func (c Cart) Equal(other Cart) bool {
	return slices.EqualFunc(c.Items, other.Items, func(a, b LineItem) bool {
		return a.Name == b.Name &&
			a.Image == b.Image &&
			a.Quantity == b.Quantity &&
			a.UnitPrice.Equal(b.UnitPrice)
	})
}

// Validate checks the cart invariants: unique names, non-negative prices and
// quantities within 1..MaxQuantity.
func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c.Items))
	for i, li := range c.Items {
		if li.Quantity < 1 || li.Quantity > MaxQuantity {
			return fmt.Errorf("item %d (%q): quantity %d outside 1..%d", i, li.Name, li.Quantity, MaxQuantity)
		}
		if li.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d (%q): negative price %s", i, li.Name, li.UnitPrice)
		}
		if _, dup := seen[li.Name]; dup {
			return fmt.Errorf("item %d: duplicate name %q", i, li.Name)
		}
		seen[li.Name] = struct{}{}
	}
	return nil
}

func (c Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.Items) {
		return fmt.Errorf("%w: index %d, cart has %d items", ErrIndexOutOfRange, index, len(c.Items))
	}
	return nil
}

func (c Cart) clone() Cart {
	return Cart{Items: slices.Clone(c.Items)}
}
