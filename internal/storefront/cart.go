package storefront

import (
	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// CartItem is one cart line. Quantity is always at least 1.
type CartItem struct {
	Product  catalog.Product
	Quantity int
}

// Cart keeps lines in first-insertion order with at most one line per product id.
type Cart struct {
	items []CartItem
}

func (c *Cart) index(id int) int {
	for i := range c.items {
		if c.items[i].Product.ID == id {
			return i
		}
	}
	return -1
}

// Add increments the line for p or appends a new line with quantity 1. A
// line already at pricing.MaxQuantity stays there. It reports whether a new
// line was created.
func (c *Cart) Add(p catalog.Product) bool {
	if i := c.index(p.ID); i >= 0 {
		if c.items[i].Quantity < pricing.MaxQuantity {
			c.items[i].Quantity++
		}
		return false
	}
	c.items = append(c.items, CartItem{Product: p, Quantity: 1})
	return true
}

// Remove deletes the line for id. Unknown ids are ignored.
func (c *Cart) Remove(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// UpdateQuantity replaces the quantity of an existing line. Quantities below
// one or above pricing.MaxQuantity are rejected and never remove the line.
func (c *Cart) UpdateQuantity(id, qty int) bool {
	if !validQuantity(qty) {
		return false
	}
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items[i].Quantity = qty
	return true
}

func validQuantity(qty int) bool {
	return qty >= 1 && qty <= pricing.MaxQuantity
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []CartItem {
	return append([]CartItem(nil), c.items...)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.items) }

// Summary returns the exact total and the item count for the badge.
func (c *Cart) Summary() pricing.Summary {
	lines := make([]pricing.Item, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, pricing.Item{Qty: it.Quantity, UnitPrice: it.Product.Price})
	}
	return pricing.Compute(lines)
}
