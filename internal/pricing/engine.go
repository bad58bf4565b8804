package pricing

// Money represents a monetary value stored in minor units (centavos).
type Money = int64

// MaxQuantity caps a single cart line. Together with MaxUnitPrice it keeps
// every line total and any realistic cart total inside int64.
const MaxQuantity = 999

// MaxUnitPrice is the largest accepted catalog price, in minor units.
const MaxUnitPrice Money = 100_000_000_00

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed cart totals.
type Summary struct {
	Subtotal Money
	Total    Money
	Quantity int
}

// Compute sums unit price times quantity over the provided items. Lines with
// a non-positive quantity never exist in a cart and are ignored.
func Compute(items []Item) Summary {
	var (
		subtotal Money
		quantity int
	)
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += LineTotal(it.UnitPrice, it.Qty)
		quantity += it.Qty
	}
	return Summary{
		Subtotal: subtotal,
		Total:    subtotal,
		Quantity: quantity,
	}
}

// LineTotal is unit times qty.
func LineTotal(unit Money, qty int) Money {
	return unit * Money(qty)
}
