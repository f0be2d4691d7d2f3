package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-engine/internal/domain/product"
)

// LineItem is the accumulated count of one distinct product in an order.
type LineItem struct {
	Product product.Product
	Count   int
}

// Cost returns the exact cost of the line under the product's volume rule.
func (li LineItem) Cost() decimal.Decimal {
	return li.Product.LineCost(li.Count)
}

// Order accumulates scanned units. The zero value is an empty order ready
// for use.
type Order struct {
	items    []LineItem
	index    map[string]int
	subtotal decimal.Decimal
}

// New returns an empty order.
func New() *Order {
	return &Order{}
}

// AddUnit records one unit of p: the existing line for p.ID is incremented,
// otherwise a new line with count 1 is appended in scan order.
func (o *Order) AddUnit(p product.Product) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[p.ID]; ok {
		o.items[i].Count++
	} else {
		o.index[p.ID] = len(o.items)
		o.items = append(o.items, LineItem{Product: p, Count: 1})
	}
	o.recalculate()
}

// recalculate rebuilds the subtotal from every line. The cached value is
// never patched incrementally.
func (o *Order) recalculate() {
	sum := decimal.Zero
	for _, li := range o.items {
		sum = sum.Add(li.Cost())
	}
	o.subtotal = sum
}

// Subtotal returns the exact sum of all line costs, before any order-level
// discount and without rounding.
func (o *Order) Subtotal() decimal.Decimal {
	return o.subtotal
}

// Items returns a copy of the line items in scan order.
func (o *Order) Items() []LineItem {
	out := make([]LineItem, len(o.items))
	copy(out, o.items)
	return out
}

// Len returns the number of distinct products in the order.
func (o *Order) Len() int {
	return len(o.items)
}

// Count returns how many units of code have been added.
func (o *Order) Count(code string) int {
	if i, ok := o.index[code]; ok {
		return o.items[i].Count
	}
	return 0
}
