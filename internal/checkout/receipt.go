package checkout

import (
	"github.com/shopspring/decimal"
)

// Receipt is a presentation view of the current order.
type Receipt struct {
	Lines    []ReceiptLine
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ReceiptLine describes one line item. UnitPrice is the price actually
// charged per unit, i.e. the volume price once the threshold is met.
type ReceiptLine struct {
	Code       string
	Name       string
	Count      int
	UnitPrice  decimal.Decimal
	Cost       decimal.Decimal
	Discounted bool
}

// Receipt builds a breakdown of the order. Line costs are exact; Subtotal,
// Discount and Total are rounded to Precision places, and
// Discount = Subtotal - Total.
func (c *Checkout) Receipt() Receipt {
	items := c.order.Items()
	lines := make([]ReceiptLine, len(items))
	for i, li := range items {
		lines[i] = ReceiptLine{
			Code:       li.Product.ID,
			Name:       li.Product.Name,
			Count:      li.Count,
			UnitPrice:  li.Product.UnitPrice(li.Count),
			Cost:       li.Cost(),
			Discounted: li.Product.Discounted(li.Count),
		}
	}

	exact := c.order.Subtotal()
	subtotal := exact.Round(Precision)
	total := c.total(exact)

	return Receipt{
		Lines:    lines,
		Subtotal: subtotal,
		Discount: subtotal.Sub(total),
		Total:    total,
	}
}
