// Package checkout binds a rule set to a single shopping session and prices
// it as items are scanned.
//
// A Checkout is not safe for concurrent use. The RuleSet it holds is
// read-only, so many checkouts may share one.
package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-engine/internal/domain/order"
	"github.com/xenking/checkout-engine/internal/domain/rules"
)

// Precision is the number of decimal places totals are rounded to.
const Precision = 2

// UnknownProductError is returned by Scan for a code absent from the catalog.
type UnknownProductError struct {
	Code string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %q not in catalog", e.Code)
}

// Checkout prices one shopping session.
type Checkout struct {
	rules *rules.RuleSet
	order *order.Order
}

// New loads rule data and returns a checkout with an empty order. Malformed
// rule data yields a *rules.ParseError.
func New(ruleData []byte) (*Checkout, error) {
	rs, err := rules.Load(ruleData)
	if err != nil {
		return nil, errors.Wrap(err, "load rules")
	}
	return NewWithRules(rs), nil
}

// NewWithRules returns a checkout over an already loaded rule set.
func NewWithRules(rs *rules.RuleSet) *Checkout {
	return &Checkout{rules: rs, order: order.New()}
}

// Rules returns the rule set the checkout prices against.
func (c *Checkout) Rules() *rules.RuleSet {
	return c.rules
}

// Scan adds one unit of the product with the given code. Unknown codes are
// rejected with *UnknownProductError and leave the order unchanged.
func (c *Checkout) Scan(code string) error {
	p, ok := c.rules.FindProduct(code)
	if !ok {
		return &UnknownProductError{Code: code}
	}
	c.order.AddUnit(p)
	return nil
}

// Total returns the order total after the order-level discount, rounded
// once to Precision places.
func (c *Checkout) Total() decimal.Decimal {
	return c.total(c.order.Subtotal())
}

func (c *Checkout) total(subtotal decimal.Decimal) decimal.Decimal {
	if od, ok := c.rules.OrderDiscount(); ok && od.Applies(subtotal) {
		return od.Apply(subtotal).Round(Precision)
	}
	return subtotal.Round(Precision)
}

// Reset discards the current order and starts a new session against the
// same rules.
func (c *Checkout) Reset() {
	c.order = order.New()
}
