// Package rules holds the immutable promotional rule set a checkout prices
// against: the product catalog and the optional order-level discount.
package rules

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-engine/internal/domain/product"
)

// Sentinel causes wrapped by ParseError.
var (
	ErrMalformed        = errors.New("malformed rule document")
	ErrMissingField     = errors.New("required field missing")
	ErrDuplicateProduct = errors.New("duplicate product id")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrOutOfRange       = errors.New("value out of range")
)

var hundred = decimal.NewFromInt(100)

// ParseError reports rule data that cannot be turned into a RuleSet.
type ParseError struct {
	// Field is the path of the offending field, e.g. "products[1].price".
	// Empty when the document as a whole is rejected.
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse rules: %v", e.Err)
	}
	return fmt.Sprintf("parse rules: %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// OrderDiscount takes Percentage off the whole order once its subtotal
// reaches Threshold.
type OrderDiscount struct {
	Threshold  decimal.Decimal
	Percentage decimal.Decimal
}

// Applies reports whether subtotal qualifies for the discount.
func (o OrderDiscount) Applies(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(o.Threshold)
}

// Apply returns the discounted, unrounded subtotal. The caller is expected
// to check Applies first.
func (o OrderDiscount) Apply(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(hundred.Sub(o.Percentage)).Div(hundred)
}

// RuleSet is a validated catalog plus order discount policy. It is never
// mutated after Load and may be shared by any number of checkouts.
type RuleSet struct {
	version  int64
	products []product.Product
	index    map[string]int
	order    *OrderDiscount
}

// Version returns the document version, zero when the document omits it.
func (rs *RuleSet) Version() int64 {
	return rs.version
}

// FindProduct looks a product up by its exact code.
func (rs *RuleSet) FindProduct(code string) (product.Product, bool) {
	i, ok := rs.index[code]
	if !ok {
		return product.Product{}, false
	}
	return cloneProduct(rs.products[i]), true
}

// Products returns the catalog in document order.
func (rs *RuleSet) Products() []product.Product {
	out := make([]product.Product, len(rs.products))
	for i, p := range rs.products {
		out[i] = cloneProduct(p)
	}
	return out
}

// OrderDiscount returns the order-level discount policy, if any.
func (rs *RuleSet) OrderDiscount() (OrderDiscount, bool) {
	if rs.order == nil {
		return OrderDiscount{}, false
	}
	return *rs.order, true
}

// cloneProduct copies the volume policy so callers cannot reach into the
// rule set through the pointer.
func cloneProduct(p product.Product) product.Product {
	if p.Volume != nil {
		v := *p.Volume
		p.Volume = &v
	}
	return p
}
