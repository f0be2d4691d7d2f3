package product

import (
	"github.com/shopspring/decimal"
)

// Product represents a catalog item that can be scanned at checkout.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	// Volume is the optional per-product discount. Nil means the product is
	// never discounted.
	Volume *VolumeDiscount
}

// VolumeDiscount replaces the unit price of every unit in a line once the
// line reaches Threshold units.
type VolumeDiscount struct {
	Threshold int
	Price     decimal.Decimal
}

// UnitPrice returns the price applied to each unit when count units of the
// product are in a single line.
func (p Product) UnitPrice(count int) decimal.Decimal {
	if p.Volume != nil && p.Volume.Threshold > 0 && count >= p.Volume.Threshold {
		return p.Volume.Price
	}
	return p.Price
}

// LineCost returns the exact, unrounded cost of count units.
func (p Product) LineCost(count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return p.UnitPrice(count).Mul(decimal.NewFromInt(int64(count)))
}

// Discounted reports whether the volume discount applies at count units.
func (p Product) Discounted(count int) bool {
	return p.Volume != nil && p.Volume.Threshold > 0 && count >= p.Volume.Threshold
}
