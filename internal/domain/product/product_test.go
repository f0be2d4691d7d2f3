package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestLineCost(t *testing.T) {
	heart := Product{
		ID:     "001",
		Name:   "Lavender heart",
		Price:  d("9.25"),
		Volume: &VolumeDiscount{Threshold: 2, Price: d("8.50")},
	}
	cufflinks := Product{ID: "002", Name: "Personalised cufflinks", Price: d("45.00")}

	tests := []struct {
		name     string
		product  Product
		count    int
		wantCost decimal.Decimal
		wantDisc bool
	}{
		{name: "single unit below threshold", product: heart, count: 1, wantCost: d("9.25")},
		{name: "threshold discounts every unit", product: heart, count: 2, wantCost: d("17.00"), wantDisc: true},
		{name: "above threshold", product: heart, count: 5, wantCost: d("42.50"), wantDisc: true},
		{name: "no policy", product: cufflinks, count: 3, wantCost: d("135.00")},
		{name: "zero count", product: cufflinks, count: 0, wantCost: d("0")},
		{
			name:     "zero threshold never discounts",
			product:  Product{ID: "x", Price: d("2"), Volume: &VolumeDiscount{Threshold: 0, Price: d("1")}},
			count:    10,
			wantCost: d("20"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.product.LineCost(tt.count)
			assert.True(t, tt.wantCost.Equal(got), "expected cost %s, got %s", tt.wantCost, got)
			assert.Equal(t, tt.wantDisc, tt.product.Discounted(tt.count))
		})
	}
}

func TestUnitPrice_ThresholdBoundary(t *testing.T) {
	p := Product{ID: "001", Price: d("9.25"), Volume: &VolumeDiscount{Threshold: 3, Price: d("8.00")}}

	assert.True(t, d("9.25").Equal(p.UnitPrice(2)))
	assert.True(t, d("8.00").Equal(p.UnitPrice(3)))
}
