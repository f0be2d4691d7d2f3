package rules

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceRules = `{
	"version": 1,
	"total_discount_threshold": 60.00,
	"total_discount_percentage": 10,
	"products": [
		{"id": "001", "name": "Lavender heart", "price": 9.25, "discount_threshold": 2.0, "discount_price": 8.50},
		{"id": "002", "name": "Personalised cufflinks", "price": 45.00, "discount_threshold": 0.0, "discount_price": 0.0},
		{"id": "003", "name": "Kids T-shirt", "price": 19.95, "discount_threshold": null, "discount_price": null}
	]
}`

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestLoad_ReferenceRules(t *testing.T) {
	rs, err := Load([]byte(referenceRules))
	require.NoError(t, err)

	assert.Equal(t, int64(1), rs.Version())
	products := rs.Products()
	require.Len(t, products, 3)
	assert.Equal(t, "Lavender heart", products[0].Name)

	heart, ok := rs.FindProduct("001")
	require.True(t, ok)
	require.NotNil(t, heart.Volume)
	assert.Equal(t, 2, heart.Volume.Threshold)
	assert.True(t, d("8.50").Equal(heart.Volume.Price))

	cufflinks, ok := rs.FindProduct("002")
	require.True(t, ok)
	assert.Nil(t, cufflinks.Volume, "zero threshold loads as no discount")

	shirt, ok := rs.FindProduct("003")
	require.True(t, ok)
	assert.Nil(t, shirt.Volume)

	od, ok := rs.OrderDiscount()
	require.True(t, ok)
	assert.True(t, d("60").Equal(od.Threshold))
	assert.True(t, d("10").Equal(od.Percentage))
}

func TestRuleSet_FindProductExactMatch(t *testing.T) {
	rs, err := Load([]byte(referenceRules))
	require.NoError(t, err)

	for _, code := range []string{"00", "0011", " 001", "1", ""} {
		_, ok := rs.FindProduct(code)
		assert.False(t, ok, "code %q", code)
	}
}

func TestRuleSet_Immutable(t *testing.T) {
	rs, err := Load([]byte(referenceRules))
	require.NoError(t, err)

	heart, _ := rs.FindProduct("001")
	heart.Volume.Price = d("0.01")
	heart.Price = d("0.01")

	again, _ := rs.FindProduct("001")
	assert.True(t, d("8.50").Equal(again.Volume.Price))
	assert.True(t, d("9.25").Equal(again.Price))
}

func TestLoad_OrderDiscountOptional(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "absent", doc: `{"products": []}`},
		{name: "null", doc: `{"total_discount_threshold": null, "total_discount_percentage": null, "products": []}`},
		{name: "zero filled", doc: `{"total_discount_threshold": 0, "total_discount_percentage": 0, "products": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Load([]byte(tt.doc))
			require.NoError(t, err)
			_, ok := rs.OrderDiscount()
			assert.False(t, ok)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantErr   error
		wantField string
	}{
		{name: "not json", doc: `{"products": [`, wantErr: ErrMalformed},
		{name: "not an object", doc: `[]`, wantErr: ErrMalformed},
		{name: "trailing data", doc: `{"products": []} {}`, wantErr: ErrMalformed},
		{name: "trailing garbage", doc: `{"products": []} junk`, wantErr: ErrMalformed},
		{name: "products missing", doc: `{"total_discount_threshold": 10, "total_discount_percentage": 5}`, wantErr: ErrMissingField, wantField: "products"},
		{name: "products not array", doc: `{"products": {}}`, wantErr: ErrMalformed, wantField: "products"},
		{name: "product not object", doc: `{"products": [1]}`, wantErr: ErrMalformed, wantField: "products[0]"},
		{name: "id missing", doc: `{"products": [{"name": "a", "price": 1}]}`, wantErr: ErrMissingField, wantField: "products[0].id"},
		{name: "id not string", doc: `{"products": [{"id": 1, "name": "a", "price": 1}]}`, wantErr: ErrMalformed, wantField: "products[0].id"},
		{name: "name missing", doc: `{"products": [{"id": "a", "price": 1}]}`, wantErr: ErrMissingField, wantField: "products[0].name"},
		{name: "price missing", doc: `{"products": [{"id": "a", "name": "a"}]}`, wantErr: ErrMissingField, wantField: "products[0].price"},
		{name: "price not number", doc: `{"products": [{"id": "a", "name": "a", "price": "9.25"}]}`, wantErr: ErrInvalidNumber, wantField: "products[0].price"},
		{name: "negative price", doc: `{"products": [{"id": "a", "name": "a", "price": -1}]}`, wantErr: ErrOutOfRange, wantField: "products[0].price"},
		{
			name:      "duplicate id",
			doc:       `{"products": [{"id": "a", "name": "a", "price": 1}, {"id": "a", "name": "b", "price": 2}]}`,
			wantErr:   ErrDuplicateProduct,
			wantField: "products",
		},
		{
			name:      "fractional threshold",
			doc:       `{"products": [{"id": "a", "name": "a", "price": 1, "discount_threshold": 2.5, "discount_price": 0.5}]}`,
			wantErr:   ErrInvalidNumber,
			wantField: "products[0].discount_threshold",
		},
		{
			name:      "negative threshold",
			doc:       `{"products": [{"id": "a", "name": "a", "price": 1, "discount_threshold": -2, "discount_price": 0.5}]}`,
			wantErr:   ErrOutOfRange,
			wantField: "products[0].discount_threshold",
		},
		{
			name:      "threshold without price",
			doc:       `{"products": [{"id": "a", "name": "a", "price": 1, "discount_threshold": 2}]}`,
			wantErr:   ErrMissingField,
			wantField: "products[0].discount_price",
		},
		{
			name:      "negative discount price",
			doc:       `{"products": [{"id": "a", "name": "a", "price": 1, "discount_threshold": 2, "discount_price": -0.5}]}`,
			wantErr:   ErrOutOfRange,
			wantField: "products[0].discount_price",
		},
		{
			name:      "percentage above 100",
			doc:       `{"total_discount_threshold": 10, "total_discount_percentage": 101, "products": []}`,
			wantErr:   ErrOutOfRange,
			wantField: "total_discount_percentage",
		},
		{
			name:      "percentage missing",
			doc:       `{"total_discount_threshold": 10, "products": []}`,
			wantErr:   ErrMissingField,
			wantField: "total_discount_percentage",
		},
		{
			name:      "percentage without threshold",
			doc:       `{"total_discount_percentage": 10, "products": []}`,
			wantErr:   ErrMissingField,
			wantField: "total_discount_threshold",
		},
		{
			name:      "negative order threshold",
			doc:       `{"total_discount_threshold": -1, "total_discount_percentage": 10, "products": []}`,
			wantErr:   ErrOutOfRange,
			wantField: "total_discount_threshold",
		},
		{
			name:      "percentage with zero threshold",
			doc:       `{"total_discount_threshold": 0, "total_discount_percentage": 10, "products": []}`,
			wantErr:   ErrMissingField,
			wantField: "total_discount_threshold",
		},
		{
			name:      "percentage above 100 with zero threshold",
			doc:       `{"total_discount_threshold": 0, "total_discount_percentage": 150, "products": []}`,
			wantErr:   ErrOutOfRange,
			wantField: "total_discount_percentage",
		},
		{
			name:      "percentage above 100 without threshold",
			doc:       `{"total_discount_percentage": 150, "products": []}`,
			wantErr:   ErrOutOfRange,
			wantField: "total_discount_percentage",
		},
		{
			name:      "negative percentage",
			doc:       `{"total_discount_threshold": 10, "total_discount_percentage": -5, "products": []}`,
			wantErr:   ErrOutOfRange,
			wantField: "total_discount_percentage",
		},
		{
			name:      "negative discount price with zero threshold",
			doc:       `{"products": [{"id": "a", "name": "a", "price": 1, "discount_threshold": 0, "discount_price": -0.5}]}`,
			wantErr:   ErrOutOfRange,
			wantField: "products[0].discount_price",
		},
		{
			name:      "negative discount price without threshold",
			doc:       `{"products": [{"id": "a", "name": "a", "price": 1, "discount_price": -0.5}]}`,
			wantErr:   ErrOutOfRange,
			wantField: "products[0].discount_price",
		},
		{name: "fractional version", doc: `{"version": 1.5, "products": []}`, wantErr: ErrInvalidNumber, wantField: "version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Load([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, rs)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantField, pe.Field)
		})
	}
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	rs, err := Load([]byte(`{
		"currency": "GBP",
		"products": [{"id": "a", "name": "a", "price": 1, "sku": {"x": [1, 2]}}]
	}`))
	require.NoError(t, err)
	_, ok := rs.FindProduct("a")
	assert.True(t, ok)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(plain, []byte(referenceRules), 0o600))

	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(referenceRules))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	compressed := filepath.Join(dir, "rules.json.gz")
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0o600))

	for _, path := range []string{plain, compressed} {
		rs, err := LoadFile(path)
		require.NoError(t, err, path)
		assert.Len(t, rs.Products(), 3)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
