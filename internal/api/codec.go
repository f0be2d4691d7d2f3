package api

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-engine/internal/checkout"
	"github.com/xenking/checkout-engine/internal/domain/product"
	"github.com/xenking/checkout-engine/internal/domain/rules"
)

// errEmptyItems is returned for a request without any item codes.
var errEmptyItems = errors.New("items required")

// decodeCheckoutRequest reads {"items": ["001", ...]}. A repeated items key
// or data after the object is rejected.
func decodeCheckoutRequest(data []byte) ([]string, error) {
	if !jx.Valid(data) {
		return nil, errors.New("decode request: not a single JSON value")
	}

	var (
		items []string
		seen  bool
	)
	d := jx.DecodeBytes(data)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "items" {
			return d.Skip()
		}
		if seen {
			return errors.New("duplicate items key")
		}
		seen = true
		return d.Arr(func(d *jx.Decoder) error {
			code, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "item code")
			}
			items = append(items, code)
			return nil
		})
	}); err != nil {
		return nil, errors.Wrap(err, "decode request")
	}
	if len(items) == 0 {
		return nil, errEmptyItems
	}
	return items, nil
}

// money renders v with two places unless that would hide precision.
func money(v decimal.Decimal) string {
	if v.Equal(v.Round(checkout.Precision)) {
		return v.StringFixed(checkout.Precision)
	}
	return v.String()
}

func encodeReceipt(e *jx.Encoder, id string, r checkout.Receipt) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(id)
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range r.Lines {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(l.Code)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("count")
		e.Int(l.Count)
		e.FieldStart("unit_price")
		e.Str(money(l.UnitPrice))
		e.FieldStart("cost")
		e.Str(money(l.Cost))
		e.FieldStart("discounted")
		e.Bool(l.Discounted)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	e.Str(money(r.Subtotal))
	e.FieldStart("discount")
	e.Str(money(r.Discount))
	e.FieldStart("total")
	e.Str(money(r.Total))
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	e.Str(money(p.Price))
	if p.Volume != nil {
		e.FieldStart("volume_discount")
		e.ObjStart()
		e.FieldStart("threshold")
		e.Int(p.Volume.Threshold)
		e.FieldStart("price")
		e.Str(money(p.Volume.Price))
		e.ObjEnd()
	}
	e.ObjEnd()
}

func encodeCatalog(e *jx.Encoder, rs *rules.RuleSet) {
	e.ObjStart()
	e.FieldStart("version")
	e.Int64(rs.Version())
	e.FieldStart("products")
	e.ArrStart()
	for _, p := range rs.Products() {
		encodeProduct(e, p)
	}
	e.ArrEnd()
	if od, ok := rs.OrderDiscount(); ok {
		e.FieldStart("order_discount")
		e.ObjStart()
		e.FieldStart("threshold")
		e.Str(money(od.Threshold))
		e.FieldStart("percentage")
		e.Str(od.Percentage.String())
		e.ObjEnd()
	}
	e.ObjEnd()
}
