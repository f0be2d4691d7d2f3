package api

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/checkout-engine/internal/checkout"
)

// Metrics holds the pricing instruments. A nil *Metrics records nothing.
type Metrics struct {
	scans   metric.Int64Counter
	unknown metric.Int64Counter
	baskets metric.Int64Counter
	totals  metric.Float64Histogram
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("github.com/xenking/checkout-engine/internal/api")

	var (
		m   Metrics
		err error
	)
	if m.scans, err = meter.Int64Counter("checkout.scans",
		metric.WithDescription("Units scanned, by product code"),
	); err != nil {
		return nil, errors.Wrap(err, "scans counter")
	}
	if m.unknown, err = meter.Int64Counter("checkout.unknown_products",
		metric.WithDescription("Scans rejected because the code is not in the catalog"),
	); err != nil {
		return nil, errors.Wrap(err, "unknown products counter")
	}
	if m.baskets, err = meter.Int64Counter("checkout.baskets",
		metric.WithDescription("Baskets priced, by whether the order discount applied"),
	); err != nil {
		return nil, errors.Wrap(err, "baskets counter")
	}
	if m.totals, err = meter.Float64Histogram("checkout.total",
		metric.WithDescription("Basket totals after discounts"),
	); err != nil {
		return nil, errors.Wrap(err, "totals histogram")
	}
	return &m, nil
}

func (m *Metrics) scanned(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.scans.Add(ctx, 1, metric.WithAttributes(attribute.String("product", code)))
}

// unknownProduct records no product attribute; unknown codes are unbounded.
func (m *Metrics) unknownProduct(ctx context.Context) {
	if m == nil {
		return
	}
	m.unknown.Add(ctx, 1)
}

func (m *Metrics) priced(ctx context.Context, r checkout.Receipt) {
	if m == nil {
		return
	}
	m.baskets.Add(ctx, 1, metric.WithAttributes(attribute.Bool("order_discount", r.Discount.IsPositive())))
	m.totals.Record(ctx, r.Total.InexactFloat64())
}
