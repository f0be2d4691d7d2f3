package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/checkout-engine/internal/checkout"
)

// Checkout scans the requested codes into a fresh checkout and returns the
// priced receipt. Unknown codes yield 422 and nothing is priced.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := decodeCheckoutRequest(body)
	if err != nil {
		if errors.Is(err, errEmptyItems) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	co := checkout.NewWithRules(h.rules)
	for _, code := range items {
		if err := co.Scan(code); err != nil {
			var upErr *checkout.UnknownProductError
			if errors.As(err, &upErr) {
				h.metrics.unknownProduct(ctx)
				lg.Debug("Unknown product scanned", zap.String("code", upErr.Code))
				writeError(w, http.StatusUnprocessableEntity, upErr.Error())
				return
			}
			lg.Error("Scan failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		h.metrics.scanned(ctx, code)
	}

	receipt := co.Receipt()
	id := h.newID()
	h.metrics.priced(ctx, receipt)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("checkout.id", id),
		attribute.Int("checkout.lines", len(receipt.Lines)),
		attribute.String("checkout.total", receipt.Total.StringFixed(checkout.Precision)),
	)
	lg.Info("Basket priced",
		zap.String("id", id),
		zap.Int("items", len(items)),
		zap.String("total", receipt.Total.StringFixed(checkout.Precision)),
	)

	var e jx.Encoder
	encodeReceipt(&e, id, receipt)
	writeJSON(w, http.StatusOK, &e)
}
