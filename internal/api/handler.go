// Package api exposes the pricing engine over HTTP. Every request prices a
// basket in its own checkout against one shared, read-only rule set.
package api

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/checkout-engine/internal/domain/rules"
)

const maxBodySize = 1 << 20

// Handler serves the pricing endpoints.
type Handler struct {
	rules   *rules.RuleSet
	metrics *Metrics
	newID   func() string
}

// NewHandler constructs a Handler over rs. A nil m disables metrics.
func NewHandler(rs *rules.RuleSet, m *Metrics) *Handler {
	return &Handler{
		rules:   rs,
		metrics: m,
		newID:   uuid.NewString,
	}
}

// Routes registers the API endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	return mux
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(body) > maxBodySize {
		return nil, errors.New("request body too large")
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes {"code":status,"message":msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, status, &e)
}
