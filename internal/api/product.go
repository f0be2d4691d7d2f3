package api

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ListProducts returns the catalog and order discount policy.
func (h *Handler) ListProducts(w http.ResponseWriter, _ *http.Request) {
	var e jx.Encoder
	encodeCatalog(&e, h.rules)
	writeJSON(w, http.StatusOK, &e)
}
