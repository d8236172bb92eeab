package render

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziaroyale/backend-invoicing/internal/common"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
)

// Handler serves rendered invoice documents.
type Handler struct {
	Invoices *invoice.Service
	Renderer *Renderer
}

// Document renders the saved invoice as a standalone HTML page.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	record, err := h.Invoices.Get(r.Context(), number)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	totals := invoice.DocumentTotals(record.Document)
	html, err := h.Renderer.Render(record.Document, totals)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "RENDER_FAILED", "could not render invoice document", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
