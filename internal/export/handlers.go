package export

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziaroyale/backend-invoicing/internal/common"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
)

// Handler accepts export requests over HTTP.
type Handler struct {
	Invoices *invoice.Service
	Enq      *Enqueuer
}

// Export queues an asynchronous export of the saved invoice. The invoice must
// exist at enqueue time; the worker renders and writes the artifacts.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	record, err := h.Invoices.Get(r.Context(), number)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	taskID, err := h.Enq.Enqueue(r.Context(), record.InvoiceNumber)
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "export queue is unavailable", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{
		"taskId":        taskID,
		"invoiceNumber": record.InvoiceNumber,
	}})
}
