package export

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeInvoiceExport identifies invoice export tasks on the queue.
const TypeInvoiceExport = "export:invoice"

type invoiceExportPayload struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

// NewInvoiceExportTask builds an asynq task carrying the invoice number.
func NewInvoiceExportTask(invoiceNumber string) (*asynq.Task, error) {
	payload, err := json.Marshal(invoiceExportPayload{InvoiceNumber: invoiceNumber})
	if err != nil {
		return nil, fmt.Errorf("export: encode task payload: %w", err)
	}
	return asynq.NewTask(TypeInvoiceExport, payload), nil
}
