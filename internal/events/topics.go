package events

// Topic constants for domain events emitted by the application.
const (
	TopicInvoiceSaved    = "invoice.saved"
	TopicInvoiceDeleted  = "invoice.deleted"
	TopicInvoiceExported = "invoice.exported"
)
