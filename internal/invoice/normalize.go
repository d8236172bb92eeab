package invoice

import (
	"strings"
	"time"
)

// Defaults supplies fallback values for optional document fields.
type Defaults struct {
	Currency      string
	ThemeColor    string
	SenderName    string
	SenderDetails string
	Notes         string
	Terms         string
}

// Normalize fills defaults and clamps numeric fields in one pass so that
// calculation and rendering always see a fully-populated document. Negative
// quantities, prices, discounts, tax rates, and payments are treated as
// defects and coerced to zero.
func Normalize(doc Document, defaults Defaults, now time.Time) Document {
	if strings.TrimSpace(doc.Currency) == "" {
		doc.Currency = defaults.Currency
	}
	if strings.TrimSpace(doc.ThemeColor) == "" {
		doc.ThemeColor = defaults.ThemeColor
	}
	if strings.TrimSpace(doc.SenderName) == "" {
		doc.SenderName = defaults.SenderName
	}
	if strings.TrimSpace(doc.SenderDetails) == "" {
		doc.SenderDetails = defaults.SenderDetails
	}
	if strings.TrimSpace(doc.Date) == "" {
		doc.Date = now.Format("2006-01-02")
	}
	if doc.Items == nil {
		doc.Items = []LineItem{}
	}
	for i := range doc.Items {
		item := &doc.Items[i]
		if item.Quantity < 0 {
			item.Quantity = 0
		}
		if item.UnitPrice < 0 {
			item.UnitPrice = 0
		}
		if item.Discount < 0 {
			item.Discount = 0
		}
		if item.DiscountKind != DiscountPercentage {
			item.DiscountKind = DiscountFixed
		}
	}
	if doc.TaxRate < 0 {
		doc.TaxRate = 0
	}
	if doc.AmountPaid < 0 {
		doc.AmountPaid = 0
	}
	return doc
}

// DefaultDocument builds a fresh draft with one empty line item.
func DefaultDocument(defaults Defaults, now time.Time) Document {
	return Document{
		InvoiceNumber: "INV-001",
		Date:          now.Format("2006-01-02"),
		DueDate:       now.AddDate(0, 0, 7).Format("2006-01-02"),
		SenderName:    defaults.SenderName,
		SenderDetails: defaults.SenderDetails,
		Items: []LineItem{
			{ID: "1", Quantity: 1, DiscountKind: DiscountFixed},
		},
		Notes:      defaults.Notes,
		Terms:      defaults.Terms,
		Currency:   defaults.Currency,
		ThemeColor: defaults.ThemeColor,
	}
}
