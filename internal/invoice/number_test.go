package invoice_test

import (
	"testing"

	"github.com/ziaroyale/backend-invoicing/internal/invoice"
)

func rec(number string) invoice.Record {
	return invoice.Record{Document: invoice.Document{InvoiceNumber: number}}
}

func TestNextNumber(t *testing.T) {
	cases := []struct {
		name    string
		history []invoice.Record
		want    string
	}{
		{"empty history", nil, "INV-001"},
		{"simple increment", []invoice.Record{rec("INV-007")}, "INV-008"},
		{"max wins over order", []invoice.Record{rec("INV-002"), rec("INV-015"), rec("INV-009")}, "INV-016"},
		{"foreign prefixes", []invoice.Record{rec("2024-042"), rec("INV-003")}, "INV-2025"},
		{"no digits anywhere", []invoice.Record{rec("DRAFT"), rec("")}, "INV-001"},
		{"beyond three digits", []invoice.Record{rec("INV-999")}, "INV-1000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := invoice.NextNumber(tc.history); got != tc.want {
				t.Fatalf("NextNumber = %q, want %q", got, tc.want)
			}
		})
	}
}
