package invoice

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a numeric field that tolerates malformed input: JSON numbers,
// numeric strings, null, and garbage all decode without error, with anything
// unparseable coerced to 0. NaN and infinities are coerced to 0 as well so a
// calculation can never propagate them.
type Amount float64

// UnmarshalJSON implements tolerant decoding.
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = 0
		return nil
	}
	raw := string(trimmed)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*a = 0
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		*a = 0
		return nil
	}
	*a = Amount(parsed)
	return nil
}

// F returns the amount as a float64.
func (a Amount) F() float64 { return float64(a) }

// DiscountKind selects how a line item discount is interpreted.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// LineItem is one billable row on an invoice. Items are owned by exactly one
// document; copying from inventory copies values, never references.
type LineItem struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	Quantity     Amount       `json:"quantity"`
	UnitPrice    Amount       `json:"price"`
	Discount     Amount       `json:"discount"`
	DiscountKind DiscountKind `json:"discountType"`
}

// Document is the in-progress invoice being edited. Field names mirror the
// persisted layout of the original on-device records.
type Document struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	Date          string     `json:"date"`
	DueDate       string     `json:"dueDate"`
	SenderName    string     `json:"senderName"`
	SenderDetails string     `json:"senderDetails"`
	ClientName    string     `json:"clientName"`
	ClientDetails string     `json:"clientDetails"`
	Items         []LineItem `json:"items"`
	Notes         string     `json:"notes"`
	Terms         string     `json:"terms"`
	Currency      string     `json:"currency"`
	TaxRate       Amount     `json:"taxRate"`
	AmountPaid    Amount     `json:"amountPaid"`
	ThemeColor    string     `json:"themeColor"`
	Logo          string     `json:"logo"`
	Signature     string     `json:"signature"`
}

// Record is a saved invoice: the document plus its save timestamp and the
// grand total computed at save time.
type Record struct {
	Document
	SavedAt     string  `json:"savedAt"`
	TotalAmount float64 `json:"totalAmount"`
}

// BalanceDue reports the outstanding balance of a saved record, floored at zero.
func (r Record) BalanceDue() float64 {
	return math.Max(0, r.TotalAmount-r.AmountPaid.F())
}

// Paid reports whether the record's balance is settled.
func (r Record) Paid() bool {
	return r.TotalAmount-r.AmountPaid.F() <= 0
}

// Profile caches the last-used sender identity and branding, used to pre-fill
// the next new draft.
type Profile struct {
	SenderName    string `json:"senderName"`
	SenderDetails string `json:"senderDetails"`
	Currency      string `json:"currency"`
	ThemeColor    string `json:"themeColor"`
	Logo          string `json:"logo"`
	Signature     string `json:"signature"`
}

// Status describes how far along payment is.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusDeposit Status = "deposit_received"
	StatusPaid    Status = "paid_in_full"
)

// Label returns the human-readable badge text for the status.
func (s Status) Label() string {
	switch s {
	case StatusPaid:
		return "Paid in Full"
	case StatusDeposit:
		return "Deposit Received"
	default:
		return "Unpaid"
	}
}

// Totals is the deterministic result of the financial calculation.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"totalDiscount"`
	TaxableAmount float64 `json:"taxableAmount"`
	TaxAmount     float64 `json:"taxAmount"`
	GrandTotal    float64 `json:"grandTotal"`
	BalanceDue    float64 `json:"balanceDue"`
	Status        Status  `json:"status"`
}
