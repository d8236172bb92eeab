package invoice_test

import (
	"encoding/json"
	"testing"

	"github.com/ziaroyale/backend-invoicing/internal/invoice"
)

func TestAmountTolerantDecoding(t *testing.T) {
	payload := []byte(`{
		"quantity": "3",
		"price": 19.99,
		"discount": "not a number",
		"discountType": "fixed"
	}`)
	var li invoice.LineItem
	if err := json.Unmarshal(payload, &li); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if li.Quantity != 3 {
		t.Fatalf("quantity = %v, want 3", li.Quantity)
	}
	if li.UnitPrice != 19.99 {
		t.Fatalf("price = %v, want 19.99", li.UnitPrice)
	}
	if li.Discount != 0 {
		t.Fatalf("garbage discount should coerce to 0, got %v", li.Discount)
	}
}

func TestAmountRejectsNaNAndNull(t *testing.T) {
	var a invoice.Amount
	if err := json.Unmarshal([]byte(`"NaN"`), &a); err != nil || a != 0 {
		t.Fatalf("NaN string: err=%v a=%v", err, a)
	}
	if err := json.Unmarshal([]byte(`null`), &a); err != nil || a != 0 {
		t.Fatalf("null: err=%v a=%v", err, a)
	}
}
