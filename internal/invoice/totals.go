package invoice

import "math"

// ItemGross returns quantity times unit price before any discount.
func ItemGross(item LineItem) float64 {
	return item.Quantity.F() * item.UnitPrice.F()
}

// ItemDiscount returns the discount applied to a single line item.
func ItemDiscount(item LineItem) float64 {
	gross := ItemGross(item)
	switch item.DiscountKind {
	case DiscountPercentage:
		return gross * item.Discount.F() / 100
	default:
		return item.Discount.F()
	}
}

// ItemNet returns the post-discount line total, floored at zero.
func ItemNet(item LineItem) float64 {
	return math.Max(0, ItemGross(item)-ItemDiscount(item))
}

// Calculate produces the canonical totals for an ordered item list, a tax
// rate percentage, and the amount already paid.
//
// Subtotal is the pre-discount gross and exists only to display savings; tax
// applies to the post-discount taxable amount. Per-item discounts are clamped
// at the item level before summing, so the reported total discount never
// exceeds the subtotal.
func Calculate(items []LineItem, taxRatePercent, amountPaid float64) Totals {
	var subtotal, taxable float64
	for _, item := range items {
		subtotal += ItemGross(item)
		taxable += ItemNet(item)
	}

	totalDiscount := subtotal - taxable
	if totalDiscount < 0 {
		totalDiscount = 0
	}
	if taxRatePercent < 0 {
		taxRatePercent = 0
	}
	taxAmount := taxable * taxRatePercent / 100
	grandTotal := math.Max(0, taxable+taxAmount)
	balanceDue := math.Max(0, grandTotal-amountPaid)

	status := StatusUnpaid
	if amountPaid > 0 {
		if balanceDue <= 0 {
			status = StatusPaid
		} else {
			status = StatusDeposit
		}
	}

	return Totals{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		TaxableAmount: taxable,
		TaxAmount:     taxAmount,
		GrandTotal:    grandTotal,
		BalanceDue:    balanceDue,
		Status:        status,
	}
}

// DocumentTotals runs the calculation for a document.
func DocumentTotals(doc Document) Totals {
	return Calculate(doc.Items, doc.TaxRate.F(), doc.AmountPaid.F())
}
