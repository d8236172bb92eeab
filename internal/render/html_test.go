package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/render"
)

func sampleDocument() invoice.Document {
	return invoice.Document{
		InvoiceNumber: "INV-042",
		Date:          "2026-08-01",
		DueDate:       "2026-08-08",
		SenderName:    "Zia's Royalle",
		SenderDetails: "12 Marina Road\nLagos",
		ClientName:    "Ada Lovelace",
		ClientDetails: "1 Analytical Way",
		Currency:      "₦",
		ThemeColor:    "#1e293b",
		Items: []invoice.LineItem{
			{ID: "1", Description: "Gold Bangle", Quantity: 2, UnitPrice: 25000, DiscountKind: invoice.DiscountFixed},
		},
		Notes: "Thank you for your business.",
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := render.NewRenderer()
	doc := sampleDocument()
	totals := invoice.DocumentTotals(doc)

	first, err := r.Render(doc, totals)
	require.NoError(t, err)
	second, err := r.Render(doc, totals)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRenderContainsCoreFields(t *testing.T) {
	r := render.NewRenderer()
	doc := sampleDocument()
	html, err := r.Render(doc, invoice.DocumentTotals(doc))
	require.NoError(t, err)

	require.Contains(t, html, "INV-042")
	require.Contains(t, html, "Ada Lovelace")
	require.Contains(t, html, "Gold Bangle")
	require.Contains(t, html, "Unpaid")
	// Grouped total with two decimals.
	require.Contains(t, html, "₦50,000.00")
}

func TestRenderKeepsFractionalUnitPrices(t *testing.T) {
	r := render.NewRenderer()
	doc := sampleDocument()
	doc.Items = []invoice.LineItem{
		{ID: "1", Description: "Silver Chain", Quantity: 3, UnitPrice: 1234.5, DiscountKind: invoice.DiscountFixed},
		{ID: "2", Description: "Clasp", Quantity: 1, UnitPrice: 19.99, DiscountKind: invoice.DiscountFixed},
	}
	html, err := r.Render(doc, invoice.DocumentTotals(doc))
	require.NoError(t, err)

	// Unit prices keep their fractional digits without zero padding.
	require.Contains(t, html, "₦1,234.5 each")
	require.Contains(t, html, "₦19.99 each")
	require.NotContains(t, html, "₦1,234 each")
	require.NotContains(t, html, "₦20 each")
	// Whole prices stay unpadded.
	whole := sampleDocument()
	html, err = r.Render(whole, invoice.DocumentTotals(whole))
	require.NoError(t, err)
	require.Contains(t, html, "₦25,000 each")
}

func TestRenderOptionalSections(t *testing.T) {
	r := render.NewRenderer()

	doc := sampleDocument()
	html, err := r.Render(doc, invoice.DocumentTotals(doc))
	require.NoError(t, err)
	require.NotContains(t, html, "Savings")
	require.NotContains(t, html, "Tax (")

	doc.Items[0].Discount = 1000
	doc.TaxRate = 7.5
	doc.Signature = "data:image/png;base64,abc"
	html, err = r.Render(doc, invoice.DocumentTotals(doc))
	require.NoError(t, err)
	require.Contains(t, html, "Savings")
	require.Contains(t, html, "Tax (")
	require.Contains(t, html, "data:image/png;base64,abc")
}

func TestRenderSanitizesThemeColor(t *testing.T) {
	r := render.NewRenderer()
	doc := sampleDocument()
	doc.ThemeColor = "red; } body { display:none"
	html, err := r.Render(doc, invoice.DocumentTotals(doc))
	require.NoError(t, err)
	require.NotContains(t, html, "display:none")
	require.Contains(t, html, "#1e293b")
}

func TestRenderEscapesUserText(t *testing.T) {
	r := render.NewRenderer()
	doc := sampleDocument()
	doc.ClientName = `<script>alert("x")</script>`
	html, err := r.Render(doc, invoice.DocumentTotals(doc))
	require.NoError(t, err)
	require.False(t, strings.Contains(html, "<script>alert"))
}

func TestRenderFallbacksForEmptyDocument(t *testing.T) {
	r := render.NewRenderer()
	doc := invoice.Document{Currency: "₦", ThemeColor: "#1e293b"}
	html, err := r.Render(doc, invoice.DocumentTotals(doc))
	require.NoError(t, err)
	require.Contains(t, html, "DRAFT")
	require.Contains(t, html, "Valued Client")
	require.Contains(t, html, "No address provided")
}
