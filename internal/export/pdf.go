package export

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/render"
)

// writePDF lays the invoice out as a single-page A4 document. The PDF is a
// plain-text companion to the styled HTML export, not a pixel match of it.
func writePDF(path string, record invoice.Record, totals invoice.Totals) error {
	money := render.NewMoneyFormatter()
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+record.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.Cell(120, 12, "INVOICE")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 12, tr("#"+record.InvoiceNumber), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(totals.Status.Label()), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(95, 5, tr(record.SenderName))
	pdf.Cell(0, 5, "BILL TO")
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "", 9)
	sender := splitLines(record.SenderDetails)
	client := append([]string{record.ClientName}, splitLines(record.ClientDetails)...)
	for i := 0; i < len(sender) || i < len(client); i++ {
		left, right := "", ""
		if i < len(sender) {
			left = sender[i]
		}
		if i < len(client) {
			right = client[i]
		}
		pdf.Cell(95, 4.5, tr(left))
		pdf.Cell(0, 4.5, tr(right))
		pdf.Ln(4.5)
	}
	pdf.Ln(3)
	pdf.Cell(95, 5, tr("Date: "+record.Date))
	if record.DueDate != "" {
		pdf.Cell(0, 5, tr("Due: "+record.DueDate))
	}
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(241, 245, 249)
	pdf.CellFormat(90, 7, "DESCRIPTION", "B", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "QTY", "B", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "PRICE", "B", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "AMOUNT", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range record.Items {
		pdf.CellFormat(90, 6.5, tr(item.Description), "B", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6.5, trimQuantity(item.Quantity.F()), "B", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6.5, tr(money.Unit(record.Currency, item.UnitPrice.F())), "B", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6.5, tr(money.Total(record.Currency, invoice.ItemNet(item))), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totalsRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(150, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tr(value), "", 1, "R", false, 0, "")
	}
	totalsRow("Subtotal", money.Total(record.Currency, totals.Subtotal), false)
	if totals.TotalDiscount > 0 {
		totalsRow("Savings", "-"+money.Total(record.Currency, totals.TotalDiscount), false)
	}
	if totals.TaxAmount > 0 {
		totalsRow(fmt.Sprintf("Tax (%s%%)", trimQuantity(record.TaxRate.F())), money.Total(record.Currency, totals.TaxAmount), false)
	}
	totalsRow("Grand Total", money.Total(record.Currency, totals.GrandTotal), true)
	totalsRow("Balance Due", money.Total(record.Currency, totals.BalanceDue), true)

	if record.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Cell(0, 5, "NOTES")
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4.5, tr(record.Notes), "", "L", false)
	}
	if record.Terms != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Cell(0, 5, "TERMS")
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4.5, tr(record.Terms), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func trimQuantity(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
