package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/obs"
)

const invoiceTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.InvoiceNumber}}</title>
  <style>
    @page { size: A4; margin: 0; }
    body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; padding: 40px; color: #333; width: 794px; margin: 0 auto; background-color: white; font-size: 14px; }
    .accent-bar { height: 8px; background-color: {{.ThemeColor}}; width: 100%; border-radius: 4px 4px 0 0; margin-bottom: 30px; }
    .header { display: flex; justify-content: space-between; margin-bottom: 50px; }
    .logo { max-width: 100px; max-height: 80px; object-fit: contain; margin-bottom: 10px; }
    .logo-placeholder { width: 50px; height: 50px; background-color: {{.ThemeColor}}; border-radius: 8px; color: white; display: flex; align-items: center; justify-content: center; font-size: 24px; font-weight: bold; margin-bottom: 10px; }
    .title { font-size: 42px; font-weight: 900; letter-spacing: -1px; color: {{.ThemeColor}}; margin-bottom: 5px; }
    .invoice-meta { display: flex; align-items: center; gap: 10px; }
    .invoice-number { color: #94a3b8; font-weight: bold; font-size: 16px; }
    .status-badge { background-color: {{.StatusBg}}; color: {{.StatusFg}}; padding: 6px 10px; border-radius: 12px; font-size: 11px; font-weight: 900; text-transform: uppercase; display: inline-block; }
    .sender-details { text-align: right; font-size: 13px; color: #64748b; line-height: 1.5; }
    .sender-name { font-weight: bold; font-size: 16px; color: #1e293b; margin-bottom: 4px; }
    .billing-grid { display: flex; justify-content: space-between; margin-bottom: 40px; }
    .bill-label { font-size: 12px; font-weight: 900; color: #cbd5e1; margin-bottom: 5px; text-transform: uppercase; }
    .client-name { font-size: 18px; font-weight: bold; color: #1e293b; }
    .client-details { font-size: 14px; color: #64748b; margin-top: 2px; }
    .date-val { font-size: 15px; font-weight: 700; color: #1e293b; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
    th { text-align: left; border-bottom: 2px solid #f1f5f9; padding: 12px 8px; color: #94a3b8; font-size: 12px; font-weight: 900; text-transform: uppercase; }
    td { border-bottom: 1px solid #f8fafc; padding: 12px 8px; font-size: 14px; color: #334155; }
    .td-desc { font-weight: 700; }
    .td-each { font-size: 10px; color: #94a3b8; }
    .td-qty { text-align: center; color: #64748b; }
    .td-total { text-align: right; font-weight: bold; color: #1e293b; }
    .total-section { display: flex; flex-direction: column; align-items: flex-end; margin-top: 20px; }
    .total-row { display: flex; justify-content: space-between; width: 300px; padding: 6px 0; }
    .total-label { font-size: 14px; color: #94a3b8; }
    .total-val { font-size: 14px; font-weight: bold; color: #334155; }
    .discount-row .total-label, .discount-row .total-val { color: #ef4444; }
    .grand-total { border-top: 2px solid #f1f5f9; margin-top: 12px; padding-top: 12px; }
    .grand-total .total-label { font-size: 16px; font-weight: bold; color: #1e293b; }
    .grand-total .total-val { font-size: 24px; font-weight: 900; color: #1e293b; }
    .balance-box { background-color: #f8fafc; padding: 16px; border-radius: 12px; width: 300px; margin-top: 25px; }
    .balance-row { display: flex; justify-content: space-between; margin-bottom: 8px; }
    .paid-label { font-size: 12px; font-weight: bold; color: #10b981; text-transform: uppercase; }
    .paid-val { font-size: 13px; font-weight: bold; color: #10b981; }
    .due-row { border-top: 1px solid #e2e8f0; padding-top: 12px; margin-top: 8px; }
    .due-label { font-size: 14px; font-weight: 900; color: #1e293b; text-transform: uppercase; }
    .due-val { font-size: 22px; font-weight: 900; color: {{.ThemeColor}}; }
    .signature { margin-top: 80px; text-align: right; }
    .sig-img { width: 150px; height: 75px; object-fit: contain; }
    .sig-line { border-top: 1px solid #cbd5e1; width: 200px; display: inline-block; margin-top: 10px; }
    .sig-sub { font-size: 11px; color: #94a3b8; font-weight: bold; margin-top: 6px; }
  </style>
</head>
<body>
  <div class="accent-bar"></div>
  <div class="header">
    <div>
      {{if .LogoURI}}<img src="{{.LogoURI}}" class="logo" />{{else}}<div class="logo-placeholder">{{.Initial}}</div>{{end}}
      <div class="title">INVOICE</div>
      <div class="invoice-meta">
        <span class="invoice-number">#{{.InvoiceNumber}}</span>
        <span class="status-badge">{{.StatusLabel}}</span>
      </div>
    </div>
    <div style="text-align: right;">
      <div class="sender-name">{{.SenderName}}</div>
      <div class="sender-details">{{.SenderDetails}}</div>
    </div>
  </div>

  <div class="billing-grid">
    <div>
      <div class="bill-label">BILL TO</div>
      <div class="client-name">{{.ClientName}}</div>
      <div class="client-details">{{.ClientDetails}}</div>
    </div>
    <div style="text-align: right;">
      <div class="bill-label">DATE ISSUED</div>
      <div class="date-val">{{.Date}}</div>
    </div>
  </div>

  <table>
    <thead>
      <tr>
        <th style="width: 50%">DESCRIPTION</th>
        <th style="text-align: center">QTY</th>
        <th style="text-align: right">TOTAL</th>
      </tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr>
        <td>
          <div class="td-desc">{{.Description}}</div>
          <div class="td-each">{{.UnitEach}} each</div>
        </td>
        <td class="td-qty">{{.Quantity}}</td>
        <td class="td-total">{{.Total}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>

  <div class="total-section">
    <div class="total-row">
      <span class="total-label">Subtotal</span>
      <span class="total-val">{{.Subtotal}}</span>
    </div>
    {{if .Savings}}
    <div class="total-row discount-row">
      <span class="total-label">Savings</span>
      <span class="total-val">-{{.Savings}}</span>
    </div>
    {{end}}
    {{if .Tax}}
    <div class="total-row">
      <span class="total-label">Tax ({{.TaxRate}}%)</span>
      <span class="total-val">{{.Tax}}</span>
    </div>
    {{end}}
    <div class="total-row grand-total">
      <span class="total-label">Grand Total</span>
      <span class="total-val">{{.GrandTotal}}</span>
    </div>

    <div class="balance-box">
      <div class="balance-row">
        <span class="paid-label">Payment Received</span>
        <span class="paid-val">{{.AmountPaid}}</span>
      </div>
      <div class="balance-row due-row">
        <span class="due-label">Balance Due</span>
        <span class="due-val">{{.BalanceDue}}</span>
      </div>
    </div>
  </div>

  {{if .SignatureURI}}
  <div class="signature">
    <img src="{{.SignatureURI}}" class="sig-img" /><br>
    <div class="sig-line"></div><br>
    <div class="sig-sub">Authorized Signature</div>
  </div>
  {{end}}
</body>
</html>
`

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

// view is the fully-resolved template input. All money values arrive
// preformatted so the template stays layout-only.
type view struct {
	InvoiceNumber string
	Date          string
	ThemeColor    template.CSS
	StatusLabel   string
	StatusBg      template.CSS
	StatusFg      template.CSS
	Initial       string
	LogoURI       template.URL
	SignatureURI  template.URL
	SenderName    string
	SenderDetails template.HTML
	ClientName    string
	ClientDetails template.HTML
	Rows          []row
	Subtotal      string
	Savings       string
	TaxRate       string
	Tax           string
	GrandTotal    string
	AmountPaid    string
	BalanceDue    string
}

type row struct {
	Description string
	UnitEach    string
	Quantity    string
	Total       string
}

// Renderer turns a document and its totals into a self-contained printable
// HTML page. Rendering is pure: it never mutates the input and the same input
// always yields byte-identical output.
type Renderer struct {
	tpl   *template.Template
	money *MoneyFormatter
}

// NewRenderer parses the embedded template once.
func NewRenderer() *Renderer {
	return &Renderer{
		tpl:   template.Must(template.New("invoice").Parse(invoiceTemplate)),
		money: NewMoneyFormatter(),
	}
}

// Render produces the printable document for a normalized invoice.
func (r *Renderer) Render(doc invoice.Document, totals invoice.Totals) (string, error) {
	start := time.Now()
	v := r.buildView(doc, totals)
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render: execute template: %w", err)
	}
	if obs.RenderDuration != nil {
		obs.RenderDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	return buf.String(), nil
}

func (r *Renderer) buildView(doc invoice.Document, totals invoice.Totals) view {
	symbol := doc.Currency

	v := view{
		InvoiceNumber: orDefault(doc.InvoiceNumber, "DRAFT"),
		Date:          doc.Date,
		ThemeColor:    sanitizeColor(doc.ThemeColor),
		StatusLabel:   totals.Status.Label(),
		Initial:       initial(doc.SenderName),
		SenderName:    doc.SenderName,
		SenderDetails: multiline(doc.SenderDetails),
		ClientName:    orDefault(doc.ClientName, "Valued Client"),
		ClientDetails: multiline(orDefault(doc.ClientDetails, "No address provided")),
		Subtotal:      r.money.Total(symbol, totals.Subtotal),
		GrandTotal:    r.money.Total(symbol, totals.GrandTotal),
		AmountPaid:    r.money.Total(symbol, doc.AmountPaid.F()),
		BalanceDue:    r.money.Total(symbol, totals.BalanceDue),
	}

	v.StatusBg, v.StatusFg = statusColors(totals.Status)

	if isDataImage(doc.Logo) {
		v.LogoURI = template.URL(doc.Logo)
	}
	if isDataImage(doc.Signature) {
		v.SignatureURI = template.URL(doc.Signature)
	}
	if totals.TotalDiscount > 0 {
		v.Savings = r.money.Total(symbol, totals.TotalDiscount)
	}
	if totals.TaxAmount > 0 {
		v.TaxRate = trimFloat(doc.TaxRate.F())
		v.Tax = r.money.Total(symbol, totals.TaxAmount)
	}

	v.Rows = make([]row, 0, len(doc.Items))
	for _, item := range doc.Items {
		v.Rows = append(v.Rows, row{
			Description: item.Description,
			UnitEach:    r.money.Unit(symbol, item.UnitPrice.F()),
			Quantity:    trimFloat(item.Quantity.F()),
			Total:       r.money.Total(symbol, invoice.ItemNet(item)),
		})
	}
	return v
}

func statusColors(s invoice.Status) (bg, fg template.CSS) {
	switch s {
	case invoice.StatusPaid:
		return "#ecfdf5", "#10b981"
	case invoice.StatusDeposit:
		return "#fffbeb", "#d97706"
	default:
		return "#fef2f2", "#ef4444"
	}
}

func sanitizeColor(color string) template.CSS {
	if hexColorPattern.MatchString(strings.TrimSpace(color)) {
		return template.CSS(strings.TrimSpace(color))
	}
	return "#1e293b"
}

// isDataImage admits only inline data URIs; anything else would make the
// output depend on external resources.
func isDataImage(uri string) bool {
	return strings.HasPrefix(uri, "data:image/")
}

func initial(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(trimmed)[0]))
}

func multiline(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
