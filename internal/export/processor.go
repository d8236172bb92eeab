package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ziaroyale/backend-invoicing/internal/events"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/obs"
	"github.com/ziaroyale/backend-invoicing/internal/render"
)

// RecordSource looks up saved invoices by number.
type RecordSource interface {
	Get(ctx context.Context, invoiceNumber string) (invoice.Record, error)
}

// Processor renders queued invoices to HTML and PDF files on disk.
type Processor struct {
	Invoices RecordSource
	Renderer *render.Renderer
	Dir      string
	Bus      *events.Bus
	Logger   zerolog.Logger
}

// HandleInvoiceExport processes one export task.
func (p *Processor) HandleInvoiceExport(ctx context.Context, task *asynq.Task) error {
	var payload invoiceExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		p.fail("decode", err)
		return fmt.Errorf("export: decode task payload: %w", err)
	}

	record, err := p.Invoices.Get(ctx, payload.InvoiceNumber)
	if err != nil {
		p.fail("lookup", err)
		return fmt.Errorf("export: load invoice %s: %w", payload.InvoiceNumber, err)
	}

	totals := invoice.DocumentTotals(record.Document)
	html, err := p.Renderer.Render(record.Document, totals)
	if err != nil {
		p.fail("render", err)
		return err
	}

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		p.fail("mkdir", err)
		return fmt.Errorf("export: create export dir: %w", err)
	}

	base := safeBaseName(record.InvoiceNumber)
	htmlPath := filepath.Join(p.Dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		p.fail("write_html", err)
		return fmt.Errorf("export: write html: %w", err)
	}

	pdfPath := filepath.Join(p.Dir, base+".pdf")
	if err := writePDF(pdfPath, record, totals); err != nil {
		p.fail("write_pdf", err)
		return err
	}

	if obs.ExportTotal != nil {
		obs.ExportTotal.WithLabelValues("success").Inc()
	}
	if p.Bus != nil {
		if err := p.Bus.Emit(ctx, events.TopicInvoiceExported, record.InvoiceNumber, map[string]any{
			"invoiceNumber": record.InvoiceNumber,
			"html":          htmlPath,
			"pdf":           pdfPath,
		}); err != nil {
			p.Logger.Warn().Err(err).Msg("emit export event")
		}
	}
	p.Logger.Info().
		Str("invoice_number", record.InvoiceNumber).
		Str("html", htmlPath).
		Str("pdf", pdfPath).
		Msg("invoice exported")
	return nil
}

func (p *Processor) fail(stage string, err error) {
	if obs.ExportTotal != nil {
		obs.ExportTotal.WithLabelValues("error").Inc()
	}
	p.Logger.Error().Err(err).Str("stage", stage).Msg("invoice export failed")
}

// safeBaseName keeps export file names to a conservative character set.
func safeBaseName(invoiceNumber string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, invoiceNumber)
	if cleaned == "" || strings.Trim(cleaned, "_") == "" {
		return "invoice"
	}
	return cleaned
}
