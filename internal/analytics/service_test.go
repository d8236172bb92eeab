package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ziaroyale/backend-invoicing/internal/analytics"
	"github.com/ziaroyale/backend-invoicing/internal/events"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
)

type stubHistory struct {
	calls   int
	records []invoice.Record
}

func (s *stubHistory) History(ctx context.Context) ([]invoice.Record, error) {
	s.calls++
	return s.records, nil
}

func record(number string, total, paid float64) invoice.Record {
	return invoice.Record{
		Document: invoice.Document{
			InvoiceNumber: number,
			Currency:      "₦",
			AmountPaid:    invoice.Amount(paid),
		},
		TotalAmount: total,
	}
}

func TestSummaryAggregates(t *testing.T) {
	history := &stubHistory{records: []invoice.Record{
		record("INV-002", 300, 100),
		record("INV-001", 200, 200),
	}}
	svc := &analytics.Service{History: history}

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalRevenue != 500 {
		t.Fatalf("revenue = %v, want 500", summary.TotalRevenue)
	}
	if summary.TotalReceived != 300 {
		t.Fatalf("received = %v, want 300", summary.TotalReceived)
	}
	if summary.TotalOutstanding != 200 {
		t.Fatalf("outstanding = %v, want 200", summary.TotalOutstanding)
	}
	if summary.Currency != "₦" {
		t.Fatalf("currency = %q, want ₦", summary.Currency)
	}
	if summary.InvoiceCount != 2 {
		t.Fatalf("count = %d, want 2", summary.InvoiceCount)
	}
}

func TestSummaryCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	history := &stubHistory{records: []invoice.Record{record("INV-001", 100, 0)}}
	svc := &analytics.Service{History: history, R: rdb, TTL: time.Minute}

	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if history.calls != 1 {
		t.Fatalf("expected 1 history read, got %d", history.calls)
	}
}

func TestInvalidatorDropsCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	history := &stubHistory{records: []invoice.Record{record("INV-001", 100, 0)}}
	svc := &analytics.Service{History: history, R: rdb, TTL: time.Minute}
	bus := &events.Bus{Notifiers: []events.Notifier{analytics.Invalidator{R: rdb}}}

	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := bus.Emit(context.Background(), events.TopicInvoiceSaved, "INV-002", nil); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("after invalidation: %v", err)
	}
	if history.calls != 2 {
		t.Fatalf("expected cache miss after save event, got %d history reads", history.calls)
	}
}

func TestRecentSeries(t *testing.T) {
	// History is newest first; the series must read oldest to newest and
	// only cover the most recent entries.
	records := []invoice.Record{
		record("INV-008", 800, 0),
		record("INV-007", 700, 0),
		record("INV-006", 600, 0),
		record("INV-005", 500, 0),
		record("INV-004", 400, 0),
		record("INV-003", 300, 0),
		record("INV-002", 200, 0),
	}
	svc := &analytics.Service{History: &stubHistory{records: records}, RecentCount: 6}

	points, err := svc.Recent(context.Background())
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[0].Label != "003" || points[0].Total != 300 {
		t.Fatalf("first point = %+v, want 003/300", points[0])
	}
	if points[5].Label != "008" || points[5].Total != 800 {
		t.Fatalf("last point = %+v, want 008/800", points[5])
	}
}

func TestRecentGroupsCollidingLabels(t *testing.T) {
	records := []invoice.Record{
		record("B-101", 50, 0),
		record("A-101", 20, 0),
	}
	svc := &analytics.Service{History: &stubHistory{records: records}}

	points, err := svc.Recent(context.Background())
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 grouped point, got %d", len(points))
	}
	if points[0].Total != 70 {
		t.Fatalf("grouped total = %v, want 70", points[0].Total)
	}
}
