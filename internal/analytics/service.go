package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ziaroyale/backend-invoicing/internal/events"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
)

const (
	summaryCacheKey = "an:summary"
	recentCacheKey  = "an:recent"
)

// HistoryProvider supplies the saved invoices the aggregations run over.
type HistoryProvider interface {
	History(ctx context.Context) ([]invoice.Record, error)
}

// Summary aggregates revenue across the whole history.
type Summary struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalReceived    float64 `json:"totalReceived"`
	TotalOutstanding float64 `json:"totalOutstanding"`
	Currency         string  `json:"currency"`
	InvoiceCount     int     `json:"invoiceCount"`
}

// SeriesPoint is one entry of the recent-performance series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Service derives revenue summaries from invoice history, with optional
// Redis caching in front of the aggregation.
type Service struct {
	History     HistoryProvider
	R           *redis.Client
	TTL         time.Duration
	RecentCount int
}

// Summary computes total revenue, collected, and outstanding figures.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if s == nil || s.History == nil {
		return Summary{}, fmt.Errorf("analytics service not configured")
	}
	if cached, ok := getCached[Summary](ctx, s, summaryCacheKey); ok {
		return cached, nil
	}
	history, err := s.History.History(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{InvoiceCount: len(history)}
	for _, record := range history {
		summary.TotalRevenue += record.TotalAmount
		summary.TotalReceived += record.AmountPaid.F()
	}
	summary.TotalOutstanding = summary.TotalRevenue - summary.TotalReceived
	if len(history) > 0 {
		summary.Currency = history[0].Currency
	}
	s.store(ctx, summaryCacheKey, summary)
	return summary, nil
}

// Recent returns the recent-performance series: the most recent invoices,
// oldest first, grouped by the trailing digits of their numbers. Records that
// collide on a label have their totals summed under one point; this is a
// display simplification, not a ledger operation.
func (s *Service) Recent(ctx context.Context) ([]SeriesPoint, error) {
	if s == nil || s.History == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if cached, ok := getCached[[]SeriesPoint](ctx, s, recentCacheKey); ok {
		return cached, nil
	}
	history, err := s.History.History(ctx)
	if err != nil {
		return nil, err
	}
	count := s.RecentCount
	if count <= 0 {
		count = 6
	}
	if len(history) > count {
		history = history[:count]
	}

	// History is newest first; the series reads chronologically.
	points := make([]SeriesPoint, 0, len(history))
	index := make(map[string]int, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		label := shortLabel(history[i].InvoiceNumber)
		if at, ok := index[label]; ok {
			points[at].Total += history[i].TotalAmount
			continue
		}
		index[label] = len(points)
		points = append(points, SeriesPoint{Label: label, Total: history[i].TotalAmount})
	}
	s.store(ctx, recentCacheKey, points)
	return points, nil
}

func shortLabel(invoiceNumber string) string {
	runes := []rune(invoiceNumber)
	if len(runes) <= 3 {
		return invoiceNumber
	}
	return string(runes[len(runes)-3:])
}

func getCached[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var zero T
	if s.R == nil || s.TTL <= 0 {
		return zero, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return zero, false
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false
	}
	return value, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

// Invalidator drops cached aggregations whenever invoice history changes.
type Invalidator struct {
	R *redis.Client
}

// Notify implements events.Notifier.
func (i Invalidator) Notify(ctx context.Context, event events.Event) error {
	if i.R == nil {
		return nil
	}
	switch event.Topic {
	case events.TopicInvoiceSaved, events.TopicInvoiceDeleted:
		return i.R.Del(ctx, summaryCacheKey, recentCacheKey).Err()
	}
	return nil
}
