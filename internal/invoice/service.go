package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ziaroyale/backend-invoicing/internal/common"
	"github.com/ziaroyale/backend-invoicing/internal/events"
	"github.com/ziaroyale/backend-invoicing/internal/obs"
	"github.com/ziaroyale/backend-invoicing/internal/store"
)

// Service owns the draft document, the saved-invoice history, and the cached
// business profile. Mutations are serialized: the application has a single
// active writer, but the HTTP layer does not guarantee it.
type Service struct {
	Store    store.Store
	Defaults Defaults
	Bus      *events.Bus
	Logger   zerolog.Logger
	Now      func() time.Time

	mu sync.Mutex
}

// NewService constructs a Service.
func NewService(st store.Store, defaults Defaults, bus *events.Bus, logger zerolog.Logger) (*Service, error) {
	if st == nil {
		return nil, errors.New("invoice: store is required")
	}
	return &Service{Store: st, Defaults: defaults, Bus: bus, Logger: logger}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Draft returns the in-progress document, creating a default one when none
// has been persisted yet.
func (s *Service) Draft(ctx context.Context) (Document, error) {
	raw, err := s.Store.Get(ctx, store.KeyDraft)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultDocument(s.Defaults, s.now()), nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("invoice: load draft: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("invoice: decode draft: %w", err)
	}
	return Normalize(doc, s.Defaults, s.now()), nil
}

// SaveDraft normalizes and persists the in-progress document.
func (s *Service) SaveDraft(ctx context.Context, doc Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc = Normalize(doc, s.Defaults, s.now())
	if err := s.putJSON(ctx, store.KeyDraft, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// NewDraft replaces the draft with a fresh document: next invoice number from
// history, identity and branding pre-filled from the business profile, and
// the current draft as profile fallback when none has been saved yet.
func (s *Service) NewDraft(ctx context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadHistory(ctx)
	if err != nil {
		return Document{}, err
	}
	profile, err := s.loadProfile(ctx)
	if err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(profile.SenderName) == "" {
		if current, draftErr := s.Draft(ctx); draftErr == nil {
			profile = Profile{
				SenderName:    current.SenderName,
				SenderDetails: current.SenderDetails,
				Currency:      current.Currency,
				ThemeColor:    current.ThemeColor,
				Logo:          current.Logo,
				Signature:     current.Signature,
			}
		}
	}

	doc := DefaultDocument(s.Defaults, s.now())
	doc.InvoiceNumber = NextNumber(history)
	if profile.SenderName != "" {
		doc.SenderName = profile.SenderName
	}
	if profile.SenderDetails != "" {
		doc.SenderDetails = profile.SenderDetails
	}
	if profile.Currency != "" {
		doc.Currency = profile.Currency
	}
	if profile.ThemeColor != "" {
		doc.ThemeColor = profile.ThemeColor
	}
	doc.Logo = profile.Logo
	doc.Signature = profile.Signature

	if err := s.putJSON(ctx, store.KeyDraft, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// AppendDraftItem copies an inventory selection into a new line item on the
// draft. Only the name and price travel; no reference to the catalog is kept.
func (s *Service) AppendDraftItem(ctx context.Context, name string, price float64) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Draft(ctx)
	if err != nil {
		return Document{}, err
	}
	doc.Items = append(doc.Items, LineItem{
		ID:           uuid.NewString(),
		Description:  name,
		Quantity:     1,
		UnitPrice:    Amount(price),
		DiscountKind: DiscountFixed,
	})
	if err := s.putJSON(ctx, store.KeyDraft, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Save computes totals for the document, stamps the save time, and upserts it
// into history by invoice number: replace in place when the number exists,
// otherwise prepend. The business profile is refreshed as a side effect.
func (s *Service) Save(ctx context.Context, doc Document) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc = Normalize(doc, s.Defaults, s.now())
	if strings.TrimSpace(doc.InvoiceNumber) == "" {
		return Record{}, common.NewAppError("INVOICE_NUMBER_REQUIRED", "invoice number is required", http.StatusBadRequest, nil)
	}

	totals := DocumentTotals(doc)
	record := Record{
		Document:    doc,
		SavedAt:     s.now().UTC().Format(time.RFC3339),
		TotalAmount: totals.GrandTotal,
	}

	history, err := s.loadHistory(ctx)
	if err != nil {
		return Record{}, err
	}
	kind := "created"
	replaced := false
	for i := range history {
		if history[i].InvoiceNumber == doc.InvoiceNumber {
			history[i] = record
			replaced = true
			kind = "replaced"
			break
		}
	}
	if !replaced {
		history = append([]Record{record}, history...)
	}
	if err := s.putJSON(ctx, store.KeyHistory, history); err != nil {
		return Record{}, err
	}

	profile := Profile{
		SenderName:    doc.SenderName,
		SenderDetails: doc.SenderDetails,
		Currency:      doc.Currency,
		ThemeColor:    doc.ThemeColor,
		Logo:          doc.Logo,
		Signature:     doc.Signature,
	}
	if err := s.putJSON(ctx, store.KeyProfile, profile); err != nil {
		return Record{}, err
	}

	if obs.InvoiceSavedTotal != nil {
		obs.InvoiceSavedTotal.WithLabelValues(kind).Inc()
	}
	s.emit(ctx, events.TopicInvoiceSaved, doc.InvoiceNumber, map[string]any{
		"invoiceNumber": doc.InvoiceNumber,
		"totalAmount":   record.TotalAmount,
		"status":        totals.Status,
	})
	return record, nil
}

// Delete removes the record matching the invoice number. It requires an
// explicit confirmation flag and is a no-op when the number is unknown.
func (s *Service) Delete(ctx context.Context, invoiceNumber string, confirmed bool) error {
	if !confirmed {
		return common.NewAppError("CONFIRMATION_REQUIRED", "deleting an invoice requires confirmation", http.StatusConflict, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadHistory(ctx)
	if err != nil {
		return err
	}
	kept := history[:0]
	removed := false
	for _, record := range history {
		if record.InvoiceNumber == invoiceNumber {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	if !removed {
		return nil
	}
	if err := s.putJSON(ctx, store.KeyHistory, kept); err != nil {
		return err
	}
	if obs.InvoiceDeletedTotal != nil {
		obs.InvoiceDeletedTotal.Inc()
	}
	s.emit(ctx, events.TopicInvoiceDeleted, invoiceNumber, map[string]any{"invoiceNumber": invoiceNumber})
	return nil
}

// ListFilter narrows History results.
type ListFilter struct {
	Query  string
	Status string
}

// List returns saved invoices, newest first, filtered by free-text match on
// client name or invoice number and by payment status.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	status := strings.ToLower(strings.TrimSpace(filter.Status))

	result := make([]Record, 0, len(history))
	for _, record := range history {
		if query != "" &&
			!strings.Contains(strings.ToLower(record.ClientName), query) &&
			!strings.Contains(strings.ToLower(record.InvoiceNumber), query) {
			continue
		}
		switch status {
		case "paid":
			if !record.Paid() {
				continue
			}
		case "unpaid":
			if record.Paid() {
				continue
			}
		}
		result = append(result, record)
	}
	return result, nil
}

// Get returns the saved invoice with the given number.
func (s *Service) Get(ctx context.Context, invoiceNumber string) (Record, error) {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, record := range history {
		if record.InvoiceNumber == invoiceNumber {
			return record, nil
		}
	}
	return Record{}, common.NewAppError("INVOICE_NOT_FOUND", "invoice not found", http.StatusNotFound, nil)
}

// History returns all saved invoices, newest first.
func (s *Service) History(ctx context.Context) ([]Record, error) {
	return s.loadHistory(ctx)
}

// NextInvoiceNumber previews the number the next draft would receive.
func (s *Service) NextInvoiceNumber(ctx context.Context) (string, error) {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return "", err
	}
	return NextNumber(history), nil
}

// Profile returns the cached business profile, empty when never saved.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	return s.loadProfile(ctx)
}

func (s *Service) loadHistory(ctx context.Context) ([]Record, error) {
	raw, err := s.Store.Get(ctx, store.KeyHistory)
	if errors.Is(err, store.ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invoice: load history: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("invoice: decode history: %w", err)
	}
	return records, nil
}

func (s *Service) loadProfile(ctx context.Context) (Profile, error) {
	raw, err := s.Store.Get(ctx, store.KeyProfile)
	if errors.Is(err, store.ErrNotFound) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("invoice: load profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return Profile{}, fmt.Errorf("invoice: decode profile: %w", err)
	}
	return profile, nil
}

func (s *Service) putJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("invoice: encode %s: %w", key, err)
	}
	if err := s.Store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("invoice: persist %s: %w", key, err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, topic, key string, payload any) {
	if s.Bus == nil {
		return
	}
	if err := s.Bus.Emit(ctx, topic, key, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Msg("emit event")
	}
}
