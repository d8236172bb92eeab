package invoice_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/store"
)

func newTestRouter(t *testing.T) (*chi.Mux, *invoice.Service) {
	t.Helper()
	svc, err := invoice.NewService(store.NewMemory(), testDefaults, nil, zerolog.Nop())
	require.NoError(t, err)
	h := &invoice.Handler{
		Svc: svc,
		Catalog: func(ctx context.Context, id string) (string, float64, error) {
			if id != "item-1" {
				return "", 0, fmt.Errorf("unknown item")
			}
			return "Gold Bangle", 25000, nil
		},
	}
	r := chi.NewRouter()
	r.Get("/draft", h.Draft)
	r.Put("/draft", h.SaveDraft)
	r.Post("/draft/new", h.NewDraft)
	r.Post("/draft/items/from-inventory/{id}", h.AddItemFromInventory)
	r.Get("/invoices", h.List)
	r.Post("/invoices", h.Save)
	r.Get("/invoices/next-number", h.NextNumber)
	r.Get("/invoices/{number}", h.Get)
	r.Delete("/invoices/{number}", h.Delete)
	r.Get("/profile", h.GetProfile)
	return r, svc
}

func decodeData(t *testing.T, body []byte, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestDraftEndpointReturnsDefault(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/draft", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var draft invoice.Document
	decodeData(t, rec.Body.Bytes(), &draft)
	require.Equal(t, "INV-001", draft.InvoiceNumber)
	require.Equal(t, "₦", draft.Currency)
	require.Len(t, draft.Items, 1)
}

func TestSaveEndpointToleratesStringNumbers(t *testing.T) {
	r, svc := newTestRouter(t)
	payload := `{
		"invoiceNumber": "INV-010",
		"clientName": "Ada",
		"items": [{"id":"1","description":"Ring","quantity":"2","price":"100","discount":null,"discountType":"fixed"}],
		"taxRate": "10",
		"amountPaid": 0
	}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code)
	record, err := svc.Get(context.Background(), "INV-010")
	require.NoError(t, err)
	require.Equal(t, 220.0, record.TotalAmount)
}

func TestDeleteEndpointRequiresConfirm(t *testing.T) {
	r, svc := newTestRouter(t)
	_, err := svc.Save(context.Background(), doc("INV-001", "Ada", 100))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/invoices/INV-001", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "CONFIRMATION_REQUIRED")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/invoices/INV-001?confirm=true", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetUnknownInvoiceReturns404(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/INV-404", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "INVOICE_NOT_FOUND")
}

func TestNextNumberEndpoint(t *testing.T) {
	r, svc := newTestRouter(t)
	_, err := svc.Save(context.Background(), doc("INV-007", "Ada", 100))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/next-number", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	decodeData(t, rec.Body.Bytes(), &out)
	require.Equal(t, "INV-008", out["invoiceNumber"])
}

func TestAddItemFromInventoryEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/draft/items/from-inventory/item-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var draft invoice.Document
	decodeData(t, rec.Body.Bytes(), &draft)
	last := draft.Items[len(draft.Items)-1]
	require.Equal(t, "Gold Bangle", last.Description)
	require.Equal(t, invoice.Amount(25000), last.UnitPrice)
}

func TestSaveDraftRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)
	payload := `{"invoiceNumber":"INV-002","clientName":"Grace","items":[]}`

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/draft", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/draft", nil))
	var draft invoice.Document
	decodeData(t, rec.Body.Bytes(), &draft)
	require.Equal(t, "Grace", draft.ClientName)
	require.Equal(t, "INV-002", draft.InvoiceNumber)
}
