package invoice_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ziaroyale/backend-invoicing/internal/common"
	"github.com/ziaroyale/backend-invoicing/internal/events"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/store"
)

var testDefaults = invoice.Defaults{
	Currency:   "₦",
	ThemeColor: "#1e293b",
	SenderName: "Zia's Royalle",
	Notes:      "Thank you for your business.",
}

func newTestService(t *testing.T) *invoice.Service {
	t.Helper()
	svc, err := invoice.NewService(store.NewMemory(), testDefaults, nil, zerolog.Nop())
	require.NoError(t, err)
	svc.Now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func doc(number, client string, price float64) invoice.Document {
	return invoice.Document{
		InvoiceNumber: number,
		ClientName:    client,
		Items: []invoice.LineItem{
			{ID: "1", Description: "Service", Quantity: 1, UnitPrice: invoice.Amount(price), DiscountKind: invoice.DiscountFixed},
		},
	}
}

func TestSaveUpsertsByNumber(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, doc("INV-001", "Ada", 100))
	require.NoError(t, err)
	_, err = svc.Save(ctx, doc("INV-002", "Grace", 200))
	require.NoError(t, err)

	// Saving INV-001 again must replace in place, not duplicate.
	_, err = svc.Save(ctx, doc("INV-001", "Ada", 150))
	require.NoError(t, err)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "INV-002", history[0].InvoiceNumber)
	require.Equal(t, "INV-001", history[1].InvoiceNumber)
	require.Equal(t, 150.0, history[1].TotalAmount)
}

func TestSaveNewRecordsPrepend(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, n := range []string{"INV-001", "INV-002", "INV-003"} {
		_, err := svc.Save(ctx, doc(n, "Client", 50))
		require.NoError(t, err)
	}
	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Equal(t, "INV-003", history[0].InvoiceNumber)
	require.Equal(t, "INV-001", history[2].InvoiceNumber)
}

func TestSaveRequiresInvoiceNumber(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Save(context.Background(), doc("   ", "Ada", 100))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestSaveRefreshesProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d := doc("INV-001", "Ada", 100)
	d.SenderName = "Studio North"
	d.SenderDetails = "12 Marina Road"
	d.ThemeColor = "#0f766e"
	_, err := svc.Save(ctx, d)
	require.NoError(t, err)

	profile, err := svc.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Studio North", profile.SenderName)
	require.Equal(t, "12 Marina Road", profile.SenderDetails)
	require.Equal(t, "#0f766e", profile.ThemeColor)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Save(ctx, doc("INV-001", "Ada", 100))
	require.NoError(t, err)

	err = svc.Delete(ctx, "INV-001", false)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	require.Equal(t, "CONFIRMATION_REQUIRED", appErr.Code)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	require.NoError(t, svc.Delete(ctx, "INV-001", true))
	history, err = svc.History(ctx)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestDeleteUnknownNumberIsNoOp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Save(ctx, doc("INV-001", "Ada", 100))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "INV-404", true))
	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestListFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	paid := doc("INV-001", "Ada Lovelace", 100)
	paid.AmountPaid = 100
	_, err := svc.Save(ctx, paid)
	require.NoError(t, err)
	_, err = svc.Save(ctx, doc("INV-002", "Grace Hopper", 200))
	require.NoError(t, err)

	byName, err := svc.List(ctx, invoice.ListFilter{Query: "grace"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "INV-002", byName[0].InvoiceNumber)

	byNumber, err := svc.List(ctx, invoice.ListFilter{Query: "inv-001"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)

	paidOnly, err := svc.List(ctx, invoice.ListFilter{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, paidOnly, 1)
	require.Equal(t, "INV-001", paidOnly[0].InvoiceNumber)

	unpaidOnly, err := svc.List(ctx, invoice.ListFilter{Status: "unpaid"})
	require.NoError(t, err)
	require.Len(t, unpaidOnly, 1)
	require.Equal(t, "INV-002", unpaidOnly[0].InvoiceNumber)
}

func TestNewDraftPrefillsFromProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved := doc("INV-041", "Ada", 100)
	saved.SenderName = "Studio North"
	saved.Currency = "$"
	saved.Logo = "data:image/png;base64,xyz"
	_, err := svc.Save(ctx, saved)
	require.NoError(t, err)

	draft, err := svc.NewDraft(ctx)
	require.NoError(t, err)
	require.Equal(t, "INV-042", draft.InvoiceNumber)
	require.Equal(t, "Studio North", draft.SenderName)
	require.Equal(t, "$", draft.Currency)
	require.Equal(t, "data:image/png;base64,xyz", draft.Logo)
	require.Empty(t, draft.ClientName)
	require.Len(t, draft.Items, 1)
}

func TestAppendDraftItemCopiesValues(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	draft, err := svc.AppendDraftItem(ctx, "Gold Bangle", 25000)
	require.NoError(t, err)
	last := draft.Items[len(draft.Items)-1]
	require.Equal(t, "Gold Bangle", last.Description)
	require.Equal(t, invoice.Amount(25000), last.UnitPrice)
	require.Equal(t, invoice.Amount(1), last.Quantity)
	require.NotEmpty(t, last.ID)
}

func TestSaveEmitsEvent(t *testing.T) {
	var seen []events.Event
	bus := &events.Bus{Notifiers: []events.Notifier{
		events.NotifierFunc(func(_ context.Context, e events.Event) error {
			seen = append(seen, e)
			return nil
		}),
	}}
	svc, err := invoice.NewService(store.NewMemory(), testDefaults, bus, zerolog.Nop())
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), doc("INV-001", "Ada", 100))
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Equal(t, events.TopicInvoiceSaved, seen[0].Topic)
	require.Equal(t, "INV-001", seen[0].Key)
}
