package invoice

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziaroyale/backend-invoicing/internal/common"
)

// CatalogLookup resolves an inventory item id to the name and unit price that
// get copied onto the draft. Wired from the inventory service at startup.
type CatalogLookup func(ctx context.Context, id string) (name string, price float64, err error)

// Handler exposes the draft and invoice-history endpoints.
type Handler struct {
	Svc     *Service
	Catalog CatalogLookup
}

// Draft returns the in-progress document.
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Svc.Draft(r.Context())
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

// SaveDraft persists the in-progress document.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var doc Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid invoice payload", nil)
		return
	}
	saved, err := h.Svc.SaveDraft(r.Context(), doc)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": saved})
}

// NewDraft discards the current draft and starts a fresh one.
func (h *Handler) NewDraft(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Svc.NewDraft(r.Context())
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": doc})
}

// AddItemFromInventory copies a catalog item onto the draft as a new line.
func (h *Handler) AddItemFromInventory(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "CATALOG_NOT_CONFIGURED", "inventory lookup not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	name, price, err := h.Catalog(r.Context(), id)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	doc, err := h.Svc.AppendDraftItem(r.Context(), name, price)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

// Save finalizes the posted document into history.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var doc Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid invoice payload", nil)
		return
	}
	record, err := h.Svc.Save(r.Context(), doc)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": record})
}

// List returns saved invoices, filtered by q and status query params.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
	}
	records, err := h.Svc.List(r.Context(), filter)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": records})
}

// Get returns a single saved invoice by number.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	record, err := h.Svc.Get(r.Context(), number)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": record})
}

// Delete removes a saved invoice. Requires confirm=true.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := h.Svc.Delete(r.Context(), number, confirmed); err != nil {
		common.JSONAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NextNumber previews the invoice number the next draft would receive.
func (h *Handler) NextNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.Svc.NextInvoiceNumber(r.Context())
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"invoiceNumber": number}})
}

// GetProfile returns the cached business profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.Profile(r.Context())
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}
