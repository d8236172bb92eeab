package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ziaroyale/backend-invoicing/internal/common"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/store"
)

// Item is a catalog entry. Selecting one while editing an invoice copies its
// name and price into a new line item; the catalog keeps no link to invoices.
type Item struct {
	ID          string         `json:"id"`
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description,omitempty"`
	Price       invoice.Amount `json:"price" validate:"gte=0"`
	Stock       invoice.Amount `json:"stock"`
	SKU         string         `json:"sku,omitempty"`
	Category    string         `json:"category,omitempty"`
}

// Service provides CRUD over the persisted item collection.
type Service struct {
	Store    store.Store
	Validate *validator.Validate

	mu sync.Mutex
}

// NewService constructs a Service.
func NewService(st store.Store, validate *validator.Validate) (*Service, error) {
	if st == nil {
		return nil, errors.New("inventory: store is required")
	}
	if validate == nil {
		validate = validator.New()
	}
	return &Service{Store: st, Validate: validate}, nil
}

// List returns all catalog items.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.load(ctx)
}

// Get returns the item with the given id.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	items, err := s.load(ctx)
	if err != nil {
		return Item{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, common.NewAppError("ITEM_NOT_FOUND", "inventory item not found", http.StatusNotFound, nil)
}

// Create validates and appends a new item, assigning it a fresh id.
func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item = normalize(item)
	item.ID = uuid.NewString()
	if err := s.Validate.Struct(item); err != nil {
		return Item{}, common.NewAppError("VALIDATION", "item name and price are required", http.StatusBadRequest, err)
	}
	items, err := s.load(ctx)
	if err != nil {
		return Item{}, err
	}
	items = append(items, item)
	if err := s.persist(ctx, items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update replaces the item with the matching id.
func (s *Service) Update(ctx context.Context, id string, item Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item = normalize(item)
	item.ID = id
	if err := s.Validate.Struct(item); err != nil {
		return Item{}, common.NewAppError("VALIDATION", "item name and price are required", http.StatusBadRequest, err)
	}
	items, err := s.load(ctx)
	if err != nil {
		return Item{}, err
	}
	for i := range items {
		if items[i].ID == id {
			items[i] = item
			if err := s.persist(ctx, items); err != nil {
				return Item{}, err
			}
			return item, nil
		}
	}
	return Item{}, common.NewAppError("ITEM_NOT_FOUND", "inventory item not found", http.StatusNotFound, nil)
}

// Delete removes the item with the matching id. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	removed := false
	for _, item := range items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil
	}
	return s.persist(ctx, kept)
}

func normalize(item Item) Item {
	item.Name = strings.TrimSpace(item.Name)
	if item.Price < 0 {
		item.Price = 0
	}
	if item.Stock < 0 {
		item.Stock = 0
	}
	item.Stock = invoice.Amount(math.Trunc(item.Stock.F()))
	return item
}

func (s *Service) load(ctx context.Context) ([]Item, error) {
	raw, err := s.Store.Get(ctx, store.KeyInventory)
	if errors.Is(err, store.ErrNotFound) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: load items: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("inventory: decode items: %w", err)
	}
	return items, nil
}

func (s *Service) persist(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("inventory: encode items: %w", err)
	}
	if err := s.Store.Put(ctx, store.KeyInventory, raw); err != nil {
		return fmt.Errorf("inventory: persist items: %w", err)
	}
	return nil
}
