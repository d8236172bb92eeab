package store

import (
	"context"
	"errors"
)

// Well-known document keys matching the persisted state layout.
const (
	KeyDraft     = "invoiceData"
	KeyHistory   = "invoiceHistory"
	KeyInventory = "inventory"
	KeyProfile   = "businessProfile"
)

// ErrNotFound is returned when no document exists under the requested key.
var ErrNotFound = errors.New("store: document not found")

// Store persists one JSON document per key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
