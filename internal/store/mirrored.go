package store

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Mirrored keeps the in-memory store as the source of truth and mirrors every
// write to a durable store. Mirror failures are logged and counted but never
// surfaced to the caller: the session degrades to memory-only instead of
// failing the operation.
type Mirrored struct {
	Primary  *Memory
	Durable  Store
	Logger   zerolog.Logger
	Failures prometheus.Counter
}

// NewMirrored hydrates the in-memory primary from the durable store and
// returns the combined store. Keys that fail to load start empty.
func NewMirrored(ctx context.Context, durable Store, logger zerolog.Logger, failures prometheus.Counter) *Mirrored {
	m := &Mirrored{Primary: NewMemory(), Durable: durable, Logger: logger, Failures: failures}
	for _, key := range []string{KeyDraft, KeyHistory, KeyInventory, KeyProfile} {
		value, err := durable.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("hydrate document")
			continue
		}
		_ = m.Primary.Put(ctx, key, value)
	}
	return m
}

// Get reads from the in-memory primary.
func (m *Mirrored) Get(ctx context.Context, key string) ([]byte, error) {
	return m.Primary.Get(ctx, key)
}

// Put writes to memory and mirrors to the durable store.
func (m *Mirrored) Put(ctx context.Context, key string, value []byte) error {
	if err := m.Primary.Put(ctx, key, value); err != nil {
		return err
	}
	if err := m.Durable.Put(ctx, key, value); err != nil {
		m.recordFailure(err, key)
	}
	return nil
}

// Delete removes from memory and mirrors to the durable store.
func (m *Mirrored) Delete(ctx context.Context, key string) error {
	if err := m.Primary.Delete(ctx, key); err != nil {
		return err
	}
	if err := m.Durable.Delete(ctx, key); err != nil {
		m.recordFailure(err, key)
	}
	return nil
}

func (m *Mirrored) recordFailure(err error, key string) {
	m.Logger.Error().Err(err).Str("key", key).Msg("mirror write failed; continuing in memory")
	if m.Failures != nil {
		m.Failures.Inc()
	}
}
