package store

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

type flakyStore struct {
	*Memory
	failPuts bool
}

func (f *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	if f.failPuts {
		return errors.New("connection refused")
	}
	return f.Memory.Put(ctx, key, value)
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, KeyDraft); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Put(ctx, KeyDraft, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := m.Get(ctx, KeyDraft)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("got %s", got)
	}
	if err := m.Delete(ctx, KeyDraft); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, KeyDraft); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.Put(ctx, KeyDraft, []byte("abc"))
	got, _ := m.Get(ctx, KeyDraft)
	got[0] = 'X'
	again, _ := m.Get(ctx, KeyDraft)
	if string(again) != "abc" {
		t.Fatalf("stored value mutated: %s", again)
	}
}

func TestMirroredHydratesFromDurable(t *testing.T) {
	ctx := context.Background()
	durable := NewMemory()
	_ = durable.Put(ctx, KeyHistory, []byte(`[{"invoiceNumber":"INV-001"}]`))

	m := NewMirrored(ctx, durable, zerolog.Nop(), nil)
	got, err := m.Get(ctx, KeyHistory)
	if err != nil {
		t.Fatalf("get after hydrate: %v", err)
	}
	if string(got) != `[{"invoiceNumber":"INV-001"}]` {
		t.Fatalf("hydrated value = %s", got)
	}
}

func TestMirroredDegradesToMemoryOnMirrorFailure(t *testing.T) {
	ctx := context.Background()
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mirror_failures"})
	durable := &flakyStore{Memory: NewMemory(), failPuts: true}

	m := NewMirrored(ctx, durable, zerolog.Nop(), failures)
	if err := m.Put(ctx, KeyDraft, []byte(`{}`)); err != nil {
		t.Fatalf("put should succeed despite mirror failure: %v", err)
	}
	got, err := m.Get(ctx, KeyDraft)
	if err != nil || string(got) != `{}` {
		t.Fatalf("memory read after degraded put: %s, %v", got, err)
	}
	if v := testutil.ToFloat64(failures); v != 1 {
		t.Fatalf("failure counter = %v, want 1", v)
	}
}

func TestMirroredWritesReachDurable(t *testing.T) {
	ctx := context.Background()
	durable := NewMemory()
	m := NewMirrored(ctx, durable, zerolog.Nop(), nil)

	if err := m.Put(ctx, KeyInventory, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := durable.Get(ctx, KeyInventory)
	if err != nil || string(got) != `[]` {
		t.Fatalf("durable copy = %s, %v", got, err)
	}
}
