package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitFansOutToAllNotifiers(t *testing.T) {
	var first, second []Event
	bus := &Bus{Notifiers: []Notifier{
		NotifierFunc(func(_ context.Context, e Event) error {
			first = append(first, e)
			return nil
		}),
		NotifierFunc(func(_ context.Context, e Event) error {
			second = append(second, e)
			return nil
		}),
	}}

	err := bus.Emit(context.Background(), TopicInvoiceSaved, "INV-001", map[string]any{"totalAmount": 100})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.Equal(t, TopicInvoiceSaved, first[0].Topic)
	require.JSONEq(t, `{"totalAmount":100}`, string(first[0].Payload))
}

func TestEmitContinuesPastFailingNotifier(t *testing.T) {
	var reached bool
	bus := &Bus{Notifiers: []Notifier{
		NotifierFunc(func(context.Context, Event) error { return errors.New("boom") }),
		NotifierFunc(func(context.Context, Event) error {
			reached = true
			return nil
		}),
	}}

	err := bus.Emit(context.Background(), TopicInvoiceDeleted, "INV-001", nil)
	require.Error(t, err)
	require.True(t, reached, "later notifiers must still run")
}

func TestEmitRequiresTopic(t *testing.T) {
	bus := &Bus{}
	require.Error(t, bus.Emit(context.Background(), "  ", "k", nil))
}

func TestEmitOnNilBus(t *testing.T) {
	var bus *Bus
	require.NoError(t, bus.Emit(context.Background(), TopicInvoiceExported, "k", nil))
}
