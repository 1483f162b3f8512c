package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got []string
	unsub := bus.Subscribe(EventSessionProcessed, func(e Event) {
		got = append(got, e.Type)
	})
	defer unsub()

	bus.Publish(Event{Type: EventSessionProcessed})
	bus.Publish(Event{Type: "other.event"})

	require.Len(t, got, 1)
	assert.Equal(t, EventSessionProcessed, got[0])
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())

	calls := 0
	unsub := bus.Subscribe(EventSessionProcessed, func(Event) { calls++ })

	bus.Publish(Event{Type: EventSessionProcessed})
	unsub()
	unsub() // second call is a no-op
	bus.Publish(Event{Type: EventSessionProcessed})

	assert.Equal(t, 1, calls)
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewBus(zap.NewNop())

	bus.Subscribe(EventSessionProcessed, func(Event) { panic("boom") })
	delivered := false
	bus.Subscribe(EventSessionProcessed, func(Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(Event{Type: EventSessionProcessed})
	})
	assert.True(t, delivered)
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(nil)
	require.NotPanics(t, func() {
		bus.Publish(Event{Type: "nobody.listens"})
	})
}
