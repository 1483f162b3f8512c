package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventSessionProcessed is published after a learning session has been folded
// into the daily aggregate.
const EventSessionProcessed = "session.processed"

// SessionProcessedPayload accompanies EventSessionProcessed.
type SessionProcessedPayload struct {
	ChildID   string
	SessionID string
	Date      time.Time
}

// Event is an in-process notification.
type Event struct {
	Type       string
	Payload    interface{}
	OccurredAt time.Time
}

// Handler consumes published events. Delivery is synchronous: a slow handler
// blocks the publisher.
type Handler func(Event)

// Bus is an in-process publish/subscribe dispatcher. Delivery is best-effort
// and at-most-once; there is no retry and no persistence. The bus is injected
// into whatever owns the publisher's lifecycle rather than held as a package
// global.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]Handler
	nextID uint64
	logger *zap.Logger
}

// NewBus constructs an event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[string]map[uint64]Handler),
		logger: logger,
	}
}

// Subscribe registers a handler for the event type and returns an unsubscribe
// function. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(eventType string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]Handler)
	}
	b.nextID++
	id := b.nextID
	b.subs[eventType][id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[eventType], id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers the event to every subscriber of its type. A panicking
// handler is logged and skipped so one subscriber cannot take down the
// publisher.
func (b *Bus) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.Type]))
	for _, handler := range b.subs[event.Type] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(event, handler)
	}
}

func (b *Bus) deliver(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", event.Type),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event)
}
