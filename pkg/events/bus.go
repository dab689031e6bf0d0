package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives one event. A returned error is logged and otherwise ignored.
type Handler func(ctx context.Context, event ExecutionEvent) error

// Subscription identifies a registered handler so that it can be removed.
type Subscription struct {
	id        uint64
	eventType EventType
}

type listener struct {
	id      uint64
	handler Handler
}

// Bus fans events out to the handlers registered for their type. A failing or
// panicking handler never affects the emitter or the other handlers.
type Bus struct {
	logger *slog.Logger

	mu        sync.RWMutex
	next      uint64
	listeners map[EventType][]listener
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bus{
		logger:    logger,
		listeners: make(map[EventType][]listener),
	}
}

// On registers handler for eventType, or for every event with AllEvents.
func (b *Bus) On(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.listeners[eventType] = append(b.listeners[eventType], listener{id: b.next, handler: handler})

	return Subscription{id: b.next, eventType: eventType}
}

// Off removes the handler registered under sub. It reports whether it was found.
func (b *Bus) Off(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	registered := b.listeners[sub.eventType]
	for i, l := range registered {
		if l.id == sub.id {
			b.listeners[sub.eventType] = append(registered[:i:i], registered[i+1:]...)

			return true
		}
	}

	return false
}

// Emit calls every matching handler synchronously, in registration order,
// type-specific handlers first. Each handler receives its own copy of the record.
func (b *Bus) Emit(ctx context.Context, event ExecutionEvent) {
	b.mu.RLock()
	matching := make([]listener, 0, len(b.listeners[event.Type])+len(b.listeners[AllEvents]))
	matching = append(matching, b.listeners[event.Type]...)
	matching = append(matching, b.listeners[AllEvents]...)
	b.mu.RUnlock()

	for _, l := range matching {
		b.dispatch(ctx, l, event)
	}
}

// Clear removes every handler.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]listener)
}

// Count returns the number of handlers registered for eventType.
func (b *Bus) Count(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.listeners[eventType])
}

func (b *Bus) dispatch(ctx context.Context, l listener, event ExecutionEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "Event handler panicked",
				"event_type", event.Type, "event_id", event.ID, "panic", fmt.Sprint(r))
		}
	}()

	event.Execution = event.Execution.Clone()

	err := l.handler(ctx, event)
	if err != nil {
		b.logger.WarnContext(ctx, "Event handler failed",
			"event_type", event.Type, "event_id", event.ID, "error", err)
	}
}
