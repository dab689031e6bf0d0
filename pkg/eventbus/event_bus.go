// Package eventbus forwards execution events to a message broker and consumes them back.
package eventbus

import (
	"context"

	"github.com/hsetrack/hseflow/pkg/events"
)

// Event is anything carrying an execution event type; events.ExecutionEvent is the only one published.
type Event interface {
	GetType() events.EventType
}

// EventPublisher sends execution events to the broker topic.
type EventPublisher interface {
	// Publish sends event keyed by execution id, so a partitioned broker keeps
	// the events of one execution in order.
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber consumes execution events from the broker topic.
type EventSubscriber interface {
	// Handle routes events of eventType to handler. events.AllEvents catches
	// every type without a handler of its own. Register before Subscribe.
	Handle(eventType events.EventType, handler EventHandler) error

	// Subscribe starts consuming in the background until ctx is done or the bus is closed.
	Subscribe(ctx context.Context) error
}

// EventHandler receives one decoded execution event. A returned error nacks the message.
type EventHandler func(ctx context.Context, event *events.ExecutionEvent) error

// EventBus publishes and consumes execution events over one broker connection.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error

	// GenerateID returns a unique, sortable message id.
	GenerateID() string
}
