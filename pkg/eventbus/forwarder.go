package eventbus

import (
	"context"
	"fmt"

	"github.com/hsetrack/hseflow/pkg/events"
)

// Listener is the part of the engine the forwarder subscribes to.
type Listener interface {
	On(eventType events.EventType, handler events.Handler) events.Subscription
}

// Forward publishes every event emitted on source, keyed by execution id so that
// a partitioned broker keeps the events of one execution in order.
func Forward(source Listener, publisher EventPublisher) events.Subscription {
	return source.On(events.AllEvents, func(ctx context.Context, event events.ExecutionEvent) error {
		key := ""
		if event.Execution != nil {
			key = event.Execution.ID
		}

		err := publisher.Publish(ctx, key, event)
		if err != nil {
			return fmt.Errorf("failed to forward %s event: %w", event.Type, err)
		}

		return nil
	})
}
