package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/hsetrack/hseflow/pkg/channels/gochannel"
	"github.com/hsetrack/hseflow/pkg/channels/kafka"
	"github.com/hsetrack/hseflow/pkg/eventbus"
)

const serviceName = "hseflow"

// EventBusProviders lists the accepted --event-bus values.
var EventBusProviders = []string{"gochannel", "kafka"}

// NewEventBus creates the broker-backed bus that execution events are forwarded to.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	wlogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(wlogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-process pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wlogger, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q (supported: %v)", provider, EventBusProviders)
	}
}
