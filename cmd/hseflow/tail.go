package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/hsetrack/hseflow/pkg/cmd"
	"github.com/hsetrack/hseflow/pkg/eventbus"
	"github.com/hsetrack/hseflow/pkg/events"
	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/urfave/cli/v3"
)

func NewTailCommand() *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "Print execution events forwarded to the event bus as JSON lines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus to consume (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Only print events of this type (e.g. execution:failed)",
				Value: string(events.AllEvents),
			},
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("tail")

			eventType := events.EventType(command.String("type"))
			if !eventType.IsValid() {
				return fmt.Errorf("unknown event type %q", eventType)
			}

			bus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			err = bus.Handle(eventType, printEvent(os.Stdout))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = bus.Subscribe(ctx)
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}

			logger.InfoContext(ctx, "Tailing execution events", "event_bus", command.String("event-bus"), "type", eventType)

			<-ctx.Done()

			return nil
		},
	}
}

func printEvent(w io.Writer) eventbus.EventHandler {
	encoder := json.NewEncoder(w)

	return func(_ context.Context, event *events.ExecutionEvent) error {
		return encoder.Encode(event)
	}
}
