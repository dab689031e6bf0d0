package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hsetrack/hseflow/pkg/cmd"
	"github.com/hsetrack/hseflow/pkg/config"
	"github.com/hsetrack/hseflow/pkg/engine"
	"github.com/hsetrack/hseflow/pkg/eventbus"
	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/otelhelper"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

const (
	defaultPort            = 9091
	defaultShutdownTimeout = 30 * time.Second
)

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the execution engine and its HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the engine YAML configuration (defaults apply when empty)",
				Sources: cli.EnvVars("HSEFLOW_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Execution repository URL (memory://, file://, postgres://, redis://, badger://)",
				Value:   "memory://",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Forward execution events to a broker (gochannel, kafka); disabled when empty",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing executor plugins",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "cleanup-schedule",
				Usage:   "Cron expression for purging old terminal executions; disabled when empty",
				Value:   "@daily",
				Sources: cli.EnvVars("CLEANUP_SCHEDULE"),
			},
			&cli.IntFlag{
				Name:    "cleanup-days",
				Usage:   "Age in days after which terminal executions are purged",
				Value:   30,
				Sources: cli.EnvVars("CLEANUP_DAYS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export execution spans over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("hseflow")

			return serve(ctx, logger, command)
		},
	}
}

func serve(ctx context.Context, logger *slog.Logger, command *cli.Command) error {
	logger.InfoContext(ctx, "Initializing HSE Flow")

	cfg, err := config.LoadOrDefault(command.String("config"))
	if err != nil {
		return err
	}

	registry, err := cmd.NewRegistry(logger, command.String("plugins-path"))
	if err != nil {
		return err
	}

	repo, err := cmd.NewRepository(ctx, logger, command.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to open execution repository: %w", err)
	}

	defer func() {
		if err := repo.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close execution repository", "error", err)
		}
	}()

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithRegistry(registry),
		engine.WithRepository(repo),
	}

	if command.Bool("tracing") {
		tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "hseflow")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()

		opts = append(opts, engine.WithTracer(tracer))
	}

	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return err
	}

	if provider := command.String("event-bus"); provider != "" {
		bus, err := cmd.NewEventBus(provider, logger)
		if err != nil {
			return err
		}

		defer func() {
			if err := bus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()

		eventbus.Forward(eng, bus)
		logger.InfoContext(ctx, "Forwarding execution events", "event_bus", provider)
	}

	restored, err := eng.Restore(ctx)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Execution history restored", "count", restored)

	err = eng.Start(ctx)
	if err != nil {
		return err
	}

	if schedule := command.String("cleanup-schedule"); schedule != "" {
		scheduler := cron.New()
		days := int(command.Int("cleanup-days"))

		_, err = scheduler.AddFunc(schedule, func() {
			eng.Cleanup(days)
		})
		if err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
		}

		scheduler.Start()
		defer scheduler.Stop()
	}

	api := NewAPI(logger, eng, registry)
	port := int(command.Int("port"))
	served := make(chan error, 1)

	go func() {
		logger.InfoContext(ctx, "API listening", "port", port)
		served <- api.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error

	select {
	case sig := <-sigChan:
		logger.InfoContext(ctx, "Shutting down HSE Flow", "signal", sig.String())
	case serveErr = <-served:
		logger.ErrorContext(ctx, "API server stopped", "error", serveErr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
	defer cancel()

	return errors.Join(serveErr, api.Shutdown(shutdownCtx), eng.Shutdown(shutdownCtx))
}
