package engine

import (
	"log/slog"

	"github.com/hsetrack/hseflow/pkg/persistence"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/registry"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
)

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the base logger. It is ignored when logging is disabled in the config.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces the wall clock, typically with a clockwork fake in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithRegistry sets the executor factories used to build executors.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithRepository enables write-through persistence of execution snapshots.
func WithRepository(repo persistence.ExecutionRepository) Option {
	return func(e *Engine) {
		e.repo = repo
	}
}

// WithTracer sets the tracer used for execution spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithNotifier sets the sender used by notification executors and secondary notifications.
func WithNotifier(notifier protocol.NotificationSender) Option {
	return func(e *Engine) {
		e.notifier = notifier
	}
}

// WithExecutor overrides the executor for executor.Type().
func WithExecutor(executor protocol.Executor) Option {
	return func(e *Engine) {
		e.overrides = append(e.overrides, executor)
	}
}
