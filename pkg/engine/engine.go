// Package engine runs workflow actions through their lifecycle: validation,
// scheduling, execution, retries and cancellation, emitting an event for every transition.
package engine

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hsetrack/hseflow/pkg/actions/document"
	"github.com/hsetrack/hseflow/pkg/actions/email"
	"github.com/hsetrack/hseflow/pkg/actions/meeting"
	"github.com/hsetrack/hseflow/pkg/actions/notification"
	"github.com/hsetrack/hseflow/pkg/actions/task"
	"github.com/hsetrack/hseflow/pkg/config"
	"github.com/hsetrack/hseflow/pkg/events"
	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/otelhelper"
	"github.com/hsetrack/hseflow/pkg/persistence"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/providers/simulated"
	"github.com/hsetrack/hseflow/pkg/registry"
	"github.com/hsetrack/hseflow/pkg/scheduler"
	"github.com/hsetrack/hseflow/pkg/validation"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const tracerName = "hseflow/engine"

// Engine owns the execution registry. All record mutations happen under mu;
// listeners and the repository are called outside of it.
type Engine struct {
	cfg       models.WorkflowEngineConfig
	logger    *slog.Logger
	clock     clockwork.Clock
	registry  *registry.Registry
	repo      persistence.ExecutionRepository
	tracer    trace.Tracer
	notifier  protocol.NotificationSender
	overrides []protocol.Executor

	bus       *events.Bus
	timers    *scheduler.Timers
	executors map[models.ActionType]protocol.Executor
	slots     *semaphore.Weighted

	// queueCtx ends waits for a concurrency slot; runCtx bounds in-flight executor calls.
	queueCtx    context.Context //nolint:containedctx // engine lifetime
	queueCancel context.CancelFunc
	runCtx      context.Context //nolint:containedctx // engine lifetime
	runCancel   context.CancelFunc

	mu       sync.Mutex
	records  map[string]*models.ExecutionRecord
	order    map[string]uint64
	seq      uint64
	retries  map[string]scheduler.CancelFunc
	closed   bool
	running  sync.WaitGroup
	sweeping context.CancelFunc
	swept    chan struct{}
}

// DefaultRegistry returns a registry holding the built-in executor factories.
func DefaultRegistry(logger *slog.Logger) *registry.Registry {
	r := registry.NewRegistry(logger)
	r.Register(email.NewExecutorFactory())
	r.Register(meeting.NewExecutorFactory())
	r.Register(task.NewExecutorFactory())
	r.Register(document.NewExecutorFactory())
	r.Register(notification.NewExecutorFactory())

	return r
}

// New creates an engine. Zero config fields take their defaults as described by
// config.WithDefaults: MaxRetries and the Enable switches are used as given, so
// build cfg from config.Default unless logging and secondary notifications
// should be off.
func New(cfg models.WorkflowEngineConfig, opts ...Option) (*Engine, error) {
	cfg, err := config.WithDefaults(cfg)
	if err != nil {
		return nil, err
	}

	err = config.Validate(cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		records: make(map[string]*models.ExecutionRecord),
		order:   make(map[string]uint64),
		retries: make(map[string]scheduler.CancelFunc),
	}

	for _, opt := range opts {
		opt(e)
	}

	switch {
	case !cfg.EnableLogging:
		e.logger = log.Discard()
	case e.logger == nil:
		e.logger = log.WithModule("engine")
	default:
		e.logger = e.logger.With("module", "engine")
	}

	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}

	if e.registry == nil {
		e.registry = DefaultRegistry(e.logger)
	}

	if e.tracer == nil {
		e.tracer = otelhelper.NoopTracer(tracerName)
	}

	if e.notifier == nil {
		e.notifier = simulated.NewNotifier(e.logger)
	}

	if cfg.MaxConcurrent > 0 {
		e.slots = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}

	e.bus = events.NewBus(e.logger)
	e.timers = scheduler.NewTimers(e.clock, e.logger)
	e.queueCtx, e.queueCancel = context.WithCancel(context.Background())
	e.runCtx, e.runCancel = context.WithCancel(context.Background())

	deps := protocol.Dependencies{
		Logger:               e.logger,
		Clock:                e.clock,
		Deferrer:             e.timers,
		Notifier:             e.notifier,
		NotificationsEnabled: cfg.EnableNotifications,
	}

	e.executors, err = e.registry.CreateAll(cfg.ExternalAPIs, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create executors: %w", err)
	}

	for _, executor := range e.overrides {
		e.executors[executor.Type()] = executor
	}

	e.logger.Info("Engine created",
		"executors", len(e.executors),
		"max_retries", cfg.MaxRetries,
		"retry_delay", cfg.RetryDelay,
		"max_concurrent", cfg.MaxConcurrent)

	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() models.WorkflowEngineConfig {
	return e.cfg
}

// Registry returns the registry the executors were built from.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// ValidateAction runs the validator of the executor serving the action type. A
// panicking validator yields an invalid result.
func (e *Engine) ValidateAction(action models.WorkflowAction) (result models.WorkflowValidation) {
	executor, ok := e.executors[action.Type]
	if !ok {
		return validation.UnknownType(action.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Validator panicked", "action_type", action.Type, "panic", fmt.Sprint(r))

			result = models.InvalidValidation(fmt.Sprintf("validator panicked: %v", r))
		}
	}()

	return executor.Validate(action, e.clock.Now())
}

// GetExecution returns a snapshot of the execution.
func (e *Engine) GetExecution(id string) (*models.ExecutionRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.records[id]
	if !ok {
		return nil, false
	}

	return record.Clone(), true
}

// GetExecutions returns snapshots matching filter, newest created first.
func (e *Engine) GetExecutions(filter *models.ExecutionFilter) []*models.ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*models.ExecutionRecord, 0, len(e.records))

	for _, record := range e.records {
		if filter.Matches(record) {
			out = append(out, record.Clone())
		}
	}

	slices.SortFunc(out, func(a, b *models.ExecutionRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(e.order[b.ID], e.order[a.ID])
	})

	return out
}

// GetStats summarizes the registry.
func (e *Engine) GetStats() models.ExecutionStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		stats     models.ExecutionStats
		totalTime time.Duration
	)

	for _, record := range e.records {
		stats.Total++

		switch record.Status {
		case models.ExecutionStatusPending, models.ExecutionStatusValidating, models.ExecutionStatusRetrying:
			stats.Pending++
		case models.ExecutionStatusScheduled:
			stats.Scheduled++
		case models.ExecutionStatusRunning:
			stats.Running++
		case models.ExecutionStatusCompleted:
			stats.Completed++

			if d, ok := record.Duration(); ok {
				totalTime += d
			}
		case models.ExecutionStatusFailed:
			stats.Failed++
		case models.ExecutionStatusCancelled:
			stats.Cancelled++
		}
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(stats.Total) * 100
	}

	if stats.Completed > 0 {
		stats.AverageExecutionTime = totalTime / time.Duration(stats.Completed)
	}

	return stats
}

// On subscribes handler to eventType, or to every event with events.AllEvents.
func (e *Engine) On(eventType events.EventType, handler events.Handler) events.Subscription {
	return e.bus.On(eventType, handler)
}

// Off removes a subscription. It reports whether the subscription was active.
func (e *Engine) Off(sub events.Subscription) bool {
	return e.bus.Off(sub)
}

// HealthCheck reports the health of the repository, if any.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}

	return e.repo.HealthCheck(ctx)
}
