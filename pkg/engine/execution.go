package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hsetrack/hseflow/pkg/events"
	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/otelhelper"
	"github.com/hsetrack/hseflow/pkg/protocol"
)

// change is a transition recorded under the lock and published after it is released.
type change struct {
	eventType events.EventType
	snapshot  *models.ExecutionRecord
}

// launch describes how an accepted run continues once its changes are published:
// either the executor starts right away or the run waits for a concurrency slot.
type launch struct {
	snapshot *models.ExecutionRecord
	id       string
	from     models.ExecutionStatus
}

// ExecuteAction registers a new execution, validates it and either schedules it,
// starts it, or queues it behind the concurrency limit. The returned snapshot is
// SCHEDULED, RUNNING, PENDING (queued) or FAILED (validation). Later transitions are
// observable through events or GetExecution.
func (e *Engine) ExecuteAction(ctx context.Context, action models.WorkflowAction, scheduledAt *time.Time) (*models.ExecutionRecord, error) {
	ctx = context.WithoutCancel(ctx)
	now := e.clock.Now()

	record := &models.ExecutionRecord{
		ID:         uuid.NewString(),
		Action:     action.Clone(),
		Status:     models.ExecutionStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: e.cfg.MaxRetries,
	}

	if scheduledAt != nil {
		at := *scheduledAt
		record.ScheduledAt = &at
	}

	result := e.ValidateAction(record.Action)

	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return nil, newExecutionError("execute", record.ID, ErrEngineShutdown)
	}

	e.seq++
	e.records[record.ID] = record
	e.order[record.ID] = e.seq

	changes := []change{{eventType: events.ExecutionCreated, snapshot: record.Clone()}}
	changes = append(changes, e.transitionLocked(record, models.ExecutionStatusValidating, events.ExecutionUpdated))

	record.Warnings = result.Warnings

	var next launch

	switch {
	case !result.IsValid:
		record.ValidationErrors = result.Errors
		record.ErrorMessage = result.Err().Error()
		record.CompletedAt = &now
		changes = append(changes, e.transitionLocked(record, models.ExecutionStatusFailed, events.ExecutionFailed))
	case record.ScheduledAt != nil && record.ScheduledAt.After(now):
		changes = append(changes, e.transitionLocked(record, models.ExecutionStatusScheduled, events.ExecutionUpdated))
	default:
		var started []change

		started, next = e.dispatchLocked(record)
		changes = append(changes, started...)
	}

	snapshot := record.Clone()

	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Execution created",
		"execution_id", snapshot.ID,
		"action_type", snapshot.Action.Type,
		"status", snapshot.Status)

	if !result.IsValid {
		e.logger.InfoContext(ctx, "Action failed validation", "execution_id", snapshot.ID, "errors", result.Errors)
	}

	e.publish(ctx, changes...)
	e.launch(next)

	return snapshot, nil
}

// CancelExecution cancels a PENDING or SCHEDULED execution. It reports whether it did.
func (e *Engine) CancelExecution(id string) bool {
	return e.Cancel(context.Background(), id) == nil
}

// Cancel is CancelExecution with the reason for a refusal.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	e.mu.Lock()

	record, ok := e.records[id]
	if !ok {
		e.mu.Unlock()

		return newExecutionError("cancel", id, ErrExecutionNotFound)
	}

	if !models.CanTransition(record.Status, models.ExecutionStatusCancelled) {
		status := record.Status
		e.mu.Unlock()

		return newExecutionError("cancel", id, fmt.Errorf("%w: status is %s", ErrCannotCancel, status))
	}

	now := e.clock.Now()
	record.CompletedAt = &now
	c := e.transitionLocked(record, models.ExecutionStatusCancelled, events.ExecutionCancelled)

	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Execution cancelled", "execution_id", id)
	e.publish(context.WithoutCancel(ctx), c)

	return nil
}

// RetryExecution re-runs a FAILED execution that has retries left and did not fail
// validation. It reports whether the retry was accepted.
func (e *Engine) RetryExecution(id string) bool {
	return e.Retry(context.Background(), id) == nil
}

// Retry is RetryExecution with the reason for a refusal. A pending automatic retry is cancelled.
func (e *Engine) Retry(ctx context.Context, id string) error {
	return e.retry(context.WithoutCancel(ctx), id, -1)
}

// retry moves a FAILED record to RETRYING and dispatches it. A non-negative attempt
// must match the record's retry count, which discards stale automatic retries.
func (e *Engine) retry(ctx context.Context, id string, attempt int) error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return newExecutionError("retry", id, ErrEngineShutdown)
	}

	record, ok := e.records[id]
	if !ok {
		e.mu.Unlock()

		return newExecutionError("retry", id, ErrExecutionNotFound)
	}

	if !record.CanRetry() || (attempt >= 0 && record.RetryCount != attempt) {
		e.mu.Unlock()

		return newExecutionError("retry", id, fmt.Errorf("%w: status is %s, %d of %d retries used",
			ErrCannotRetry, record.Status, record.RetryCount, record.MaxRetries))
	}

	pending := e.retries[id]
	delete(e.retries, id)

	record.RetryCount++
	record.ErrorMessage = ""
	record.Progress = 0
	record.StartedAt = nil
	record.CompletedAt = nil

	changes := []change{e.transitionLocked(record, models.ExecutionStatusRetrying, events.ExecutionUpdated)}
	started, next := e.dispatchLocked(record)
	changes = append(changes, started...)
	retryCount := record.RetryCount

	e.mu.Unlock()

	if pending != nil {
		pending()
	}

	e.logger.InfoContext(ctx, "Retrying execution", "execution_id", id, "retry_count", retryCount, "automatic", attempt >= 0)
	e.publish(ctx, changes...)
	e.launch(next)

	return nil
}

// scheduleRetry arms the automatic retry of a record that failed on the given attempt.
func (e *Engine) scheduleRetry(id string, attempt int) {
	cancel := e.timers.Schedule("retry "+id, e.cfg.RetryDelay, func(ctx context.Context) error {
		err := e.retry(ctx, id, attempt)
		if errors.Is(err, ErrCannotRetry) || errors.Is(err, ErrExecutionNotFound) {
			return nil
		}

		return err
	})

	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.records[id]
	if !ok || record.Status != models.ExecutionStatusFailed || record.RetryCount != attempt {
		cancel()

		return
	}

	e.retries[id] = cancel
}

// transitionLocked moves record to status and returns the change to publish.
func (e *Engine) transitionLocked(record *models.ExecutionRecord, status models.ExecutionStatus, eventType events.EventType) change {
	if !models.CanTransition(record.Status, status) {
		e.logger.Error("Unexpected execution transition",
			"execution_id", record.ID, "from", record.Status, "to", status)
	}

	record.Status = status
	record.UpdatedAt = e.clock.Now()

	return change{eventType: eventType, snapshot: record.Clone()}
}

// dispatchLocked starts record when a slot is free, otherwise queues it as PENDING
// (or leaves a RETRYING record waiting). The caller must call launch after publishing.
func (e *Engine) dispatchLocked(record *models.ExecutionRecord) ([]change, launch) {
	e.running.Add(1)

	if e.tryAcquire() {
		c := e.startLocked(record)

		return []change{c}, launch{snapshot: c.snapshot}
	}

	var changes []change
	if record.Status == models.ExecutionStatusValidating {
		changes = append(changes, e.transitionLocked(record, models.ExecutionStatusPending, events.ExecutionUpdated))
	}

	return changes, launch{id: record.ID, from: record.Status}
}

func (e *Engine) startLocked(record *models.ExecutionRecord) change {
	now := e.clock.Now()
	record.StartedAt = &now
	record.Progress = 0

	return e.transitionLocked(record, models.ExecutionStatusRunning, events.ExecutionStarted)
}

func (e *Engine) launch(next launch) {
	switch {
	case next.snapshot != nil:
		go e.execute(next.snapshot)
	case next.id != "":
		go e.awaitSlot(next.id, next.from)
	}
}

// awaitSlot blocks until a concurrency slot frees up and starts the record if it
// is still in the status it was queued with.
func (e *Engine) awaitSlot(id string, from models.ExecutionStatus) {
	err := e.slots.Acquire(e.queueCtx, 1)
	if err != nil {
		e.running.Done()
		e.logger.Debug("Stopped waiting for a concurrency slot", "execution_id", id, "error", err)

		return
	}

	e.mu.Lock()

	record, ok := e.records[id]
	if e.closed || !ok || record.Status != from {
		e.mu.Unlock()
		e.releaseSlot()
		e.running.Done()

		return
	}

	c := e.startLocked(record)

	e.mu.Unlock()

	e.publish(context.Background(), c)
	e.execute(c.snapshot)
}

// execute runs the executor for a RUNNING snapshot and records the outcome.
// It owns one concurrency slot and one count on the running group.
func (e *Engine) execute(snapshot *models.ExecutionRecord) {
	defer e.running.Done()

	id := snapshot.ID
	attempt := snapshot.RetryCount
	actionType := snapshot.Action.Type

	logger := e.logger.With("execution_id", id, "action_type", actionType, "attempt", attempt+1)

	ctx := log.WithLogger(e.runCtx, logger)

	if e.cfg.ExecutionTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.cfg.ExecutionTimeout)
		defer cancel()
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "execute "+string(actionType),
		otelhelper.ExecutionAttributes(id, string(actionType), attempt+1)...)
	defer span.End()

	logger.InfoContext(ctx, "Execution started")

	result, err := e.invoke(ctx, snapshot.Action, func(progress int) {
		e.progress(id, attempt, progress)
	})

	e.releaseSlot()

	if err != nil {
		otelhelper.SetError(span, err)
		e.fail(id, attempt, err)

		return
	}

	otelhelper.SetOK(span, string(models.ExecutionStatusCompleted))
	e.complete(id, attempt, result)
}

func (e *Engine) invoke(ctx context.Context, action models.WorkflowAction, onProgress protocol.ProgressFunc) (result any, err error) {
	executor, ok := e.executors[action.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoExecutor, action.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("executor panicked: %v", r)
		}
	}()

	result, err = executor.Execute(ctx, action, onProgress)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && e.cfg.ExecutionTimeout > 0 {
		err = fmt.Errorf("execution timed out after %s: %w", e.cfg.ExecutionTimeout, err)
	}

	return result, err
}

func (e *Engine) progress(id string, attempt, value int) {
	value = max(0, min(100, value))

	e.mu.Lock()

	record, ok := e.records[id]
	if !ok || record.Status != models.ExecutionStatusRunning || record.RetryCount != attempt || value <= record.Progress {
		e.mu.Unlock()

		return
	}

	record.Progress = value
	record.UpdatedAt = e.clock.Now()
	c := change{eventType: events.ExecutionProgress, snapshot: record.Clone()}

	e.mu.Unlock()

	e.publish(context.Background(), c)
}

func (e *Engine) complete(id string, attempt int, result any) {
	e.mu.Lock()

	record, ok := e.records[id]
	if !ok || record.Status != models.ExecutionStatusRunning || record.RetryCount != attempt {
		e.mu.Unlock()

		return
	}

	now := e.clock.Now()
	record.Progress = 100
	record.Result = result
	record.CompletedAt = &now
	c := e.transitionLocked(record, models.ExecutionStatusCompleted, events.ExecutionCompleted)
	duration, _ := record.Duration()

	e.mu.Unlock()

	e.logger.Info("Execution completed", "execution_id", id, "duration", duration)
	e.publish(context.Background(), c)
}

func (e *Engine) fail(id string, attempt int, cause error) {
	e.mu.Lock()

	record, ok := e.records[id]
	if !ok || record.Status != models.ExecutionStatusRunning || record.RetryCount != attempt {
		e.mu.Unlock()

		return
	}

	now := e.clock.Now()
	record.ErrorMessage = cause.Error()
	record.CompletedAt = &now
	c := e.transitionLocked(record, models.ExecutionStatusFailed, events.ExecutionFailed)
	retry := record.CanRetry() && !e.closed

	e.mu.Unlock()

	e.logger.Warn("Execution failed",
		"execution_id", id,
		"error", cause,
		"retry_count", attempt,
		"max_retries", c.snapshot.MaxRetries,
		"will_retry", retry)
	e.publish(context.Background(), c)

	if retry {
		e.scheduleRetry(id, attempt)
	}
}

// publish persists each snapshot and then emits its event.
func (e *Engine) publish(ctx context.Context, changes ...change) {
	for _, c := range changes {
		e.persist(ctx, c.snapshot)
		e.bus.Emit(ctx, events.NewExecutionEvent(c.eventType, c.snapshot, c.snapshot.UpdatedAt))
	}
}

func (e *Engine) persist(ctx context.Context, snapshot *models.ExecutionRecord) {
	if e.repo == nil {
		return
	}

	err := e.repo.Save(ctx, snapshot)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to persist execution", "execution_id", snapshot.ID, "status", snapshot.Status, "error", err)
	}
}

func (e *Engine) tryAcquire() bool {
	return e.slots == nil || e.slots.TryAcquire(1)
}

func (e *Engine) releaseSlot() {
	if e.slots != nil {
		e.slots.Release(1)
	}
}
