package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hsetrack/hseflow/pkg/events"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/scheduler"
)

const interruptedMessage = "interrupted by restart"

// Start launches the periodic sweep that starts due SCHEDULED executions.
// It returns immediately; the sweep stops with ctx or Shutdown.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineShutdown
	}

	if e.sweeping != nil {
		return nil
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	ticker := e.clock.NewTicker(e.cfg.SweepInterval)
	done := make(chan struct{})

	e.sweeping = cancel
	e.swept = done

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.Chan():
				e.Sweep(sweepCtx)
			}
		}
	}()

	e.logger.Info("Scheduler sweep started", "interval", e.cfg.SweepInterval, "batch_size", e.cfg.BatchSize)

	return nil
}

// Sweep starts up to BatchSize SCHEDULED executions whose time has come, earliest
// first, while concurrency slots are free. It returns the number started.
func (e *Engine) Sweep(ctx context.Context) int {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return 0
	}

	now := e.clock.Now()
	due := make([]*models.ExecutionRecord, 0)

	for _, record := range e.records {
		if record.Status == models.ExecutionStatusScheduled && record.ScheduledAt != nil && !record.ScheduledAt.After(now) {
			due = append(due, record)
		}
	}

	slices.SortFunc(due, func(a, b *models.ExecutionRecord) int {
		if c := a.ScheduledAt.Compare(*b.ScheduledAt); c != 0 {
			return c
		}

		return cmp.Compare(e.order[a.ID], e.order[b.ID])
	})

	started := make([]change, 0, min(len(due), e.cfg.BatchSize))

	for _, record := range due {
		if len(started) == e.cfg.BatchSize || !e.tryAcquire() {
			break
		}

		e.running.Add(1)
		started = append(started, e.startLocked(record))
	}

	e.mu.Unlock()

	if len(started) > 0 {
		e.logger.InfoContext(ctx, "Starting scheduled executions", "count", len(started), "due", len(due))
	}

	for _, c := range started {
		e.publish(context.WithoutCancel(ctx), c)
		go e.execute(c.snapshot)
	}

	return len(started)
}

// Cleanup removes terminal executions created more than olderThanDays days ago
// and returns how many were removed.
func (e *Engine) Cleanup(olderThanDays int) int {
	cutoff := e.clock.Now().Add(-time.Duration(olderThanDays) * 24 * time.Hour)

	e.mu.Lock()

	purged := make([]string, 0)

	for id, record := range e.records {
		if record.IsTerminal() && record.CreatedAt.Before(cutoff) {
			purged = append(purged, id)
			delete(e.records, id)
			delete(e.order, id)
			delete(e.retries, id)
		}
	}

	e.mu.Unlock()

	if e.repo != nil {
		ctx := context.Background()

		for _, id := range purged {
			err := e.repo.Delete(ctx, id)
			if err != nil {
				e.logger.Warn("Failed to delete purged execution", "execution_id", id, "error", err)
			}
		}
	}

	e.logger.Info("Cleaned up executions", "purged", len(purged), "older_than_days", olderThanDays)

	return len(purged)
}

// Shutdown stops the sweep, cancels pending retries and deferred work, clears every
// listener and waits for running executions until ctx expires. Executor calls
// still running at that point are cancelled. Shutdown is idempotent.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return nil
	}

	e.closed = true
	stopSweep, swept := e.sweeping, e.swept
	retries := e.retries
	e.retries = make(map[string]scheduler.CancelFunc)

	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Shutting down engine", "pending_retries", len(retries))

	if stopSweep != nil {
		stopSweep()
		<-swept
	}

	for _, cancel := range retries {
		cancel()
	}

	e.queueCancel()

	timersErr := e.timers.Stop(ctx)

	e.bus.Clear()

	done := make(chan struct{})

	go func() {
		e.running.Wait()
		close(done)
	}()

	var waitErr error

	select {
	case <-done:
	case <-ctx.Done():
		waitErr = fmt.Errorf("timed out waiting for running executions: %w", ctx.Err())
	}

	e.runCancel()

	err := errors.Join(timersErr, waitErr)
	if err != nil {
		e.logger.WarnContext(ctx, "Engine shut down with errors", "error", err)

		return err
	}

	e.logger.InfoContext(ctx, "Engine shut down")

	return nil
}

// Restore loads the executions kept in the repository. Records that were RUNNING,
// RETRYING or VALIDATING when the previous process stopped are marked FAILED, and
// the interrupted runs are retried automatically while retries are left. PENDING
// records are dispatched again and SCHEDULED records wait for the sweep. It returns
// the number of records loaded.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	if e.repo == nil {
		return 0, nil
	}

	records, err := e.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list stored executions: %w", err)
	}

	slices.SortFunc(records, func(a, b *models.ExecutionRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	type retryable struct {
		id      string
		attempt int
	}

	var (
		changes  []change
		launches []launch
		retries  []retryable
		loaded   int
	)

	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return 0, ErrEngineShutdown
	}

	for _, record := range records {
		if _, exists := e.records[record.ID]; exists {
			continue
		}

		e.seq++
		e.records[record.ID] = record
		e.order[record.ID] = e.seq
		loaded++

		switch record.Status {
		case models.ExecutionStatusRunning, models.ExecutionStatusRetrying, models.ExecutionStatusValidating:
			validating := record.Status == models.ExecutionStatusValidating
			now := e.clock.Now()
			record.Status = models.ExecutionStatusFailed
			record.ErrorMessage = interruptedMessage
			record.CompletedAt = &now
			record.UpdatedAt = now
			changes = append(changes, change{eventType: events.ExecutionFailed, snapshot: record.Clone()})

			if !validating && record.CanRetry() {
				retries = append(retries, retryable{id: record.ID, attempt: record.RetryCount})
			}
		case models.ExecutionStatusFailed:
			if record.CanRetry() {
				retries = append(retries, retryable{id: record.ID, attempt: record.RetryCount})
			}
		case models.ExecutionStatusPending:
			started, next := e.dispatchLocked(record)
			changes = append(changes, started...)
			launches = append(launches, next)
		}
	}

	e.mu.Unlock()

	e.publish(ctx, changes...)

	for _, next := range launches {
		e.launch(next)
	}

	for _, r := range retries {
		e.scheduleRetry(r.id, r.attempt)
	}

	e.logger.InfoContext(ctx, "Restored executions", "loaded", loaded, "retries", len(retries))

	return loaded, nil
}
