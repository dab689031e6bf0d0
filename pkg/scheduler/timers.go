// Package scheduler runs delayed in-memory work on an injectable clock.
//
// Work registered here is fire-and-forget: it is not persisted and is dropped
// when the Timers are stopped or the process exits.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// CancelFunc stops a pending timer. It reports whether the timer was still pending.
type CancelFunc func() bool

// Timers tracks every pending delayed function so that they can be stopped together.
type Timers struct {
	clock  clockwork.Clock
	logger *slog.Logger

	ctx    context.Context //nolint:containedctx // lifetime of the timer set
	cancel context.CancelFunc

	mu      sync.Mutex
	next    uint64
	pending map[uint64]clockwork.Timer
	stopped bool
	running sync.WaitGroup
}

// NewTimers creates an empty timer set.
func NewTimers(clock clockwork.Clock, logger *slog.Logger) *Timers {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Timers{
		clock:   clock,
		logger:  logger.With("module", "timers"),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]clockwork.Timer),
	}
}

// Schedule runs fn after delay unless cancelled or stopped first.
// Errors and panics from fn are logged and never propagated.
func (t *Timers) Schedule(name string, delay time.Duration, fn func(ctx context.Context) error) CancelFunc {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		t.logger.Debug("Timer set stopped, dropping work", "name", name)

		return func() bool { return false }
	}

	t.next++
	id := t.next

	t.pending[id] = t.clock.AfterFunc(delay, func() {
		if !t.claim(id) {
			return
		}

		defer t.running.Done()

		t.run(name, fn)
	})

	return func() bool {
		t.mu.Lock()
		defer t.mu.Unlock()

		timer, ok := t.pending[id]
		if !ok {
			return false
		}

		delete(t.pending, id)
		timer.Stop()

		return true
	}
}

// Defer implements protocol.Deferrer.
func (t *Timers) Defer(name string, delay time.Duration, fn func(ctx context.Context) error) {
	t.Schedule(name, delay, fn)
}

// Pending returns the number of timers that have not fired yet.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.pending)
}

// Stop cancels every pending timer, cancels the context of running work and
// waits for it to return or for ctx to expire. Stop is idempotent.
func (t *Timers) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true

		for id, timer := range t.pending {
			timer.Stop()
			delete(t.pending, id)
		}

		t.cancel()
	}
	t.mu.Unlock()

	done := make(chan struct{})

	go func() {
		t.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for deferred work: %w", ctx.Err())
	}
}

// claim removes the timer from the pending set and registers it as running.
func (t *Timers) claim(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[id]; !ok || t.stopped {
		return false
	}

	delete(t.pending, id)
	t.running.Add(1)

	return true
}

func (t *Timers) run(name string, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Deferred work panicked", "name", name, "panic", r)
		}
	}()

	err := fn(t.ctx)
	if err != nil {
		t.logger.Warn("Deferred work failed", "name", name, "error", err)
	}
}
