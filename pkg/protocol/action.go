// Package protocol defines the interfaces and contracts for pluggable action executors and providers.
package protocol

import (
	"context"
	"errors"
	"time"

	"github.com/hsetrack/hseflow/pkg/models"
)

// ProgressFunc receives the fractional progress (0-100) of a running action.
type ProgressFunc func(progress int)

// Executor validates and executes one action kind against a provider back end.
type Executor interface {
	// Type returns the action type handled by this executor
	Type() models.ActionType

	// Validate checks the action without side effects
	Validate(action models.WorkflowAction, now time.Time) models.WorkflowValidation

	// Execute performs exactly one primary provider call and returns a typed result.
	// onProgress is called with strictly increasing values before Execute returns.
	Execute(ctx context.Context, action models.WorkflowAction, onProgress ProgressFunc) (any, error)
}

// ExecutorFactory creates executors and provides metadata about the action type.
type ExecutorFactory interface {
	// ID returns the action type created by this factory
	ID() models.ActionType

	// Name returns the human-readable name for this action type
	Name() string

	// Description returns a description of what the action does
	Description() string

	// Create builds an executor bound to the configured provider
	Create(cfg models.ProviderConfig, deps Dependencies) (Executor, error)

	// Schema returns the JSON schema of the action payload
	Schema() map[string]any
}

// ErrMissingPayload is returned when an executor receives an action without its variant payload.
var ErrMissingPayload = errors.New("action payload is missing")

// Progress forwards progress updates, dropping values that are not strictly greater
// than the last one reported and clamping to [0,100].
type Progress struct {
	fn   ProgressFunc
	last int
}

// NewProgress wraps fn. A nil fn discards every update.
func NewProgress(fn ProgressFunc) *Progress {
	return &Progress{fn: fn, last: -1}
}

// Report forwards value when it advances the progress.
func (p *Progress) Report(value int) {
	value = max(0, min(100, value))
	if value <= p.last {
		return
	}

	p.last = value

	if p.fn != nil {
		p.fn(value)
	}
}

// Last returns the last forwarded value, or -1 when nothing was reported.
func (p *Progress) Last() int {
	return p.last
}
