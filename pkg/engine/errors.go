package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineShutdown is returned once Shutdown has been called.
	ErrEngineShutdown = errors.New("engine is shut down")

	// ErrExecutionNotFound is returned for an unknown execution id.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrCannotCancel is returned when the execution is neither PENDING nor SCHEDULED.
	ErrCannotCancel = errors.New("execution cannot be cancelled")

	// ErrCannotRetry is returned when the execution is not a retryable FAILED record.
	ErrCannotRetry = errors.New("execution cannot be retried")

	// ErrNoExecutor is returned when no executor serves the action type.
	ErrNoExecutor = errors.New("no executor registered for action type")
)

// ExecutionError wraps engine errors with the operation and execution they concern.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newExecutionError(op, id string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: id, Err: err}
}

// IsNotFound reports whether err means the execution does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsConflict reports whether err means the requested transition is not allowed.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCannotCancel) || errors.Is(err, ErrCannotRetry)
}
