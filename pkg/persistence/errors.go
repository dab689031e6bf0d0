package persistence

import (
	"errors"
	"fmt"
	"strings"
)

// Standard persistence errors shared by every backend.
var (
	// ErrExecutionNotFound indicates no record exists for the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrInvalidExecutionID indicates an identifier that cannot be used as a storage key.
	ErrInvalidExecutionID = errors.New("invalid execution ID")
)

// ExecutionError wraps a storage failure with the operation and record it concerns.
type ExecutionError struct {
	Op          string // Save, Get, Delete, List
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	if e.ExecutionID == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for execution errors.
func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{
		Op:          op,
		ExecutionID: executionID,
		Err:         err,
	}
}

// IsExecutionNotFound checks if an error indicates a record was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// CheckExecutionID rejects identifiers that are empty or unsafe as file names and keys.
func CheckExecutionID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidExecutionID)
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\:") {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidExecutionID, id)
	}

	return nil
}
