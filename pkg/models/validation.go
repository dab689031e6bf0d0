package models

import (
	"errors"
	"strings"
)

// WorkflowValidation is the outcome of a pre-flight check. Errors block execution, warnings do not.
type WorkflowValidation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewValidation returns an empty, valid result.
func NewValidation() WorkflowValidation {
	return WorkflowValidation{IsValid: true, Errors: []string{}, Warnings: []string{}}
}

// InvalidValidation returns a failed result carrying the given errors.
func InvalidValidation(errs ...string) WorkflowValidation {
	v := NewValidation()
	for _, e := range errs {
		v.AddError(e)
	}

	return v
}

// AddError records a blocking problem.
func (v *WorkflowValidation) AddError(msg string) {
	v.Errors = append(v.Errors, msg)
	v.IsValid = false
}

// AddWarning records a non-blocking problem.
func (v *WorkflowValidation) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// Merge folds other into v.
func (v *WorkflowValidation) Merge(other WorkflowValidation) {
	for _, e := range other.Errors {
		v.AddError(e)
	}

	v.Warnings = append(v.Warnings, other.Warnings...)
}

// Err returns nil for a valid result, otherwise an error joining every message.
func (v WorkflowValidation) Err() error {
	if v.IsValid {
		return nil
	}

	return errors.New("Validation failed: " + strings.Join(v.Errors, ", ")) //nolint:staticcheck // user-facing message
}
