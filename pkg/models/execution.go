package models

import "time"

// ExecutionStatus represents the lifecycle state of an execution.
type ExecutionStatus string

const (
	ExecutionStatusPending    ExecutionStatus = "PENDING"
	ExecutionStatusValidating ExecutionStatus = "VALIDATING"
	ExecutionStatusScheduled  ExecutionStatus = "SCHEDULED"
	ExecutionStatusRunning    ExecutionStatus = "RUNNING"
	ExecutionStatusRetrying   ExecutionStatus = "RETRYING"
	ExecutionStatusCompleted  ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed     ExecutionStatus = "FAILED"
	ExecutionStatusCancelled  ExecutionStatus = "CANCELLED"
)

var transitions = map[ExecutionStatus][]ExecutionStatus{
	ExecutionStatusPending:    {ExecutionStatusValidating, ExecutionStatusCancelled, ExecutionStatusRunning},
	ExecutionStatusValidating: {ExecutionStatusFailed, ExecutionStatusScheduled, ExecutionStatusRunning, ExecutionStatusPending},
	ExecutionStatusScheduled:  {ExecutionStatusRunning, ExecutionStatusCancelled},
	ExecutionStatusRunning:    {ExecutionStatusCompleted, ExecutionStatusFailed},
	ExecutionStatusFailed:     {ExecutionStatusRetrying},
	ExecutionStatusRetrying:   {ExecutionStatusRunning},
}

// CanTransition reports whether the state machine allows moving from one status to another.
// PENDING -> RUNNING covers an accepted immediate run whose start was deferred by the
// concurrency limit; VALIDATING -> PENDING hands an accepted action to that queue.
func CanTransition(from, to ExecutionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// ExecutionRecord is the tracked, stateful attempt to carry out one action.
type ExecutionRecord struct {
	ID               string          `json:"id"`
	Action           WorkflowAction  `json:"action"`
	Status           ExecutionStatus `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	ScheduledAt      *time.Time      `json:"scheduledAt,omitempty"`
	StartedAt        *time.Time      `json:"startedAt,omitempty"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
	RetryCount       int             `json:"retryCount"`
	MaxRetries       int             `json:"maxRetries"`
	Progress         int             `json:"progress"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	ValidationErrors []string        `json:"validationErrors,omitempty"`
	Warnings         []string        `json:"warnings,omitempty"`
	Result           any             `json:"result,omitempty"`
}

// Clone returns a snapshot that shares no mutable state with r.
// Result values are treated as immutable once produced by an executor.
func (r *ExecutionRecord) Clone() *ExecutionRecord {
	if r == nil {
		return nil
	}

	out := *r
	out.Action = r.Action.Clone()
	out.ScheduledAt = cloneTime(r.ScheduledAt)
	out.StartedAt = cloneTime(r.StartedAt)
	out.CompletedAt = cloneTime(r.CompletedAt)
	out.ValidationErrors = cloneStrings(r.ValidationErrors)
	out.Warnings = cloneStrings(r.Warnings)

	return &out
}

// FailedValidation reports whether the record failed before running because the action was invalid.
func (r *ExecutionRecord) FailedValidation() bool {
	return r.Status == ExecutionStatusFailed && len(r.ValidationErrors) > 0
}

// CanRetry reports whether the record is FAILED with retries left and was not rejected by validation.
func (r *ExecutionRecord) CanRetry() bool {
	return r.Status == ExecutionStatusFailed && !r.FailedValidation() && r.RetryCount < r.MaxRetries
}

// IsTerminal reports whether the record will not change again on its own.
func (r *ExecutionRecord) IsTerminal() bool {
	switch r.Status {
	case ExecutionStatusCompleted, ExecutionStatusCancelled:
		return true
	case ExecutionStatusFailed:
		return !r.CanRetry()
	default:
		return false
	}
}

// Duration returns the wall-clock run time of a completed record.
func (r *ExecutionRecord) Duration() (time.Duration, bool) {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0, false
	}

	return r.CompletedAt.Sub(*r.StartedAt), true
}

// ExecutionFilter narrows the execution history. Zero fields match everything.
type ExecutionFilter struct {
	Type      ActionType      `json:"type,omitempty"`
	Status    ExecutionStatus `json:"status,omitempty"`
	Priority  Priority        `json:"priority,omitempty"`
	From      *time.Time      `json:"from,omitempty"`
	To        *time.Time      `json:"to,omitempty"`
	Assignee  string          `json:"assignee,omitempty"`
	ProjectID string          `json:"projectId,omitempty"`
}

// Matches reports whether the record satisfies every set criterion.
func (f *ExecutionFilter) Matches(r *ExecutionRecord) bool {
	if f == nil {
		return true
	}

	if f.Type != "" && r.Action.Type != f.Type {
		return false
	}

	if f.Status != "" && r.Status != f.Status {
		return false
	}

	if f.Priority != "" && r.Action.EffectivePriority() != f.Priority {
		return false
	}

	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}

	if f.To != nil && r.CreatedAt.After(*f.To) {
		return false
	}

	if f.Assignee != "" && r.Action.Assignee() != f.Assignee {
		return false
	}

	if f.ProjectID != "" && r.Action.ProjectID != f.ProjectID {
		return false
	}

	return true
}

// ExecutionStats summarizes the execution registry.
type ExecutionStats struct {
	Total                int           `json:"total"`
	Pending              int           `json:"pending"`
	Scheduled            int           `json:"scheduled"`
	Running              int           `json:"running"`
	Completed            int           `json:"completed"`
	Failed               int           `json:"failed"`
	Cancelled            int           `json:"cancelled"`
	SuccessRate          float64       `json:"successRate"`
	AverageExecutionTime time.Duration `json:"averageExecutionTime"`
}
