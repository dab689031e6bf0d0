package web

import (
	"time"

	"github.com/hsetrack/hseflow/pkg/models"
)

// ExecuteActionRequest represents the request body for submitting an action.
type ExecuteActionRequest struct {
	Action      *models.WorkflowAction `json:"action"                validate:"required"`
	ScheduledAt *time.Time             `json:"scheduledAt,omitempty"`
}

// ValidateActionRequest represents the request body for a dry-run validation.
type ValidateActionRequest struct {
	Action *models.WorkflowAction `json:"action" validate:"required"`
}

// ListExecutionsQuery holds the filters accepted by the execution listing.
type ListExecutionsQuery struct {
	Type      string `validate:"omitempty,oneof=email meeting task document notification"`
	Status    string `validate:"omitempty,oneof=PENDING VALIDATING SCHEDULED RUNNING RETRYING COMPLETED FAILED CANCELLED"`
	Priority  string `validate:"omitempty,oneof=low medium high critical"`
	From      *time.Time
	To        *time.Time
	Assignee  string
	ProjectID string
	Limit     int `validate:"min=0,max=1000"`
}

// Filter converts the query into an engine filter.
func (q ListExecutionsQuery) Filter() *models.ExecutionFilter {
	return &models.ExecutionFilter{
		Type:      models.ActionType(q.Type),
		Status:    models.ExecutionStatus(q.Status),
		Priority:  models.Priority(q.Priority),
		From:      q.From,
		To:        q.To,
		Assignee:  q.Assignee,
		ProjectID: q.ProjectID,
	}
}

// ListExecutionsResponse is the execution listing, newest first.
type ListExecutionsResponse struct {
	Executions []*models.ExecutionRecord `json:"executions"`
	TotalCount int                       `json:"total_count"`
}

// CleanupResponse reports the outcome of a history purge.
type CleanupResponse struct {
	Removed       int `json:"removed"`
	OlderThanDays int `json:"older_than_days"`
}
