package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowAction_CheckVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		action  WorkflowAction
		wantErr bool
	}{
		{name: "email", action: NewEmailAction(EmailAction{Subject: "Hi"})},
		{name: "task", action: NewTaskAction(TaskAction{Title: "Fix"})},
		{name: "no payload", action: WorkflowAction{Type: ActionTypeEmail}, wantErr: true},
		{name: "wrong payload", action: WorkflowAction{Type: ActionTypeEmail, Task: &TaskAction{}}, wantErr: true},
		{
			name:    "two payloads",
			action:  WorkflowAction{Type: ActionTypeEmail, Email: &EmailAction{}, Task: &TaskAction{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.action.CheckVariant()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrActionVariantMismatch)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWorkflowAction_Clone(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	original := NewTaskAction(TaskAction{Title: "Fix", Labels: []string{"ppe"}, DueDate: &due})
	original.Metadata = map[string]any{"site": "north"}

	clone := original.Clone()
	clone.Task.Labels[0] = "changed"
	clone.Metadata["site"] = "south"
	*clone.Task.DueDate = due.Add(time.Hour)

	assert.Equal(t, "ppe", original.Task.Labels[0])
	assert.Equal(t, "north", original.Metadata["site"])
	assert.Equal(t, due, *original.Task.DueDate)
}

func TestWorkflowAction_PriorityAndAssignee(t *testing.T) {
	t.Parallel()

	task := NewTaskAction(TaskAction{Assignee: "lead", Priority: TaskPriorityHigh})
	assert.Equal(t, PriorityHigh, task.EffectivePriority())
	assert.Equal(t, "lead", task.Assignee())

	task.Priority = PriorityCritical
	assert.Equal(t, PriorityCritical, task.EffectivePriority())

	email := NewEmailAction(EmailAction{})
	assert.Empty(t, email.Assignee())
	assert.Empty(t, email.EffectivePriority())
}

func TestWorkflowAction_JSON(t *testing.T) {
	t.Parallel()

	raw := `{"type":"document","priority":"high","document":{"documentId":"RAMS-1","action":"review","reviewers":["r@x.com"]}}`

	var action WorkflowAction
	require.NoError(t, json.Unmarshal([]byte(raw), &action))

	require.NoError(t, action.CheckVariant())
	assert.Equal(t, DocumentReview, action.Document.Operation)
	assert.Equal(t, PriorityHigh, action.Priority)
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := [][2]ExecutionStatus{
		{ExecutionStatusPending, ExecutionStatusValidating},
		{ExecutionStatusPending, ExecutionStatusCancelled},
		{ExecutionStatusValidating, ExecutionStatusFailed},
		{ExecutionStatusValidating, ExecutionStatusScheduled},
		{ExecutionStatusValidating, ExecutionStatusRunning},
		{ExecutionStatusScheduled, ExecutionStatusRunning},
		{ExecutionStatusScheduled, ExecutionStatusCancelled},
		{ExecutionStatusRunning, ExecutionStatusCompleted},
		{ExecutionStatusRunning, ExecutionStatusFailed},
		{ExecutionStatusFailed, ExecutionStatusRetrying},
		{ExecutionStatusRetrying, ExecutionStatusRunning},
	}

	for _, pair := range allowed {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]ExecutionStatus{
		{ExecutionStatusRunning, ExecutionStatusCancelled},
		{ExecutionStatusCompleted, ExecutionStatusRunning},
		{ExecutionStatusCancelled, ExecutionStatusPending},
		{ExecutionStatusFailed, ExecutionStatusRunning},
		{ExecutionStatusScheduled, ExecutionStatusCompleted},
	}

	for _, pair := range denied {
		assert.False(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestExecutionRecord_RetryState(t *testing.T) {
	t.Parallel()

	record := &ExecutionRecord{Status: ExecutionStatusFailed, RetryCount: 1, MaxRetries: 3}
	assert.True(t, record.CanRetry())
	assert.False(t, record.IsTerminal())

	record.RetryCount = 3
	assert.False(t, record.CanRetry())
	assert.True(t, record.IsTerminal())

	invalid := &ExecutionRecord{Status: ExecutionStatusFailed, MaxRetries: 3, ValidationErrors: []string{"Task title is required"}}
	assert.True(t, invalid.FailedValidation())
	assert.False(t, invalid.CanRetry())
	assert.True(t, invalid.IsTerminal())

	assert.False(t, (&ExecutionRecord{Status: ExecutionStatusScheduled}).IsTerminal())
	assert.True(t, (&ExecutionRecord{Status: ExecutionStatusCancelled}).IsTerminal())
}

func TestExecutionRecord_Duration(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(1500 * time.Millisecond)

	d, ok := (&ExecutionRecord{StartedAt: &started, CompletedAt: &completed}).Duration()
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, ok = (&ExecutionRecord{StartedAt: &started}).Duration()
	assert.False(t, ok)
}

func TestExecutionFilter_Matches(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	task := NewTaskAction(TaskAction{Assignee: "lead", Priority: TaskPriorityHigh})
	task.ProjectID = "tower-a"

	record := &ExecutionRecord{Action: task, Status: ExecutionStatusFailed, CreatedAt: created}
	before := created.Add(-time.Hour)
	after := created.Add(time.Hour)

	tests := []struct {
		name    string
		filter  *ExecutionFilter
		matches bool
	}{
		{name: "nil filter", filter: nil, matches: true},
		{name: "empty filter", filter: &ExecutionFilter{}, matches: true},
		{name: "type", filter: &ExecutionFilter{Type: ActionTypeTask}, matches: true},
		{name: "other type", filter: &ExecutionFilter{Type: ActionTypeEmail}, matches: false},
		{name: "status", filter: &ExecutionFilter{Status: ExecutionStatusFailed}, matches: true},
		{name: "other status", filter: &ExecutionFilter{Status: ExecutionStatusCompleted}, matches: false},
		{name: "priority from task", filter: &ExecutionFilter{Priority: PriorityHigh}, matches: true},
		{name: "range", filter: &ExecutionFilter{From: &before, To: &after}, matches: true},
		{name: "range after", filter: &ExecutionFilter{From: &after}, matches: false},
		{name: "range before", filter: &ExecutionFilter{To: &before}, matches: false},
		{name: "assignee", filter: &ExecutionFilter{Assignee: "lead"}, matches: true},
		{name: "other assignee", filter: &ExecutionFilter{Assignee: "someone"}, matches: false},
		{name: "project", filter: &ExecutionFilter{ProjectID: "tower-a"}, matches: true},
		{name: "other project", filter: &ExecutionFilter{ProjectID: "tower-b"}, matches: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.matches, tt.filter.Matches(record))
		})
	}
}

func TestWorkflowValidation(t *testing.T) {
	t.Parallel()

	v := NewValidation()
	require.NoError(t, v.Err())

	v.AddWarning("Task due date is in the past")
	assert.True(t, v.IsValid)

	v.Merge(InvalidValidation("Task title is required", "Task assignee is required"))
	assert.False(t, v.IsValid)
	assert.Len(t, v.Warnings, 1)
	require.EqualError(t, v.Err(), "Validation failed: Task title is required, Task assignee is required")

	data, err := json.Marshal(NewValidation())
	require.NoError(t, err)
	assert.JSONEq(t, `{"isValid":true,"errors":[],"warnings":[]}`, string(data))
}
