package validation

import (
	"testing"
	"time"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func validEmail() models.EmailAction {
	return models.EmailAction{
		To:       []string{"site.manager@example.com"},
		Subject:  "Near miss reported",
		Template: "Hello {{name}}, a near miss was reported at {{site}}.",
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(e *models.EmailAction)
		wantErrors   []string
		wantWarnings int
	}{
		{name: "valid", mutate: func(*models.EmailAction) {}},
		{
			name:       "no recipients",
			mutate:     func(e *models.EmailAction) { e.To = nil },
			wantErrors: []string{"At least one recipient is required in to"},
		},
		{
			name:       "bad address",
			mutate:     func(e *models.EmailAction) { e.CC = []string{"not-an-email"} },
			wantErrors: []string{`Invalid email address in cc: "not-an-email"`},
		},
		{
			name:       "blank subject",
			mutate:     func(e *models.EmailAction) { e.Subject = "  " },
			wantErrors: []string{"Email subject is required"},
		},
		{
			name:       "follow-up without delay",
			mutate:     func(e *models.EmailAction) { e.FollowUp = &models.FollowUpConfig{Enabled: true, Template: "Reminder"} },
			wantErrors: []string{"Follow-up delay must be greater than 0"},
		},
		{
			name: "many recipients",
			mutate: func(e *models.EmailAction) {
				for range 60 {
					e.BCC = append(e.BCC, "crew@example.com")
				}
			},
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			email := validEmail()
			tt.mutate(&email)

			result := ValidateEmail(email)

			assert.Equal(t, len(tt.wantErrors) == 0, result.IsValid)
			for _, want := range tt.wantErrors {
				assert.Contains(t, result.Errors, want)
			}

			assert.Len(t, result.Warnings, tt.wantWarnings)
		})
	}
}

func TestValidateEmail_InvalidTemplate(t *testing.T) {
	t.Parallel()

	email := validEmail()
	email.Template = "Hello {{ if .name }}"

	result := ValidateEmail(email)
	require.False(t, result.IsValid)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Invalid email template")
}

func TestValidateMeeting(t *testing.T) {
	t.Parallel()

	start := now.Add(24 * time.Hour)

	base := func() models.MeetingAction {
		return models.MeetingAction{
			Attendees: []string{"hse@example.com"},
			Subject:   "Toolbox talk",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		}
	}

	tests := []struct {
		name         string
		mutate       func(m *models.MeetingAction)
		wantErrors   []string
		wantWarnings []string
	}{
		{name: "valid", mutate: func(*models.MeetingAction) {}},
		{
			name:       "no attendees",
			mutate:     func(m *models.MeetingAction) { m.Attendees = nil },
			wantErrors: []string{"At least one attendee is required"},
		},
		{
			name:       "end before start",
			mutate:     func(m *models.MeetingAction) { m.EndTime = start.Add(-time.Hour) },
			wantErrors: []string{"Meeting startTime must be before endTime"},
		},
		{
			name:         "too long",
			mutate:       func(m *models.MeetingAction) { m.EndTime = start.Add(9 * time.Hour) },
			wantWarnings: []string{"Meeting duration exceeds 8 hours"},
		},
		{
			name:         "too short",
			mutate:       func(m *models.MeetingAction) { m.EndTime = start.Add(10 * time.Minute) },
			wantWarnings: []string{"Meeting duration is less than 15 minutes"},
		},
		{
			name:       "reminders without offsets",
			mutate:     func(m *models.MeetingAction) { m.Reminders.Enabled = true },
			wantErrors: []string{"Reminder offsets are required when reminders are enabled"},
		},
		{
			name:       "bad recurrence",
			mutate:     func(m *models.MeetingAction) { m.Recurrence = "every monday" },
			wantErrors: []string{},
		},
		{
			name:   "weekly recurrence",
			mutate: func(m *models.MeetingAction) { m.Recurrence = "0 7 * * MON" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			meeting := base()
			tt.mutate(&meeting)

			result := ValidateMeeting(meeting)

			assert.Equal(t, tt.wantErrors == nil, result.IsValid)
			for _, want := range tt.wantErrors {
				assert.Contains(t, result.Errors, want)
			}

			assert.Equal(t, len(tt.wantWarnings), len(result.Warnings))
			for _, want := range tt.wantWarnings {
				assert.Contains(t, result.Warnings, want)
			}
		})
	}
}

func TestValidateTask(t *testing.T) {
	t.Parallel()

	past := now.Add(-time.Hour)

	result := ValidateTask(models.TaskAction{Title: "", Assignee: "lead", Priority: models.TaskPriorityHigh}, now)
	require.False(t, result.IsValid)
	assert.Equal(t, []string{"Task title is required"}, result.Errors)

	result = ValidateTask(models.TaskAction{Title: "Replace guard rail", Assignee: "lead", Priority: "urgent"}, now)
	require.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "Invalid task priority")

	result = ValidateTask(models.TaskAction{
		Title:    "Replace guard rail",
		Assignee: "lead",
		Priority: models.TaskPriorityMedium,
		DueDate:  &past,
		Subtasks: []models.Subtask{{Title: "Order parts"}, {Title: ""}},
	}, now)
	require.False(t, result.IsValid)
	assert.Equal(t, []string{"Subtask 2 title is required"}, result.Errors)
	assert.Equal(t, []string{"Task due date is in the past"}, result.Warnings)
}

func TestValidateDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		document   models.DocumentAction
		wantErrors []string
	}{
		{name: "create", document: models.DocumentAction{DocumentID: "RAMS-1", Operation: models.DocumentCreate}},
		{
			name:       "missing id",
			document:   models.DocumentAction{Operation: models.DocumentArchive},
			wantErrors: []string{"Document ID is required"},
		},
		{
			name:       "review without reviewers",
			document:   models.DocumentAction{DocumentID: "RAMS-1", Operation: models.DocumentReview},
			wantErrors: []string{"Document review requires at least one reviewer"},
		},
		{
			name:       "approve without approvers",
			document:   models.DocumentAction{DocumentID: "RAMS-1", Operation: models.DocumentApprove},
			wantErrors: []string{"Document approval requires at least one approver"},
		},
		{
			name:       "unknown operation",
			document:   models.DocumentAction{DocumentID: "RAMS-1", Operation: "shred"},
			wantErrors: []string{`Invalid document action: "shred"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := ValidateDocument(tt.document, now)

			assert.Equal(t, tt.wantErrors, nilIfEmpty(result.Errors))
		})
	}
}

func TestValidateNotification(t *testing.T) {
	t.Parallel()

	result := ValidateNotification(models.NotificationAction{
		Recipients: []string{"crew-a"},
		Channels:   []models.NotificationChannel{models.ChannelSMS, "pager"},
		Title:      "Evacuation drill",
	})

	require.False(t, result.IsValid)
	assert.ElementsMatch(t, []string{"Notification message is required", "Invalid notification channel: pager"}, result.Errors)
}

func TestValidate_Dispatch(t *testing.T) {
	t.Parallel()

	result := Validate(models.NewEmailAction(validEmail()), now)
	assert.True(t, result.IsValid)

	result = Validate(models.WorkflowAction{Type: "fax"}, now)
	assert.Equal(t, []string{"Unknown action type: fax"}, result.Errors)

	result = Validate(models.WorkflowAction{Type: models.ActionTypeTask}, now)
	assert.Equal(t, []string{"Task payload is required for action type task"}, result.Errors)

	mismatched := models.NewEmailAction(validEmail())
	mismatched.Task = &models.TaskAction{}
	result = Validate(mismatched, now)
	assert.Equal(t, []string{"Action must carry exactly one payload matching its type"}, result.Errors)

	badPriority := models.NewEmailAction(validEmail())
	badPriority.Priority = "whenever"
	result = Validate(badPriority, now)
	assert.Equal(t, []string{"Invalid action priority: whenever"}, result.Errors)
}

func nilIfEmpty(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	return in
}
