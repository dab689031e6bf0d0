// Package validation implements the pre-flight checks for every workflow action type.
//
// Validators never fail fast: every applicable rule is evaluated and all errors and
// warnings are accumulated into a single models.WorkflowValidation.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/template"
	"github.com/robfig/cron/v3"
)

const (
	maxEmailRecipients   = 50
	maxEmailAttachments  = 10
	maxMeetingDuration   = 8 * time.Hour
	minMeetingDuration   = 15 * time.Minute
	maxTaskDependencies  = 10
	recurrenceParserSpec = cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow
)

var (
	formats          = validator.New(validator.WithRequiredStructEnabled())
	recurrenceParser = cron.NewParser(recurrenceParserSpec)
)

// Validate dispatches to the validator matching the action type.
func Validate(action models.WorkflowAction, now time.Time) models.WorkflowValidation {
	switch action.Type {
	case models.ActionTypeEmail:
		return withVariant(action, action.Email != nil, func() models.WorkflowValidation { return ValidateEmail(*action.Email) })
	case models.ActionTypeMeeting:
		return withVariant(action, action.Meeting != nil, func() models.WorkflowValidation { return ValidateMeeting(*action.Meeting) })
	case models.ActionTypeTask:
		return withVariant(action, action.Task != nil, func() models.WorkflowValidation { return ValidateTask(*action.Task, now) })
	case models.ActionTypeDocument:
		return withVariant(action, action.Document != nil, func() models.WorkflowValidation { return ValidateDocument(*action.Document, now) })
	case models.ActionTypeNotification:
		return withVariant(action, action.Notification != nil, func() models.WorkflowValidation {
			return ValidateNotification(*action.Notification)
		})
	default:
		return UnknownType(action.Type)
	}
}

// UnknownType is the result returned for an unrecognized action tag.
func UnknownType(actionType models.ActionType) models.WorkflowValidation {
	return models.InvalidValidation(fmt.Sprintf("Unknown action type: %s", actionType))
}

func withVariant(action models.WorkflowAction, present bool, validate func() models.WorkflowValidation) models.WorkflowValidation {
	if !present {
		return models.InvalidValidation(fmt.Sprintf("%s payload is required for action type %s", capitalize(string(action.Type)), action.Type))
	}

	result := validate()

	err := action.CheckVariant()
	if err != nil {
		result.AddError("Action must carry exactly one payload matching its type")
	}

	if action.Priority != "" && !action.Priority.IsValid() {
		result.AddError(fmt.Sprintf("Invalid action priority: %s", action.Priority))
	}

	return result
}

// ValidateEmail checks recipients, content and follow-up settings of an email action.
func ValidateEmail(email models.EmailAction) models.WorkflowValidation {
	result := models.NewValidation()

	if len(email.To) == 0 {
		result.AddError("At least one recipient is required in to")
	}

	checkAddresses(&result, "to", email.To)
	checkAddresses(&result, "cc", email.CC)
	checkAddresses(&result, "bcc", email.BCC)

	if isBlank(email.Subject) {
		result.AddError("Email subject is required")
	}

	if isBlank(email.Template) {
		result.AddError("Email template is required")
	} else if _, err := template.Parse(email.Template); err != nil {
		result.AddError(fmt.Sprintf("Invalid email template: %v", err))
	}

	if email.FollowUp != nil && email.FollowUp.Enabled {
		if email.FollowUp.Delay <= 0 {
			result.AddError("Follow-up delay must be greater than 0")
		}

		if isBlank(email.FollowUp.Template) {
			result.AddError("Follow-up template is required when follow-up is enabled")
		} else if _, err := template.Parse(email.FollowUp.Template); err != nil {
			result.AddError(fmt.Sprintf("Invalid follow-up template: %v", err))
		}
	}

	total := len(email.To) + len(email.CC) + len(email.BCC)
	if total > maxEmailRecipients {
		result.AddWarning(fmt.Sprintf("Large number of recipients (%d) may affect deliverability", total))
	}

	if len(email.Attachments) > maxEmailAttachments {
		result.AddWarning(fmt.Sprintf("Large number of attachments (%d) may exceed provider limits", len(email.Attachments)))
	}

	return result
}

// ValidateMeeting checks attendees, timing, virtual settings and reminders of a meeting action.
func ValidateMeeting(meeting models.MeetingAction) models.WorkflowValidation {
	result := models.NewValidation()

	if len(meeting.Attendees) == 0 {
		result.AddError("At least one attendee is required")
	}

	checkAddresses(&result, "attendees", meeting.Attendees)

	switch {
	case meeting.StartTime.IsZero() || meeting.EndTime.IsZero():
		result.AddError("Meeting startTime and endTime are required")
	case !meeting.StartTime.Before(meeting.EndTime):
		result.AddError("Meeting startTime must be before endTime")
	default:
		duration := meeting.EndTime.Sub(meeting.StartTime)
		if duration > maxMeetingDuration {
			result.AddWarning("Meeting duration exceeds 8 hours")
		}

		if duration < minMeetingDuration {
			result.AddWarning("Meeting duration is less than 15 minutes")
		}
	}

	if meeting.IsVirtual && isBlank(meeting.MeetingLink) {
		result.AddWarning("Virtual meeting has no meeting link; the provider will generate one")
	}

	if meeting.MeetingLink != "" && formats.Var(meeting.MeetingLink, "url") != nil {
		result.AddError(fmt.Sprintf("Invalid meetingLink: %s", meeting.MeetingLink))
	}

	if meeting.Reminders.Enabled && len(meeting.Reminders.Offsets) == 0 {
		result.AddError("Reminder offsets are required when reminders are enabled")
	}

	for _, offset := range meeting.Reminders.Offsets {
		if offset <= 0 {
			result.AddError(fmt.Sprintf("Reminder offset must be positive: %s", offset))
		}
	}

	if meeting.Recurrence != "" {
		_, err := recurrenceParser.Parse(meeting.Recurrence)
		if err != nil {
			result.AddError(fmt.Sprintf("Invalid recurrence expression %q: %v", meeting.Recurrence, err))
		}
	}

	return result
}

// ValidateTask checks title, assignee, priority, subtasks and scheduling hints of a task action.
func ValidateTask(task models.TaskAction, now time.Time) models.WorkflowValidation {
	result := models.NewValidation()

	if isBlank(task.Title) {
		result.AddError("Task title is required")
	}

	if isBlank(task.Assignee) {
		result.AddError("Task assignee is required")
	}

	if !models.Priority(task.Priority).IsValid() {
		result.AddError(fmt.Sprintf("Invalid task priority: %q (expected one of %s)", task.Priority, joinPriorities()))
	}

	for i, subtask := range task.Subtasks {
		if isBlank(subtask.Title) {
			result.AddError(fmt.Sprintf("Subtask %d title is required", i+1))
		}
	}

	if task.DueDate != nil && task.DueDate.Before(now) {
		result.AddWarning("Task due date is in the past")
	}

	if len(task.Dependencies) > maxTaskDependencies {
		result.AddWarning(fmt.Sprintf("Task has a large number of dependencies (%d)", len(task.Dependencies)))
	}

	return result
}

// ValidateDocument checks the document reference, operation and its participants.
func ValidateDocument(document models.DocumentAction, now time.Time) models.WorkflowValidation {
	result := models.NewValidation()

	if isBlank(document.DocumentID) {
		result.AddError("Document ID is required")
	}

	switch document.Operation {
	case models.DocumentCreate, models.DocumentArchive:
	case models.DocumentUpdate:
		if isBlank(document.Version) {
			result.AddWarning("Document update has no explicit version; the provider will assign one")
		}
	case models.DocumentReview:
		if len(document.Reviewers) == 0 {
			result.AddError("Document review requires at least one reviewer")
		}
	case models.DocumentApprove:
		if len(document.Approvers) == 0 {
			result.AddError("Document approval requires at least one approver")
		}
	default:
		result.AddError(fmt.Sprintf("Invalid document action: %q", document.Operation))
	}

	checkAddresses(&result, "reviewers", document.Reviewers)
	checkAddresses(&result, "approvers", document.Approvers)

	if document.DueDate != nil && document.DueDate.Before(now) {
		result.AddWarning("Document due date is in the past")
	}

	return result
}

// ValidateNotification checks recipients, channels and content of a notification action.
func ValidateNotification(notification models.NotificationAction) models.WorkflowValidation {
	result := models.NewValidation()

	if len(notification.Recipients) == 0 {
		result.AddError("At least one notification recipient is required")
	}

	if isBlank(notification.Title) {
		result.AddError("Notification title is required")
	}

	if isBlank(notification.Message) {
		result.AddError("Notification message is required")
	}

	for _, channel := range notification.Channels {
		if !isKnownChannel(channel) {
			result.AddError(fmt.Sprintf("Invalid notification channel: %s", channel))
		}
	}

	return result
}

func checkAddresses(result *models.WorkflowValidation, field string, addresses []string) {
	for _, address := range addresses {
		if formats.Var(address, "required,email") != nil {
			result.AddError(fmt.Sprintf("Invalid email address in %s: %q", field, address))
		}
	}
}

func isKnownChannel(channel models.NotificationChannel) bool {
	for _, known := range models.NotificationChannels {
		if channel == known {
			return true
		}
	}

	return false
}

func joinPriorities() string {
	names := make([]string, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		names = append(names, string(p))
	}

	return strings.Join(names, ", ")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
