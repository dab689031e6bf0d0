// Package models defines the core domain models for the workflow execution engine.
package models

import (
	"errors"
	"fmt"
	"time"
)

// ActionType discriminates the WorkflowAction union.
type ActionType string

const (
	ActionTypeEmail        ActionType = "email"
	ActionTypeMeeting      ActionType = "meeting"
	ActionTypeTask         ActionType = "task"
	ActionTypeDocument     ActionType = "document"
	ActionTypeNotification ActionType = "notification"
)

// ActionTypes lists every known action type in dispatch order.
var ActionTypes = []ActionType{
	ActionTypeEmail,
	ActionTypeMeeting,
	ActionTypeTask,
	ActionTypeDocument,
	ActionTypeNotification,
}

// Priority is the urgency attached to any action.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists the defined priority levels.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IsValid reports whether p is one of the defined levels.
func (p Priority) IsValid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}

	return false
}

// ErrActionVariantMismatch is returned when the populated variant does not match the type tag.
var ErrActionVariantMismatch = errors.New("action payload does not match action type")

// WorkflowAction is a typed request to perform one unit of work.
// Exactly one of the variant pointers is set, selected by Type.
type WorkflowAction struct {
	Type      ActionType     `json:"type"                validate:"required"`
	Title     string         `json:"title,omitempty"`
	Priority  Priority       `json:"priority,omitempty"`
	ProjectID string         `json:"projectId,omitempty"`
	CreatedBy string         `json:"createdBy,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	Email        *EmailAction        `json:"email,omitempty"`
	Meeting      *MeetingAction      `json:"meeting,omitempty"`
	Task         *TaskAction         `json:"task,omitempty"`
	Document     *DocumentAction     `json:"document,omitempty"`
	Notification *NotificationAction `json:"notification,omitempty"`
}

// NewEmailAction wraps an email payload into a WorkflowAction.
func NewEmailAction(email EmailAction) WorkflowAction {
	return WorkflowAction{Type: ActionTypeEmail, Title: email.Subject, Email: &email}
}

// NewMeetingAction wraps a meeting payload into a WorkflowAction.
func NewMeetingAction(meeting MeetingAction) WorkflowAction {
	return WorkflowAction{Type: ActionTypeMeeting, Title: meeting.Subject, Meeting: &meeting}
}

// NewTaskAction wraps a task payload into a WorkflowAction.
func NewTaskAction(task TaskAction) WorkflowAction {
	return WorkflowAction{Type: ActionTypeTask, Title: task.Title, Task: &task}
}

// NewDocumentAction wraps a document payload into a WorkflowAction.
func NewDocumentAction(document DocumentAction) WorkflowAction {
	return WorkflowAction{Type: ActionTypeDocument, Title: document.DocumentID, Document: &document}
}

// NewNotificationAction wraps a notification payload into a WorkflowAction.
func NewNotificationAction(notification NotificationAction) WorkflowAction {
	return WorkflowAction{Type: ActionTypeNotification, Title: notification.Title, Notification: &notification}
}

// CheckVariant verifies that exactly one variant is populated and that it matches Type.
func (a WorkflowAction) CheckVariant() error {
	populated := make([]ActionType, 0, 1)

	if a.Email != nil {
		populated = append(populated, ActionTypeEmail)
	}

	if a.Meeting != nil {
		populated = append(populated, ActionTypeMeeting)
	}

	if a.Task != nil {
		populated = append(populated, ActionTypeTask)
	}

	if a.Document != nil {
		populated = append(populated, ActionTypeDocument)
	}

	if a.Notification != nil {
		populated = append(populated, ActionTypeNotification)
	}

	if len(populated) != 1 {
		return fmt.Errorf("%w: %d payloads populated for type %s", ErrActionVariantMismatch, len(populated), a.Type)
	}

	if populated[0] != a.Type {
		return fmt.Errorf("%w: type %s carries %s payload", ErrActionVariantMismatch, a.Type, populated[0])
	}

	return nil
}

// Assignee returns the person responsible for the action, when the variant has one.
func (a WorkflowAction) Assignee() string {
	if a.Type == ActionTypeTask && a.Task != nil {
		return a.Task.Assignee
	}

	return ""
}

// EffectivePriority returns the header priority, falling back to the task priority.
func (a WorkflowAction) EffectivePriority() Priority {
	if a.Priority != "" {
		return a.Priority
	}

	if a.Task != nil {
		return Priority(a.Task.Priority)
	}

	return ""
}

// Clone returns a copy of the action whose slices and maps are not shared with a.
func (a WorkflowAction) Clone() WorkflowAction {
	out := a
	out.Metadata = cloneMap(a.Metadata)

	if a.Email != nil {
		email := *a.Email
		email.To = cloneStrings(a.Email.To)
		email.CC = cloneStrings(a.Email.CC)
		email.BCC = cloneStrings(a.Email.BCC)
		email.TemplateData = cloneMap(a.Email.TemplateData)
		email.Attachments = append([]Attachment(nil), a.Email.Attachments...)

		if a.Email.FollowUp != nil {
			followUp := *a.Email.FollowUp
			email.FollowUp = &followUp
		}

		out.Email = &email
	}

	if a.Meeting != nil {
		meeting := *a.Meeting
		meeting.Attendees = cloneStrings(a.Meeting.Attendees)
		meeting.Reminders.Offsets = append([]time.Duration(nil), a.Meeting.Reminders.Offsets...)
		out.Meeting = &meeting
	}

	if a.Task != nil {
		task := *a.Task
		task.Dependencies = cloneStrings(a.Task.Dependencies)
		task.Labels = cloneStrings(a.Task.Labels)
		task.Subtasks = append([]Subtask(nil), a.Task.Subtasks...)
		task.DueDate = cloneTime(a.Task.DueDate)
		out.Task = &task
	}

	if a.Document != nil {
		document := *a.Document
		document.Reviewers = cloneStrings(a.Document.Reviewers)
		document.Approvers = cloneStrings(a.Document.Approvers)
		document.DueDate = cloneTime(a.Document.DueDate)
		out.Document = &document
	}

	if a.Notification != nil {
		notification := *a.Notification
		notification.Recipients = cloneStrings(a.Notification.Recipients)
		notification.Channels = append([]NotificationChannel(nil), a.Notification.Channels...)
		out.Notification = &notification
	}

	return out
}

// Attachment is a file referenced by an email.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// FollowUpConfig describes an email sent some time after the primary one.
type FollowUpConfig struct {
	Enabled  bool          `json:"enabled"`
	Delay    time.Duration `json:"delay"`
	Template string        `json:"template,omitempty"`
	Subject  string        `json:"subject,omitempty"`
}

// EmailAction sends a templated email to a set of recipients.
type EmailAction struct {
	To           []string        `json:"to"`
	CC           []string        `json:"cc,omitempty"`
	BCC          []string        `json:"bcc,omitempty"`
	Subject      string          `json:"subject"`
	Template     string          `json:"template"`
	TemplateData map[string]any  `json:"templateData,omitempty"`
	Attachments  []Attachment    `json:"attachments,omitempty"`
	TrackOpens   bool            `json:"trackOpens,omitempty"`
	TrackClicks  bool            `json:"trackClicks,omitempty"`
	FollowUp     *FollowUpConfig `json:"followUp,omitempty"`
}

// ReminderConfig configures meeting reminders as offsets before the start time.
type ReminderConfig struct {
	Enabled bool            `json:"enabled"`
	Offsets []time.Duration `json:"offsets,omitempty"`
}

// MeetingAction books a calendar event.
type MeetingAction struct {
	Attendees   []string       `json:"attendees"`
	Subject     string         `json:"subject"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	IsVirtual   bool           `json:"isVirtual,omitempty"`
	MeetingLink string         `json:"meetingLink,omitempty"`
	Reminders   ReminderConfig `json:"reminders"`
	// Recurrence is an optional five-field cron expression.
	Recurrence string `json:"recurrence,omitempty"`
}

// TaskPriority is the priority of a task in the tracker.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// Subtask is a child item created together with a task.
type Subtask struct {
	Title    string `json:"title"`
	Assignee string `json:"assignee,omitempty"`
}

// TaskAction creates a task in an issue tracker.
type TaskAction struct {
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Assignee     string       `json:"assignee"`
	DueDate      *time.Time   `json:"dueDate,omitempty"`
	Priority     TaskPriority `json:"priority"`
	Dependencies []string     `json:"dependencies,omitempty"`
	Subtasks     []Subtask    `json:"subtasks,omitempty"`
	Labels       []string     `json:"labels,omitempty"`
}

// DocumentOperation is the operation applied to a document.
type DocumentOperation string

const (
	DocumentCreate  DocumentOperation = "create"
	DocumentUpdate  DocumentOperation = "update"
	DocumentReview  DocumentOperation = "review"
	DocumentApprove DocumentOperation = "approve"
	DocumentArchive DocumentOperation = "archive"
)

// DocumentOperations lists the supported document operations.
var DocumentOperations = []DocumentOperation{DocumentCreate, DocumentUpdate, DocumentReview, DocumentApprove, DocumentArchive}

// DocumentAction performs an operation on a managed document.
type DocumentAction struct {
	DocumentID string            `json:"documentId"`
	Operation  DocumentOperation `json:"action"`
	Version    string            `json:"version,omitempty"`
	Content    string            `json:"content,omitempty"`
	Reviewers  []string          `json:"reviewers,omitempty"`
	Approvers  []string          `json:"approvers,omitempty"`
	DueDate    *time.Time        `json:"dueDate,omitempty"`
}

// NotificationChannel is a delivery channel for notifications.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
	ChannelInApp NotificationChannel = "in-app"
)

// NotificationChannels lists the supported channels.
var NotificationChannels = []NotificationChannel{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp}

// NotificationAction fans a message out to recipients over one or more channels.
type NotificationAction struct {
	Recipients []string              `json:"recipients"`
	Channels   []NotificationChannel `json:"channels,omitempty"`
	Title      string                `json:"title"`
	Message    string                `json:"message"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}

	return append([]string(nil), in...)
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}

func cloneTime(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}

	t := *in

	return &t
}
