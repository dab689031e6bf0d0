package protocol

import (
	"context"

	"github.com/hsetrack/hseflow/pkg/models"
)

// EmailProvider sends emails through a concrete back end (smtp, sendgrid, aws-ses).
type EmailProvider interface {
	Name() string
	Send(ctx context.Context, email models.EmailAction, body string) (models.EmailResult, error)
}

// CalendarProvider books calendar events (google, outlook).
type CalendarProvider interface {
	Name() string
	CreateEvent(ctx context.Context, meeting models.MeetingAction) (models.MeetingResult, error)
}

// TaskProvider manages issues in a tracker (jira, asana, trello, clickup).
type TaskProvider interface {
	Name() string
	CreateTask(ctx context.Context, task models.TaskAction) (models.TaskResult, error)
	CreateSubtask(ctx context.Context, parentID string, subtask models.Subtask) (string, error)
	LinkDependency(ctx context.Context, taskID, dependsOn string) error
}

// DocumentProvider applies operations on a document store (sharepoint, google-drive, dropbox).
type DocumentProvider interface {
	Name() string
	Apply(ctx context.Context, document models.DocumentAction) (models.DocumentResult, error)
}

// NotificationSender delivers one message to one recipient over one channel.
type NotificationSender interface {
	Notify(ctx context.Context, channel models.NotificationChannel, recipient, title, message string) error
}
