package models

import "time"

// EmailResult is returned by a successful email execution.
type EmailResult struct {
	MessageID  string    `json:"messageId"`
	Status     string    `json:"status"`
	Provider   string    `json:"provider"`
	Recipients []string  `json:"recipients"`
	Timestamp  time.Time `json:"timestamp"`
}

// MeetingResult is returned by a successful meeting execution.
type MeetingResult struct {
	MeetingID     string            `json:"meetingId"`
	EventID       string            `json:"eventId"`
	Status        string            `json:"status"`
	Provider      string            `json:"provider"`
	Attendees     []string          `json:"attendees"`
	MeetingLink   string            `json:"meetingLink,omitempty"`
	CalendarLinks map[string]string `json:"calendarLinks"`
}

// TaskResult is returned by a successful task execution.
type TaskResult struct {
	TaskID     string       `json:"taskId"`
	ExternalID string       `json:"externalId,omitempty"`
	Status     string       `json:"status"`
	Provider   string       `json:"provider"`
	Title      string       `json:"title"`
	Assignee   string       `json:"assignee"`
	Priority   TaskPriority `json:"priority"`
	URL        string       `json:"url,omitempty"`
	Subtasks   []string     `json:"subtasks,omitempty"`
}

// DocumentResult is returned by a successful document execution.
type DocumentResult struct {
	DocumentID string            `json:"documentId"`
	Operation  DocumentOperation `json:"action"`
	Status     string            `json:"status"`
	Provider   string            `json:"provider"`
	Version    string            `json:"version"`
	URL        string            `json:"url,omitempty"`
}

// NotificationResult is returned by a successful notification execution.
type NotificationResult struct {
	NotificationID string                      `json:"notificationId"`
	Status         string                      `json:"status"`
	Delivered      map[NotificationChannel]int `json:"delivered"`
	Timestamp      time.Time                   `json:"timestamp"`
}
