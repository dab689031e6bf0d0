package mocks

import (
	"context"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockEmailProvider is a mock implementation of protocol.EmailProvider interface.
type MockEmailProvider struct {
	mock.Mock
}

func (m *MockEmailProvider) Name() string {
	return "mock-email"
}

func (m *MockEmailProvider) Send(ctx context.Context, email models.EmailAction, body string) (models.EmailResult, error) {
	args := m.Called(ctx, email, body)

	return args.Get(0).(models.EmailResult), args.Error(1)
}

// MockCalendarProvider is a mock implementation of protocol.CalendarProvider interface.
type MockCalendarProvider struct {
	mock.Mock
}

func (m *MockCalendarProvider) Name() string {
	return "mock-calendar"
}

func (m *MockCalendarProvider) CreateEvent(ctx context.Context, meeting models.MeetingAction) (models.MeetingResult, error) {
	args := m.Called(ctx, meeting)

	return args.Get(0).(models.MeetingResult), args.Error(1)
}

// MockTaskProvider is a mock implementation of protocol.TaskProvider interface.
type MockTaskProvider struct {
	mock.Mock
}

func (m *MockTaskProvider) Name() string {
	return "mock-tasks"
}

func (m *MockTaskProvider) CreateTask(ctx context.Context, task models.TaskAction) (models.TaskResult, error) {
	args := m.Called(ctx, task)

	return args.Get(0).(models.TaskResult), args.Error(1)
}

func (m *MockTaskProvider) CreateSubtask(ctx context.Context, parentID string, subtask models.Subtask) (string, error) {
	args := m.Called(ctx, parentID, subtask)

	return args.String(0), args.Error(1)
}

func (m *MockTaskProvider) LinkDependency(ctx context.Context, taskID, dependsOn string) error {
	args := m.Called(ctx, taskID, dependsOn)

	return args.Error(0)
}

// MockDocumentProvider is a mock implementation of protocol.DocumentProvider interface.
type MockDocumentProvider struct {
	mock.Mock
}

func (m *MockDocumentProvider) Name() string {
	return "mock-documents"
}

func (m *MockDocumentProvider) Apply(ctx context.Context, document models.DocumentAction) (models.DocumentResult, error) {
	args := m.Called(ctx, document)

	return args.Get(0).(models.DocumentResult), args.Error(1)
}

// MockNotificationSender is a mock implementation of protocol.NotificationSender interface.
type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) Notify(ctx context.Context, channel models.NotificationChannel, recipient, title, message string) error {
	args := m.Called(ctx, channel, recipient, title, message)

	return args.Error(0)
}
