package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/mocks"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/scheduler"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func scaffoldInspection() models.TaskAction {
	return models.TaskAction{
		Title:        "Inspect scaffolding on block C",
		Assignee:     "inspector@x.com",
		Priority:     models.TaskPriorityHigh,
		Subtasks:     []models.Subtask{{Title: "Check ties"}, {Title: "Check base plates"}},
		Dependencies: []string{"HSE-10"},
	}
}

func TestExecutorFactory(t *testing.T) {
	t.Parallel()

	factory := NewExecutorFactory()
	assert.Equal(t, models.ActionTypeTask, factory.ID())

	for _, name := range []string{models.TaskProviderJira, models.TaskProviderAsana, models.TaskProviderTrello, models.TaskProviderClickUp} {
		executor, err := factory.Create(models.ProviderConfig{Provider: name}, protocol.Dependencies{})
		require.NoError(t, err, name)
		assert.Equal(t, models.ActionTypeTask, executor.Type())
	}
}

func TestExecutor_Execute(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	timers := scheduler.NewTimers(clock, log.Discard())

	tracker := &mocks.MockTaskProvider{}
	tracker.On("CreateTask", mock.Anything, scaffoldInspection()).Return(models.TaskResult{
		TaskID:     "t-1",
		ExternalID: "HSE-11",
		Status:     "created",
		Priority:   models.TaskPriorityHigh,
	}, nil).Once()
	tracker.On("CreateSubtask", mock.Anything, "HSE-11", models.Subtask{Title: "Check ties"}).Return("HSE-12", nil)
	tracker.On("CreateSubtask", mock.Anything, "HSE-11", models.Subtask{Title: "Check base plates"}).Return("", errors.New("rate limited"))
	tracker.On("LinkDependency", mock.Anything, "HSE-11", "HSE-10").Return(errors.New("not found"))

	notified := make(chan string, 1)
	notifier := &mocks.MockNotificationSender{}
	notifier.On("Notify", mock.Anything, models.ChannelInApp, "inspector@x.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { notified <- args.String(3) }).
		Return(nil)

	executor := NewExecutor(tracker, protocol.Dependencies{
		Logger:               log.Discard(),
		Clock:                clock,
		Deferrer:             timers,
		Notifier:             notifier,
		NotificationsEnabled: true,
	})

	var progress []int

	result, err := executor.Execute(context.Background(), models.NewTaskAction(scaffoldInspection()), func(v int) {
		progress = append(progress, v)
	})
	require.NoError(t, err)

	taskResult := result.(models.TaskResult)
	assert.Equal(t, "created", taskResult.Status)
	assert.Equal(t, []string{"HSE-12"}, taskResult.Subtasks)
	assert.Equal(t, []int{10, 50, 70, 85, 90}, progress)

	clock.Advance(0)

	select {
	case title := <-notified:
		assert.Equal(t, "Task assigned: Inspect scaffolding on block C", title)
	case <-time.After(time.Second):
		t.Fatal("assignee was not notified")
	}

	tracker.AssertExpectations(t)
}

func TestExecutor_ProviderError(t *testing.T) {
	t.Parallel()

	tracker := &mocks.MockTaskProvider{}
	tracker.On("CreateTask", mock.Anything, mock.Anything).Return(models.TaskResult{}, errors.New("401 unauthorized"))

	_, err := NewExecutor(tracker, protocol.Dependencies{Logger: log.Discard()}).
		Execute(context.Background(), models.NewTaskAction(scaffoldInspection()), nil)
	require.Error(t, err)

	tracker.AssertNotCalled(t, "CreateSubtask", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutor_FallsBackToTaskID(t *testing.T) {
	t.Parallel()

	task := scaffoldInspection()
	task.Subtasks = task.Subtasks[:1]
	task.Dependencies = nil

	tracker := &mocks.MockTaskProvider{}
	tracker.On("CreateTask", mock.Anything, task).Return(models.TaskResult{TaskID: "t-9"}, nil)
	tracker.On("CreateSubtask", mock.Anything, "t-9", task.Subtasks[0]).Return("t-10", nil)

	result, err := NewExecutor(tracker, protocol.Dependencies{Logger: log.Discard()}).
		Execute(context.Background(), models.NewTaskAction(task), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-10"}, result.(models.TaskResult).Subtasks)
}
