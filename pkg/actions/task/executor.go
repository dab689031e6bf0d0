// Package task provides the issue tracker task action executor.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/validation"
)

// Executor creates tasks, their subtasks and dependency links in a tracker.
type Executor struct {
	provider protocol.TaskProvider
	deps     protocol.Dependencies
}

// NewExecutor creates a task executor bound to provider.
func NewExecutor(provider protocol.TaskProvider, deps protocol.Dependencies) *Executor {
	return &Executor{provider: provider, deps: deps.WithDefaults()}
}

func (*Executor) Type() models.ActionType {
	return models.ActionTypeTask
}

func (*Executor) Validate(action models.WorkflowAction, now time.Time) models.WorkflowValidation {
	return validation.Validate(action, now)
}

// Execute creates the parent task. Subtasks, dependency links and the assignee
// notification are best effort and never fail the execution.
func (e *Executor) Execute(ctx context.Context, action models.WorkflowAction, onProgress protocol.ProgressFunc) (any, error) {
	if action.Task == nil {
		return nil, fmt.Errorf("%w: task", protocol.ErrMissingPayload)
	}

	task := *action.Task
	progress := protocol.NewProgress(onProgress)
	logger := log.FromContext(ctx, e.deps.Logger).With("provider", e.provider.Name())

	progress.Report(10)

	result, err := e.provider.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("%s failed to create task: %w", e.provider.Name(), err)
	}

	progress.Report(50)

	parentID := result.ExternalID
	if parentID == "" {
		parentID = result.TaskID
	}

	for _, subtask := range task.Subtasks {
		id, err := e.provider.CreateSubtask(ctx, parentID, subtask)
		if err != nil {
			logger.WarnContext(ctx, "Failed to create subtask", "parent_id", parentID, "subtask", subtask.Title, "error", err)

			continue
		}

		result.Subtasks = append(result.Subtasks, id)
	}

	progress.Report(70)

	for _, dependency := range task.Dependencies {
		err := e.provider.LinkDependency(ctx, parentID, dependency)
		if err != nil {
			logger.WarnContext(ctx, "Failed to link task dependency", "task_id", parentID, "depends_on", dependency, "error", err)
		}
	}

	progress.Report(85)

	if e.deps.NotificationsEnabled {
		e.notifyAssignee(task, result)
	}

	progress.Report(90)

	return result, nil
}

func (e *Executor) notifyAssignee(task models.TaskAction, result models.TaskResult) {
	title := "Task assigned: " + task.Title
	message := fmt.Sprintf("You have been assigned %q with %s priority", task.Title, task.Priority)

	if result.URL != "" {
		message += ": " + result.URL
	}

	e.deps.Deferrer.Defer("task assignment "+result.TaskID, 0, func(ctx context.Context) error {
		return e.deps.Notifier.Notify(ctx, models.ChannelInApp, task.Assignee, title, message)
	})
}
