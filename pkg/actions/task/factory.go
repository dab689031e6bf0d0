package task

import (
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/providers/simulated"
)

// ExecutorFactory creates task executors.
type ExecutorFactory struct{}

// NewExecutorFactory creates a new factory instance.
func NewExecutorFactory() *ExecutorFactory {
	return &ExecutorFactory{}
}

func (*ExecutorFactory) ID() models.ActionType {
	return models.ActionTypeTask
}

func (*ExecutorFactory) Name() string {
	return "Task"
}

func (*ExecutorFactory) Description() string {
	return "Creates a task in the issue tracker with subtasks and dependency links"
}

// Create creates an executor for the configured tracker (jira, asana, trello or clickup).
func (*ExecutorFactory) Create(cfg models.ProviderConfig, deps protocol.Dependencies) (protocol.Executor, error) {
	provider, err := simulated.NewTaskProvider(cfg, deps.Clock)
	if err != nil {
		return nil, err
	}

	return NewExecutor(provider, deps), nil
}

func (*ExecutorFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"assignee":    map[string]any{"type": "string"},
			"dueDate":     map[string]any{"type": "string", "format": "date-time"},
			"priority": map[string]any{
				"type": "string",
				"enum": []string{"low", "medium", "high", "critical"},
			},
			"dependencies": map[string]any{
				"type":        "array",
				"description": "External ids of tasks that block this one",
				"items":       map[string]any{"type": "string"},
			},
			"subtasks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":    map[string]any{"type": "string"},
						"assignee": map[string]any{"type": "string"},
					},
				},
			},
			"labels": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"title", "assignee", "priority"},
	}
}
