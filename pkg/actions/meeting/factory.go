package meeting

import (
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/providers/simulated"
)

// ExecutorFactory creates meeting executors.
type ExecutorFactory struct{}

// NewExecutorFactory creates a new factory instance.
func NewExecutorFactory() *ExecutorFactory {
	return &ExecutorFactory{}
}

func (*ExecutorFactory) ID() models.ActionType {
	return models.ActionTypeMeeting
}

func (*ExecutorFactory) Name() string {
	return "Meeting"
}

func (*ExecutorFactory) Description() string {
	return "Books a calendar meeting with attendees, optional virtual link and reminders before the start time"
}

// Create creates an executor for the configured calendar (google or outlook).
func (*ExecutorFactory) Create(cfg models.ProviderConfig, deps protocol.Dependencies) (protocol.Executor, error) {
	provider, err := simulated.NewCalendarProvider(cfg, deps.Clock)
	if err != nil {
		return nil, err
	}

	return NewExecutor(provider, deps), nil
}

func (*ExecutorFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"attendees": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "format": "email"},
			},
			"subject":     map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"location":    map[string]any{"type": "string"},
			"startTime":   map[string]any{"type": "string", "format": "date-time"},
			"endTime":     map[string]any{"type": "string", "format": "date-time"},
			"isVirtual":   map[string]any{"type": "boolean", "default": false},
			"meetingLink": map[string]any{"type": "string"},
			"reminders": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"enabled": map[string]any{"type": "boolean"},
					"offsets": map[string]any{
						"type":        "array",
						"description": "Offsets before startTime in nanoseconds",
						"items":       map[string]any{"type": "integer"},
					},
				},
			},
			"recurrence": map[string]any{
				"type":        "string",
				"description": "Five-field cron expression for recurring meetings",
				"examples":    []string{"0 9 * * MON", "30 7 1 * *"},
			},
		},
		"required": []string{"attendees", "subject", "startTime", "endTime"},
	}
}
