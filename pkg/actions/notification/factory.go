package notification

import (
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
)

// ExecutorFactory creates notification executors.
type ExecutorFactory struct{}

// NewExecutorFactory creates a new factory instance.
func NewExecutorFactory() *ExecutorFactory {
	return &ExecutorFactory{}
}

func (*ExecutorFactory) ID() models.ActionType {
	return models.ActionTypeNotification
}

func (*ExecutorFactory) Name() string {
	return "Notification"
}

func (*ExecutorFactory) Description() string {
	return "Sends a message to recipients over email, sms, push or in-app channels"
}

// Create creates an executor delivering through deps.Notifier. Notifications have no
// provider of their own, so cfg is ignored.
func (*ExecutorFactory) Create(_ models.ProviderConfig, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewExecutor(deps.Notifier, deps), nil
}

func (*ExecutorFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipients": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string"},
			},
			"channels": map[string]any{
				"type":    "array",
				"default": []string{"in-app"},
				"items": map[string]any{
					"type": "string",
					"enum": []string{"email", "sms", "push", "in-app"},
				},
			},
			"title":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"recipients", "title", "message"},
	}
}
