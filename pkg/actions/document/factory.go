package document

import (
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/providers/simulated"
)

// ExecutorFactory creates document executors.
type ExecutorFactory struct{}

// NewExecutorFactory creates a new factory instance.
func NewExecutorFactory() *ExecutorFactory {
	return &ExecutorFactory{}
}

func (*ExecutorFactory) ID() models.ActionType {
	return models.ActionTypeDocument
}

func (*ExecutorFactory) Name() string {
	return "Document"
}

func (*ExecutorFactory) Description() string {
	return "Creates, updates, reviews, approves or archives a managed HSE document"
}

// Create creates an executor for the configured store (sharepoint, google-drive or dropbox).
func (*ExecutorFactory) Create(cfg models.ProviderConfig, deps protocol.Dependencies) (protocol.Executor, error) {
	provider, err := simulated.NewDocumentProvider(cfg, deps.Clock)
	if err != nil {
		return nil, err
	}

	return NewExecutor(provider, deps), nil
}

func (*ExecutorFactory) Schema() map[string]any {
	addresses := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "format": "email"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"documentId": map[string]any{"type": "string"},
			"action": map[string]any{
				"type": "string",
				"enum": []string{"create", "update", "review", "approve", "archive"},
			},
			"version":   map[string]any{"type": "string"},
			"content":   map[string]any{"type": "string"},
			"reviewers": addresses,
			"approvers": addresses,
			"dueDate":   map[string]any{"type": "string", "format": "date-time"},
		},
		"required": []string{"documentId", "action"},
	}
}
