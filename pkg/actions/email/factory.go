package email

import (
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/providers/simulated"
)

// ExecutorFactory creates email executors.
type ExecutorFactory struct{}

// NewExecutorFactory creates a new factory instance.
func NewExecutorFactory() *ExecutorFactory {
	return &ExecutorFactory{}
}

// ID returns the action type handled by the executors.
func (*ExecutorFactory) ID() models.ActionType {
	return models.ActionTypeEmail
}

// Name returns the factory name.
func (*ExecutorFactory) Name() string {
	return "Email"
}

// Description returns the factory description.
func (*ExecutorFactory) Description() string {
	return "Sends a templated email to a set of recipients with optional open/click tracking and a delayed follow-up"
}

// Create creates an executor for the configured email provider (smtp, sendgrid or aws-ses).
func (*ExecutorFactory) Create(cfg models.ProviderConfig, deps protocol.Dependencies) (protocol.Executor, error) {
	provider, err := simulated.NewEmailProvider(cfg, deps.Clock)
	if err != nil {
		return nil, err
	}

	return NewExecutor(provider, deps), nil
}

// Schema returns the JSON schema for the email payload.
func (*ExecutorFactory) Schema() map[string]any {
	addresses := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "format": "email"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":  addresses,
			"cc":  addresses,
			"bcc": addresses,
			"subject": map[string]any{
				"type":        "string",
				"description": "Subject line of the email",
			},
			"template": map[string]any{
				"type":        "string",
				"description": "Message body. Supports {{name}} placeholders filled from templateData.",
				"examples": []string{
					"Hello {{name}}",
					"Your induction for {{site}} is scheduled on {{date}}",
				},
			},
			"templateData": map[string]any{
				"type": "object",
			},
			"attachments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
						"url":  map[string]any{"type": "string"},
						"size": map[string]any{"type": "integer"},
					},
					"required": []string{"name", "url"},
				},
			},
			"trackOpens":  map[string]any{"type": "boolean", "default": false},
			"trackClicks": map[string]any{"type": "boolean", "default": false},
			"followUp": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"enabled":  map[string]any{"type": "boolean"},
					"delay":    map[string]any{"type": "integer", "description": "Delay in nanoseconds before the follow-up is sent"},
					"template": map[string]any{"type": "string"},
					"subject":  map[string]any{"type": "string"},
				},
			},
		},
		"required": []string{"to", "subject", "template"},
	}
}
