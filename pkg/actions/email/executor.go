// Package email provides the email action executor.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/template"
	"github.com/hsetrack/hseflow/pkg/validation"
)

const defaultFollowUpPrefix = "Follow-up: "

// Executor sends templated emails through an EmailProvider.
type Executor struct {
	provider protocol.EmailProvider
	deps     protocol.Dependencies
}

// NewExecutor creates an email executor bound to provider.
func NewExecutor(provider protocol.EmailProvider, deps protocol.Dependencies) *Executor {
	return &Executor{provider: provider, deps: deps.WithDefaults()}
}

func (*Executor) Type() models.ActionType {
	return models.ActionTypeEmail
}

func (*Executor) Validate(action models.WorkflowAction, now time.Time) models.WorkflowValidation {
	return validation.Validate(action, now)
}

// Execute renders the template, sends the message and schedules the optional follow-up.
func (e *Executor) Execute(ctx context.Context, action models.WorkflowAction, onProgress protocol.ProgressFunc) (any, error) {
	if action.Email == nil {
		return nil, fmt.Errorf("%w: email", protocol.ErrMissingPayload)
	}

	email := *action.Email
	progress := protocol.NewProgress(onProgress)
	logger := log.FromContext(ctx, e.deps.Logger).With("provider", e.provider.Name())

	progress.Report(10)

	body, err := template.Render(email.Template, email.TemplateData)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	progress.Report(30)

	result, err := e.provider.Send(ctx, email, body)
	if err != nil {
		return nil, fmt.Errorf("%s failed to send email: %w", e.provider.Name(), err)
	}

	progress.Report(80)

	if email.FollowUp != nil && email.FollowUp.Enabled {
		e.scheduleFollowUp(email, result.MessageID)
		logger.InfoContext(ctx, "Follow-up email scheduled", "delay", email.FollowUp.Delay, "message_id", result.MessageID)
	}

	progress.Report(90)

	return result, nil
}

func (e *Executor) scheduleFollowUp(original models.EmailAction, messageID string) {
	followUp := original
	followUp.Template = original.FollowUp.Template
	followUp.FollowUp = nil

	followUp.Subject = original.FollowUp.Subject
	if followUp.Subject == "" {
		followUp.Subject = defaultFollowUpPrefix + original.Subject
	}

	e.deps.Deferrer.Defer("email follow-up "+messageID, original.FollowUp.Delay, func(ctx context.Context) error {
		body, err := template.Render(followUp.Template, followUp.TemplateData)
		if err != nil {
			return fmt.Errorf("failed to render follow-up template: %w", err)
		}

		result, err := e.provider.Send(ctx, followUp, body)
		if err != nil {
			return fmt.Errorf("failed to send follow-up for %s: %w", messageID, err)
		}

		e.deps.Logger.InfoContext(ctx, "Follow-up email sent", "original_message_id", messageID, "message_id", result.MessageID)

		return nil
	})
}
