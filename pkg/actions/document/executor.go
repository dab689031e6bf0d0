// Package document provides the document management action executor.
package document

import (
	"context"
	"fmt"
	"time"

	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/validation"
)

// Executor applies document operations through a DocumentProvider.
type Executor struct {
	provider protocol.DocumentProvider
	deps     protocol.Dependencies
}

// NewExecutor creates a document executor bound to provider.
func NewExecutor(provider protocol.DocumentProvider, deps protocol.Dependencies) *Executor {
	return &Executor{provider: provider, deps: deps.WithDefaults()}
}

func (*Executor) Type() models.ActionType {
	return models.ActionTypeDocument
}

func (*Executor) Validate(action models.WorkflowAction, now time.Time) models.WorkflowValidation {
	return validation.Validate(action, now)
}

func (e *Executor) Execute(ctx context.Context, action models.WorkflowAction, onProgress protocol.ProgressFunc) (any, error) {
	if action.Document == nil {
		return nil, fmt.Errorf("%w: document", protocol.ErrMissingPayload)
	}

	document := *action.Document
	progress := protocol.NewProgress(onProgress)

	progress.Report(15)

	result, err := e.provider.Apply(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("%s failed to %s document %s: %w", e.provider.Name(), document.Operation, document.DocumentID, err)
	}

	progress.Report(75)

	recipients, title := participants(document)
	if len(recipients) > 0 && e.deps.NotificationsEnabled {
		e.notify(recipients, title, document, result)
		log.FromContext(ctx, e.deps.Logger).InfoContext(ctx, "Document participants notification queued",
			"document_id", document.DocumentID, "recipients", len(recipients))
	}

	progress.Report(90)

	return result, nil
}

// participants returns who must act on the document after the operation.
func participants(document models.DocumentAction) ([]string, string) {
	switch document.Operation {
	case models.DocumentReview:
		return document.Reviewers, "Review requested: " + document.DocumentID
	case models.DocumentApprove:
		return document.Approvers, "Approval requested: " + document.DocumentID
	default:
		return nil, ""
	}
}

func (e *Executor) notify(recipients []string, title string, document models.DocumentAction, result models.DocumentResult) {
	message := fmt.Sprintf("Version %s of %s is waiting for you", result.Version, document.DocumentID)
	if document.DueDate != nil {
		message += " (due " + document.DueDate.Format(time.DateOnly) + ")"
	}

	if result.URL != "" {
		message += ": " + result.URL
	}

	e.deps.Deferrer.Defer("document notification "+document.DocumentID, 0, func(ctx context.Context) error {
		var failed int

		for _, recipient := range recipients {
			err := e.deps.Notifier.Notify(ctx, models.ChannelEmail, recipient, title, message)
			if err != nil {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d participant notifications failed for %s", failed, len(recipients), document.DocumentID)
		}

		return nil
	})
}
