// Package notification provides the multi-channel notification action executor.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/validation"
)

// ErrNoRecipients is returned when there is nobody to deliver to.
var ErrNoRecipients = errors.New("notification has no recipients")

// DefaultChannels are used when an action names no channel.
var DefaultChannels = []models.NotificationChannel{models.ChannelInApp}

// Executor fans a notification out to every recipient over every channel.
type Executor struct {
	sender protocol.NotificationSender
	deps   protocol.Dependencies
}

// NewExecutor creates a notification executor that delivers through sender.
func NewExecutor(sender protocol.NotificationSender, deps protocol.Dependencies) *Executor {
	deps = deps.WithDefaults()
	if sender == nil {
		sender = deps.Notifier
	}

	return &Executor{sender: sender, deps: deps}
}

func (*Executor) Type() models.ActionType {
	return models.ActionTypeNotification
}

func (*Executor) Validate(action models.WorkflowAction, now time.Time) models.WorkflowValidation {
	return validation.Validate(action, now)
}

// Execute delivers the message. The execution fails only when no delivery succeeds;
// partial delivery is reported through the result status.
func (e *Executor) Execute(ctx context.Context, action models.WorkflowAction, onProgress protocol.ProgressFunc) (any, error) {
	if action.Notification == nil {
		return nil, fmt.Errorf("%w: notification", protocol.ErrMissingPayload)
	}

	notification := *action.Notification
	progress := protocol.NewProgress(onProgress)
	logger := log.FromContext(ctx, e.deps.Logger)

	channels := notification.Channels
	if len(channels) == 0 {
		channels = DefaultChannels
	}

	total := len(channels) * len(notification.Recipients)
	if total == 0 {
		return nil, ErrNoRecipients
	}

	delivered := make(map[models.NotificationChannel]int, len(channels))
	attempted := 0

	var errs []error

	for _, channel := range channels {
		for _, recipient := range notification.Recipients {
			err := e.sender.Notify(ctx, channel, recipient, notification.Title, notification.Message)
			if err != nil {
				logger.WarnContext(ctx, "Notification delivery failed", "channel", channel, "recipient", recipient, "error", err)
				errs = append(errs, fmt.Errorf("%s to %s: %w", channel, recipient, err))
			} else {
				delivered[channel]++
			}

			attempted++
			progress.Report(attempted * 90 / total)
		}
	}

	if len(errs) == total {
		return nil, fmt.Errorf("all %d notification deliveries failed: %w", total, errors.Join(errs...))
	}

	status := "sent"
	if len(errs) > 0 {
		status = "partial"
	}

	return models.NotificationResult{
		NotificationID: uuid.NewString(),
		Status:         status,
		Delivered:      delivered,
		Timestamp:      e.deps.Clock.Now(),
	}, nil
}
