// Package meeting provides the calendar meeting action executor.
package meeting

import (
	"context"
	"fmt"
	"time"

	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/validation"
)

// Executor books meetings through a CalendarProvider and schedules their reminders.
type Executor struct {
	provider protocol.CalendarProvider
	deps     protocol.Dependencies
}

// NewExecutor creates a meeting executor bound to provider.
func NewExecutor(provider protocol.CalendarProvider, deps protocol.Dependencies) *Executor {
	return &Executor{provider: provider, deps: deps.WithDefaults()}
}

func (*Executor) Type() models.ActionType {
	return models.ActionTypeMeeting
}

func (*Executor) Validate(action models.WorkflowAction, now time.Time) models.WorkflowValidation {
	return validation.Validate(action, now)
}

func (e *Executor) Execute(ctx context.Context, action models.WorkflowAction, onProgress protocol.ProgressFunc) (any, error) {
	if action.Meeting == nil {
		return nil, fmt.Errorf("%w: meeting", protocol.ErrMissingPayload)
	}

	meeting := *action.Meeting
	progress := protocol.NewProgress(onProgress)

	progress.Report(20)

	result, err := e.provider.CreateEvent(ctx, meeting)
	if err != nil {
		return nil, fmt.Errorf("%s failed to create meeting: %w", e.provider.Name(), err)
	}

	progress.Report(70)

	if meeting.Reminders.Enabled && e.deps.NotificationsEnabled {
		scheduled := e.scheduleReminders(ctx, meeting, result)
		log.FromContext(ctx, e.deps.Logger).InfoContext(ctx, "Meeting reminders scheduled",
			"meeting_id", result.MeetingID, "reminders", scheduled)
	}

	progress.Report(90)

	return result, nil
}

// scheduleReminders defers one reminder per offset that is still in the future.
func (e *Executor) scheduleReminders(ctx context.Context, meeting models.MeetingAction, result models.MeetingResult) int {
	logger := log.FromContext(ctx, e.deps.Logger)
	now := e.deps.Clock.Now()
	scheduled := 0

	for _, offset := range meeting.Reminders.Offsets {
		delay := meeting.StartTime.Add(-offset).Sub(now)
		if delay <= 0 {
			logger.WarnContext(ctx, "Skipping reminder already in the past", "meeting_id", result.MeetingID, "offset", offset)

			continue
		}

		title := "Reminder: " + meeting.Subject
		message := fmt.Sprintf("%s starts at %s", meeting.Subject, meeting.StartTime.Format(time.RFC1123))

		if result.MeetingLink != "" {
			message += " (" + result.MeetingLink + ")"
		}

		e.deps.Deferrer.Defer("meeting reminder "+result.MeetingID, delay, func(ctx context.Context) error {
			var failed int

			for _, attendee := range result.Attendees {
				err := e.deps.Notifier.Notify(ctx, models.ChannelEmail, attendee, title, message)
				if err != nil {
					failed++

					e.deps.Logger.WarnContext(ctx, "Failed to send meeting reminder", "attendee", attendee, "error", err)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d reminders failed for meeting %s", failed, len(result.Attendees), result.MeetingID)
			}

			return nil
		})

		scheduled++
	}

	return scheduled
}
