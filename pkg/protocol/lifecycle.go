package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/jonboulle/clockwork"
)

// Deferrer runs secondary work after a delay. Deferred work lives in memory only
// and is dropped when the owner shuts down.
type Deferrer interface {
	// Defer schedules fn to run once after delay. name identifies the work in logs.
	Defer(name string, delay time.Duration, fn func(ctx context.Context) error)
}

// Dependencies contains the common dependencies that executors need.
type Dependencies struct {
	Logger   *slog.Logger
	Clock    clockwork.Clock
	Deferrer Deferrer
	Notifier NotificationSender

	// NotificationsEnabled gates secondary notifications such as reviewer and reminder messages.
	NotificationsEnabled bool
}

// WithDefaults fills unset dependencies. Without a Deferrer, deferred work is dropped
// and logged; without a Notifier, notifications are only logged.
func (d Dependencies) WithDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}

	if d.Deferrer == nil {
		d.Deferrer = droppingDeferrer{logger: d.Logger}
	}

	if d.Notifier == nil {
		d.Notifier = loggingNotifier{logger: d.Logger}
	}

	return d
}

type droppingDeferrer struct {
	logger *slog.Logger
}

func (d droppingDeferrer) Defer(name string, delay time.Duration, _ func(ctx context.Context) error) {
	d.logger.Warn("No deferrer configured, dropping deferred work", "name", name, "delay", delay)
}

type loggingNotifier struct {
	logger *slog.Logger
}

func (n loggingNotifier) Notify(ctx context.Context, channel models.NotificationChannel, recipient, title, _ string) error {
	n.logger.InfoContext(ctx, "Notification", "channel", channel, "recipient", recipient, "title", title)

	return nil
}
