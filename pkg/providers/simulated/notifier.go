package simulated

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hsetrack/hseflow/pkg/models"
)

// Delivery is one notification handed to the simulated sender.
type Delivery struct {
	Channel   models.NotificationChannel
	Recipient string
	Title     string
	Message   string
}

// Notifier logs every notification and keeps the deliveries in memory.
type Notifier struct {
	logger *slog.Logger

	mu         sync.Mutex
	deliveries []Delivery
	failOn     map[models.NotificationChannel]error
}

// NewNotifier creates a notifier that logs through logger.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{logger: logger.With("module", "notifier"), failOn: make(map[models.NotificationChannel]error)}
}

// FailChannel makes every delivery over channel fail with err.
func (n *Notifier) FailChannel(channel models.NotificationChannel, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.failOn[channel] = err
}

// Notify records the delivery.
func (n *Notifier) Notify(ctx context.Context, channel models.NotificationChannel, recipient, title, message string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.failOn[channel]; err != nil {
		return err
	}

	n.deliveries = append(n.deliveries, Delivery{Channel: channel, Recipient: recipient, Title: title, Message: message})
	n.logger.DebugContext(ctx, "Notification delivered", "channel", channel, "recipient", recipient, "title", title)

	return nil
}

// Deliveries returns a copy of everything delivered so far.
func (n *Notifier) Deliveries() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Delivery(nil), n.deliveries...)
}
