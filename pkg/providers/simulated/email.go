package simulated

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hsetrack/hseflow/pkg/config"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/jonboulle/clockwork"
)

// EmailProvider simulates smtp, sendgrid and aws-ses delivery.
type EmailProvider struct {
	backend
}

// NewEmailProvider returns the simulated back end named by cfg.Provider.
func NewEmailProvider(cfg models.ProviderConfig, clock clockwork.Clock) (*EmailProvider, error) {
	b, err := newBackend("email", cfg.Provider, config.SupportedProviders("email"), cfg.Config, clock)
	if err != nil {
		return nil, err
	}

	return &EmailProvider{backend: b}, nil
}

// Send delivers the email. SendGrid accepts messages for later delivery and reports them as queued.
func (p *EmailProvider) Send(ctx context.Context, email models.EmailAction, body string) (models.EmailResult, error) {
	err := p.call(ctx, "send")
	if err != nil {
		return models.EmailResult{}, err
	}

	if body == "" {
		return models.EmailResult{}, fmt.Errorf("%s: refusing to send an empty message", p.name)
	}

	status := "sent"
	if p.name == models.EmailProviderSendGrid {
		status = "queued"
	}

	recipients := make([]string, 0, len(email.To)+len(email.CC)+len(email.BCC))
	recipients = append(recipients, email.To...)
	recipients = append(recipients, email.CC...)
	recipients = append(recipients, email.BCC...)

	return models.EmailResult{
		MessageID:  "<" + uuid.NewString() + "@" + p.name + ">",
		Status:     status,
		Provider:   p.name,
		Recipients: recipients,
		Timestamp:  p.clock.Now(),
	}, nil
}
