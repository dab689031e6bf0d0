package simulated

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hsetrack/hseflow/pkg/config"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/jonboulle/clockwork"
)

// CalendarProvider simulates google and outlook calendars.
type CalendarProvider struct {
	backend
}

// NewCalendarProvider returns the simulated back end named by cfg.Provider.
func NewCalendarProvider(cfg models.ProviderConfig, clock clockwork.Clock) (*CalendarProvider, error) {
	b, err := newBackend("calendar", cfg.Provider, config.SupportedProviders("calendar"), cfg.Config, clock)
	if err != nil {
		return nil, err
	}

	return &CalendarProvider{backend: b}, nil
}

// CreateEvent books the meeting. Virtual meetings without a link get a generated one.
func (p *CalendarProvider) CreateEvent(ctx context.Context, meeting models.MeetingAction) (models.MeetingResult, error) {
	err := p.call(ctx, "create event")
	if err != nil {
		return models.MeetingResult{}, err
	}

	meetingID := uuid.NewString()
	eventID := strings.ReplaceAll(meetingID, "-", "")

	link := meeting.MeetingLink
	if meeting.IsVirtual && link == "" {
		link = p.meetingLink(eventID)
	}

	return models.MeetingResult{
		MeetingID:   meetingID,
		EventID:     eventID,
		Status:      "scheduled",
		Provider:    p.name,
		Attendees:   append([]string(nil), meeting.Attendees...),
		MeetingLink: link,
		CalendarLinks: map[string]string{
			p.name: p.eventLink(eventID),
			"ics":  p.url("https://calendar.hseflow.local", "ics", eventID+".ics"),
		},
	}, nil
}

func (p *CalendarProvider) meetingLink(eventID string) string {
	if p.name == models.CalendarProviderOutlook {
		return "https://teams.microsoft.com/l/meetup-join/" + eventID
	}

	return "https://meet.google.com/" + eventID[0:3] + "-" + eventID[3:7] + "-" + eventID[7:10]
}

func (p *CalendarProvider) eventLink(eventID string) string {
	if p.name == models.CalendarProviderOutlook {
		return p.url("https://outlook.office.com/calendar", "item", eventID)
	}

	return p.url("https://calendar.google.com/calendar/event", eventID)
}
