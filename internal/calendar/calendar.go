// Package calendar mirrors confirmed appointments to Google Calendar.
//
// Sync is best-effort: callers log failures and keep the booking.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// EventDuration is the length of a synced installation event.
const EventDuration = 30 * time.Minute

// Event is the calendar-facing view of an appointment.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	TimeZone    string
}

// EventCreator mirrors an event to an external calendar and returns the
// created event id.
type EventCreator interface {
	CreateEvent(ctx context.Context, ev Event) (string, error)
}

// Opts holds configuration options for the Google Calendar client.
type Opts struct {
	// CredentialsFile is the OAuth client credentials JSON file.
	CredentialsFile string
	// TokenFile is the stored OAuth token JSON file.
	TokenFile string
	// CalendarID is the target calendar ("primary" by default).
	CalendarID string
}

// Option defines a configuration option for the Google Calendar client.
type Option func(*Opts)

// WithCredentialsFile sets the OAuth client credentials file path.
func WithCredentialsFile(path string) Option {
	return func(o *Opts) { o.CredentialsFile = path }
}

// WithTokenFile sets the stored OAuth token file path.
func WithTokenFile(path string) Option {
	return func(o *Opts) { o.TokenFile = path }
}

// WithCalendarID sets the target calendar id.
func WithCalendarID(id string) Option {
	return func(o *Opts) { o.CalendarID = id }
}

// GoogleClient creates events through the Google Calendar API.
type GoogleClient struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleClient builds a Calendar client from an OAuth credentials
// file and a previously stored token file.
func NewGoogleClient(ctx context.Context, opts ...Option) (*GoogleClient, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("GoogleClient config loaded",
		"CredentialsFile_set", cfg.CredentialsFile != "",
		"TokenFile_set", cfg.TokenFile != "")
	if cfg.CredentialsFile == "" || cfg.TokenFile == "" {
		return nil, fmt.Errorf("credentials and token files must be provided")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}

	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(raw, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	token, err := readToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleClient{svc: svc, calendarID: cfg.CalendarID}, nil
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer f.Close()
	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return &token, nil
}

// CreateEvent inserts a 30-minute event with popup and email reminders.
func (c *GoogleClient) CreateEvent(ctx context.Context, ev Event) (string, error) {
	tz := ev.TimeZone
	if tz == "" {
		tz = "America/Sao_Paulo"
	}
	event := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.Start.Add(EventDuration).Format(time.RFC3339),
			TimeZone: tz,
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "popup", Minutes: 30},
				{Method: "email", Minutes: 24 * 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		slog.Error("GoogleClient CreateEvent failed", "error", err, "summary", ev.Summary)
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	slog.Debug("GoogleClient CreateEvent succeeded", "event_id", created.Id)
	return created.Id, nil
}

// MockEventCreator records created events for tests.
type MockEventCreator struct {
	Events []Event
	Err    error
}

// NewMockEventCreator creates an empty mock.
func NewMockEventCreator() *MockEventCreator {
	return &MockEventCreator{Events: []Event{}}
}

func (m *MockEventCreator) CreateEvent(ctx context.Context, ev Event) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Events = append(m.Events, ev)
	return fmt.Sprintf("mock-event-%d", len(m.Events)), nil
}
