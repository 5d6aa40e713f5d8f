// Package reminder runs the daily job that sends next-day WhatsApp
// reminders for pending and confirmed appointments.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sennacar/sennacar/internal/notify"
	"github.com/sennacar/sennacar/internal/schedule"
	"github.com/sennacar/sennacar/internal/store"
)

// DefaultCronSpec fires once a day at 18:00 shop time.
const DefaultCronSpec = "0 18 * * *"

// Opts holds configuration options for the reminder service.
type Opts struct {
	Store    store.Store
	Notifier notify.Notifier
	CronSpec string
}

// Option defines a configuration option for the reminder service.
type Option func(*Opts)

// WithStore sets the persistence backend (required).
func WithStore(s store.Store) Option {
	return func(o *Opts) { o.Store = s }
}

// WithNotifier sets the WhatsApp notifier (required).
func WithNotifier(n notify.Notifier) Option {
	return func(o *Opts) { o.Notifier = n }
}

// WithCronSpec overrides the daily schedule.
func WithCronSpec(spec string) Option {
	return func(o *Opts) { o.CronSpec = spec }
}

// Service sends appointment reminders on a cron schedule.
type Service struct {
	store    store.Store
	notifier notify.Notifier
	spec     string
	cron     *cron.Cron
}

// NewService creates a reminder service. Start must be called to begin
// the cron schedule.
func NewService(opts ...Option) (*Service, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store must be provided")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier must be provided")
	}
	if cfg.CronSpec == "" {
		cfg.CronSpec = DefaultCronSpec
	}
	return &Service{store: cfg.Store, notifier: cfg.Notifier, spec: cfg.CronSpec}, nil
}

// Start schedules the daily job and starts the cron loop.
func (s *Service) Start() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(schedule.Location()),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(s.spec, func() {
		if err := s.SendTomorrowReminders(context.Background()); err != nil {
			slog.Error("Reminder job failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}
	c.Start()
	s.cron = c
	slog.Info("Reminder service started", "spec", s.spec)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SendTomorrowReminders notifies every client with a pending or
// confirmed appointment on the next shop-local day. One failed send
// does not stop the rest.
func (s *Service) SendTomorrowReminders(ctx context.Context) error {
	tomorrow := time.Now().In(schedule.Location()).AddDate(0, 0, 1)
	start, end := schedule.DayBounds(tomorrow)

	appointments, err := s.store.FindAppointmentsByDateRange(start, end, "")
	if err != nil {
		return fmt.Errorf("failed to query tomorrow's appointments: %w", err)
	}

	var sent, failed int
	for _, a := range appointments {
		if !a.Status.Blocking() {
			continue
		}
		client, err := s.store.GetClient(a.ClientID)
		if err != nil || client == nil {
			slog.Warn("Reminder skipped, client lookup failed", "appointment_id", a.ID, "client_id", a.ClientID, "error", err)
			failed++
			continue
		}
		body := notify.ReminderMessage(client.Name, a.ScheduledAt)
		if err := s.notifier.SendWhatsApp(ctx, client.Phone, body); err != nil {
			slog.Error("Reminder send failed", "appointment_id", a.ID, "to", client.Phone, "error", err)
			failed++
			continue
		}
		sent++
	}
	slog.Info("Reminder run finished", "sent", sent, "failed", failed, "window_start", start, "window_end", end)
	return nil
}
