package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sennacar/sennacar/internal/models"
	"github.com/sennacar/sennacar/internal/notify"
	"github.com/sennacar/sennacar/internal/schedule"
	"github.com/sennacar/sennacar/internal/store"
)

func seedAppointment(t *testing.T, st *store.InMemoryStore, phone string, at time.Time, status models.AppointmentStatus) models.Client {
	t.Helper()
	client, err := st.CreateClient(models.Client{
		Name:  "Cliente " + phone,
		Email: phone + "@example.com",
		Phone: phone,
	})
	if err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	if _, err := st.CreateAppointment(models.Appointment{
		ClientID:    client.ID,
		ScheduledAt: at,
		Status:      status,
	}); err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	return client
}

func TestSendTomorrowReminders(t *testing.T) {
	st := store.NewInMemoryStore()
	mock := notify.NewMockNotifier()
	svc, err := NewService(WithStore(st), WithNotifier(mock))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	now := time.Now().In(schedule.Location())
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, schedule.Location()).AddDate(0, 0, 1).UTC()

	seedAppointment(t, st, "11999990001", tomorrow, models.AppointmentConfirmed)
	seedAppointment(t, st, "11999990002", tomorrow.Add(30*time.Minute), models.AppointmentCancelled)
	seedAppointment(t, st, "11999990003", tomorrow.AddDate(0, 0, 3), models.AppointmentConfirmed)

	if err := svc.SendTomorrowReminders(context.Background()); err != nil {
		t.Fatalf("SendTomorrowReminders failed: %v", err)
	}

	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected exactly one reminder, got %d: %+v", len(mock.SentMessages), mock.SentMessages)
	}
	msg := mock.SentMessages[0]
	if msg.To != "11999990001" {
		t.Errorf("reminder sent to wrong number: %s", msg.To)
	}
	if !strings.Contains(msg.Body, "amanhã") {
		t.Errorf("unexpected reminder body: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, schedule.FormatDateTime(tomorrow)) {
		t.Errorf("expected formatted datetime in body, got %q", msg.Body)
	}
}

func TestSendTomorrowRemindersContinuesOnFailure(t *testing.T) {
	st := store.NewInMemoryStore()
	mock := notify.NewMockNotifier()
	svc, err := NewService(WithStore(st), WithNotifier(mock))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	now := time.Now().In(schedule.Location())
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, schedule.Location()).AddDate(0, 0, 1).UTC()

	client := seedAppointment(t, st, "11999990004", tomorrow, models.AppointmentPending)
	// Orphan appointment: client deleted after booking.
	orphan := seedAppointment(t, st, "11999990005", tomorrow.Add(time.Hour), models.AppointmentPending)
	if err := st.DeleteClient(orphan.ID); err != nil {
		t.Fatalf("failed to delete client: %v", err)
	}

	if err := svc.SendTomorrowReminders(context.Background()); err != nil {
		t.Fatalf("SendTomorrowReminders failed: %v", err)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected one reminder despite orphan, got %d", len(mock.SentMessages))
	}
	if mock.SentMessages[0].To != client.Phone {
		t.Errorf("reminder sent to wrong number: %s", mock.SentMessages[0].To)
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(WithNotifier(notify.NewMockNotifier())); err == nil {
		t.Error("expected error without store")
	}
	if _, err := NewService(WithStore(store.NewInMemoryStore())); err == nil {
		t.Error("expected error without notifier")
	}
	svc, err := NewService(WithStore(store.NewInMemoryStore()), WithNotifier(notify.NewMockNotifier()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.spec != DefaultCronSpec {
		t.Errorf("expected default cron spec, got %q", svc.spec)
	}
}
