package schedule

import (
	"testing"
	"time"

	"github.com/sennacar/sennacar/internal/models"
)

func localDate(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, Location())
}

func TestParseDateTimeNormalizesToUTC(t *testing.T) {
	got, err := ParseDateTime("10/03/2026 14:30")
	if err != nil {
		t.Fatalf("ParseDateTime failed: %v", err)
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC result, got %v", got.Location())
	}
	want := localDate(2026, time.March, 10, 14, 30).UTC()
	if !got.Equal(want) {
		t.Errorf("ParseDateTime = %v, want %v", got, want)
	}
	if FormatDateTime(got) != "10/03/2026 14:30" {
		t.Errorf("FormatDateTime round trip = %q", FormatDateTime(got))
	}
}

func TestParseDateTimeRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "amanhã", "2026-03-10 14:30", "10/03/2026", "32/01/2026 10:00"} {
		if _, err := ParseDateTime(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestAvailableSlotsWeekday(t *testing.T) {
	// 2026-03-10 is a Tuesday.
	day := localDate(2026, time.March, 10, 0, 0)
	slots := AvailableSlots(day, nil)
	if len(slots) != 20 {
		t.Fatalf("expected 20 weekday slots, got %d", len(slots))
	}
	if slots[0] != "08:00" || slots[len(slots)-1] != "17:30" {
		t.Errorf("unexpected slot range: %s .. %s", slots[0], slots[len(slots)-1])
	}
}

func TestAvailableSlotsSaturday(t *testing.T) {
	// 2026-03-14 is a Saturday.
	day := localDate(2026, time.March, 14, 0, 0)
	slots := AvailableSlots(day, nil)
	if len(slots) != 10 {
		t.Fatalf("expected 10 Saturday slots, got %d", len(slots))
	}
	if slots[len(slots)-1] != "12:30" {
		t.Errorf("expected Saturday to end at 12:30, got %s", slots[len(slots)-1])
	}
}

func TestAvailableSlotsSundayEmpty(t *testing.T) {
	// 2026-03-15 is a Sunday.
	day := localDate(2026, time.March, 15, 0, 0)
	booked := []models.Appointment{
		{ScheduledAt: localDate(2026, time.March, 15, 10, 0).UTC(), Status: models.AppointmentConfirmed},
	}
	slots := AvailableSlots(day, booked)
	if len(slots) != 0 {
		t.Errorf("expected no Sunday slots, got %v", slots)
	}
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	day := localDate(2026, time.March, 10, 0, 0)
	booked := []models.Appointment{
		{ScheduledAt: localDate(2026, time.March, 10, 9, 0).UTC(), Status: models.AppointmentConfirmed},
		{ScheduledAt: localDate(2026, time.March, 10, 14, 30).UTC(), Status: models.AppointmentPending},
		// Cancelled bookings do not occupy slots.
		{ScheduledAt: localDate(2026, time.March, 10, 10, 0).UTC(), Status: models.AppointmentCancelled},
	}
	slots := AvailableSlots(day, booked)
	for _, s := range slots {
		if s == "09:00" || s == "14:30" {
			t.Errorf("slot %s should be occupied", s)
		}
	}
	found := false
	for _, s := range slots {
		if s == "10:00" {
			found = true
		}
	}
	if !found {
		t.Error("expected 10:00 to remain free after cancellation")
	}
	if len(slots) != 18 {
		t.Errorf("expected 18 free slots, got %d", len(slots))
	}
}

func TestDayBounds(t *testing.T) {
	at := localDate(2026, time.March, 10, 15, 45).UTC()
	start, end := DayBounds(at)
	if !start.Before(at) || !at.Before(end) {
		t.Errorf("instant should fall inside its day bounds: %v not in [%v, %v)", at, start, end)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("expected 24h day, got %v", end.Sub(start))
	}
}
