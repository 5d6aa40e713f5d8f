// Package schedule computes available installation slots and converts
// between the shop's local time and the UTC timestamps kept in storage.
package schedule

import (
	"fmt"
	"time"

	"github.com/sennacar/sennacar/internal/models"
)

// DateTimeLayout is the wire format for appointment datetimes
// ("DD/MM/AAAA HH:MM").
const DateTimeLayout = "02/01/2006 15:04"

// DateLayout is the wire format for plain dates.
const DateLayout = "2006-01-02"

// SlotInterval is the length of one installation slot.
const SlotInterval = 30 * time.Minute

var shopLocation = mustLoadLocation("America/Sao_Paulo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load timezone %s: %v", name, err))
	}
	return loc
}

// Location returns the shop timezone.
func Location() *time.Location {
	return shopLocation
}

// ParseDateTime parses "DD/MM/AAAA HH:MM" in the shop timezone and
// returns the instant normalized to UTC.
func ParseDateTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, value, shopLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %q: %w", value, err)
	}
	return t.UTC(), nil
}

// FormatDateTime renders a stored UTC instant in the shop timezone
// using the wire format.
func FormatDateTime(t time.Time) string {
	return t.In(shopLocation).Format(DateTimeLayout)
}

// DayBounds returns the UTC half-open interval [start, end) covering the
// shop-local day that contains t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(shopLocation)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, shopLocation)
	return start.UTC(), start.Add(24 * time.Hour).UTC()
}

// closingHour returns the shop-local closing hour for the weekday, or
// false when the shop is closed that day.
func closingHour(day time.Weekday) (int, bool) {
	switch day {
	case time.Sunday:
		return 0, false
	case time.Saturday:
		return 13, true
	default:
		return 18, true
	}
}

// AvailableSlots lists the free "HH:MM" slots of the shop-local day
// containing date. Appointments are the day's existing bookings as
// stored (UTC); only pending and confirmed ones occupy their slot.
// Sundays yield an empty list regardless of bookings.
func AvailableSlots(date time.Time, appointments []models.Appointment) []string {
	local := date.In(shopLocation)
	closing, open := closingHour(local.Weekday())
	if !open {
		return []string{}
	}

	occupied := make(map[string]bool)
	for _, a := range appointments {
		if !a.Status.Blocking() {
			continue
		}
		at := a.ScheduledAt.In(shopLocation)
		if at.Year() == local.Year() && at.YearDay() == local.YearDay() {
			occupied[at.Format("15:04")] = true
		}
	}

	var slots []string
	cursor := time.Date(local.Year(), local.Month(), local.Day(), 8, 0, 0, 0, shopLocation)
	closeAt := time.Date(local.Year(), local.Month(), local.Day(), closing, 0, 0, 0, shopLocation)
	for cursor.Before(closeAt) {
		label := cursor.Format("15:04")
		if !occupied[label] {
			slots = append(slots, label)
		}
		cursor = cursor.Add(SlotInterval)
	}
	if slots == nil {
		slots = []string{}
	}
	return slots
}
