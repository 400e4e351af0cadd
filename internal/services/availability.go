package services

import (
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/models"
)

// WeekdayName returns the English weekday of the calendar date, independent
// of the server locale and of the date's time zone offset.
func WeekdayName(date time.Time) string {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).Weekday().String()
}

// SlotsForDay returns the slots of the first availability entry matching the
// date's weekday. Later entries for the same day are ignored.
func SlotsForDay(coach *models.Coach, date time.Time) ([]string, bool) {
	if coach == nil {
		return nil, false
	}
	day := WeekdayName(date)
	for _, entry := range coach.Availability {
		if entry.Day == day {
			return entry.Slots, true
		}
	}
	return nil, false
}

// IsBookable reports whether slot is offered by the coach on the date.
// Labels are compared byte for byte.
func IsBookable(coach *models.Coach, date time.Time, slot string) bool {
	slots, ok := SlotsForDay(coach, date)
	if !ok {
		return false
	}
	for _, candidate := range slots {
		if candidate == slot {
			return true
		}
	}
	return false
}

// OpenSlots lists the coach's slots for the date minus the booked ones,
// preserving the declared order.
func OpenSlots(coach *models.Coach, date time.Time, booked []string) []string {
	slots, _ := SlotsForDay(coach, date)
	taken := make(map[string]struct{}, len(booked))
	for _, slot := range booked {
		taken[slot] = struct{}{}
	}

	open := make([]string, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		if _, ok := taken[slot]; ok {
			continue
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		open = append(open, slot)
	}
	return open
}
