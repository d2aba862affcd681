package model

import (
	"fmt"
	"time"
)

// DateLayout is the canonical key format for calendar dates.
const DateLayout = "2006-01-02"

// Default shift bounds used when the roster generator or the call-in step
// creates a shift without explicit hours.
const (
	DefaultShiftStart = "09:00"
	DefaultShiftEnd   = "17:00"

	// DefaultCapacityMinutes is assumed when a shift has no defined hours.
	DefaultCapacityMinutes = 480
)

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as a date-only map key.
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Shift schedules one staff member for one date. A staff member has at most
// one shift per date; regenerating the roster overwrites start and end.
type Shift struct {
	StaffID string    `json:"staff_id"`
	Date    time.Time `json:"date"`

	// Start and End are wall-clock times in "HH:MM" form. Both empty means
	// the shift has no defined hours and defaults to 8 hours of capacity.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// CapacityMinutes converts the shift hours into available working minutes.
// Shifts without defined hours default to 8 hours; a negative span floors
// at zero.
func (s Shift) CapacityMinutes() int {
	if s.Start == "" || s.End == "" {
		return DefaultCapacityMinutes
	}
	start, err := minutesOfDay(s.Start)
	if err != nil {
		return DefaultCapacityMinutes
	}
	end, err := minutesOfDay(s.End)
	if err != nil {
		return DefaultCapacityMinutes
	}
	if end < start {
		return 0
	}
	return end - start
}

// minutesOfDay parses "HH:MM" into minutes since midnight. The seconds
// suffix some record systems append ("HH:MM:SS") is tolerated.
func minutesOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		if t, err = time.Parse("15:04:05", s); err != nil {
			return 0, fmt.Errorf("parse time of day %q: %w", s, err)
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}
