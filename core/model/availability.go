package model

import "time"

// AvailabilityStatus classifies a staff member's availability for a date.
type AvailabilityStatus string

const (
	Available AvailabilityStatus = "AVAILABLE"
	Partial   AvailabilityStatus = "PARTIAL"
	DayOff    AvailabilityStatus = "OFF"
	Vacation  AvailabilityStatus = "VACATION"
)

// AvailabilityOverride is a per-staff, per-date exception consumed by the
// roster generator. OFF and VACATION exclude the staff member for the day;
// PARTIAL supplies custom hours through Start/End.
type AvailabilityOverride struct {
	StaffID string             `json:"staff_id"`
	Date    time.Time          `json:"date"`
	Status  AvailabilityStatus `json:"status"`
	Start   string             `json:"start,omitempty"`
	End     string             `json:"end,omitempty"`
}

// Excluded reports whether the override removes the staff member from the
// day entirely.
func (a AvailabilityOverride) Excluded() bool {
	return a.Status == DayOff || a.Status == Vacation
}
