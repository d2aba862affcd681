// Package metrics defines the observability boundary of the scheduling
// engine. Sinks receive structured events; implementations live under
// infra/metrics.
package metrics

import "time"

// AssignmentResult represents one room-to-staff dispatch decision.
type AssignmentResult struct {
	RunID        string
	Date         time.Time
	RoomNumber   string
	StaffID      string
	Team         string
	CleaningType string
	Score        int
	EffortMins   int
	Sticky       bool
	Reassigned   bool
	CalledIn     bool
	Time         time.Time
}

// MetricsSink records assignment results for observability purposes.
type MetricsSink interface {
	RecordAssignments(results []AssignmentResult) error
}

// RunEvent summarises one full dispatcher run.
type RunEvent struct {
	RunID      string
	Date       time.Time
	Assigned   int
	Unassigned int
	Reassigned int
	CalledIn   int
	OnDuty     int
	Time       time.Time
}

// RunRecorder records dispatcher run summaries. Sinks may optionally
// implement it in addition to MetricsSink.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// RosterDayEvent captures the staffing outcome for one rostered day.
type RosterDayEvent struct {
	Date         time.Time
	DemandMins   int
	StaffNeeded  int
	StaffPlanned int
	Time         time.Time
}

// RosterRecorder records roster generation outcomes.
type RosterRecorder interface {
	RecordRosterDay(ev RosterDayEvent) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) RecordAssignments([]AssignmentResult) error { return nil }
func (NopSink) RecordRun(RunEvent) error                   { return nil }
func (NopSink) RecordRosterDay(RosterDayEvent) error       { return nil }
