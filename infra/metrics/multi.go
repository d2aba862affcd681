package metrics

import coremetrics "github.com/lucasmnd/hkroster/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignments forwards the results to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAssignments(res []coremetrics.AssignmentResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignments(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun forwards run summaries to sinks that support them.
func (m *MultiSink) RecordRun(ev coremetrics.RunEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RunRecorder); ok {
			if err := rec.RecordRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRosterDay forwards roster outcomes to sinks that support them.
func (m *MultiSink) RecordRosterDay(ev coremetrics.RosterDayEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RosterRecorder); ok {
			if err := rec.RecordRosterDay(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
