package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/lucasmnd/hkroster/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	unassigned  prometheus.Counter
	calledIn    prometheus.Counter
	loadRatio   *prometheus.HistogramVec
	rosterGap   *prometheus.GaugeVec
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The metrics server is started separately.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_assignments_total",
		Help: "Total number of room assignment decisions",
	}, []string{"cleaning_type", "sticky", "called_in"})
	unassigned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_unassigned_total",
		Help: "Rooms left unassigned after dispatch runs",
	})
	calledIn := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staff_called_in_total",
		Help: "Off-duty staff activated by overflow call-in",
	})
	loadRatio := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_run_load_minutes",
		Help:    "Minutes of work committed per assignment decision",
		Buckets: []float64{15, 30, 45, 60, 90, 120},
	}, []string{"cleaning_type"})
	rosterGap := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roster_staffing_gap",
		Help: "Planned minus needed staff per rostered day",
	}, []string{"date"})

	collectors := []prometheus.Collector{assignments, unassigned, calledIn, loadRatio, rosterGap}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	return &PromSink{
		assignments: collectors[0].(*prometheus.CounterVec),
		unassigned:  collectors[1].(prometheus.Counter),
		calledIn:    collectors[2].(prometheus.Counter),
		loadRatio:   collectors[3].(*prometheus.HistogramVec),
		rosterGap:   collectors[4].(*prometheus.GaugeVec),
	}, nil
}

// RecordAssignments increments the counters for each assignment decision.
func (s *PromSink) RecordAssignments(res []coremetrics.AssignmentResult) error {
	for _, r := range res {
		s.assignments.WithLabelValues(r.CleaningType, strconv.FormatBool(r.Sticky), strconv.FormatBool(r.CalledIn)).Inc()
		s.loadRatio.WithLabelValues(r.CleaningType).Observe(float64(r.EffortMins))
	}
	return nil
}

// RecordRun accumulates run-level counters.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.unassigned.Add(float64(ev.Unassigned))
	s.calledIn.Add(float64(ev.CalledIn))
	return nil
}

// RecordRosterDay sets the staffing gap gauge for the day.
func (s *PromSink) RecordRosterDay(ev coremetrics.RosterDayEvent) error {
	s.rosterGap.WithLabelValues(ev.Date.Format("2006-01-02")).Set(float64(ev.StaffPlanned - ev.StaffNeeded))
	return nil
}
