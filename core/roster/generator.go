// Package roster builds weekly shift plans against forecast demand.
package roster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lucasmnd/hkroster/core/effort"
	"github.com/lucasmnd/hkroster/core/forecast"
	"github.com/lucasmnd/hkroster/core/logger"
	"github.com/lucasmnd/hkroster/core/metrics"
	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/core/store"
)

// ErrMissingDate rejects generation without a usable start date. Validation
// happens before any shift is deleted.
var ErrMissingDate = errors.New("start date required")

// TargetShiftMinutes is the workload one rostered staff member is expected
// to absorb per day (7 hours).
const TargetShiftMinutes = 7 * 60

// Result is the outcome of one generation run.
type Result struct {
	Shifts []model.Shift `json:"shifts"`
	Alerts []string      `json:"alerts"`
	Start  time.Time     `json:"start"`
}

// Generator produces a week of shift assignments, balancing load across
// staff and honoring per-day availability overrides.
type Generator struct {
	rooms  store.RoomStore
	staff  store.StaffStore
	shifts store.ShiftStore
	avail  store.AvailabilityStore
	est    effort.Estimator
	log    logger.Logger
	sink   metrics.MetricsSink
}

// New creates a Generator. sink may be nil.
func New(rooms store.RoomStore, staff store.StaffStore, shifts store.ShiftStore, avail store.AvailabilityStore, est effort.Estimator, log logger.Logger, sink metrics.MetricsSink) *Generator {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Generator{rooms: rooms, staff: staff, shifts: shifts, avail: avail, est: est, log: log, sink: sink}
}

// Generate rebuilds the roster for [start, start+6]. Existing shifts in the
// window are deleted first: regeneration is a full overwrite, never an
// incremental patch, so availability changes (e.g. a member switched to OFF)
// cannot leave stale shifts behind.
func (g *Generator) Generate(ctx context.Context, start time.Time) (Result, error) {
	if start.IsZero() {
		return Result{}, ErrMissingDate
	}
	start = model.DateOf(start)
	end := start.AddDate(0, 0, 6)

	cleaners, err := g.staff.ByRole(ctx, model.RoleCleaner)
	if err != nil {
		return Result{}, fmt.Errorf("list cleaners: %w", err)
	}
	pool := cleaners[:0]
	for _, c := range cleaners {
		if c.Active {
			pool = append(pool, c)
		}
	}

	if err := g.shifts.DeleteRange(ctx, start, end); err != nil {
		return Result{}, fmt.Errorf("clear week: %w", err)
	}

	res := Result{Start: start}
	// Shifts handed out per staff member during this run; drives the
	// round-robin fairness ranking.
	handedOut := map[string]int{}

	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		demand, err := forecast.Demand(ctx, g.rooms, g.est, date)
		if err != nil {
			return Result{}, err
		}
		needed := staffNeeded(demand)

		sort.SliceStable(pool, func(a, b int) bool {
			return handedOut[pool[a].ID] < handedOut[pool[b].ID]
		})

		assigned := 0
		for _, member := range pool {
			if assigned >= needed {
				break
			}
			startHM, endHM, ok, err := g.hoursFor(ctx, member.ID, date)
			if err != nil {
				return Result{}, err
			}
			if !ok {
				continue
			}
			sh := model.Shift{StaffID: member.ID, Date: date, Start: startHM, End: endHM}
			if err := g.shifts.Upsert(ctx, sh); err != nil {
				return Result{}, fmt.Errorf("upsert shift: %w", err)
			}
			res.Shifts = append(res.Shifts, sh)
			handedOut[member.ID]++
			assigned++
		}

		day := model.DateKey(date)
		if assigned < needed {
			res.Alerts = append(res.Alerts, fmt.Sprintf("%s: shortage, need %d more cleaners", day, needed-assigned))
		} else if assigned > needed {
			res.Alerts = append(res.Alerts, fmt.Sprintf("%s: surplus of %d extra staff", day, assigned-needed))
		}

		if rec, ok := g.sink.(metrics.RosterRecorder); ok {
			if err := rec.RecordRosterDay(metrics.RosterDayEvent{
				Date: date, DemandMins: demand, StaffNeeded: needed, StaffPlanned: assigned, Time: time.Now(),
			}); err != nil {
				g.log.Warnf("record roster day: %v", err)
			}
		}
		g.log.Debugw("rostered day", map[string]any{"date": day, "demand_mins": demand, "needed": needed, "assigned": assigned})
	}

	g.log.Infof("roster generated for week of %s: %d shifts, %d alerts", model.DateKey(start), len(res.Shifts), len(res.Alerts))
	return res, nil
}

// staffNeeded sizes the day's workforce. Demand rounds to the nearest full
// shift; any nonzero demand needs at least one cleaner, and even an empty
// day keeps a baseline of one rostered member for coverage.
func staffNeeded(demandMins int) int {
	n := int(math.Round(float64(demandMins) / TargetShiftMinutes))
	if n < 1 {
		n = 1
	}
	return n
}

// hoursFor resolves the working hours of a staff member for a date. OFF and
// VACATION overrides exclude the member entirely; PARTIAL overrides carry
// custom hours.
func (g *Generator) hoursFor(ctx context.Context, staffID string, date time.Time) (start, end string, ok bool, err error) {
	ov, found, err := g.avail.Override(ctx, staffID, date)
	if err != nil {
		return "", "", false, fmt.Errorf("availability for %s: %w", staffID, err)
	}
	if found && ov.Excluded() {
		return "", "", false, nil
	}
	start, end = model.DefaultShiftStart, model.DefaultShiftEnd
	if found {
		if ov.Start != "" {
			start = ov.Start
		}
		if ov.End != "" {
			end = ov.End
		}
	}
	return start, end, true, nil
}

// WeekShifts lists the raw shifts in [start, start+6], optionally filtered
// to a single staff member.
func WeekShifts(ctx context.Context, shifts store.ShiftStore, start time.Time, staffID string) ([]model.Shift, error) {
	if start.IsZero() {
		return nil, ErrMissingDate
	}
	start = model.DateOf(start)
	all, err := shifts.Range(ctx, start, start.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}
	if staffID == "" {
		return all, nil
	}
	res := all[:0]
	for _, sh := range all {
		if sh.StaffID == staffID {
			res = append(res, sh)
		}
	}
	return res, nil
}
