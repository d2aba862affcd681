// Package forecast aggregates expected cleaning demand against rostered
// capacity over a seven day window. All operations are read-only snapshots;
// the forecaster never mutates rooms, staff or shifts.
package forecast

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lucasmnd/hkroster/core/effort"
	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/core/store"
)

// StayoverMinutes is the flat estimate for refreshing an occupied room.
const StayoverMinutes = 20

// CapacitySurplusFactor marks a day overstaffed once capacity exceeds
// demand by this factor.
const CapacitySurplusFactor = 1.5

// UngroupedTeam labels capacity from staff without a team.
const UngroupedTeam = "Ungrouped"

// DayStatus classifies a forecast day.
type DayStatus string

const (
	Understaffed DayStatus = "UNDERSTAFFED"
	Optimal      DayStatus = "OPTIMAL"
	Overstaffed  DayStatus = "OVERSTAFFED"
)

// Day is the derived demand/capacity report for one date. Team maps are
// keyed by team label; TeamAssignments and TeamLoads are only populated when
// the day is the current date.
type Day struct {
	Date            time.Time      `json:"date"`
	DayName         string         `json:"day_name"`
	DemandMins      int            `json:"demand_mins"`
	CapacityMins    int            `json:"capacity_mins"`
	Status          DayStatus      `json:"status"`
	TeamCapacity    map[string]int `json:"team_capacity"`
	TeamCounts      map[string]int `json:"team_counts"`
	TeamAssignments map[string]int `json:"team_assignments,omitempty"`
	TeamLoads       map[string]int `json:"team_loads,omitempty"`
}

// Summary condenses the week into utilization statistics. Utilization is
// demand over capacity; days without capacity are skipped.
type Summary struct {
	MeanUtilization   float64 `json:"mean_utilization"`
	StddevUtilization float64 `json:"stddev_utilization"`
	UnderstaffedDays  int     `json:"understaffed_days"`
}

// Week is a full seven day forecast.
type Week struct {
	Days    []Day   `json:"days"`
	Summary Summary `json:"summary"`
}

// Forecaster computes weekly demand/capacity reports.
type Forecaster struct {
	rooms  store.RoomStore
	staff  store.StaffStore
	shifts store.ShiftStore
	est    effort.Estimator
	now    func() time.Time
}

// New creates a Forecaster. A nil now defaults to time.Now.
func New(rooms store.RoomStore, staff store.StaffStore, shifts store.ShiftStore, est effort.Estimator, now func() time.Time) *Forecaster {
	if now == nil {
		now = time.Now
	}
	return &Forecaster{rooms: rooms, staff: staff, shifts: shifts, est: est, now: now}
}

// Demand computes the expected cleaning minutes for a date: every departure
// costs the DEPARTURE estimate, every stayover a flat refresh.
func Demand(ctx context.Context, rooms store.RoomStore, est effort.Estimator, date time.Time) (int, error) {
	departures, err := rooms.RoomsCheckingOut(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("departures: %w", err)
	}
	all, err := rooms.Rooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("rooms: %w", err)
	}
	day := model.DateKey(date)
	stayovers := 0
	for _, r := range all {
		if r.GuestStatus != model.GuestInRoom {
			continue
		}
		if !r.CheckOut.IsZero() && model.DateKey(r.CheckOut) == day {
			continue
		}
		stayovers++
	}
	return len(departures)*est.Estimate(model.CleanDeparture) + stayovers*StayoverMinutes, nil
}

// Forecast builds the seven day report starting at start.
func (f *Forecaster) Forecast(ctx context.Context, start time.Time) (Week, error) {
	start = model.DateOf(start)
	today := model.DateKey(f.now())

	week := Week{Days: make([]Day, 0, 7)}
	var utilizations []float64
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		day, err := f.day(ctx, date, model.DateKey(date) == today)
		if err != nil {
			return Week{}, err
		}
		if day.Status == Understaffed {
			week.Summary.UnderstaffedDays++
		}
		if day.CapacityMins > 0 {
			utilizations = append(utilizations, float64(day.DemandMins)/float64(day.CapacityMins))
		}
		week.Days = append(week.Days, day)
	}
	if len(utilizations) > 0 {
		week.Summary.MeanUtilization = stat.Mean(utilizations, nil)
		week.Summary.StddevUtilization = stat.StdDev(utilizations, nil)
	}
	return week, nil
}

func (f *Forecaster) day(ctx context.Context, date time.Time, isToday bool) (Day, error) {
	demand, err := Demand(ctx, f.rooms, f.est, date)
	if err != nil {
		return Day{}, err
	}

	shifts, err := f.shifts.ForDate(ctx, date)
	if err != nil {
		return Day{}, fmt.Errorf("shifts for %s: %w", model.DateKey(date), err)
	}

	day := Day{
		Date:         date,
		DayName:      date.Weekday().String(),
		DemandMins:   demand,
		TeamCapacity: map[string]int{},
		TeamCounts:   map[string]int{},
	}
	for _, sh := range shifts {
		mins := sh.CapacityMinutes()
		day.CapacityMins += mins
		team := f.teamOf(ctx, sh.StaffID)
		day.TeamCapacity[team] += mins
		day.TeamCounts[team]++
	}

	if isToday {
		day.TeamAssignments = map[string]int{}
		day.TeamLoads = map[string]int{}
		assigned, err := f.rooms.AssignedRooms(ctx)
		if err != nil {
			return Day{}, fmt.Errorf("assigned rooms: %w", err)
		}
		for _, r := range assigned {
			team := f.teamOf(ctx, r.AssignedStaff)
			day.TeamAssignments[team]++
			day.TeamLoads[team] += f.est.Estimate(r.CleaningType)
		}
	}

	day.Status = classify(day.DemandMins, day.CapacityMins)
	return day, nil
}

// teamOf resolves a staff id to its team label. Unknown staff and staff
// without a team both land in the ungrouped bucket.
func (f *Forecaster) teamOf(ctx context.Context, staffID string) string {
	if staffID == "" {
		return UngroupedTeam
	}
	m, ok, err := f.staff.Staff(ctx, staffID)
	if err != nil || !ok || m.Team == "" {
		return UngroupedTeam
	}
	return m.Team
}

func classify(demand, capacity int) DayStatus {
	switch {
	case capacity < demand:
		return Understaffed
	case float64(capacity) > float64(demand)*CapacitySurplusFactor:
		return Overstaffed
	default:
		return Optimal
	}
}
