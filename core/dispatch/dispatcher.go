// Package dispatch assigns today's pending rooms to on-duty staff. Every run
// is a full batch recomputation over the pending set: rooms are re-ranked by
// priority, sticky assignments are kept while capacity permits, the rest are
// balanced onto the least loaded staff, and overflow triggers an emergency
// call-in of off-duty reserves.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lucasmnd/hkroster/core/dispatch/logging"
	"github.com/lucasmnd/hkroster/core/effort"
	"github.com/lucasmnd/hkroster/core/logger"
	"github.com/lucasmnd/hkroster/core/metrics"
	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/core/notify"
	"github.com/lucasmnd/hkroster/core/priority"
	"github.com/lucasmnd/hkroster/core/store"
	"github.com/lucasmnd/hkroster/internal/eventbus"
)

// ErrNoStaffScheduled rejects a dispatch run when no shift exists for today.
// The caller should generate a roster first; nothing is mutated.
var ErrNoStaffScheduled = errors.New("no staff shifts found for today")

const (
	// MaxCapacityRatio caps a staff member's projected load over capacity.
	MaxCapacityRatio = 1.0
	// MinCapacityMinutes floors a shift's usable capacity so short shifts
	// cannot degenerate load-ratio comparisons.
	MinCapacityMinutes = 60
	// ExtraTeamSize is how many called-in reserves share an ad-hoc team.
	ExtraTeamSize = 2
)

// Result summarises one dispatcher run. Loads and Capacities are per staff
// id, in minutes, and serve diagnostics only.
type Result struct {
	RunID      string         `json:"run_id"`
	Date       time.Time      `json:"date"`
	Assigned   int            `json:"assigned"`
	Unassigned int            `json:"unassigned"`
	Reassigned int            `json:"reassigned"`
	CalledIn   int            `json:"called_in"`
	Loads      map[string]int `json:"loads"`
	Capacities map[string]int `json:"capacities"`
}

// Dispatcher runs the daily room-to-staff assignment.
type Dispatcher struct {
	rooms    store.RoomStore
	staff    store.StaffStore
	shifts   store.ShiftStore
	est      effort.Estimator
	notifier notify.Sender
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	log      logger.Logger
	runs     logging.RunStore
	now      func() time.Time
}

// New creates a Dispatcher. notifier, sink, bus and runs may be nil; now
// defaults to time.Now.
func New(rooms store.RoomStore, staff store.StaffStore, shifts store.ShiftStore, est effort.Estimator,
	notifier notify.Sender, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger,
	runs logging.RunStore, now func() time.Time) *Dispatcher {
	if notifier == nil {
		notifier = notify.NopSender{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{rooms: rooms, staff: staff, shifts: shifts, est: est,
		notifier: notifier, sink: sink, bus: bus, log: log, runs: runs, now: now}
}

// duty tracks per-staff load and capacity for one run.
type duty struct {
	ids      []string
	load     map[string]int
	capacity map[string]int
	team     map[string]string
}

func (d *duty) onDuty(id string) bool {
	_, ok := d.capacity[id]
	return ok
}

// canTake reports whether the projected load stays within the ratio cap.
func (d *duty) canTake(id string, effortMins int) bool {
	projected := d.load[id] + effortMins
	return float64(projected)/float64(d.capacity[id]) <= MaxCapacityRatio
}

// leastLoaded picks the candidate with the lowest load/capacity ratio able
// to absorb effortMins, or "" when nobody fits.
func (d *duty) leastLoaded(effortMins int) string {
	best := ""
	bestRatio := 0.0
	for _, id := range d.ids {
		if !d.canTake(id, effortMins) {
			continue
		}
		ratio := float64(d.load[id]) / float64(d.capacity[id])
		if best == "" || ratio < bestRatio {
			best, bestRatio = id, ratio
		}
	}
	return best
}

func (d *duty) add(id string, capacityMins int, team string) {
	d.ids = append(d.ids, id)
	d.load[id] = 0
	d.capacity[id] = capacityMins
	d.team[id] = team
}

// AssignDaily distributes today's pending rooms across on-duty staff.
// Capacity violations cannot occur: an assignment is only committed once the
// projected ratio check passes, and true overload surfaces as a nonzero
// Unassigned count rather than an error.
func (d *Dispatcher) AssignDaily(ctx context.Context) (Result, error) {
	today := model.DateOf(d.now())

	shifts, err := d.shifts.ForDate(ctx, today)
	if err != nil {
		return Result{}, fmt.Errorf("shifts for today: %w", err)
	}
	if len(shifts) == 0 {
		return Result{}, ErrNoStaffScheduled
	}

	board := &duty{load: map[string]int{}, capacity: map[string]int{}, team: map[string]string{}}
	for _, sh := range shifts {
		board.add(sh.StaffID, shiftCapacity(sh), d.teamOf(ctx, sh.StaffID))
	}

	if err := d.lockActiveWork(ctx, board); err != nil {
		return Result{}, err
	}

	pending, err := d.rooms.RoomsByStatus(ctx, model.StatusPending)
	if err != nil {
		return Result{}, fmt.Errorf("pending rooms: %w", err)
	}

	res := Result{RunID: uuid.NewString(), Date: today, Loads: board.load, Capacities: board.capacity}
	var events []metrics.AssignmentResult
	var leftover []model.Room

	d.rank(pending)

	for _, room := range pending {
		effortMins := d.est.Estimate(room.CleaningType)

		chosen, sticky := d.choose(board, room, effortMins)
		if chosen == "" {
			// Clear any previous assignment so an off-board staff member
			// is not left overloaded on paper.
			if room.Assigned() {
				if err := d.rooms.SetAssignment(ctx, room.Number, "", ""); err != nil {
					return res, fmt.Errorf("clear room %s: %w", room.Number, err)
				}
			}
			res.Unassigned++
			room.AssignedStaff, room.AssignedTeam = "", ""
			leftover = append(leftover, room)
			continue
		}

		if !sticky && room.AssignedStaff != chosen {
			res.Reassigned++
		}
		team := board.team[chosen]
		if err := d.rooms.SetAssignment(ctx, room.Number, chosen, team); err != nil {
			return res, fmt.Errorf("assign room %s: %w", room.Number, err)
		}
		board.load[chosen] += effortMins
		res.Assigned++

		events = append(events, metrics.AssignmentResult{
			RunID: res.RunID, Date: today, RoomNumber: room.Number, StaffID: chosen, Team: team,
			CleaningType: room.CleaningType, Score: priority.Score(room, d.now()), EffortMins: effortMins,
			Sticky: sticky, Reassigned: !sticky && room.AssignedStaff != chosen, Time: d.now(),
		})
		if !sticky {
			d.notifyAssignment(chosen, room.Number)
		}
	}

	if res.Unassigned > 0 {
		events = d.callIn(ctx, board, leftover, &res, events)
	}

	d.record(ctx, res, events, len(board.ids))
	d.log.Infof("dispatch run %s: assigned=%d unassigned=%d reassigned=%d called_in=%d",
		res.RunID, res.Assigned, res.Unassigned, res.Reassigned, res.CalledIn)
	return res, nil
}

// rank orders candidates by priority score, larger effort first on ties so
// big jobs land before the day fills up, then room number for determinism.
func (d *Dispatcher) rank(rooms []model.Room) {
	now := d.now()
	scores := make(map[string]int, len(rooms))
	efforts := make(map[string]int, len(rooms))
	for _, r := range rooms {
		scores[r.Number] = priority.Score(r, now)
		efforts[r.Number] = d.est.Estimate(r.CleaningType)
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i], rooms[j]
		if scores[a.Number] != scores[b.Number] {
			return scores[a.Number] > scores[b.Number]
		}
		if efforts[a.Number] != efforts[b.Number] {
			return efforts[a.Number] > efforts[b.Number]
		}
		return a.Number < b.Number
	})
}

// choose applies the two order-sensitive passes: sticky retention first,
// then the global least-ratio pick. Returns the staff id (or "") and whether
// the sticky rule decided it.
func (d *Dispatcher) choose(board *duty, room model.Room, effortMins int) (string, bool) {
	if room.Assigned() && board.onDuty(room.AssignedStaff) && board.canTake(room.AssignedStaff, effortMins) {
		return room.AssignedStaff, true
	}
	return board.leastLoaded(effortMins), false
}

// lockActiveWork charges rooms already being worked by on-duty staff against
// their load. Started work is never reassigned or undone by this pass.
func (d *Dispatcher) lockActiveWork(ctx context.Context, board *duty) error {
	assigned, err := d.rooms.AssignedRooms(ctx)
	if err != nil {
		return fmt.Errorf("assigned rooms: %w", err)
	}
	for _, r := range assigned {
		switch r.Status {
		case model.StatusInProgress, model.StatusInspection, model.StatusCompleted:
		default:
			continue
		}
		if !board.onDuty(r.AssignedStaff) {
			continue
		}
		board.load[r.AssignedStaff] += d.est.Estimate(r.CleaningType)
	}
	return nil
}

// teamOf resolves the team label for a staff member; unknown ids yield "".
func (d *Dispatcher) teamOf(ctx context.Context, staffID string) string {
	m, ok, err := d.staff.Staff(ctx, staffID)
	if err != nil || !ok {
		return ""
	}
	return m.Team
}

// shiftCapacity applies the dispatcher's one hour floor to shift capacity.
func shiftCapacity(sh model.Shift) int {
	c := sh.CapacityMinutes()
	if c < MinCapacityMinutes {
		return MinCapacityMinutes
	}
	return c
}

func (d *Dispatcher) notifyAssignment(staffID, roomNumber string) {
	n := notify.Notice{
		ID: uuid.NewString(), Kind: notify.KindAssignment, StaffID: staffID, RoomNumber: roomNumber,
		Title: "Room assigned", Body: fmt.Sprintf("Room %s has been assigned to you", roomNumber),
		Time: d.now(),
	}
	if err := d.notifier.Send(n); err != nil {
		d.log.Warnf("notify staff %s: %v", staffID, err)
	}
}

// record flushes metrics, run history and bus events. All of it is best
// effort; failures are logged and never fail the run.
func (d *Dispatcher) record(ctx context.Context, res Result, events []metrics.AssignmentResult, onDuty int) {
	if err := d.sink.RecordAssignments(events); err != nil {
		d.log.Warnf("record assignments: %v", err)
	}
	run := metrics.RunEvent{
		RunID: res.RunID, Date: res.Date, Assigned: res.Assigned, Unassigned: res.Unassigned,
		Reassigned: res.Reassigned, CalledIn: res.CalledIn, OnDuty: onDuty, Time: d.now(),
	}
	if rec, ok := d.sink.(metrics.RunRecorder); ok {
		if err := rec.RecordRun(run); err != nil {
			d.log.Warnf("record run: %v", err)
		}
	}
	if d.bus != nil {
		d.bus.Publish(run)
	}
	if d.runs != nil {
		rec := logging.RunRecord{
			RunID: res.RunID, Date: model.DateKey(res.Date), Timestamp: d.now(),
			Assigned: res.Assigned, Unassigned: res.Unassigned, Reassigned: res.Reassigned,
			CalledIn: res.CalledIn, Loads: res.Loads, Capacities: res.Capacities,
		}
		if err := d.runs.Append(ctx, rec); err != nil {
			d.log.Warnf("append run record: %v", err)
		}
	}
}
