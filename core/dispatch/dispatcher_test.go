package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lucasmnd/hkroster/core/effort"
	"github.com/lucasmnd/hkroster/core/metrics"
	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/core/notify"
	"github.com/lucasmnd/hkroster/core/store"
	"github.com/lucasmnd/hkroster/infra/logger"
	"github.com/lucasmnd/hkroster/internal/eventbus"
)

var ctx = context.Background()

var testNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type captureSink struct {
	mu     sync.Mutex
	events []metrics.AssignmentResult
	runs   []metrics.RunEvent
}

func (c *captureSink) RecordAssignments(res []metrics.AssignmentResult) error {
	c.mu.Lock()
	c.events = append(c.events, res...)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) RecordRun(ev metrics.RunEvent) error {
	c.mu.Lock()
	c.runs = append(c.runs, ev)
	c.mu.Unlock()
	return nil
}

type captureSender struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (c *captureSender) Send(n notify.Notice) error {
	c.mu.Lock()
	c.notices = append(c.notices, n)
	c.mu.Unlock()
	return nil
}

func (c *captureSender) byKind(k notify.Kind) []notify.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []notify.Notice
	for _, n := range c.notices {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	rooms    *store.MemoryRooms
	staff    *store.MemoryStaff
	shifts   *store.MemoryShifts
	est      *effort.Table
	sink     *captureSink
	notifier *captureSender
	d        *Dispatcher
}

func newFixture() *fixture {
	f := &fixture{
		rooms:    store.NewMemoryRooms(),
		staff:    store.NewMemoryStaff(),
		shifts:   store.NewMemoryShifts(),
		est:      effort.NewTable(map[string]int{model.CleanDeparture: 45, model.CleanPreArrival: 45, model.CleanWeekly: 45}),
		sink:     &captureSink{},
		notifier: &captureSender{},
	}
	f.d = New(f.rooms, f.staff, f.shifts, f.est, f.notifier, f.sink, nil, logger.NopLogger{},
		nil, func() time.Time { return testNow })
	return f
}

func (f *fixture) addCleaner(id, team string) {
	f.staff.Put(model.Staff{ID: id, Role: model.RoleCleaner, Team: team, Active: true})
}

func (f *fixture) onDuty(id, start, end string) {
	if err := f.shifts.Upsert(ctx, model.Shift{StaffID: id, Date: testNow, Start: start, End: end}); err != nil {
		panic(err)
	}
}

func (f *fixture) pending(number, cleaningType string) {
	f.rooms.Put(model.Room{Number: number, Status: model.StatusPending, CleaningType: cleaningType, GuestStatus: model.GuestOut})
}

func (f *fixture) roomByNumber(t *testing.T, number string) model.Room {
	t.Helper()
	rooms, err := f.rooms.Rooms(ctx)
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	for _, r := range rooms {
		if r.Number == number {
			return r
		}
	}
	t.Fatalf("room %s not found", number)
	return model.Room{}
}

func TestAssignDaily_NoShifts(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	f.pending("101", model.CleanDeparture)

	if _, err := f.d.AssignDaily(ctx); err != ErrNoStaffScheduled {
		t.Fatalf("expected ErrNoStaffScheduled, got %v", err)
	}
	if f.roomByNumber(t, "101").Assigned() {
		t.Fatalf("room must stay untouched when nothing is scheduled")
	}
}

func TestAssignDaily_AllToSingleStaff(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "Team 1")
	f.onDuty("s1", "09:00", "17:00")
	f.pending("101", model.CleanDeparture)
	f.pending("102", model.CleanDeparture)
	f.pending("103", model.CleanWeekly)

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Assigned != 3 || res.Unassigned != 0 || res.CalledIn != 0 {
		t.Fatalf("result = %+v", res)
	}
	if res.Loads["s1"] != 135 || res.Capacities["s1"] != 480 {
		t.Fatalf("load/capacity = %d/%d", res.Loads["s1"], res.Capacities["s1"])
	}
	for _, n := range []string{"101", "102", "103"} {
		r := f.roomByNumber(t, n)
		if r.AssignedStaff != "s1" || r.AssignedTeam != "Team 1" {
			t.Fatalf("room %s = %+v", n, r)
		}
	}
	if got := len(f.notifier.byKind(notify.KindAssignment)); got != 3 {
		t.Fatalf("assignment notices = %d, want 3", got)
	}
}

func TestAssignDaily_HighestPriorityWinsScarceCapacity(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	// One hour on duty: exactly one 45 minute room fits.
	f.onDuty("s1", "09:00", "10:00")
	f.pending("201", model.CleanWeekly)
	f.pending("202", model.CleanPreArrival)
	f.pending("203", model.CleanDeparture)

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Assigned != 1 || res.Unassigned != 2 {
		t.Fatalf("result = %+v", res)
	}
	if r := f.roomByNumber(t, "202"); r.AssignedStaff != "s1" {
		t.Fatalf("pre-arrival should win the slot, got %+v", r)
	}
}

func TestAssignDaily_LoadBalancing(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "Team 1")
	f.addCleaner("s2", "Team 2")
	f.onDuty("s1", "09:00", "17:00")
	f.onDuty("s2", "09:00", "17:00")
	for _, n := range []string{"301", "302", "303", "304"} {
		f.pending(n, model.CleanDeparture)
	}

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Assigned != 4 {
		t.Fatalf("assigned = %d, want 4", res.Assigned)
	}
	if res.Loads["s1"] != 90 || res.Loads["s2"] != 90 {
		t.Fatalf("loads not balanced: %v", res.Loads)
	}
}

func TestAssignDaily_CapacityRatioNeverExceeded(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	f.addCleaner("s2", "")
	f.onDuty("s1", "09:00", "11:00")
	f.onDuty("s2", "09:00", "13:00")
	for i := 0; i < 12; i++ {
		f.pending(string(rune('A'+i)), model.CleanDeparture)
	}

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	for id, load := range res.Loads {
		if load > res.Capacities[id] {
			t.Fatalf("staff %s overloaded: %d/%d", id, load, res.Capacities[id])
		}
	}
	// 120 + 240 minutes of capacity absorbs seven 45 minute rooms once the
	// ratio cap rejects partial fits.
	if res.Assigned != 7 || res.Unassigned != 5 {
		t.Fatalf("result = %+v", res)
	}
}

func TestAssignDaily_StickyKeepsPreviousStaff(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "Team 1")
	f.addCleaner("s2", "Team 2")
	f.onDuty("s1", "09:00", "17:00")
	f.onDuty("s2", "09:00", "17:00")
	// s2 already holds the room from the morning run even though s1 is the
	// least loaded candidate.
	f.rooms.Put(model.Room{Number: "401", Status: model.StatusPending, CleaningType: model.CleanDeparture,
		GuestStatus: model.GuestOut, AssignedStaff: "s2", AssignedTeam: "Team 2"})

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if r := f.roomByNumber(t, "401"); r.AssignedStaff != "s2" {
		t.Fatalf("sticky assignment lost: %+v", r)
	}
	if res.Reassigned != 0 {
		t.Fatalf("reassigned = %d, want 0", res.Reassigned)
	}
	// Sticky retention does not re-notify.
	if got := len(f.notifier.byKind(notify.KindAssignment)); got != 0 {
		t.Fatalf("notices = %d, want 0", got)
	}
}

func TestAssignDaily_ReassignsWhenPreviousStaffOffDuty(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "Team 1")
	f.addCleaner("s2", "Team 2")
	f.onDuty("s1", "09:00", "17:00")
	f.rooms.Put(model.Room{Number: "402", Status: model.StatusPending, CleaningType: model.CleanDeparture,
		GuestStatus: model.GuestOut, AssignedStaff: "s2", AssignedTeam: "Team 2"})

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	r := f.roomByNumber(t, "402")
	if r.AssignedStaff != "s1" || r.AssignedTeam != "Team 1" {
		t.Fatalf("room not reassigned: %+v", r)
	}
	if res.Reassigned != 1 {
		t.Fatalf("reassigned = %d, want 1", res.Reassigned)
	}
}

func TestAssignDaily_Idempotent(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	f.addCleaner("s2", "")
	f.onDuty("s1", "09:00", "17:00")
	f.onDuty("s2", "09:00", "17:00")
	for _, n := range []string{"501", "502", "503"} {
		f.pending(n, model.CleanDeparture)
	}

	if _, err := f.d.AssignDaily(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := map[string]string{}
	rooms, _ := f.rooms.Rooms(ctx)
	for _, r := range rooms {
		first[r.Number] = r.AssignedStaff
	}

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Reassigned != 0 {
		t.Fatalf("second run reassigned = %d, want 0", res.Reassigned)
	}
	rooms, _ = f.rooms.Rooms(ctx)
	for _, r := range rooms {
		if first[r.Number] != r.AssignedStaff {
			t.Fatalf("room %s moved from %s to %s", r.Number, first[r.Number], r.AssignedStaff)
		}
	}
}

func TestAssignDaily_LocksActiveWork(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	f.addCleaner("s2", "")
	f.onDuty("s1", "09:00", "17:00")
	f.onDuty("s2", "09:00", "17:00")
	// s1 is already mid-clean on two rooms worth 90 minutes.
	f.rooms.Put(model.Room{Number: "601", Status: model.StatusInProgress, CleaningType: model.CleanDeparture, AssignedStaff: "s1"})
	f.rooms.Put(model.Room{Number: "602", Status: model.StatusInspection, CleaningType: model.CleanDeparture, AssignedStaff: "s1"})
	f.pending("603", model.CleanDeparture)

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	// Started work stays put and counts against s1's load, so the new room
	// lands on s2.
	if r := f.roomByNumber(t, "601"); r.AssignedStaff != "s1" {
		t.Fatalf("in-progress room moved: %+v", r)
	}
	if r := f.roomByNumber(t, "603"); r.AssignedStaff != "s2" {
		t.Fatalf("pending room should go to the idle staff, got %+v", r)
	}
	if res.Loads["s1"] != 90 {
		t.Fatalf("locked load = %d, want 90", res.Loads["s1"])
	}
}

func TestAssignDaily_UnassignableRoomIsCleared(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	f.onDuty("s1", "09:00", "10:00")
	// Previously assigned to someone who no longer works here; no capacity
	// remains after the first room.
	f.pending("701", model.CleanPreArrival)
	f.rooms.Put(model.Room{Number: "702", Status: model.StatusPending, CleaningType: model.CleanDeparture,
		GuestStatus: model.GuestOut, AssignedStaff: "gone", AssignedTeam: "Team 9"})

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Unassigned != 1 {
		t.Fatalf("unassigned = %d, want 1", res.Unassigned)
	}
	if r := f.roomByNumber(t, "702"); r.Assigned() {
		t.Fatalf("unassignable room should be cleared: %+v", r)
	}
}

func TestAssignDaily_CallInReserves(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "Team 1")
	f.onDuty("s1", "09:00", "10:00")
	// Three idle reserves; alphabetical store order makes activation
	// deterministic.
	f.addCleaner("r1", "")
	f.addCleaner("r2", "")
	f.addCleaner("r3", "")
	// 60 min on duty plus heavy demand: one room fits on s1, the rest
	// overflows.
	for _, n := range []string{"801", "802", "803", "804", "805"} {
		f.pending(n, model.CleanDeparture)
	}

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Unassigned != 0 {
		t.Fatalf("call-in should absorb the overflow: %+v", res)
	}
	// Four leftover rooms fit on the first reserve (4×45 = 180 < 480), so
	// only one call-in happens.
	if res.CalledIn != 1 {
		t.Fatalf("called in = %d, want 1", res.CalledIn)
	}
	m, _, _ := f.staff.Staff(ctx, "r1")
	if m.Team != "Extra Team 1" {
		t.Fatalf("reserve team = %q, want Extra Team 1", m.Team)
	}
	shifts, _ := f.shifts.ForDate(ctx, testNow)
	found := false
	for _, sh := range shifts {
		if sh.StaffID == "r1" && sh.Start == model.DefaultShiftStart && sh.End == model.DefaultShiftEnd {
			found = true
		}
	}
	if !found {
		t.Fatalf("call-in shift not created: %#v", shifts)
	}
	if got := len(f.notifier.byKind(notify.KindCallIn)); got != 1 {
		t.Fatalf("call-in notices = %d, want 1", got)
	}
}

func TestAssignDaily_CallInGroupsPairs(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	f.onDuty("s1", "09:00", "10:00")
	for _, id := range []string{"r1", "r2", "r3"} {
		f.addCleaner(id, "")
	}
	// Enough overflow to exhaust three full reserves: 1 room on duty, then
	// 10 per reserve (480/45 = 10), 31 rooms overflow beyond s1.
	f.est.Set(model.CleanDeparture, 48)
	for i := 0; i < 32; i++ {
		f.pending(fmt.Sprintf("R%02d", i), model.CleanDeparture)
	}

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.CalledIn != 3 {
		t.Fatalf("called in = %d, want 3", res.CalledIn)
	}
	teams := map[string]string{}
	for _, id := range []string{"r1", "r2", "r3"} {
		m, _, _ := f.staff.Staff(ctx, id)
		teams[id] = m.Team
	}
	if teams["r1"] != "Extra Team 1" || teams["r2"] != "Extra Team 1" || teams["r3"] != "Extra Team 2" {
		t.Fatalf("team grouping = %v", teams)
	}
}

func TestRepairTeams(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "Team 3")
	f.rooms.Put(model.Room{Number: "901", AssignedStaff: "s1", AssignedTeam: "Team 1"})
	f.rooms.Put(model.Room{Number: "902", AssignedStaff: "s1", AssignedTeam: "Team 3"})
	f.rooms.Put(model.Room{Number: "903", AssignedStaff: "ghost", AssignedTeam: "Team 1"})

	updated, err := f.d.RepairTeams(ctx)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}
	if r := f.roomByNumber(t, "901"); r.AssignedTeam != "Team 3" {
		t.Fatalf("team not repaired: %+v", r)
	}
	// Unknown staff references are left alone.
	if r := f.roomByNumber(t, "903"); r.AssignedTeam != "Team 1" {
		t.Fatalf("ghost assignment touched: %+v", r)
	}
}

func TestAssignDaily_RecordsRunAndEvents(t *testing.T) {
	f := newFixture()
	f.addCleaner("s1", "")
	f.onDuty("s1", "09:00", "17:00")
	f.pending("101", model.CleanDeparture)

	bus := eventbus.New()
	sub := bus.Subscribe()
	f.d.bus = bus

	res, err := f.d.AssignDaily(ctx)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(f.sink.events) != 1 || f.sink.events[0].RoomNumber != "101" {
		t.Fatalf("sink events = %#v", f.sink.events)
	}
	if len(f.sink.runs) != 1 || f.sink.runs[0].RunID != res.RunID || f.sink.runs[0].OnDuty != 1 {
		t.Fatalf("sink runs = %#v", f.sink.runs)
	}
	select {
	case ev := <-sub:
		run, ok := ev.(metrics.RunEvent)
		if !ok || run.RunID != res.RunID {
			t.Fatalf("bus event = %#v", ev)
		}
	default:
		t.Fatalf("no event published on the bus")
	}
}
