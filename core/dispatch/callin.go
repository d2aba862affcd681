package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lucasmnd/hkroster/core/metrics"
	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/core/notify"
	"github.com/lucasmnd/hkroster/core/priority"
)

// callIn activates off-duty reserves when the on-duty roster cannot absorb
// the pending demand. Each reserve gets a default shift for today and an
// ad-hoc "Extra Team N" label (pairs of two), then takes unassigned rooms
// until full. Stops as soon as nothing remains unassigned.
func (d *Dispatcher) callIn(ctx context.Context, board *duty, leftover []model.Room, res *Result, events []metrics.AssignmentResult) []metrics.AssignmentResult {
	reserves, err := d.offDutyReserves(ctx, board)
	if err != nil {
		d.log.Errorf("list reserves: %v", err)
		return events
	}

	teamIdx, teamSize := 1, 0
	for _, reserve := range reserves {
		if res.Unassigned == 0 {
			break
		}

		sh := model.Shift{StaffID: reserve.ID, Date: res.Date, Start: model.DefaultShiftStart, End: model.DefaultShiftEnd}
		if err := d.shifts.Upsert(ctx, sh); err != nil {
			d.log.Errorf("call-in shift for %s: %v", reserve.ID, err)
			continue
		}

		team := fmt.Sprintf("Extra Team %d", teamIdx)
		if err := d.staff.SetTeam(ctx, reserve.ID, team); err != nil {
			d.log.Errorf("set team for %s: %v", reserve.ID, err)
		}
		teamSize++
		if teamSize >= ExtraTeamSize {
			teamIdx++
			teamSize = 0
		}

		board.add(reserve.ID, model.DefaultCapacityMinutes, team)
		res.CalledIn++
		d.notifyCallIn(reserve.ID, team)

		for i := range leftover {
			room := &leftover[i]
			if room.Assigned() {
				continue
			}
			effortMins := d.est.Estimate(room.CleaningType)
			if board.load[reserve.ID]+effortMins > board.capacity[reserve.ID] {
				continue
			}
			if err := d.rooms.SetAssignment(ctx, room.Number, reserve.ID, team); err != nil {
				d.log.Errorf("assign room %s to reserve: %v", room.Number, err)
				continue
			}
			room.AssignedStaff, room.AssignedTeam = reserve.ID, team
			board.load[reserve.ID] += effortMins
			res.Assigned++
			res.Unassigned--
			events = append(events, metrics.AssignmentResult{
				RunID: res.RunID, Date: res.Date, RoomNumber: room.Number, StaffID: reserve.ID, Team: team,
				CleaningType: room.CleaningType, Score: priority.Score(*room, d.now()), EffortMins: effortMins,
				CalledIn: true, Time: d.now(),
			})
			d.notifyAssignment(reserve.ID, room.Number)
			if res.Unassigned == 0 {
				break
			}
		}
	}
	return events
}

// offDutyReserves lists active cleaners without a shift today, in stored
// order.
func (d *Dispatcher) offDutyReserves(ctx context.Context, board *duty) ([]model.Staff, error) {
	cleaners, err := d.staff.ByRole(ctx, model.RoleCleaner)
	if err != nil {
		return nil, err
	}
	var reserves []model.Staff
	for _, c := range cleaners {
		if !c.Active || board.onDuty(c.ID) {
			continue
		}
		reserves = append(reserves, c)
	}
	return reserves, nil
}

func (d *Dispatcher) notifyCallIn(staffID, team string) {
	n := notify.Notice{
		ID: uuid.NewString(), Kind: notify.KindCallIn, StaffID: staffID, Team: team,
		Title: "Called in", Body: fmt.Sprintf("You have been called in for today on %s", team),
		Time: d.now(),
	}
	if err := d.notifier.Send(n); err != nil {
		d.log.Warnf("notify call-in %s: %v", staffID, err)
	}
}
