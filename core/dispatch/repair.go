package dispatch

import (
	"context"
	"fmt"
)

// RepairTeams backfills Room.AssignedTeam from the assigned staff's current
// team label. Manual record edits can leave the two out of sync; this pass
// makes the room side consistent again and returns how many rooms changed.
func (d *Dispatcher) RepairTeams(ctx context.Context) (int, error) {
	assigned, err := d.rooms.AssignedRooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("assigned rooms: %w", err)
	}
	updated := 0
	for _, r := range assigned {
		m, ok, err := d.staff.Staff(ctx, r.AssignedStaff)
		if err != nil {
			return updated, fmt.Errorf("staff %s: %w", r.AssignedStaff, err)
		}
		if !ok || m.Team == "" || r.AssignedTeam == m.Team {
			continue
		}
		if err := d.rooms.SetAssignment(ctx, r.Number, r.AssignedStaff, m.Team); err != nil {
			return updated, fmt.Errorf("repair room %s: %w", r.Number, err)
		}
		updated++
	}
	if updated > 0 {
		d.log.Infof("team repair updated %d rooms", updated)
	}
	return updated, nil
}
