// Package store defines the persistence boundary of the scheduling engine.
// The engine never owns entity lifecycle: it reads rooms, staff, shifts and
// availability overrides and writes back only the fields its operations are
// contracted to change. The surrounding record system provides the real
// backends; memory implementations in this package serve tests and
// single-node deployments.
package store

import (
	"context"
	"time"

	"github.com/lucasmnd/hkroster/core/model"
)

// RoomStore reads rooms and updates their assignment fields.
type RoomStore interface {
	// Rooms returns every room.
	Rooms(ctx context.Context) ([]model.Room, error)
	// RoomsByStatus returns rooms in the given lifecycle status.
	RoomsByStatus(ctx context.Context, status model.RoomStatus) ([]model.Room, error)
	// RoomsCheckingOut returns rooms whose check-out date equals the given day.
	RoomsCheckingOut(ctx context.Context, date time.Time) ([]model.Room, error)
	// AssignedRooms returns rooms currently referencing a staff member.
	AssignedRooms(ctx context.Context) ([]model.Room, error)
	// SetAssignment updates a room's staff and team references. Empty
	// staffID clears the assignment.
	SetAssignment(ctx context.Context, number, staffID, team string) error
}

// StaffStore reads staff records and updates team labels.
type StaffStore interface {
	// Staff returns the record for the given id.
	Staff(ctx context.Context, id string) (model.Staff, bool, error)
	// ByRole returns all staff with the given role, active or not.
	ByRole(ctx context.Context, role string) ([]model.Staff, error)
	// SetTeam rewrites the team label of a staff member.
	SetTeam(ctx context.Context, id, team string) error
}

// ShiftStore persists (staff, date) work shifts with upsert semantics.
type ShiftStore interface {
	// ForDate returns all shifts on the given day.
	ForDate(ctx context.Context, date time.Time) ([]model.Shift, error)
	// Range returns shifts with start <= date <= end, ordered by date then
	// staff id.
	Range(ctx context.Context, start, end time.Time) ([]model.Shift, error)
	// Upsert creates the shift or overwrites the hours of an existing one
	// for the same (staff, date) pair.
	Upsert(ctx context.Context, s model.Shift) error
	// DeleteRange removes every shift with start <= date <= end.
	DeleteRange(ctx context.Context, start, end time.Time) error
}

// AvailabilityStore reads per-date availability overrides. The scheduling
// engine never writes these.
type AvailabilityStore interface {
	// Override returns the override for (staffID, date) if one exists.
	Override(ctx context.Context, staffID string, date time.Time) (model.AvailabilityOverride, bool, error)
}
