package model

import (
	"fmt"
	"time"
)

// RoomStatus tracks a room through its cleaning lifecycle.
type RoomStatus string

const (
	StatusPending     RoomStatus = "PENDING"
	StatusInProgress  RoomStatus = "IN_PROGRESS"
	StatusInspection  RoomStatus = "INSPECTION"
	StatusCompleted   RoomStatus = "COMPLETED"
	StatusMaintenance RoomStatus = "MAINTENANCE"
)

// GuestStatus describes the occupancy of a room.
type GuestStatus string

const (
	GuestOut     GuestStatus = "GUEST_OUT"
	GuestInRoom  GuestStatus = "GUEST_IN_ROOM"
	NoGuest      GuestStatus = "NO_GUEST"
	DoNotDisturb GuestStatus = "DND"
)

// Well-known cleaning types. The effort table accepts arbitrary tags; these
// are the ones the priority scorer knows about.
const (
	CleanPreArrival = "PREARRIVAL"
	CleanDayUse     = "DAYUSE"
	CleanDeparture  = "DEPARTURE"
	CleanRubbish    = "RUBBISH"
	CleanWeekly     = "WEEKLY"
)

// Room is one cleanable unit. Assignment fields are weak references into the
// staff store: AssignedTeam mirrors the assigned staff's team and may drift
// after manual edits until a repair pass re-syncs it.
type Room struct {
	Number       string      `json:"number"`
	Status       RoomStatus  `json:"status"`
	CleaningType string      `json:"cleaning_type"`
	GuestStatus  GuestStatus `json:"guest_status"`

	// Priority marks a manual override from reception or a supervisor.
	Priority bool `json:"priority"`

	AssignedStaff string `json:"assigned_staff,omitempty"`
	AssignedTeam  string `json:"assigned_team,omitempty"`

	// NextArrival is the deadline for PREARRIVAL cleans. Zero means unset.
	NextArrival time.Time `json:"next_arrival,omitempty"`

	CheckIn  time.Time `json:"check_in,omitempty"`
	CheckOut time.Time `json:"check_out,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// Assigned reports whether the room currently references a staff member.
func (r Room) Assigned() bool { return r.AssignedStaff != "" }

// Validate checks that the room record is sound.
func (r Room) Validate() error {
	if r.Number == "" {
		return fmt.Errorf("room number must not be empty")
	}
	return nil
}
