// Package notify abstracts the channel used to tell staff about their room
// assignments. The scheduling engine only depends on the Sender interface;
// delivery mechanics (MQTT, push gateways) live under infra.
package notify

import "time"

// Kind distinguishes the notices the dispatcher emits.
type Kind string

const (
	// KindAssignment is sent when a room is assigned or reassigned.
	KindAssignment Kind = "assignment"
	// KindCallIn is sent when an off-duty staff member is activated.
	KindCallIn Kind = "call_in"
)

// Notice is one message addressed to a staff member.
type Notice struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	StaffID    string    `json:"staff_id"`
	RoomNumber string    `json:"room_number,omitempty"`
	Team       string    `json:"team,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Time       time.Time `json:"time"`
}

// Sender delivers notices to staff devices. Delivery is best effort: the
// dispatcher logs failures and never aborts a run over them.
type Sender interface {
	Send(n Notice) error
}

// NopSender discards all notices.
type NopSender struct{}

func (NopSender) Send(Notice) error { return nil }
