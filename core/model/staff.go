package model

// Staff roles. Only cleaners participate in dispatch; the other roles exist
// in the surrounding record system and pass through untouched.
const (
	RoleCleaner    = "CLEANER"
	RoleSupervisor = "SUPERVISOR"
	RoleReception  = "RECEPTION"
	RoleAdmin      = "ADMIN"
)

// Staff is a member of the housekeeping workforce. Team is a free-form label
// ("Team 3", "Extra Team 1"); the overflow call-in procedure rewrites it when
// reserves are grouped into ad-hoc teams.
type Staff struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	Team   string `json:"team,omitempty"`
	Active bool   `json:"active"`
}

// Dispatchable reports whether the staff member can receive room assignments.
func (s Staff) Dispatchable() bool { return s.Active && s.Role == RoleCleaner }
