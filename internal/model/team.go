package model

import "time"

// TeamRole is the level of access a principal holds on an event.
type TeamRole string

const (
	RoleOrganizer TeamRole = "organizer"
	RoleScanner   TeamRole = "scanner"
)

// Valid reports whether r is a known role.
func (r TeamRole) Valid() bool {
	return r == RoleOrganizer || r == RoleScanner
}

// Allows reports whether holding r permits an action that needs required.
func (r TeamRole) Allows(required TeamRole) bool {
	switch r {
	case RoleOrganizer:
		return required == RoleOrganizer || required == RoleScanner
	case RoleScanner:
		return required == RoleScanner
	default:
		return false
	}
}

// TeamMember links a principal to an event with a role.
type TeamMember struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	PrincipalID string    `json:"principal_id"`
	Role        TeamRole  `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
