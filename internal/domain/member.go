package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's permission level within a trip.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Action names an operation a member may attempt on a trip.
// The permission matrix lives in service.RoleAuthority; handlers never
// compare roles directly.
type Action string

const (
	ActionViewTrip      Action = "view_trip"
	ActionEditTrip      Action = "edit_trip"
	ActionEditItinerary Action = "edit_itinerary"
	ActionEditLocations Action = "edit_locations"
	ActionEditExpenses  Action = "edit_expenses"
	ActionManageMembers Action = "manage_members"
	ActionDeleteTrip    Action = "delete_trip"
)

// TripMember is a user's role-scoped association with a trip.
// (TripID, UserID) is unique; a user holds exactly one role per trip.
type TripMember struct {
	TripID   uuid.UUID `json:"trip_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
