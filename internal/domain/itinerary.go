package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemType is the activity kind of an itinerary item. It selects which
// ItemDetails variant the item carries.
type ItemType string

const (
	ItemFlight        ItemType = "flight"
	ItemTransport     ItemType = "transport"
	ItemAccommodation ItemType = "accommodation"
	ItemPlaceVisit    ItemType = "place_visit"
	ItemFood          ItemType = "food"
)

// Valid reports whether t is one of the five known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemFlight, ItemTransport, ItemAccommodation, ItemPlaceVisit, ItemFood:
		return true
	}
	return false
}

// ItemStatus is the lifecycle state of an itinerary item.
// Transitions are unconstrained: any status may follow any other.
type ItemStatus string

const (
	StatusPlanned ItemStatus = "planned"
	StatusBooked  ItemStatus = "booked"
	StatusDone    ItemStatus = "done"
	StatusSkipped ItemStatus = "skipped"
)

// Valid reports whether s is one of the four known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusBooked, StatusDone, StatusSkipped:
		return true
	}
	return false
}

// Resolved classifies a status for display filtering: Done and Skipped items
// are settled, Planned and Booked items are still pending. This is a view
// classification only — nothing prevents a resolved item from going back to
// planned.
func (s ItemStatus) Resolved() bool {
	return s == StatusDone || s == StatusSkipped
}

// ItineraryItem is a scheduled event within a trip, typed by activity kind.
//
// StartDateTime and EndDateTime are absolute instants; StartTimezone and
// EndTimezone are IANA identifiers recording the local zone each end of the
// event was entered in (empty when unknown). EndDateTime is zero when the
// event has no known end.
//
// Details holds the type-specific payload and is nil only for item types
// whose fields are all optional (place visits and food).
type ItineraryItem struct {
	ID               uuid.UUID   `json:"id"`
	TripID           uuid.UUID   `json:"trip_id"`
	Type             ItemType    `json:"type"`
	Title            string      `json:"title"`
	StartDateTime    time.Time   `json:"start_datetime"`
	EndDateTime      *time.Time  `json:"end_datetime,omitempty"`
	StartTimezone    string      `json:"start_timezone,omitempty"`
	EndTimezone      string      `json:"end_timezone,omitempty"`
	Status           ItemStatus  `json:"status"`
	Details          ItemDetails `json:"details,omitempty"`
	LinkedLocationID *uuid.UUID  `json:"linked_location_id,omitempty"`
	BookingRef       string      `json:"booking_ref,omitempty"`
	URL              string      `json:"url,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
