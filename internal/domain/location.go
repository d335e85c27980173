package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocationCategory classifies a location for filtering and map display.
type LocationCategory string

const (
	LocationPlace         LocationCategory = "place"
	LocationRestaurant    LocationCategory = "restaurant"
	LocationAccommodation LocationCategory = "accommodation"
	LocationTransportNode LocationCategory = "transport_node"
	LocationShop          LocationCategory = "shop"
	LocationOther         LocationCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c LocationCategory) Valid() bool {
	switch c {
	case LocationPlace, LocationRestaurant, LocationAccommodation,
		LocationTransportNode, LocationShop, LocationOther:
		return true
	}
	return false
}

// Location is a physical place attached to a trip. It is either created
// directly by a member or synthesized by the location reconciler from an
// itinerary item.
//
// NormalizedKey is the dedup key derived from name plus rounded coordinates
// or address; it is unique per trip and never shown to users.
type Location struct {
	ID              uuid.UUID        `json:"id"`
	TripID          uuid.UUID        `json:"trip_id"`
	Name            string           `json:"name"`
	Category        LocationCategory `json:"category"`
	Address         string           `json:"address,omitempty"`
	Latitude        *float64         `json:"latitude,omitempty"`
	Longitude       *float64         `json:"longitude,omitempty"`
	ExternalPlaceID string           `json:"external_place_id,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	NormalizedKey   string           `json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
