package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ItemDetails is the type-specific payload of an itinerary item, modelled as
// a tagged variant: one concrete struct per ItemType, decoded exhaustively by
// DecodeDetails. A field belonging to one type can never leak into another.
type ItemDetails interface {
	// ItemType returns the tag this variant belongs to.
	ItemType() ItemType

	// Validate checks the variant's required fields.
	// Returns an error wrapping ErrValidation naming the missing field.
	Validate() error
}

// PlaceRef is an optional endpoint reference carried by flight and transport
// details. When it has address or coordinate data the location reconciler
// can derive a Location from it.
type PlaceRef struct {
	Name      string   `json:"name,omitempty"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasPlaceData reports whether the reference carries enough data for the
// location reconciler to derive a Location: an address, or both coordinates.
func (p PlaceRef) HasPlaceData() bool {
	return p.Address != "" || (p.Latitude != nil && p.Longitude != nil)
}

// FlightDetails is the payload for ItemFlight.
type FlightDetails struct {
	FlightNo         string    `json:"flight_no"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	Airline          string    `json:"airline,omitempty"`
	Departure        *PlaceRef `json:"departure,omitempty"`
	Arrival          *PlaceRef `json:"arrival,omitempty"`
}

func (FlightDetails) ItemType() ItemType { return ItemFlight }

func (d FlightDetails) Validate() error {
	if d.FlightNo == "" {
		return fmt.Errorf("%w: details.flight_no is required", ErrValidation)
	}
	if d.DepartureAirport == "" {
		return fmt.Errorf("%w: details.departure_airport is required", ErrValidation)
	}
	if d.ArrivalAirport == "" {
		return fmt.Errorf("%w: details.arrival_airport is required", ErrValidation)
	}
	return nil
}

// TransportDetails is the payload for ItemTransport (train, bus, ferry, …).
type TransportDetails struct {
	Mode string    `json:"mode"`
	From *PlaceRef `json:"from,omitempty"`
	To   *PlaceRef `json:"to,omitempty"`
}

func (TransportDetails) ItemType() ItemType { return ItemTransport }

func (d TransportDetails) Validate() error {
	if d.Mode == "" {
		return fmt.Errorf("%w: details.mode is required", ErrValidation)
	}
	return nil
}

// AccommodationDetails is the payload for ItemAccommodation.
type AccommodationDetails struct {
	HotelName string   `json:"hotel_name"`
	Guests    int      `json:"guests,omitempty"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (AccommodationDetails) ItemType() ItemType { return ItemAccommodation }

func (d AccommodationDetails) Validate() error {
	if d.HotelName == "" {
		return fmt.Errorf("%w: details.hotel_name is required", ErrValidation)
	}
	return nil
}

// PlaceVisitDetails is the payload for ItemPlaceVisit. All fields optional.
type PlaceVisitDetails struct {
	Address         string   `json:"address,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	ExternalPlaceID string   `json:"external_place_id,omitempty"`
}

func (PlaceVisitDetails) ItemType() ItemType { return ItemPlaceVisit }

func (PlaceVisitDetails) Validate() error { return nil }

// FoodDetails is the payload for ItemFood. All fields optional.
type FoodDetails struct {
	RestaurantName string   `json:"restaurant_name,omitempty"`
	Cuisine        string   `json:"cuisine,omitempty"`
	Address        string   `json:"address,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

func (FoodDetails) ItemType() ItemType { return ItemFood }

func (FoodDetails) Validate() error { return nil }

// RequiresDetails reports whether the type has required detail fields, in
// which case a nil Details payload fails validation.
func RequiresDetails(t ItemType) bool {
	switch t {
	case ItemFlight, ItemTransport, ItemAccommodation:
		return true
	}
	return false
}

// DecodeDetails unmarshals a raw details payload into the variant selected
// by t. Unknown fields are rejected rather than silently dropped, so a field
// belonging to a different type surfaces as a validation error.
//
// A nil, empty, or JSON-null payload decodes to nil details; whether that is
// acceptable for the type is decided by the caller via RequiresDetails.
func DecodeDetails(t ItemType, raw []byte) (ItemDetails, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrValidation, t)
	}

	decode := func(dst any) error {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("%w: details do not match type %q: %v", ErrValidation, t, err)
		}
		return nil
	}

	switch t {
	case ItemFlight:
		var d FlightDetails
		if err := decode(&d); err != nil {
			return nil, err
		}
		return d, nil
	case ItemTransport:
		var d TransportDetails
		if err := decode(&d); err != nil {
			return nil, err
		}
		return d, nil
	case ItemAccommodation:
		var d AccommodationDetails
		if err := decode(&d); err != nil {
			return nil, err
		}
		return d, nil
	case ItemPlaceVisit:
		var d PlaceVisitDetails
		if err := decode(&d); err != nil {
			return nil, err
		}
		return d, nil
	case ItemFood:
		var d FoodDetails
		if err := decode(&d); err != nil {
			return nil, err
		}
		return d, nil
	}
	// Unreachable: t.Valid() covered all cases above.
	return nil, fmt.Errorf("%w: unknown item type %q", ErrValidation, t)
}
