// Package domain contains the core data types for the trip planner.
// This package has no dependencies on other internal packages and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DisplayCurrencyMode controls which currency columns the UI shows for a trip.
type DisplayCurrencyMode string

const (
	DisplayDestinationOnly DisplayCurrencyMode = "destination_only"
	DisplayOriginOnly      DisplayCurrencyMode = "origin_only"
	DisplayBoth            DisplayCurrencyMode = "both"
)

// Valid reports whether m is one of the three known modes.
func (m DisplayCurrencyMode) Valid() bool {
	switch m {
	case DisplayDestinationOnly, DisplayOriginOnly, DisplayBoth:
		return true
	}
	return false
}

// Trip is the top-level planning unit. It owns the itinerary, locations,
// expenses, and membership. A trip always has at least one OWNER member;
// the creator becomes the first OWNER at creation time.
//
// DestinationCurrency and OriginCurrency are ISO-4217 codes (3 uppercase
// ASCII letters). DefaultExchangeRate, when set, is the trip-wide
// destination→origin rate used before any external lookup.
type Trip struct {
	ID                  uuid.UUID           `json:"id"`
	Title               string              `json:"title"`
	StartDate           time.Time           `json:"start_date"`
	EndDate             time.Time           `json:"end_date"`
	DestinationCurrency string              `json:"destination_currency"`
	OriginCurrency      string              `json:"origin_currency"`
	DisplayCurrency     DisplayCurrencyMode `json:"display_currency_mode"`
	DefaultExchangeRate *decimal.Decimal    `json:"default_exchange_rate,omitempty"`
	CreatedBy           uuid.UUID           `json:"created_by"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}
