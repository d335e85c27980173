package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies an expense for reporting.
type ExpenseCategory string

const (
	ExpenseAccommodation ExpenseCategory = "accommodation"
	ExpenseTransport     ExpenseCategory = "transport"
	ExpenseFood          ExpenseCategory = "food"
	ExpenseShop          ExpenseCategory = "shop"
	ExpenseAttraction    ExpenseCategory = "attraction"
	ExpenseOther         ExpenseCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseAccommodation, ExpenseTransport, ExpenseFood,
		ExpenseShop, ExpenseAttraction, ExpenseOther:
		return true
	}
	return false
}

// PaymentMethod records how an expense was paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
	PaymentOther  PaymentMethod = "other"
)

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile, PaymentOther:
		return true
	}
	return false
}

// Expense is a single spend on a trip.
//
// AmountMinor is an integer amount in minor units (e.g. cents) of Currency —
// never a float. Sums stay in integer minor units; conversion to major units
// happens only at the presentation boundary.
//
// ExchangeRateUsed, when set, pins the destination→origin rate for this
// expense and takes precedence over every other rate source.
type Expense struct {
	ID                   uuid.UUID        `json:"id"`
	TripID               uuid.UUID        `json:"trip_id"`
	Title                string           `json:"title"`
	Category             ExpenseCategory  `json:"category"`
	ExpenseDateTime      time.Time        `json:"expense_datetime"`
	AmountMinor          int64            `json:"amount_destination_minor"`
	Currency             string           `json:"destination_currency"`
	ExchangeRateUsed     *decimal.Decimal `json:"exchange_rate_used,omitempty"`
	LinkedItineraryItem  *uuid.UUID       `json:"linked_itinerary_item_id,omitempty"`
	PaidByUserID         uuid.UUID        `json:"paid_by_user_id"`
	PaymentMethod        PaymentMethod    `json:"payment_method"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}
