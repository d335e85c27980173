package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate is a cached rate fact: the From→To rate observed on Date,
// optionally scoped to a trip (TripID nil means global). Facts are
// append-only — once a rate is recorded for a (scope, pair, date) it is
// never overwritten.
type ExchangeRate struct {
	ID           uuid.UUID       `json:"id"`
	TripID       *uuid.UUID      `json:"trip_id,omitempty"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Date         time.Time       `json:"date"`
	Rate         decimal.Decimal `json:"rate"`
	CreatedAt    time.Time       `json:"created_at"`
}
