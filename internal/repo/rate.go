package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tripweaver/backend/internal/domain"
)

// RateRepo defines the persistence operations for cached exchange-rate facts.
// Facts are append-only: once recorded for a (scope, pair, date) they are
// never mutated.
type RateRepo interface {
	// Find retrieves the cached rate for the pair on the given date.
	// tripID nil looks up the global scope. Returns domain.ErrNotFound when
	// no fact has been recorded.
	Find(ctx context.Context, tripID *uuid.UUID, from, to string, date time.Time) (domain.ExchangeRate, error)

	// Record appends a rate fact. If a fact already exists for the same
	// (scope, pair, date) the existing fact is returned unchanged — recorded
	// rates never move.
	Record(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error)
}

// pgRateRepo is the Postgres implementation of RateRepo.
type pgRateRepo struct {
	db db
}

// NewRateRepo constructs a RateRepo backed by the provided db connection.
func NewRateRepo(db db) RateRepo {
	return &pgRateRepo{db: db}
}

const rateColumns = `id, trip_id, from_currency, to_currency, rate_date, rate::text, created_at`

// Find retrieves a cached rate fact by scope, pair, and date.
func (r *pgRateRepo) Find(ctx context.Context, tripID *uuid.UUID, from, to string, date time.Time) (domain.ExchangeRate, error) {
	const q = `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE trip_id IS NOT DISTINCT FROM @trip_id
		  AND from_currency = @from
		  AND to_currency   = @to
		  AND rate_date     = @date`

	args := pgx.NamedArgs{"trip_id": tripID, "from": from, "to": to, "date": date}
	result, err := scanRate(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("repo.RateRepo.Find: %w", err)
	}
	return result, nil
}

// Record appends a rate fact, keeping any existing fact for the same key.
// ON CONFLICT DO NOTHING plus a re-read makes the append race-safe without
// ever overwriting a recorded rate.
func (r *pgRateRepo) Record(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error) {
	const q = `
		INSERT INTO exchange_rates (trip_id, from_currency, to_currency, rate_date, rate)
		VALUES (@trip_id, @from, @to, @date, @rate)
		ON CONFLICT DO NOTHING`

	args := pgx.NamedArgs{
		"trip_id": rate.TripID,
		"from":    rate.FromCurrency,
		"to":      rate.ToCurrency,
		"date":    rate.Date,
		"rate":    rate.Rate.String(),
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("repo.RateRepo.Record: %w", err)
	}

	result, err := r.Find(ctx, rate.TripID, rate.FromCurrency, rate.ToCurrency, rate.Date)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("repo.RateRepo.Record: %w", err)
	}
	return result, nil
}

// scanRate maps a single database row into a domain.ExchangeRate.
func scanRate(s scanner) (domain.ExchangeRate, error) {
	var (
		er      domain.ExchangeRate
		id      pgtype.UUID
		tripID  pgtype.UUID
		date    pgtype.Date
		rateStr string
	)

	err := s.Scan(&id, &tripID, &er.FromCurrency, &er.ToCurrency, &date, &rateStr, &er.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ExchangeRate{}, domain.ErrNotFound
		}
		return domain.ExchangeRate{}, err
	}

	er.ID = uuid.UUID(id.Bytes)
	if tripID.Valid {
		tid := uuid.UUID(tripID.Bytes)
		er.TripID = &tid
	}
	er.Date = date.Time
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("parse rate: %w", err)
	}
	er.Rate = rate

	return er, nil
}
