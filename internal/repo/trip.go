package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tripweaver/backend/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// CreateWithOwner inserts a new trip and its creator's OWNER membership
	// in a single transaction, so a trip is never observable without an
	// OWNER. Returns the persisted record with DB-generated fields populated.
	CreateWithOwner(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListByMember returns one page of trips the user is a member of,
	// ordered by start_date descending, plus the total count.
	ListByMember(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Update overwrites the mutable fields of an existing trip and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID, cascading to members, itinerary items,
	// locations, and expenses. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db beginner
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db beginner) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, title, start_date, end_date, destination_currency,
		origin_currency, display_currency_mode, default_exchange_rate::text,
		created_by, created_at, updated_at`

// CreateWithOwner inserts the trip row and the creator's OWNER membership
// atomically.
func (r *pgTripRepo) CreateWithOwner(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	var result domain.Trip
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO trips (title, start_date, end_date, destination_currency,
			                   origin_currency, display_currency_mode,
			                   default_exchange_rate, created_by)
			VALUES (@title, @start_date, @end_date, @destination_currency,
			        @origin_currency, @display_currency_mode,
			        @default_exchange_rate, @created_by)
			RETURNING ` + tripColumns

		args := pgx.NamedArgs{
			"title":                 trip.Title,
			"start_date":            trip.StartDate,
			"end_date":              trip.EndDate,
			"destination_currency":  trip.DestinationCurrency,
			"origin_currency":       trip.OriginCurrency,
			"display_currency_mode": trip.DisplayCurrency,
			"default_exchange_rate": rateArg(trip.DefaultExchangeRate),
			"created_by":            trip.CreatedBy,
		}

		created, err := scanTrip(tx.QueryRow(ctx, q, args))
		if err != nil {
			return err
		}

		const mq = `
			INSERT INTO trip_members (trip_id, user_id, role)
			VALUES (@trip_id, @user_id, @role)`
		_, err = tx.Exec(ctx, mq, pgx.NamedArgs{
			"trip_id": created.ID,
			"user_id": trip.CreatedBy,
			"role":    domain.RoleOwner,
		})
		if err != nil {
			return err
		}

		result = created
		return nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithOwner: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByMember returns one page of the user's trips, most recent first.
func (r *pgTripRepo) ListByMember(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `
		SELECT count(*)
		FROM trips t
		JOIN trip_members m ON m.trip_id = t.id
		WHERE m.user_id = @user_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"user_id": userID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByMember: count: %w", err)
	}

	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		JOIN trip_members m ON m.trip_id = trips.id
		WHERE m.user_id = @user_id
		ORDER BY start_date DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByMember: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListByMember: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByMember: rows: %w", err)
	}

	return trips, total, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET title                 = @title,
		    start_date            = @start_date,
		    end_date              = @end_date,
		    destination_currency  = @destination_currency,
		    origin_currency       = @origin_currency,
		    display_currency_mode = @display_currency_mode,
		    default_exchange_rate = @default_exchange_rate,
		    updated_at            = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":                    trip.ID,
		"title":                 trip.Title,
		"start_date":            trip.StartDate,
		"end_date":              trip.EndDate,
		"destination_currency":  trip.DestinationCurrency,
		"origin_currency":       trip.OriginCurrency,
		"display_currency_mode": trip.DisplayCurrency,
		"default_exchange_rate": rateArg(trip.DefaultExchangeRate),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// rateArg converts an optional decimal into a driver argument (nil → NULL).
// Rates travel as strings so the numeric column preserves exact digits.
func rateArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, date, and nullable numeric conversions.
// The default_exchange_rate column is selected as ::text and parsed with
// shopspring/decimal to avoid float rounding.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t       domain.Trip
		id      pgtype.UUID
		start   pgtype.Date
		end     pgtype.Date
		rate    *string
		creator pgtype.UUID
	)

	err := s.Scan(&id, &t.Title, &start, &end, &t.DestinationCurrency,
		&t.OriginCurrency, &t.DisplayCurrency, &rate,
		&creator, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.CreatedBy = uuid.UUID(creator.Bytes)
	t.StartDate = start.Time
	t.EndDate = end.Time
	if rate != nil {
		d, err := decimal.NewFromString(*rate)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("parse default_exchange_rate: %w", err)
		}
		t.DefaultExchangeRate = &d
	}

	return t, nil
}
