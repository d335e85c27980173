package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripweaver/backend/internal/domain"
)

// LocationRepo defines the persistence operations for Locations.
type LocationRepo interface {
	// Create inserts a new location. The unique (trip_id, normalized_key)
	// constraint makes concurrent sync passes safe: a duplicate create
	// returns domain.ErrConflict, which callers treat as "already exists,
	// fetch and link".
	Create(ctx context.Context, loc domain.Location) (domain.Location, error)

	// GetByID retrieves a location by ID, scoped to the given tripID.
	GetByID(ctx context.Context, tripID, locationID uuid.UUID) (domain.Location, error)

	// GetByKey retrieves a location by its normalized dedup key.
	// Returns domain.ErrNotFound if no location has that key under the trip.
	GetByKey(ctx context.Context, tripID uuid.UUID, key string) (domain.Location, error)

	// ListByTrip returns all locations for a trip ordered by name.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Location, error)

	// Update overwrites the mutable fields of a location.
	Update(ctx context.Context, loc domain.Location) (domain.Location, error)

	// Delete removes a location by ID, scoped to the given tripID.
	Delete(ctx context.Context, tripID, locationID uuid.UUID) error
}

// pgLocationRepo is the Postgres implementation of LocationRepo.
type pgLocationRepo struct {
	db db
}

// NewLocationRepo constructs a LocationRepo backed by the provided db connection.
func NewLocationRepo(db db) LocationRepo {
	return &pgLocationRepo{db: db}
}

const locationColumns = `id, trip_id, name, category, address, latitude,
		longitude, external_place_id, notes, normalized_key, created_at, updated_at`

// Create inserts a new location row.
func (r *pgLocationRepo) Create(ctx context.Context, loc domain.Location) (domain.Location, error) {
	const q = `
		INSERT INTO locations (trip_id, name, category, address, latitude,
		                       longitude, external_place_id, notes, normalized_key)
		VALUES (@trip_id, @name, @category, @address, @latitude, @longitude,
		        @external_place_id, @notes, @normalized_key)
		RETURNING ` + locationColumns

	args := pgx.NamedArgs{
		"trip_id":           loc.TripID,
		"name":              loc.Name,
		"category":          loc.Category,
		"address":           loc.Address,
		"latitude":          loc.Latitude,
		"longitude":         loc.Longitude,
		"external_place_id": loc.ExternalPlaceID,
		"notes":             loc.Notes,
		"normalized_key":    loc.NormalizedKey,
	}

	result, err := scanLocation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Location{}, fmt.Errorf("repo.LocationRepo.Create: %w", domain.ErrConflict)
		}
		return domain.Location{}, fmt.Errorf("repo.LocationRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a location by ID under the given trip.
func (r *pgLocationRepo) GetByID(ctx context.Context, tripID, locationID uuid.UUID) (domain.Location, error) {
	const q = `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE trip_id = @trip_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": locationID})
	result, err := scanLocation(row)
	if err != nil {
		return domain.Location{}, fmt.Errorf("repo.LocationRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetByKey retrieves a location by its normalized dedup key.
func (r *pgLocationRepo) GetByKey(ctx context.Context, tripID uuid.UUID, key string) (domain.Location, error) {
	const q = `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE trip_id = @trip_id AND normalized_key = @key`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "key": key})
	result, err := scanLocation(row)
	if err != nil {
		return domain.Location{}, fmt.Errorf("repo.LocationRepo.GetByKey: %w", err)
	}
	return result, nil
}

// ListByTrip returns all locations for a trip ordered by name.
func (r *pgLocationRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Location, error) {
	const q = `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE trip_id = @trip_id
		ORDER BY name`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.LocationRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.LocationRepo.ListByTrip: scan: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.LocationRepo.ListByTrip: rows: %w", err)
	}
	return locations, nil
}

// Update overwrites the mutable fields of a location.
func (r *pgLocationRepo) Update(ctx context.Context, loc domain.Location) (domain.Location, error) {
	const q = `
		UPDATE locations
		SET name              = @name,
		    category          = @category,
		    address           = @address,
		    latitude          = @latitude,
		    longitude         = @longitude,
		    external_place_id = @external_place_id,
		    notes             = @notes,
		    normalized_key    = @normalized_key,
		    updated_at        = now()
		WHERE trip_id = @trip_id AND id = @id
		RETURNING ` + locationColumns

	args := pgx.NamedArgs{
		"id":                loc.ID,
		"trip_id":           loc.TripID,
		"name":              loc.Name,
		"category":          loc.Category,
		"address":           loc.Address,
		"latitude":          loc.Latitude,
		"longitude":         loc.Longitude,
		"external_place_id": loc.ExternalPlaceID,
		"notes":             loc.Notes,
		"normalized_key":    loc.NormalizedKey,
	}

	result, err := scanLocation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Location{}, fmt.Errorf("repo.LocationRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a location by ID under the given trip.
func (r *pgLocationRepo) Delete(ctx context.Context, tripID, locationID uuid.UUID) error {
	const q = `DELETE FROM locations WHERE trip_id = @trip_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": locationID})
	if err != nil {
		return fmt.Errorf("repo.LocationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.LocationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanLocation maps a single database row into a domain.Location.
func scanLocation(s scanner) (domain.Location, error) {
	var (
		loc    domain.Location
		id     pgtype.UUID
		tripID pgtype.UUID
	)
	err := s.Scan(&id, &tripID, &loc.Name, &loc.Category, &loc.Address,
		&loc.Latitude, &loc.Longitude, &loc.ExternalPlaceID, &loc.Notes,
		&loc.NormalizedKey, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Location{}, domain.ErrNotFound
		}
		return domain.Location{}, err
	}
	loc.ID = uuid.UUID(id.Bytes)
	loc.TripID = uuid.UUID(tripID.Bytes)
	return loc, nil
}
