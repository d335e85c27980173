package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripweaver/backend/internal/domain"
)

// ItineraryRepo defines the persistence operations for itinerary items.
type ItineraryRepo interface {
	// Create inserts a new item and returns the persisted record.
	Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// GetByID retrieves a single item by ID, scoped to the given tripID.
	// Returns domain.ErrNotFound if no item with that ID exists under that trip.
	GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error)

	// ListByTrip returns all items for a trip ordered by start_datetime ascending.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error)

	// ListPaged returns one page of a trip's items and the total count.
	ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.ItineraryItem, int64, error)

	// Update overwrites the mutable fields of an item and returns the updated
	// record. Returns domain.ErrNotFound if it does not exist under the trip.
	Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// SetLinkedLocation points an item at a location record.
	// Returns domain.ErrNotFound if the item does not exist.
	SetLinkedLocation(ctx context.Context, itemID, locationID uuid.UUID) error

	// Delete removes an item by ID, scoped to the given tripID.
	Delete(ctx context.Context, tripID, itemID uuid.UUID) error
}

// pgItineraryRepo is the Postgres implementation of ItineraryRepo.
// The details payload is stored as jsonb and decoded back into the tagged
// variant selected by the type column.
type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db connection.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

const itemColumns = `id, trip_id, type, title, start_datetime, end_datetime,
		start_timezone, end_timezone, status, details, linked_location_id,
		booking_ref, url, notes, created_at, updated_at`

// Create inserts a new itinerary item row.
func (r *pgItineraryRepo) Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	const q = `
		INSERT INTO itinerary_items (trip_id, type, title, start_datetime,
		                             end_datetime, start_timezone, end_timezone,
		                             status, details, linked_location_id,
		                             booking_ref, url, notes)
		VALUES (@trip_id, @type, @title, @start_datetime, @end_datetime,
		        @start_timezone, @end_timezone, @status, @details,
		        @linked_location_id, @booking_ref, @url, @notes)
		RETURNING ` + itemColumns

	args, err := itemArgs(item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Create: %w", err)
	}

	result, err := scanItem(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an item by ID under the given trip.
func (r *pgItineraryRepo) GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	const q = `
		SELECT ` + itemColumns + `
		FROM itinerary_items
		WHERE trip_id = @trip_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": itemID})
	result, err := scanItem(row)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByTrip returns all items for a trip in chronological order.
func (r *pgItineraryRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	const q = `
		SELECT ` + itemColumns + `
		FROM itinerary_items
		WHERE trip_id = @trip_id
		ORDER BY start_datetime`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	items := []domain.ItineraryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: rows: %w", err)
	}
	return items, nil
}

// ListPaged returns one page of items in chronological order plus the total count.
func (r *pgItineraryRepo) ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.ItineraryItem, int64, error) {
	const countQ = `SELECT count(*) FROM itinerary_items WHERE trip_id = @trip_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"trip_id": tripID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + itemColumns + `
		FROM itinerary_items
		WHERE trip_id = @trip_id
		ORDER BY start_datetime
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"trip_id": tripID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	items := []domain.ItineraryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ItineraryRepo.ListPaged: scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.ListPaged: rows: %w", err)
	}
	return items, total, nil
}

// Update overwrites the mutable fields of an item.
func (r *pgItineraryRepo) Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	const q = `
		UPDATE itinerary_items
		SET type               = @type,
		    title              = @title,
		    start_datetime     = @start_datetime,
		    end_datetime       = @end_datetime,
		    start_timezone     = @start_timezone,
		    end_timezone       = @end_timezone,
		    status             = @status,
		    details            = @details,
		    linked_location_id = @linked_location_id,
		    booking_ref        = @booking_ref,
		    url                = @url,
		    notes              = @notes,
		    updated_at         = now()
		WHERE trip_id = @trip_id AND id = @id
		RETURNING ` + itemColumns

	args, err := itemArgs(item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", err)
	}
	args["id"] = item.ID

	result, err := scanItem(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", err)
	}
	return result, nil
}

// SetLinkedLocation points an item at a location.
func (r *pgItineraryRepo) SetLinkedLocation(ctx context.Context, itemID, locationID uuid.UUID) error {
	const q = `
		UPDATE itinerary_items
		SET linked_location_id = @location_id, updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": itemID, "location_id": locationID})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.SetLinkedLocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.SetLinkedLocation: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes an item by ID under the given trip.
func (r *pgItineraryRepo) Delete(ctx context.Context, tripID, itemID uuid.UUID) error {
	const q = `DELETE FROM itinerary_items WHERE trip_id = @trip_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": itemID})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// itemArgs builds the shared NamedArgs for Create and Update, serializing the
// details variant to jsonb (nil details → NULL).
func itemArgs(item domain.ItineraryItem) (pgx.NamedArgs, error) {
	var details any
	if item.Details != nil {
		raw, err := json.Marshal(item.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
		details = raw
	}
	return pgx.NamedArgs{
		"trip_id":            item.TripID,
		"type":               item.Type,
		"title":              item.Title,
		"start_datetime":     item.StartDateTime,
		"end_datetime":       item.EndDateTime,
		"start_timezone":     item.StartTimezone,
		"end_timezone":       item.EndTimezone,
		"status":             item.Status,
		"details":            details,
		"linked_location_id": item.LinkedLocationID,
		"booking_ref":        item.BookingRef,
		"url":                item.URL,
		"notes":              item.Notes,
	}, nil
}

// scanItem maps a single database row into a domain.ItineraryItem, decoding
// the jsonb details payload into the variant selected by the type column.
func scanItem(s scanner) (domain.ItineraryItem, error) {
	var (
		item   domain.ItineraryItem
		id     pgtype.UUID
		tripID pgtype.UUID
		locID  pgtype.UUID
		raw    []byte
	)

	err := s.Scan(&id, &tripID, &item.Type, &item.Title, &item.StartDateTime,
		&item.EndDateTime, &item.StartTimezone, &item.EndTimezone,
		&item.Status, &raw, &locID, &item.BookingRef, &item.URL,
		&item.Notes, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItineraryItem{}, domain.ErrNotFound
		}
		return domain.ItineraryItem{}, err
	}

	item.ID = uuid.UUID(id.Bytes)
	item.TripID = uuid.UUID(tripID.Bytes)
	if locID.Valid {
		lid := uuid.UUID(locID.Bytes)
		item.LinkedLocationID = &lid
	}
	if len(raw) > 0 {
		details, err := domain.DecodeDetails(item.Type, raw)
		if err != nil {
			return domain.ItineraryItem{}, fmt.Errorf("decode details: %w", err)
		}
		item.Details = details
	}

	return item, nil
}
