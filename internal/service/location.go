package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// LocationService implements business logic for directly managed locations.
// Locations synthesized from the itinerary go through LocationSyncService
// instead; both populate the same normalized dedup key so a manual entry and
// a synced entry for the same place collapse into one record.
type LocationService struct {
	locations repo.LocationRepo
}

// NewLocationService constructs a LocationService backed by the provided repo.
func NewLocationService(locations repo.LocationRepo) *LocationService {
	return &LocationService{locations: locations}
}

// Create validates and persists a new location.
// Returns domain.ErrConflict if a location with the same normalized key
// already exists for the trip.
func (s *LocationService) Create(ctx context.Context, loc domain.Location) (domain.Location, error) {
	if err := validateLocation(loc); err != nil {
		return domain.Location{}, err
	}
	loc.NormalizedKey = NormalizedLocationKey(loc.Name, loc.Address, loc.Latitude, loc.Longitude)
	result, err := s.locations.Create(ctx, loc)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single location by ID, scoped to the given tripID.
func (s *LocationService) GetByID(ctx context.Context, tripID, locationID uuid.UUID) (domain.Location, error) {
	result, err := s.locations.GetByID(ctx, tripID, locationID)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.GetByID: %w", err)
	}
	return result, nil
}

// ListByTrip returns all locations for a trip ordered by name.
// Always returns a non-nil slice so callers can safely range over it.
func (s *LocationService) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Location, error) {
	locations, err := s.locations.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.LocationService.ListByTrip: %w", err)
	}
	if locations == nil {
		return []domain.Location{}, nil
	}
	return locations, nil
}

// Update validates and persists changes to an existing location, recomputing
// the normalized key from the updated fields.
func (s *LocationService) Update(ctx context.Context, loc domain.Location) (domain.Location, error) {
	if err := validateLocation(loc); err != nil {
		return domain.Location{}, err
	}
	loc.NormalizedKey = NormalizedLocationKey(loc.Name, loc.Address, loc.Latitude, loc.Longitude)
	result, err := s.locations.Update(ctx, loc)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a location by ID, scoped to the given tripID.
// Itinerary items pointing at it fall back to unlinked.
func (s *LocationService) Delete(ctx context.Context, tripID, locationID uuid.UUID) error {
	if err := s.locations.Delete(ctx, tripID, locationID); err != nil {
		return fmt.Errorf("service.LocationService.Delete: %w", err)
	}
	return nil
}

// validateLocation enforces business rules common to both Create and Update.
func validateLocation(loc domain.Location) error {
	if strings.TrimSpace(loc.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !loc.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, loc.Category)
	}
	if (loc.Latitude == nil) != (loc.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", domain.ErrValidation)
	}
	if loc.Latitude != nil && (*loc.Latitude < -90 || *loc.Latitude > 90) {
		return fmt.Errorf("%w: latitude out of range", domain.ErrValidation)
	}
	if loc.Longitude != nil && (*loc.Longitude < -180 || *loc.Longitude > 180) {
		return fmt.Errorf("%w: longitude out of range", domain.ErrValidation)
	}
	return nil
}
