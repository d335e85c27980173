package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// TripService implements business logic for Trip operations.
type TripService struct {
	repo repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo) *TripService {
	return &TripService{repo: r}
}

// Create validates and persists a new trip. The creator recorded in
// trip.CreatedBy becomes the trip's first OWNER in the same transaction.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}
	result, err := s.repo.CreateWithOwner(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// ListByMember returns one page of the user's trips plus the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListByMember(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repo.ListByMember(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListByMember: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Update validates and updates an existing trip.
func (s *TripService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}
	result, err := s.repo.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by ID, cascading to its members, itinerary,
// locations, and expenses.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// validateTrip enforces business rules common to both Create and Update.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - EndDate must not be before StartDate.
//   - Both currency codes must be known ISO-4217 codes (3 uppercase letters).
//   - DisplayCurrency must be one of the three modes.
//   - DefaultExchangeRate, if set, must be positive.
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if !domain.ValidCurrencyCode(trip.DestinationCurrency) {
		return fmt.Errorf("%w: destination_currency must be a 3-letter ISO-4217 code", domain.ErrValidation)
	}
	if !domain.ValidCurrencyCode(trip.OriginCurrency) {
		return fmt.Errorf("%w: origin_currency must be a 3-letter ISO-4217 code", domain.ErrValidation)
	}
	if !trip.DisplayCurrency.Valid() {
		return fmt.Errorf("%w: unknown display_currency_mode %q", domain.ErrValidation, trip.DisplayCurrency)
	}
	if trip.DefaultExchangeRate != nil && !trip.DefaultExchangeRate.IsPositive() {
		return fmt.Errorf("%w: default_exchange_rate must be positive", domain.ErrValidation)
	}
	return nil
}
