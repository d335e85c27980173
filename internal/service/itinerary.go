package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// ItineraryService implements business logic for itinerary items.
// It holds the trips repo as well because creating an item requires
// verifying the parent trip exists.
type ItineraryService struct {
	trips repo.TripRepo
	items repo.ItineraryRepo
}

// NewItineraryService constructs an ItineraryService backed by the provided repos.
func NewItineraryService(trips repo.TripRepo, items repo.ItineraryRepo) *ItineraryService {
	return &ItineraryService{trips: trips, items: items}
}

// Create validates the item, verifies the parent trip exists, then persists.
// Returns domain.ErrValidation if input violates business rules.
// Returns domain.ErrNotFound if the parent trip does not exist.
func (s *ItineraryService) Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	if _, err := s.trips.GetByID(ctx, item.TripID); err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Create: %w", err)
	}
	if err := validateItem(item); err != nil {
		return domain.ItineraryItem{}, err
	}
	if item.Status == "" {
		item.Status = domain.StatusPlanned
	}
	result, err := s.items.Create(ctx, item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single item by ID, scoped to the given tripID.
func (s *ItineraryService) GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	result, err := s.items.GetByID(ctx, tripID, itemID)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of a trip's items in chronological order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItineraryService) ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.ItineraryItem, int64, error) {
	items, total, err := s.items.ListPaged(ctx, tripID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ItineraryService.ListPaged: %w", err)
	}
	if items == nil {
		items = []domain.ItineraryItem{}
	}
	return items, total, nil
}

// Update validates and persists changes to an existing item.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// item does not exist under the given trip.
func (s *ItineraryService) Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	if err := validateItem(item); err != nil {
		return domain.ItineraryItem{}, err
	}
	result, err := s.items.Update(ctx, item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	return result, nil
}

// TransitionStatus moves an item to a new lifecycle status. Transitions are
// unconstrained — any status may follow any other — so the only validation
// is that the status itself is known.
func (s *ItineraryService) TransitionStatus(ctx context.Context, tripID, itemID uuid.UUID, newStatus domain.ItemStatus) (domain.ItineraryItem, error) {
	if !newStatus.Valid() {
		return domain.ItineraryItem{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, newStatus)
	}
	item, err := s.items.GetByID(ctx, tripID, itemID)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.TransitionStatus: %w", err)
	}
	item.Status = newStatus
	result, err := s.items.Update(ctx, item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.TransitionStatus: %w", err)
	}
	return result, nil
}

// Delete removes an item by ID, scoped to the given tripID.
func (s *ItineraryService) Delete(ctx context.Context, tripID, itemID uuid.UUID) error {
	if err := s.items.Delete(ctx, tripID, itemID); err != nil {
		return fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	return nil
}

// validateItem enforces business rules common to both Create and Update,
// in order: item type, detail payload shape, then the time range.
func validateItem(item domain.ItineraryItem) error {
	if !item.Type.Valid() {
		return fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, item.Type)
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if item.Details == nil {
		if domain.RequiresDetails(item.Type) {
			return fmt.Errorf("%w: details are required for type %q", domain.ErrValidation, item.Type)
		}
	} else {
		if item.Details.ItemType() != item.Type {
			return fmt.Errorf("%w: details do not match type %q", domain.ErrValidation, item.Type)
		}
		if err := item.Details.Validate(); err != nil {
			return err
		}
	}
	if item.StartDateTime.IsZero() {
		return fmt.Errorf("%w: start_datetime is required", domain.ErrValidation)
	}
	if item.EndDateTime != nil && item.EndDateTime.Before(item.StartDateTime) {
		return fmt.Errorf("%w: end precedes start", domain.ErrValidation)
	}
	if item.Status != "" && !item.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, item.Status)
	}
	return nil
}

// Duration returns the elapsed time between the item's start and end.
// Both are absolute instants, so the delta is the same in the reporting
// timezone (start timezone, else UTC) as anywhere else; validation
// guarantees it is never negative. The second return is false when the item
// has no end time.
func Duration(item domain.ItineraryItem) (time.Duration, bool) {
	if item.EndDateTime == nil {
		return 0, false
	}
	return item.EndDateTime.Sub(item.StartDateTime), true
}

// UTCOffsetLabel renders the current UTC offset of an IANA timezone as a
// compact label: "UTC+8", "UTC-3.5", "UTC+5.75", "UTC+0". An unresolvable
// identifier is returned unchanged — this is a display fallback, not an
// error path.
func UTCOffsetLabel(timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return timezone
	}
	_, offsetSeconds := time.Now().In(loc).Zone()
	hours := float64(offsetSeconds) / 3600

	label := strconv.FormatFloat(hours, 'f', -1, 64)
	if hours >= 0 {
		label = "+" + label
	}
	return "UTC" + label
}
