package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// coordPrecision is the number of decimal places coordinates are rounded to
// when building the dedup key. Four places is roughly 11 metres — close
// enough that two itinerary entries for the same place collapse, far enough
// that neighbouring places stay distinct.
const coordPrecision = 4

// LocationSyncService derives Location records from itinerary items that
// lack one, deduplicating against existing locations by normalized key.
// Sync is idempotent: a second pass with no itinerary changes creates nothing.
type LocationSyncService struct {
	items     repo.ItineraryRepo
	locations repo.LocationRepo
	log       *slog.Logger
}

// NewLocationSyncService constructs a LocationSyncService backed by the
// provided repos. A nil logger falls back to slog.Default.
func NewLocationSyncService(items repo.ItineraryRepo, locations repo.LocationRepo, log *slog.Logger) *LocationSyncService {
	if log == nil {
		log = slog.Default()
	}
	return &LocationSyncService{items: items, locations: locations, log: log}
}

// SyncResult reports the outcome of a sync pass.
type SyncResult struct {
	Created int `json:"created"`
}

// candidate is a potential location derived from one itinerary item.
type candidate struct {
	Name      string
	Address   string
	Latitude  *float64
	Longitude *float64
	Category  domain.LocationCategory
}

// Sync scans the trip's itinerary for items that imply a physical place and
// have no linked location, then creates or links locations for them.
//
// A failure on one candidate is logged and does not abort the others;
// partial success is reported through the created count.
func (s *LocationSyncService) Sync(ctx context.Context, tripID uuid.UUID) (SyncResult, error) {
	items, err := s.items.ListByTrip(ctx, tripID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("service.LocationSyncService.Sync: %w", err)
	}
	existing, err := s.locations.ListByTrip(ctx, tripID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("service.LocationSyncService.Sync: %w", err)
	}

	byKey := make(map[string]domain.Location, len(existing))
	for _, loc := range existing {
		if loc.NormalizedKey != "" {
			byKey[loc.NormalizedKey] = loc
		}
	}

	var result SyncResult
	for _, item := range items {
		if item.LinkedLocationID != nil {
			continue
		}

		linked := false
		for _, cand := range candidates(item) {
			key := NormalizedLocationKey(cand.Name, cand.Address, cand.Latitude, cand.Longitude)
			if key == "" {
				continue
			}

			loc, created, err := s.ensureLocation(ctx, tripID, cand, key, byKey)
			if err != nil {
				s.log.WarnContext(ctx, "location sync: candidate failed",
					"trip_id", tripID, "item_id", item.ID, "key", key, "error", err)
				continue
			}
			if created {
				result.Created++
			}

			// An item links to at most one location; multi-endpoint items
			// (transport legs) still get locations created for every endpoint.
			if !linked {
				if err := s.items.SetLinkedLocation(ctx, item.ID, loc.ID); err != nil {
					s.log.WarnContext(ctx, "location sync: link failed",
						"trip_id", tripID, "item_id", item.ID, "location_id", loc.ID, "error", err)
					continue
				}
				linked = true
			}
		}
	}

	return result, nil
}

// ensureLocation returns the location for the given key, creating it if it
// does not exist yet. A concurrent sync creating the same key is resolved by
// treating the unique-constraint conflict as "already exists, fetch and link".
func (s *LocationSyncService) ensureLocation(ctx context.Context, tripID uuid.UUID, cand candidate, key string, byKey map[string]domain.Location) (domain.Location, bool, error) {
	if loc, ok := byKey[key]; ok {
		return loc, false, nil
	}

	loc, err := s.locations.Create(ctx, domain.Location{
		TripID:        tripID,
		Name:          cand.Name,
		Category:      cand.Category,
		Address:       cand.Address,
		Latitude:      cand.Latitude,
		Longitude:     cand.Longitude,
		NormalizedKey: key,
	})
	if errors.Is(err, domain.ErrConflict) {
		loc, err = s.locations.GetByKey(ctx, tripID, key)
		if err != nil {
			return domain.Location{}, false, err
		}
		byKey[key] = loc
		return loc, false, nil
	}
	if err != nil {
		return domain.Location{}, false, err
	}
	byKey[key] = loc
	return loc, true, nil
}

// candidates extracts the potential locations implied by an itinerary item.
// Place visits, accommodation, and food always imply one place; transport
// and flight endpoints count only when they embed address or coordinate data.
func candidates(item domain.ItineraryItem) []candidate {
	switch d := item.Details.(type) {
	case domain.PlaceVisitDetails:
		return []candidate{{
			Name: item.Title, Address: d.Address,
			Latitude: d.Latitude, Longitude: d.Longitude,
			Category: domain.LocationPlace,
		}}
	case domain.AccommodationDetails:
		name := d.HotelName
		if name == "" {
			name = item.Title
		}
		return []candidate{{
			Name: name, Address: d.Address,
			Latitude: d.Latitude, Longitude: d.Longitude,
			Category: domain.LocationAccommodation,
		}}
	case domain.FoodDetails:
		name := d.RestaurantName
		if name == "" {
			name = item.Title
		}
		return []candidate{{
			Name: name, Address: d.Address,
			Latitude: d.Latitude, Longitude: d.Longitude,
			Category: domain.LocationRestaurant,
		}}
	case domain.TransportDetails:
		return endpointCandidates(d.From, d.To)
	case domain.FlightDetails:
		return endpointCandidates(d.Departure, d.Arrival)
	case nil:
		// Items without details can still imply a place by type alone.
		switch item.Type {
		case domain.ItemPlaceVisit:
			return []candidate{{Name: item.Title, Category: domain.LocationPlace}}
		case domain.ItemFood:
			return []candidate{{Name: item.Title, Category: domain.LocationRestaurant}}
		}
	}
	return nil
}

// endpointCandidates keeps only transport endpoints carrying place data.
func endpointCandidates(refs ...*domain.PlaceRef) []candidate {
	var out []candidate
	for _, ref := range refs {
		if ref == nil || !ref.HasPlaceData() {
			continue
		}
		out = append(out, candidate{
			Name: ref.Name, Address: ref.Address,
			Latitude: ref.Latitude, Longitude: ref.Longitude,
			Category: domain.LocationTransportNode,
		})
	}
	return out
}

// NormalizedLocationKey derives the dedup key for a location: the lowercased
// name, then rounded coordinates when both are present, else the normalized
// address. A location with no name, address, or coordinates has no key.
func NormalizedLocationKey(rawName, address string, lat, lon *float64) string {
	name := normalizeText(rawName)

	switch {
	case lat != nil && lon != nil:
		return name + "|" + roundCoord(*lat) + "," + roundCoord(*lon)
	case address != "":
		return name + "|" + normalizeText(address)
	case name != "":
		return name
	}
	return ""
}

// normalizeText lowercases and collapses interior whitespace so cosmetic
// differences ("Blue  Bottle" vs "blue bottle") hit the same key.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// roundCoord renders a coordinate at the fixed dedup precision.
func roundCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', coordPrecision, 64)
}
