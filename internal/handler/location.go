package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
)

// locationRequest is the request body for creating or updating a location.
type locationRequest struct {
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Address         string   `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ExternalPlaceID string   `json:"external_place_id"`
	Notes           string   `json:"notes"`
}

func (req locationRequest) toLocation() domain.Location {
	category := domain.LocationCategory(req.Category)
	if category == "" {
		category = domain.LocationOther
	}
	return domain.Location{
		Name:            req.Name,
		Category:        category,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ExternalPlaceID: req.ExternalPlaceID,
		Notes:           req.Notes,
	}
}

// CreateLocation handles POST /trips/{tripID}/locations.
// A location colliding with an existing one on the dedup key is a conflict.
func (s *Server) CreateLocation(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionEditLocations) {
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	loc := req.toLocation()
	loc.TripID = tripID

	created, err := s.locations.Create(r.Context(), loc)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ListLocations handles GET /trips/{tripID}/locations.
func (s *Server) ListLocations(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionViewTrip) {
		return
	}

	locations, err := s.locations.ListByTrip(r.Context(), tripID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Data []domain.Location `json:"data"`
	}{Data: locations})
}

// GetLocation handles GET /trips/{tripID}/locations/{locationID}.
func (s *Server) GetLocation(w http.ResponseWriter, r *http.Request) {
	tripID, locationID, ok := s.locationIDs(w, r, domain.ActionViewTrip)
	if !ok {
		return
	}

	loc, err := s.locations.GetByID(r.Context(), tripID, locationID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

// UpdateLocation handles PUT /trips/{tripID}/locations/{locationID}.
func (s *Server) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	tripID, locationID, ok := s.locationIDs(w, r, domain.ActionEditLocations)
	if !ok {
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	loc := req.toLocation()
	loc.ID = locationID
	loc.TripID = tripID

	updated, err := s.locations.Update(r.Context(), loc)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteLocation handles DELETE /trips/{tripID}/locations/{locationID}.
// Itinerary items linked to the location revert to unlinked.
func (s *Server) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	tripID, locationID, ok := s.locationIDs(w, r, domain.ActionEditLocations)
	if !ok {
		return
	}

	if err := s.locations.Delete(r.Context(), tripID, locationID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncLocations handles POST /trips/{tripID}/locations/sync.
// Runs the itinerary reconciliation pass; the pass is idempotent, so a second
// call with an unchanged itinerary reports zero created.
func (s *Server) SyncLocations(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionEditLocations) {
		return
	}

	result, err := s.syncer.Sync(r.Context(), tripID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// locationIDs parses both path IDs and runs the permission check, writing
// the error response itself when anything fails.
func (s *Server) locationIDs(w http.ResponseWriter, r *http.Request, action domain.Action) (tripID, locationID uuid.UUID, ok bool) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return uuid.Nil, uuid.Nil, false
	}
	locationID, err = parseUUIDParam(r, "locationID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid location id")
		return uuid.Nil, uuid.Nil, false
	}
	if !s.authorize(w, r, tripID, action) {
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, locationID, true
}
