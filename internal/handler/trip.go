package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/middleware"
)

// dateLayout is the wire format for whole-day dates.
const dateLayout = "2006-01-02"

// tripRequest is the request body for creating or updating a trip.
// Dates are whole days ("2006-01-02"); the default exchange rate is a decimal
// string so it never passes through a float.
type tripRequest struct {
	Title               string  `json:"title"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	DestinationCurrency string  `json:"destination_currency"`
	OriginCurrency      string  `json:"origin_currency"`
	DisplayCurrencyMode string  `json:"display_currency_mode"`
	DefaultExchangeRate *string `json:"default_exchange_rate"`
}

// tripResponse renders a trip with date-only start/end fields.
type tripResponse struct {
	domain.Trip
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func tripToResponse(t domain.Trip) tripResponse {
	return tripResponse{
		Trip:      t,
		StartDate: t.StartDate.Format(dateLayout),
		EndDate:   t.EndDate.Format(dateLayout),
	}
}

// toTrip converts the request body into a domain.Trip, leaving business-rule
// validation to the service. Only structural problems (unparseable dates or
// rate) are rejected here.
func (req tripRequest) toTrip() (domain.Trip, error) {
	t := domain.Trip{
		Title:               req.Title,
		DestinationCurrency: req.DestinationCurrency,
		OriginCurrency:      req.OriginCurrency,
		DisplayCurrency:     domain.DisplayCurrencyMode(req.DisplayCurrencyMode),
	}
	if t.DisplayCurrency == "" {
		t.DisplayCurrency = domain.DisplayBoth
	}

	var err error
	if t.StartDate, err = time.Parse(dateLayout, req.StartDate); err != nil {
		return domain.Trip{}, errors.New("start_date must be formatted YYYY-MM-DD")
	}
	if t.EndDate, err = time.Parse(dateLayout, req.EndDate); err != nil {
		return domain.Trip{}, errors.New("end_date must be formatted YYYY-MM-DD")
	}
	if req.DefaultExchangeRate != nil {
		rate, err := decimal.NewFromString(*req.DefaultExchangeRate)
		if err != nil {
			return domain.Trip{}, errors.New("default_exchange_rate must be a decimal string")
		}
		t.DefaultExchangeRate = &rate
	}
	return t, nil
}

// CreateTrip handles POST /trips.
// The acting user becomes the trip's first OWNER member atomically.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor identity")
		return
	}

	var req tripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	trip, err := req.toTrip()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	trip.CreatedBy = actorID

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Returns only trips the acting user is a member of, paginated via
// ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor identity")
		return
	}

	params := paginationFromQuery(r)
	trips, total, err := s.trips.ListByMember(r.Context(), actorID, params)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	data := make([]tripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	respondJSON(w, http.StatusOK, struct {
		Data       []tripResponse `json:"data"`
		Pagination pagination     `json:"pagination"`
	}{
		Data:       data,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionViewTrip) {
		return
	}

	trip, err := s.trips.GetByID(r.Context(), tripID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionEditTrip) {
		return
	}

	var req tripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	trip, err := req.toTrip()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	trip.ID = tripID

	updated, err := s.trips.Update(r.Context(), trip)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripID}.
// Cascades to itinerary items, locations, expenses, and memberships.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionDeleteTrip) {
		return
	}

	if err := s.trips.Delete(r.Context(), tripID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
