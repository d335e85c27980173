package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/service"
)

// itineraryItemRequest is the request body for creating or updating an
// itinerary item. Details is the raw type-specific payload; it is decoded
// against the declared type and rejected on unknown fields.
type itineraryItemRequest struct {
	Type             string          `json:"type"`
	Title            string          `json:"title"`
	StartDateTime    time.Time       `json:"start_datetime"`
	EndDateTime      *time.Time      `json:"end_datetime"`
	StartTimezone    string          `json:"start_timezone"`
	EndTimezone      string          `json:"end_timezone"`
	Status           string          `json:"status"`
	Details          json.RawMessage `json:"details"`
	LinkedLocationID *uuid.UUID      `json:"linked_location_id"`
	BookingRef       string          `json:"booking_ref"`
	URL              string          `json:"url"`
	Notes            string          `json:"notes"`
}

// itineraryItemResponse renders an item together with its derived display
// fields: the resolved flag, the duration when an end time exists, and the
// UTC offset labels for each recorded timezone.
type itineraryItemResponse struct {
	domain.ItineraryItem
	Resolved        bool   `json:"resolved"`
	DurationMinutes *int64 `json:"duration_minutes,omitempty"`
	StartUTCOffset  string `json:"start_utc_offset,omitempty"`
	EndUTCOffset    string `json:"end_utc_offset,omitempty"`
}

func itemToResponse(item domain.ItineraryItem) itineraryItemResponse {
	resp := itineraryItemResponse{
		ItineraryItem: item,
		Resolved:      item.Status.Resolved(),
	}
	if d, ok := service.Duration(item); ok {
		minutes := int64(d / time.Minute)
		resp.DurationMinutes = &minutes
	}
	if item.StartTimezone != "" {
		resp.StartUTCOffset = service.UTCOffsetLabel(item.StartTimezone)
	}
	if item.EndTimezone != "" {
		resp.EndUTCOffset = service.UTCOffsetLabel(item.EndTimezone)
	}
	return resp
}

// toItem converts the request body into a domain.ItineraryItem, decoding the
// details payload against the declared type.
func (req itineraryItemRequest) toItem() (domain.ItineraryItem, error) {
	itemType := domain.ItemType(req.Type)
	details, err := domain.DecodeDetails(itemType, req.Details)
	if err != nil {
		return domain.ItineraryItem{}, err
	}
	return domain.ItineraryItem{
		Type:             itemType,
		Title:            req.Title,
		StartDateTime:    req.StartDateTime,
		EndDateTime:      req.EndDateTime,
		StartTimezone:    req.StartTimezone,
		EndTimezone:      req.EndTimezone,
		Status:           domain.ItemStatus(req.Status),
		Details:          details,
		LinkedLocationID: req.LinkedLocationID,
		BookingRef:       req.BookingRef,
		URL:              req.URL,
		Notes:            req.Notes,
	}, nil
}

// CreateItineraryItem handles POST /trips/{tripID}/itinerary.
func (s *Server) CreateItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionEditItinerary) {
		return
	}

	var req itineraryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	item, err := req.toItem()
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	item.TripID = tripID

	created, err := s.itinerary.Create(r.Context(), item)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, itemToResponse(created))
}

// ListItineraryItems handles GET /trips/{tripID}/itinerary.
// Items are returned in chronological order, paginated.
func (s *Server) ListItineraryItems(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionViewTrip) {
		return
	}

	params := paginationFromQuery(r)
	items, total, err := s.itinerary.ListPaged(r.Context(), tripID, params)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	data := make([]itineraryItemResponse, len(items))
	for i, item := range items {
		data[i] = itemToResponse(item)
	}
	respondJSON(w, http.StatusOK, struct {
		Data       []itineraryItemResponse `json:"data"`
		Pagination pagination              `json:"pagination"`
	}{
		Data:       data,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetItineraryItem handles GET /trips/{tripID}/itinerary/{itemID}.
func (s *Server) GetItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, itemID, ok := s.itineraryIDs(w, r, domain.ActionViewTrip)
	if !ok {
		return
	}

	item, err := s.itinerary.GetByID(r.Context(), tripID, itemID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, itemToResponse(item))
}

// UpdateItineraryItem handles PUT /trips/{tripID}/itinerary/{itemID}.
func (s *Server) UpdateItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, itemID, ok := s.itineraryIDs(w, r, domain.ActionEditItinerary)
	if !ok {
		return
	}

	var req itineraryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	item, err := req.toItem()
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	item.ID = itemID
	item.TripID = tripID

	updated, err := s.itinerary.Update(r.Context(), item)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, itemToResponse(updated))
}

// TransitionItineraryStatus handles POST /trips/{tripID}/itinerary/{itemID}/status.
// Any status may follow any other; the body carries the new status only.
func (s *Server) TransitionItineraryStatus(w http.ResponseWriter, r *http.Request) {
	tripID, itemID, ok := s.itineraryIDs(w, r, domain.ActionEditItinerary)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	item, err := s.itinerary.TransitionStatus(r.Context(), tripID, itemID, domain.ItemStatus(req.Status))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, itemToResponse(item))
}

// DeleteItineraryItem handles DELETE /trips/{tripID}/itinerary/{itemID}.
func (s *Server) DeleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, itemID, ok := s.itineraryIDs(w, r, domain.ActionEditItinerary)
	if !ok {
		return
	}

	if err := s.itinerary.Delete(r.Context(), tripID, itemID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// itineraryIDs parses both path IDs and runs the permission check, writing
// the error response itself when anything fails.
func (s *Server) itineraryIDs(w http.ResponseWriter, r *http.Request, action domain.Action) (tripID, itemID uuid.UUID, ok bool) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err = parseUUIDParam(r, "itemID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid item id")
		return uuid.Nil, uuid.Nil, false
	}
	if !s.authorize(w, r, tripID, action) {
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, itemID, true
}
