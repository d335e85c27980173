package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/middleware"
)

// memberRequest is the request body for adding a member or changing a role.
type memberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// ListMembers handles GET /trips/{tripID}/members.
// Any member may view the roster.
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionViewTrip) {
		return
	}

	members, err := s.authority.ListMembers(r.Context(), tripID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Data []domain.TripMember `json:"data"`
	}{Data: members})
}

// AddMember handles POST /trips/{tripID}/members.
// Only an OWNER may add members; adding an existing member is a conflict.
func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	actorID, ok := middleware.ActorID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor identity")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.UserID == uuid.Nil {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", "user_id is required")
		return
	}

	member, err := s.authority.AddMember(r.Context(), tripID, actorID, req.UserID, domain.Role(req.Role))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, member)
}

// UpdateMemberRole handles PUT /trips/{tripID}/members/{userID}.
// Demoting the sole OWNER is a conflict; the permission check still runs
// first, so a non-OWNER attempting it sees 403, not 409.
func (s *Server) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	targetID, err := parseUUIDParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return
	}
	actorID, ok := middleware.ActorID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor identity")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	member, err := s.authority.UpdateMemberRole(r.Context(), tripID, actorID, targetID, domain.Role(req.Role))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// RemoveMember handles DELETE /trips/{tripID}/members/{userID}.
// Removing the sole OWNER is a conflict.
func (s *Server) RemoveMember(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	targetID, err := parseUUIDParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return
	}
	actorID, ok := middleware.ActorID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor identity")
		return
	}

	if err := s.authority.RemoveMember(r.Context(), tripID, actorID, targetID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
