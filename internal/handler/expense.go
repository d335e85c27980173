package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/service"
)

// expenseRequest is the request body for creating or updating an expense.
// The amount is integer minor units of the destination currency; the pinned
// exchange rate is a decimal string so it never passes through a float.
type expenseRequest struct {
	Title               string     `json:"title"`
	Category            string     `json:"category"`
	ExpenseDateTime     time.Time  `json:"expense_datetime"`
	AmountMinor         int64      `json:"amount_destination_minor"`
	Currency            string     `json:"destination_currency"`
	ExchangeRateUsed    *string    `json:"exchange_rate_used"`
	LinkedItineraryItem *uuid.UUID `json:"linked_itinerary_item_id"`
	PaidByUserID        uuid.UUID  `json:"paid_by_user_id"`
	PaymentMethod       string     `json:"payment_method"`
}

// expenseResponse renders an expense with its display amount alongside the
// raw minor units.
type expenseResponse struct {
	domain.Expense
	AmountDisplay string `json:"amount_display"`
}

func expenseToResponse(e domain.Expense) expenseResponse {
	return expenseResponse{
		Expense:       e,
		AmountDisplay: domain.FormatMinor(e.Currency, e.AmountMinor),
	}
}

func (req expenseRequest) toExpense() (domain.Expense, error) {
	e := domain.Expense{
		Title:               req.Title,
		Category:            domain.ExpenseCategory(req.Category),
		ExpenseDateTime:     req.ExpenseDateTime,
		AmountMinor:         req.AmountMinor,
		Currency:            req.Currency,
		LinkedItineraryItem: req.LinkedItineraryItem,
		PaidByUserID:        req.PaidByUserID,
		PaymentMethod:       domain.PaymentMethod(req.PaymentMethod),
	}
	if e.Category == "" {
		e.Category = domain.ExpenseOther
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = domain.PaymentOther
	}
	if req.ExchangeRateUsed != nil {
		rate, err := decimal.NewFromString(*req.ExchangeRateUsed)
		if err != nil {
			return domain.Expense{}, errors.New("exchange_rate_used must be a decimal string")
		}
		e.ExchangeRateUsed = &rate
	}
	return e, nil
}

// CreateExpense handles POST /trips/{tripID}/expenses.
func (s *Server) CreateExpense(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionEditExpenses) {
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	expense, err := req.toExpense()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	expense.TripID = tripID

	created, err := s.expenses.Create(r.Context(), expense)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, expenseToResponse(created))
}

// ListExpenses handles GET /trips/{tripID}/expenses.
// Expenses are returned in chronological order, paginated.
func (s *Server) ListExpenses(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionViewTrip) {
		return
	}

	params := paginationFromQuery(r)
	expenses, total, err := s.expenses.ListPaged(r.Context(), tripID, params)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	data := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		data[i] = expenseToResponse(e)
	}
	respondJSON(w, http.StatusOK, struct {
		Data       []expenseResponse `json:"data"`
		Pagination pagination        `json:"pagination"`
	}{
		Data:       data,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetExpense handles GET /trips/{tripID}/expenses/{expenseID}.
func (s *Server) GetExpense(w http.ResponseWriter, r *http.Request) {
	tripID, expenseID, ok := s.expenseIDs(w, r, domain.ActionViewTrip)
	if !ok {
		return
	}

	expense, err := s.expenses.GetByID(r.Context(), tripID, expenseID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expenseToResponse(expense))
}

// UpdateExpense handles PUT /trips/{tripID}/expenses/{expenseID}.
func (s *Server) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	tripID, expenseID, ok := s.expenseIDs(w, r, domain.ActionEditExpenses)
	if !ok {
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	expense, err := req.toExpense()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	expense.ID = expenseID
	expense.TripID = tripID

	updated, err := s.expenses.Update(r.Context(), expense)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expenseToResponse(updated))
}

// DeleteExpense handles DELETE /trips/{tripID}/expenses/{expenseID}.
func (s *Server) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	tripID, expenseID, ok := s.expenseIDs(w, r, domain.ActionEditExpenses)
	if !ok {
		return
	}

	if err := s.expenses.Delete(r.Context(), tripID, expenseID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currencyTotal is one per-currency line of the expense summary.
type currencyTotal struct {
	Currency   string `json:"currency"`
	TotalMinor int64  `json:"total_minor"`
	Display    string `json:"display"`
}

// expenseSummaryResponse is the body of the summary endpoint. Origin is set
// only when the projection was requested.
type expenseSummaryResponse struct {
	Totals []currencyTotal           `json:"totals"`
	Origin *service.OriginProjection `json:"origin_projection,omitempty"`
}

// ExpenseSummary handles GET /trips/{tripID}/expenses/summary.
//
// Totals are grouped per currency with no implicit conversion; a
// mixed-currency trip yields one line per currency. With ?project=origin the
// response also carries the origin-currency projection, with expenses whose
// rate could not be resolved counted as excluded rather than failing the
// request.
func (s *Server) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return
	}
	if !s.authorize(w, r, tripID, domain.ActionViewTrip) {
		return
	}

	totals, err := s.expenses.Totals(r.Context(), tripID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := expenseSummaryResponse{Totals: make([]currencyTotal, 0, len(totals))}
	for currency, minor := range totals {
		resp.Totals = append(resp.Totals, currencyTotal{
			Currency:   currency,
			TotalMinor: minor,
			Display:    domain.FormatMinor(currency, minor),
		})
	}
	// Map iteration order is random; sort for a stable response.
	sort.Slice(resp.Totals, func(i, j int) bool {
		return resp.Totals[i].Currency < resp.Totals[j].Currency
	})

	if r.URL.Query().Get("project") == "origin" {
		trip, err := s.trips.GetByID(r.Context(), tripID)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		expenses, err := s.expenses.ListByTrip(r.Context(), tripID)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		proj, err := s.expenses.ProjectToOrigin(r.Context(), trip, expenses)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		resp.Origin = &proj
	}

	respondJSON(w, http.StatusOK, resp)
}

// expenseIDs parses both path IDs and runs the permission check, writing the
// error response itself when anything fails.
func (s *Server) expenseIDs(w http.ResponseWriter, r *http.Request, action domain.Action) (tripID, expenseID uuid.UUID, ok bool) {
	tripID, err := parseUUIDParam(r, "tripID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid trip id")
		return uuid.Nil, uuid.Nil, false
	}
	expenseID, err = parseUUIDParam(r, "expenseID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid expense id")
		return uuid.Nil, uuid.Nil, false
	}
	if !s.authorize(w, r, tripID, action) {
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, expenseID, true
}
