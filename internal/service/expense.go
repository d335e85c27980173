package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// RateClient is the external exchange-rate lookup. Implementations must
// bound the call with a timeout; failures are reported as domain.ErrExternal
// and never propagate past rate resolution.
type RateClient interface {
	Fetch(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error)
}

// ExpenseService implements expense CRUD, per-currency aggregation, and
// exchange-rate resolution.
type ExpenseService struct {
	expenses repo.ExpenseRepo
	rates    repo.RateRepo
	client   RateClient
	log      *slog.Logger
}

// NewExpenseService constructs an ExpenseService. client may be nil when no
// external rate source is configured; resolution then stops at the cache.
// A nil logger falls back to slog.Default.
func NewExpenseService(expenses repo.ExpenseRepo, rates repo.RateRepo, client RateClient, log *slog.Logger) *ExpenseService {
	if log == nil {
		log = slog.Default()
	}
	return &ExpenseService{expenses: expenses, rates: rates, client: client, log: log}
}

// Create validates and persists a new expense.
func (s *ExpenseService) Create(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	if err := validateExpense(e); err != nil {
		return domain.Expense{}, err
	}
	result, err := s.expenses.Create(ctx, e)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single expense by ID, scoped to the given tripID.
func (s *ExpenseService) GetByID(ctx context.Context, tripID, expenseID uuid.UUID) (domain.Expense, error) {
	result, err := s.expenses.GetByID(ctx, tripID, expenseID)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of a trip's expenses in chronological order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExpenseService) ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Expense, int64, error) {
	expenses, total, err := s.expenses.ListPaged(ctx, tripID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ExpenseService.ListPaged: %w", err)
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return expenses, total, nil
}

// ListByTrip returns all of a trip's expenses in chronological order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExpenseService) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error) {
	expenses, err := s.expenses.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExpenseService.ListByTrip: %w", err)
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return expenses, nil
}

// Update validates and persists changes to an existing expense.
func (s *ExpenseService) Update(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	if err := validateExpense(e); err != nil {
		return domain.Expense{}, err
	}
	result, err := s.expenses.Update(ctx, e)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.Update: %w", err)
	}
	return result, nil
}

// Delete removes an expense by ID, scoped to the given tripID.
func (s *ExpenseService) Delete(ctx context.Context, tripID, expenseID uuid.UUID) error {
	if err := s.expenses.Delete(ctx, tripID, expenseID); err != nil {
		return fmt.Errorf("service.ExpenseService.Delete: %w", err)
	}
	return nil
}

// TotalsByCurrency groups expenses by their currency verbatim — no implicit
// conversion — and sums integer minor units. A mixed-currency trip yields
// one total per currency present, never a blended figure. Order-independent:
// shuffling the input never changes the result.
func TotalsByCurrency(expenses []domain.Expense) map[string]int64 {
	totals := make(map[string]int64, 2)
	for _, e := range expenses {
		totals[e.Currency] += e.AmountMinor
	}
	return totals
}

// Totals returns the per-currency totals for all of a trip's expenses.
func (s *ExpenseService) Totals(ctx context.Context, tripID uuid.UUID) (map[string]int64, error) {
	expenses, err := s.expenses.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExpenseService.Totals: %w", err)
	}
	return TotalsByCurrency(expenses), nil
}

// ResolveRate resolves the destination→origin exchange rate applicable to
// one expense, in precedence order:
//
//  1. the rate pinned on the expense itself,
//  2. the trip's default rate, when the expense is in the trip's
//     destination currency,
//  3. a previously recorded rate fact for the expense's date,
//  4. an external lookup (bounded timeout, retried once), recorded as a new
//     fact on success.
//
// When every source is exhausted the expense is Unavailable: the error wraps
// domain.ErrRateUnavailable and the caller excludes the expense from origin
// projections only — it stays in destination-currency totals.
func (s *ExpenseService) ResolveRate(ctx context.Context, trip domain.Trip, e domain.Expense) (decimal.Decimal, error) {
	if e.ExchangeRateUsed != nil {
		return *e.ExchangeRateUsed, nil
	}

	if e.Currency == trip.DestinationCurrency && trip.DefaultExchangeRate != nil {
		return *trip.DefaultExchangeRate, nil
	}

	date := e.ExpenseDateTime.UTC().Truncate(24 * time.Hour)

	fact, err := s.rates.Find(ctx, &trip.ID, e.Currency, trip.OriginCurrency, date)
	if err == nil {
		return fact.Rate, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Decimal{}, fmt.Errorf("service.ExpenseService.ResolveRate: %w", err)
	}

	if s.client == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate source for %s→%s", domain.ErrRateUnavailable, e.Currency, trip.OriginCurrency)
	}

	rate, err := s.client.Fetch(ctx, e.Currency, trip.OriginCurrency, date)
	if err != nil {
		// External failures are recoverable: degrade to Unavailable rather
		// than failing the aggregation.
		s.log.WarnContext(ctx, "rate lookup failed",
			"trip_id", trip.ID, "base", e.Currency, "quote", trip.OriginCurrency, "error", err)
		return decimal.Decimal{}, fmt.Errorf("%w: lookup failed for %s→%s", domain.ErrRateUnavailable, e.Currency, trip.OriginCurrency)
	}

	if _, err := s.rates.Record(ctx, domain.ExchangeRate{
		TripID:       &trip.ID,
		FromCurrency: e.Currency,
		ToCurrency:   trip.OriginCurrency,
		Date:         date,
		Rate:         rate,
	}); err != nil {
		// The fact cache is an optimization; a write failure is not.
		s.log.WarnContext(ctx, "rate fact not recorded", "trip_id", trip.ID, "error", err)
	}

	return rate, nil
}

// OriginProjection is the result of converting a trip's expenses into its
// origin currency using resolved rates.
type OriginProjection struct {
	Currency   string `json:"currency"`
	TotalMinor int64  `json:"total_minor"`
	// Excluded counts expenses whose rate resolved Unavailable; they remain
	// in destination-currency totals but not in this figure.
	Excluded int `json:"excluded"`
}

// ProjectToOrigin converts each expense to the trip's origin currency with
// ResolveRate and sums the results in integer minor units. Expenses already
// in the origin currency pass through at face value.
func (s *ExpenseService) ProjectToOrigin(ctx context.Context, trip domain.Trip, expenses []domain.Expense) (OriginProjection, error) {
	proj := OriginProjection{Currency: trip.OriginCurrency}
	for _, e := range expenses {
		if e.Currency == trip.OriginCurrency {
			proj.TotalMinor += e.AmountMinor
			continue
		}
		rate, err := s.ResolveRate(ctx, trip, e)
		if err != nil {
			if errors.Is(err, domain.ErrRateUnavailable) {
				proj.Excluded++
				continue
			}
			return OriginProjection{}, fmt.Errorf("service.ExpenseService.ProjectToOrigin: %w", err)
		}
		proj.TotalMinor += convertMinor(e.AmountMinor, e.Currency, trip.OriginCurrency, rate)
	}
	return proj, nil
}

// convertMinor converts an integer minor-unit amount between currencies at
// the given rate, honouring each currency's minor-unit scale (2 for most,
// 0 for JPY-like) and rounding half-up. All arithmetic is decimal — floats
// never touch money.
func convertMinor(minor int64, from, to string, rate decimal.Decimal) int64 {
	fromScale := int32(domain.MinorUnitFraction(from))
	toScale := int32(domain.MinorUnitFraction(to))
	major := decimal.New(minor, -fromScale)
	return major.Mul(rate).Shift(toScale).Round(0).IntPart()
}

// validateExpense enforces business rules common to both Create and Update.
func validateExpense(e domain.Expense) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, e.Category)
	}
	if e.ExpenseDateTime.IsZero() {
		return fmt.Errorf("%w: expense_datetime is required", domain.ErrValidation)
	}
	if e.AmountMinor <= 0 {
		return fmt.Errorf("%w: amount_destination_minor must be positive", domain.ErrValidation)
	}
	if !domain.ValidCurrencyCode(e.Currency) {
		return fmt.Errorf("%w: destination_currency must be a 3-letter ISO-4217 code", domain.ErrValidation)
	}
	if e.ExchangeRateUsed != nil && !e.ExchangeRateUsed.IsPositive() {
		return fmt.Errorf("%w: exchange_rate_used must be positive", domain.ErrValidation)
	}
	if e.PaidByUserID == uuid.Nil {
		return fmt.Errorf("%w: paid_by_user_id is required", domain.ErrValidation)
	}
	if !e.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment_method %q", domain.ErrValidation, e.PaymentMethod)
	}
	return nil
}
