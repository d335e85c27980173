package service_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
	"github.com/tripweaver/backend/internal/service"
)

// ---- mock repos ------------------------------------------------------------

// mockExpenseRepo is a hand-written test double for repo.ExpenseRepo.
type mockExpenseRepo struct {
	create     func(ctx context.Context, e domain.Expense) (domain.Expense, error)
	getByID    func(ctx context.Context, tripID, expenseID uuid.UUID) (domain.Expense, error)
	listByTrip func(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error)
	listPaged  func(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Expense, int64, error)
	update     func(ctx context.Context, e domain.Expense) (domain.Expense, error)
	delete     func(ctx context.Context, tripID, expenseID uuid.UUID) error
}

func (m *mockExpenseRepo) Create(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	return m.create(ctx, e)
}
func (m *mockExpenseRepo) GetByID(ctx context.Context, tripID, expenseID uuid.UUID) (domain.Expense, error) {
	return m.getByID(ctx, tripID, expenseID)
}
func (m *mockExpenseRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockExpenseRepo) ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Expense, int64, error) {
	if m.listPaged != nil {
		return m.listPaged(ctx, tripID, p)
	}
	return nil, 0, nil
}
func (m *mockExpenseRepo) Update(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	return m.update(ctx, e)
}
func (m *mockExpenseRepo) Delete(ctx context.Context, tripID, expenseID uuid.UUID) error {
	return m.delete(ctx, tripID, expenseID)
}

var _ repo.ExpenseRepo = (*mockExpenseRepo)(nil)

// mockRateRepo is a hand-written test double for repo.RateRepo.
type mockRateRepo struct {
	find   func(ctx context.Context, tripID *uuid.UUID, from, to string, date time.Time) (domain.ExchangeRate, error)
	record func(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error)
}

func (m *mockRateRepo) Find(ctx context.Context, tripID *uuid.UUID, from, to string, date time.Time) (domain.ExchangeRate, error) {
	if m.find != nil {
		return m.find(ctx, tripID, from, to, date)
	}
	return domain.ExchangeRate{}, domain.ErrNotFound
}
func (m *mockRateRepo) Record(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error) {
	if m.record != nil {
		return m.record(ctx, rate)
	}
	return rate, nil
}

var _ repo.RateRepo = (*mockRateRepo)(nil)

// mockRateClient is a hand-written test double for service.RateClient.
type mockRateClient struct {
	fetch func(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error)
}

func (m *mockRateClient) Fetch(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error) {
	return m.fetch(ctx, base, quote, date)
}

var _ service.RateClient = (*mockRateClient)(nil)

// ---- helpers ---------------------------------------------------------------

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func cnyTrip() domain.Trip {
	return domain.Trip{
		ID:                  uuid.New(),
		Title:               "Shanghai",
		DestinationCurrency: "CNY",
		OriginCurrency:      "EUR",
		DisplayCurrency:     domain.DisplayBoth,
	}
}

func cnyExpense(amountMinor int64) domain.Expense {
	return domain.Expense{
		ID:              uuid.New(),
		Title:           "Lunch",
		Category:        domain.ExpenseFood,
		ExpenseDateTime: time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC),
		AmountMinor:     amountMinor,
		Currency:        "CNY",
		PaidByUserID:    uuid.New(),
		PaymentMethod:   domain.PaymentMobile,
	}
}

// ---- TotalsByCurrency ------------------------------------------------------

func TestTotalsByCurrency_SumsMinorUnits(t *testing.T) {
	a := cnyExpense(1000)
	b := cnyExpense(2550)

	totals := service.TotalsByCurrency([]domain.Expense{a, b})

	assert.Equal(t, map[string]int64{"CNY": 3550}, totals)
}

func TestTotalsByCurrency_NoImplicitConversion(t *testing.T) {
	cny := cnyExpense(1000)
	eur := cnyExpense(2000)
	eur.Currency = "EUR"

	totals := service.TotalsByCurrency([]domain.Expense{cny, eur})

	assert.Equal(t, map[string]int64{"CNY": 1000, "EUR": 2000}, totals)
}

func TestTotalsByCurrency_OrderIndependent(t *testing.T) {
	expenses := []domain.Expense{
		cnyExpense(199), cnyExpense(2550), cnyExpense(1), cnyExpense(88800),
	}
	want := service.TotalsByCurrency(expenses)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(expenses), func(a, b int) {
			expenses[a], expenses[b] = expenses[b], expenses[a]
		})
		assert.Equal(t, want, service.TotalsByCurrency(expenses))
	}
}

func TestTotalsByCurrency_Empty(t *testing.T) {
	assert.Empty(t, service.TotalsByCurrency(nil))
}

// ---- ResolveRate precedence ------------------------------------------------

func TestExpenseService_ResolveRate_PinnedRateWins(t *testing.T) {
	clientCalled := false
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, &mockRateClient{
		fetch: func(_ context.Context, _, _ string, _ time.Time) (decimal.Decimal, error) {
			clientCalled = true
			return dec("9.99"), nil
		},
	}, nil)

	trip := cnyTrip()
	tripDefault := dec("0.13")
	trip.DefaultExchangeRate = &tripDefault

	e := cnyExpense(1000)
	pinned := dec("0.125")
	e.ExchangeRateUsed = &pinned

	rate, err := svc.ResolveRate(context.Background(), trip, e)

	require.NoError(t, err)
	assert.True(t, rate.Equal(pinned))
	assert.False(t, clientCalled, "pinned rate must short-circuit the lookup")
}

func TestExpenseService_ResolveRate_TripDefaultForDestinationCurrency(t *testing.T) {
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	trip := cnyTrip()
	tripDefault := dec("0.13")
	trip.DefaultExchangeRate = &tripDefault

	rate, err := svc.ResolveRate(context.Background(), trip, cnyExpense(1000))

	require.NoError(t, err)
	assert.True(t, rate.Equal(tripDefault))
}

func TestExpenseService_ResolveRate_TripDefaultSkippedForOtherCurrency(t *testing.T) {
	// An expense in a third currency must not use the trip's
	// destination→origin default.
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	trip := cnyTrip()
	tripDefault := dec("0.13")
	trip.DefaultExchangeRate = &tripDefault

	e := cnyExpense(1000)
	e.Currency = "USD"

	_, err := svc.ResolveRate(context.Background(), trip, e)

	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestExpenseService_ResolveRate_CachedFact(t *testing.T) {
	trip := cnyTrip()
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{
		find: func(_ context.Context, tripID *uuid.UUID, from, to string, _ time.Time) (domain.ExchangeRate, error) {
			require.NotNil(t, tripID)
			assert.Equal(t, trip.ID, *tripID)
			assert.Equal(t, "CNY", from)
			assert.Equal(t, "EUR", to)
			return domain.ExchangeRate{Rate: dec("0.127")}, nil
		},
	}, nil, nil)

	rate, err := svc.ResolveRate(context.Background(), trip, cnyExpense(1000))

	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.127")))
}

func TestExpenseService_ResolveRate_FetchesAndRecords(t *testing.T) {
	recorded := false
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{
		record: func(_ context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error) {
			recorded = true
			assert.True(t, rate.Rate.Equal(dec("0.126")))
			return rate, nil
		},
	}, &mockRateClient{
		fetch: func(_ context.Context, base, quote string, _ time.Time) (decimal.Decimal, error) {
			assert.Equal(t, "CNY", base)
			assert.Equal(t, "EUR", quote)
			return dec("0.126"), nil
		},
	}, nil)

	rate, err := svc.ResolveRate(context.Background(), cnyTrip(), cnyExpense(1000))

	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.126")))
	assert.True(t, recorded, "fetched rate must be recorded as a fact")
}

func TestExpenseService_ResolveRate_NoClientUnavailable(t *testing.T) {
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	_, err := svc.ResolveRate(context.Background(), cnyTrip(), cnyExpense(1000))

	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestExpenseService_ResolveRate_LookupFailureDegrades(t *testing.T) {
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, &mockRateClient{
		fetch: func(_ context.Context, _, _ string, _ time.Time) (decimal.Decimal, error) {
			return decimal.Decimal{}, domain.ErrExternal
		},
	}, nil)

	_, err := svc.ResolveRate(context.Background(), cnyTrip(), cnyExpense(1000))

	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
	assert.NotErrorIs(t, err, domain.ErrExternal, "external failures must not leak")
}

// ---- ProjectToOrigin -------------------------------------------------------

func TestExpenseService_ProjectToOrigin_ConvertsAndSums(t *testing.T) {
	trip := cnyTrip()
	tripDefault := dec("0.125")
	trip.DefaultExchangeRate = &tripDefault

	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	origin := cnyExpense(500)
	origin.Currency = "EUR"

	proj, err := svc.ProjectToOrigin(context.Background(), trip, []domain.Expense{
		cnyExpense(1000), // 10.00 CNY * 0.125 = 1.25 EUR
		origin,           // already EUR, face value
	})

	require.NoError(t, err)
	assert.Equal(t, "EUR", proj.Currency)
	assert.Equal(t, int64(125+500), proj.TotalMinor)
	assert.Zero(t, proj.Excluded)
}

func TestExpenseService_ProjectToOrigin_ZeroDecimalCurrency(t *testing.T) {
	// JPY has no minor units: 1000 JPY is ¥1000, not ¥10.00.
	trip := domain.Trip{
		ID:                  uuid.New(),
		DestinationCurrency: "JPY",
		OriginCurrency:      "EUR",
	}
	tripDefault := dec("0.0061")
	trip.DefaultExchangeRate = &tripDefault

	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	e := cnyExpense(1000)
	e.Currency = "JPY"

	proj, err := svc.ProjectToOrigin(context.Background(), trip, []domain.Expense{e})

	require.NoError(t, err)
	// 1000 JPY * 0.0061 = 6.10 EUR = 610 cents.
	assert.Equal(t, int64(610), proj.TotalMinor)
}

func TestExpenseService_ProjectToOrigin_RoundsHalfUp(t *testing.T) {
	trip := cnyTrip()

	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	e := cnyExpense(333)
	pinned := dec("0.5")
	e.ExchangeRateUsed = &pinned

	proj, err := svc.ProjectToOrigin(context.Background(), trip, []domain.Expense{e})

	require.NoError(t, err)
	// 3.33 CNY * 0.5 = 1.665 EUR → 167 cents.
	assert.Equal(t, int64(167), proj.TotalMinor)
}

func TestExpenseService_ProjectToOrigin_UnresolvableExcluded(t *testing.T) {
	trip := cnyTrip()
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	resolvable := cnyExpense(800)
	pinned := dec("0.125")
	resolvable.ExchangeRateUsed = &pinned

	proj, err := svc.ProjectToOrigin(context.Background(), trip, []domain.Expense{
		resolvable,
		cnyExpense(99999), // no rate source at all
	})

	require.NoError(t, err)
	assert.Equal(t, int64(100), proj.TotalMinor)
	assert.Equal(t, 1, proj.Excluded, "unresolvable expenses are excluded, not fatal")
}

// ---- Totals ----------------------------------------------------------------

func TestExpenseService_Totals(t *testing.T) {
	tripID := uuid.New()
	svc := service.NewExpenseService(&mockExpenseRepo{
		listByTrip: func(_ context.Context, id uuid.UUID) ([]domain.Expense, error) {
			assert.Equal(t, tripID, id)
			return []domain.Expense{cnyExpense(1000), cnyExpense(2550)}, nil
		},
	}, &mockRateRepo{}, nil, nil)

	totals, err := svc.Totals(context.Background(), tripID)

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"CNY": 3550}, totals)
}

// ---- validation ------------------------------------------------------------

func TestExpenseService_Create_Validation(t *testing.T) {
	svc := service.NewExpenseService(&mockExpenseRepo{}, &mockRateRepo{}, nil, nil)

	cases := map[string]func(*domain.Expense){
		"empty title":        func(e *domain.Expense) { e.Title = " " },
		"zero amount":        func(e *domain.Expense) { e.AmountMinor = 0 },
		"negative amount":    func(e *domain.Expense) { e.AmountMinor = -100 },
		"bad currency":       func(e *domain.Expense) { e.Currency = "cny" },
		"unknown category":   func(e *domain.Expense) { e.Category = "souvenirs" },
		"zero datetime":      func(e *domain.Expense) { e.ExpenseDateTime = time.Time{} },
		"missing payer":      func(e *domain.Expense) { e.PaidByUserID = uuid.Nil },
		"bad payment method": func(e *domain.Expense) { e.PaymentMethod = "iou" },
		"zero pinned rate": func(e *domain.Expense) {
			zero := decimal.Zero
			e.ExchangeRateUsed = &zero
		},
	}

	for name, mutate := range cases {
		e := cnyExpense(1000)
		mutate(&e)
		_, err := svc.Create(context.Background(), e)
		assert.ErrorIs(t, err, domain.ErrValidation, name)
	}
}

func TestExpenseService_Create_OK(t *testing.T) {
	svc := service.NewExpenseService(&mockExpenseRepo{
		create: func(_ context.Context, e domain.Expense) (domain.Expense, error) {
			return e, nil
		},
	}, &mockRateRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), cnyExpense(1000))

	assert.NoError(t, err)
}

func TestExpenseService_Create_PropagatesRepoError(t *testing.T) {
	repoErr := errors.New("connection reset")
	svc := service.NewExpenseService(&mockExpenseRepo{
		create: func(_ context.Context, _ domain.Expense) (domain.Expense, error) {
			return domain.Expense{}, repoErr
		},
	}, &mockRateRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), cnyExpense(1000))

	assert.ErrorIs(t, err, repoErr)
}
