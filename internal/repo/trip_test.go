package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	rate := decimal.RequireFromString("0.0062")
	return domain.Trip{
		Title:               "Japan 2026",
		StartDate:           time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		DestinationCurrency: "JPY",
		OriginCurrency:      "EUR",
		DisplayCurrency:     domain.DisplayBoth,
		DefaultExchangeRate: &rate,
		CreatedBy:           uuid.New(),
	}
}

func TestTripRepo_CreateWithOwner(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)
	members := repo.NewMemberStore(tx)
	ctx := context.Background()

	input := tripFixture()
	got, err := r.CreateWithOwner(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, input.Title, got.Title)
	assert.True(t, got.StartDate.Equal(input.StartDate), "StartDate mismatch")
	assert.True(t, got.EndDate.Equal(input.EndDate), "EndDate mismatch")
	assert.Equal(t, "JPY", got.DestinationCurrency)
	require.NotNil(t, got.DefaultExchangeRate)
	assert.True(t, got.DefaultExchangeRate.Equal(*input.DefaultExchangeRate),
		"rate must survive the round trip exactly")
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")

	// The creator must come back as the trip's OWNER in the same transaction.
	member, err := members.Get(ctx, got.ID, input.CreatedBy)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, member.Role)
}

func TestTripRepo_CreateWithOwner_NilRate(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)
	ctx := context.Background()

	input := tripFixture()
	input.DefaultExchangeRate = nil

	got, err := r.CreateWithOwner(ctx, input)

	require.NoError(t, err)
	assert.Nil(t, got.DefaultExchangeRate, "rate should be nil when not provided")
}

func TestTripRepo_GetByID(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)
	ctx := context.Background()

	created, err := r.CreateWithOwner(ctx, tripFixture())
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.CreatedBy, got.CreatedBy)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)

	_, err := r.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_ListByMember(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)
	ctx := context.Background()

	owner := uuid.New()

	t1 := tripFixture()
	t1.Title = "First Trip"
	t1.CreatedBy = owner

	t2 := tripFixture()
	t2.Title = "Second Trip"
	t2.CreatedBy = owner
	t2.StartDate = t1.StartDate.AddDate(0, 1, 0) // one month later
	t2.EndDate = t1.EndDate.AddDate(0, 1, 0)

	_, err := r.CreateWithOwner(ctx, t1)
	require.NoError(t, err)
	_, err = r.CreateWithOwner(ctx, t2)
	require.NoError(t, err)

	// A trip created by someone else must not appear in owner's list.
	t3 := tripFixture()
	t3.Title = "Stranger Trip"
	_, err = r.CreateWithOwner(ctx, t3)
	require.NoError(t, err)

	trips, total, err := r.ListByMember(ctx, owner, domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, trips, 2)
	// Ordered by start_date DESC — t2 (later start) comes first.
	assert.Equal(t, "Second Trip", trips[0].Title)
	assert.Equal(t, "First Trip", trips[1].Title)
}

func TestTripRepo_Update(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)
	ctx := context.Background()

	created, err := r.CreateWithOwner(ctx, tripFixture())
	require.NoError(t, err)

	created.Title = "Updated Title"
	created.DefaultExchangeRate = nil // clear the pinned default

	updated, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Updated Title", updated.Title)
	assert.Nil(t, updated.DefaultExchangeRate)
	// updated_at should be refreshed — may be equal to created_at in fast tests,
	// but must not be zero.
	assert.False(t, updated.UpdatedAt.IsZero())
}

func TestTripRepo_Update_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)

	ghost := tripFixture()
	ghost.ID = uuid.New()

	_, err := r.Update(context.Background(), ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete_CascadesToMembers(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)
	members := repo.NewMemberStore(tx)
	ctx := context.Background()

	created, err := r.CreateWithOwner(ctx, tripFixture())
	require.NoError(t, err)

	err = r.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "trip should be gone after delete")

	_, err = members.Get(ctx, created.ID, created.CreatedBy)
	assert.ErrorIs(t, err, domain.ErrNotFound, "membership must cascade with the trip")
}

func TestTripRepo_Delete_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)

	err := r.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
