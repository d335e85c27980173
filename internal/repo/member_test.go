package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// createTrip inserts a trip fixture and returns it, so membership tests have
// a valid trip_id to hang rows on.
func createTrip(t *testing.T, trips repo.TripRepo) domain.Trip {
	t.Helper()
	created, err := trips.CreateWithOwner(context.Background(), tripFixture())
	require.NoError(t, err)
	return created
}

func TestMemberRepo_Create(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	got, err := members.Create(ctx, domain.TripMember{
		TripID: trip.ID,
		UserID: uuid.New(),
		Role:   domain.RoleEditor,
	})

	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, domain.RoleEditor, got.Role)
	assert.False(t, got.JoinedAt.IsZero(), "JoinedAt should be set by DB")
}

func TestMemberRepo_Create_DuplicateConflict(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	// The creator already holds an OWNER membership from CreateWithOwner;
	// inserting the same (trip_id, user_id) again must hit the unique index.
	_, err := members.Create(ctx, domain.TripMember{
		TripID: trip.ID,
		UserID: trip.CreatedBy,
		Role:   domain.RoleViewer,
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMemberRepo_ListByTrip(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	_, err := members.Create(ctx, domain.TripMember{
		TripID: trip.ID, UserID: uuid.New(), Role: domain.RoleViewer,
	})
	require.NoError(t, err)

	got, err := members.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by joined_at — the creator's OWNER row comes first.
	assert.Equal(t, trip.CreatedBy, got[0].UserID)
	assert.Equal(t, domain.RoleOwner, got[0].Role)
}

func TestMemberRepo_UpdateRole(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	updated, err := members.UpdateRole(ctx, trip.ID, trip.CreatedBy, domain.RoleEditor)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, updated.Role)
}

func TestMemberRepo_UpdateRole_NotFound(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))

	_, err := members.UpdateRole(context.Background(), trip.ID, uuid.New(), domain.RoleEditor)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemberRepo_Delete(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	err := members.Delete(ctx, trip.ID, trip.CreatedBy)
	require.NoError(t, err)

	_, err = members.Get(ctx, trip.ID, trip.CreatedBy)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemberRepo_Delete_NotFound(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))

	err := members.Delete(context.Background(), trip.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemberStore_InTx_CommitsOnNil(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()
	newcomer := uuid.New()

	err := members.InTx(ctx, func(r repo.MemberRepo) error {
		_, err := r.Create(ctx, domain.TripMember{
			TripID: trip.ID, UserID: newcomer, Role: domain.RoleViewer,
		})
		return err
	})
	require.NoError(t, err)

	got, err := members.Get(ctx, trip.ID, newcomer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleViewer, got.Role)
}

func TestMemberStore_InTx_RollsBackOnError(t *testing.T) {
	tx := newTestTx(t)
	members := repo.NewMemberStore(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()
	newcomer := uuid.New()

	sentinel := domain.ErrConflict
	err := members.InTx(ctx, func(r repo.MemberRepo) error {
		if _, err := r.Create(ctx, domain.TripMember{
			TripID: trip.ID, UserID: newcomer, Role: domain.RoleViewer,
		}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// The create inside the failed transaction must not be visible.
	_, err = members.Get(ctx, trip.ID, newcomer)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
