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

// locationFixture returns a domain.Location under the given trip.
func locationFixture(tripID uuid.UUID) domain.Location {
	lat, lon := 35.6948, 139.7014
	return domain.Location{
		TripID:        tripID,
		Name:          "Hotel Gracery",
		Category:      domain.LocationAccommodation,
		Address:       "1-19-1 Kabukicho",
		Latitude:      &lat,
		Longitude:     &lon,
		NormalizedKey: "hotel gracery|35.6948,139.7014",
	}
}

func TestLocationRepo_Create(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	input := locationFixture(trip.ID)
	got, err := locations.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, input.Name, got.Name)
	assert.Equal(t, input.NormalizedKey, got.NormalizedKey)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, 35.6948, *got.Latitude, 1e-9)
}

func TestLocationRepo_Create_DuplicateKeyConflict(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	_, err := locations.Create(ctx, locationFixture(trip.ID))
	require.NoError(t, err)

	// Same normalized key under the same trip hits the unique index.
	dup := locationFixture(trip.ID)
	dup.Name = "HOTEL GRACERY" // display name differs, key does not
	_, err = locations.Create(ctx, dup)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLocationRepo_Create_SameKeyDifferentTrips(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trips := repo.NewTripRepo(tx)
	ctx := context.Background()

	tripA := createTrip(t, trips)
	tripB := createTrip(t, trips)

	_, err := locations.Create(ctx, locationFixture(tripA.ID))
	require.NoError(t, err)

	// The dedup key is scoped per trip, not global.
	_, err = locations.Create(ctx, locationFixture(tripB.ID))
	assert.NoError(t, err)
}

func TestLocationRepo_GetByKey(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	created, err := locations.Create(ctx, locationFixture(trip.ID))
	require.NoError(t, err)

	got, err := locations.GetByKey(ctx, trip.ID, created.NormalizedKey)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestLocationRepo_GetByKey_NotFound(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))

	_, err := locations.GetByKey(context.Background(), trip.ID, "no such key")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocationRepo_ListByTrip_OrderedByName(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	second := locationFixture(trip.ID)
	second.Name = "Zauo Shinjuku"
	second.NormalizedKey = "zauo shinjuku"
	_, err := locations.Create(ctx, second)
	require.NoError(t, err)

	first := locationFixture(trip.ID)
	_, err = locations.Create(ctx, first)
	require.NoError(t, err)

	got, err := locations.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Hotel Gracery", got[0].Name)
	assert.Equal(t, "Zauo Shinjuku", got[1].Name)
}

func TestLocationRepo_Update(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	created, err := locations.Create(ctx, locationFixture(trip.ID))
	require.NoError(t, err)

	created.Notes = "check-in after 15:00"
	created.Latitude = nil
	created.Longitude = nil

	updated, err := locations.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, "check-in after 15:00", updated.Notes)
	assert.Nil(t, updated.Latitude)
	assert.Nil(t, updated.Longitude)
}

func TestLocationRepo_Delete(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trip := createTrip(t, repo.NewTripRepo(tx))
	ctx := context.Background()

	created, err := locations.Create(ctx, locationFixture(trip.ID))
	require.NoError(t, err)

	err = locations.Delete(ctx, trip.ID, created.ID)
	require.NoError(t, err)

	_, err = locations.GetByID(ctx, trip.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocationRepo_Delete_WrongTrip(t *testing.T) {
	tx := newTestTx(t)
	locations := repo.NewLocationRepo(tx)
	trips := repo.NewTripRepo(tx)
	ctx := context.Background()

	trip := createTrip(t, trips)
	other := createTrip(t, trips)

	created, err := locations.Create(ctx, locationFixture(trip.ID))
	require.NoError(t, err)

	// Deletes are scoped to the trip in the path, so another trip's ID
	// cannot reach this row.
	err = locations.Delete(ctx, other.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
