package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/backend/internal/domain"
)

func TestDecodeDetails_SelectsVariantByType(t *testing.T) {
	raw := []byte(`{"flight_no":"MU220","departure_airport":"MUC","arrival_airport":"PVG"}`)

	details, err := domain.DecodeDetails(domain.ItemFlight, raw)

	require.NoError(t, err)
	flight, ok := details.(domain.FlightDetails)
	require.True(t, ok)
	assert.Equal(t, "MU220", flight.FlightNo)
	assert.Equal(t, domain.ItemFlight, flight.ItemType())
}

func TestDecodeDetails_RejectsForeignFields(t *testing.T) {
	// hotel_name belongs to accommodation; it must not silently vanish
	// inside a flight payload.
	raw := []byte(`{"flight_no":"MU220","hotel_name":"Gracery"}`)

	_, err := domain.DecodeDetails(domain.ItemFlight, raw)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeDetails_EmptyAndNullAreNil(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, []byte("null")} {
		details, err := domain.DecodeDetails(domain.ItemFood, raw)
		require.NoError(t, err)
		assert.Nil(t, details)
	}
}

func TestDecodeDetails_UnknownType(t *testing.T) {
	_, err := domain.DecodeDetails("cruise", []byte(`{}`))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeDetails_EmptyObjectDecodesButFailsValidate(t *testing.T) {
	// {} is structurally fine for any type; required-field checks live in
	// Validate, not in decoding.
	details, err := domain.DecodeDetails(domain.ItemFlight, []byte(`{}`))

	require.NoError(t, err)
	assert.ErrorIs(t, details.Validate(), domain.ErrValidation)
}

func TestRequiresDetails(t *testing.T) {
	assert.True(t, domain.RequiresDetails(domain.ItemFlight))
	assert.True(t, domain.RequiresDetails(domain.ItemTransport))
	assert.True(t, domain.RequiresDetails(domain.ItemAccommodation))
	assert.False(t, domain.RequiresDetails(domain.ItemPlaceVisit))
	assert.False(t, domain.RequiresDetails(domain.ItemFood))
}

func TestPlaceRef_HasPlaceData(t *testing.T) {
	lat, lon := 35.69, 139.70

	assert.False(t, domain.PlaceRef{Name: "Narita"}.HasPlaceData())
	assert.True(t, domain.PlaceRef{Address: "1 Chome-1 Furugome"}.HasPlaceData())
	assert.True(t, domain.PlaceRef{Latitude: &lat, Longitude: &lon}.HasPlaceData())
	assert.False(t, domain.PlaceRef{Latitude: &lat}.HasPlaceData(), "one coordinate is not place data")
}
