package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatchsvc/internal/domain"
)

func TestNewLocation_ValidatesRange(t *testing.T) {
	t.Parallel()

	_, err := domain.NewLocation(91, 0)
	require.ErrorIs(t, err, domain.ErrInvalid)

	_, err = domain.NewLocation(0, 181)
	require.ErrorIs(t, err, domain.ErrInvalid)

	loc, err := domain.NewLocation(55.75, 37.62)
	require.NoError(t, err)
	require.Equal(t, 55.75, loc.Lat)
	require.Equal(t, 37.62, loc.Lng)
}

func TestDistanceKM_SamePointIsZero(t *testing.T) {
	t.Parallel()

	a := domain.Location{Lat: 55.75, Lng: 37.62}
	require.InDelta(t, 0, domain.DistanceKM(a, a), 1e-9)
}

func TestDistanceKM_KnownPair(t *testing.T) {
	t.Parallel()

	// Moscow to Saint Petersburg, roughly 635km great-circle.
	moscow := domain.Location{Lat: 55.7558, Lng: 37.6173}
	spb := domain.Location{Lat: 59.9311, Lng: 30.3609}

	got := domain.DistanceKM(moscow, spb)
	require.True(t, math.Abs(got-635) < 15, "got %f, want ~635km", got)
}
