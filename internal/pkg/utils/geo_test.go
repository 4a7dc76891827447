package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	monas    = Point{Latitude: -6.175392, Longitude: 106.827153}
	bundaran = Point{Latitude: -6.194907, Longitude: 106.823078}
	london   = Point{Latitude: 51.5074, Longitude: -0.1278}
	paris    = Point{Latitude: 48.8566, Longitude: 2.3522}
)

func TestHaversineDistance_Symmetric(t *testing.T) {
	pairs := [][2]Point{
		{monas, bundaran},
		{london, paris},
		{{Latitude: 0, Longitude: 179.9}, {Latitude: 0, Longitude: -179.9}},
		{{Latitude: 89.9, Longitude: 0}, {Latitude: -89.9, Longitude: 180}},
	}
	for _, p := range pairs {
		ab, err := HaversineDistance(p[0].Latitude, p[0].Longitude, p[1].Latitude, p[1].Longitude)
		require.NoError(t, err)
		ba, err := HaversineDistance(p[1].Latitude, p[1].Longitude, p[0].Latitude, p[0].Longitude)
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-6)
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestHaversineDistance_SamePointIsZero(t *testing.T) {
	for _, p := range []Point{monas, london, {Latitude: 90, Longitude: 180}} {
		d, err := HaversineDistance(p.Latitude, p.Longitude, p.Latitude, p.Longitude)
		require.NoError(t, err)
		assert.Equal(t, 0.0, d)
	}
}

func TestHaversineDistance_KnownDistance(t *testing.T) {
	d, err := HaversineDistance(london.Latitude, london.Longitude, paris.Latitude, paris.Longitude)
	require.NoError(t, err)
	assert.InDelta(t, 343_500, d, 1_500)

	// One degree of latitude along a meridian.
	d, err = HaversineDistance(0, 0, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, EarthRadiusMeters*math.Pi/180, d, 1e-6)
}

func TestHaversineDistance_RejectsNonFinite(t *testing.T) {
	cases := [][4]float64{
		{math.NaN(), 0, 0, 0},
		{0, math.Inf(1), 0, 0},
		{0, 0, math.Inf(-1), 0},
		{0, 0, 0, math.NaN()},
	}
	for _, c := range cases {
		_, err := HaversineDistance(c[0], c[1], c[2], c[3])
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	}
}

func TestIsValidLatitudeLongitude(t *testing.T) {
	assert.True(t, IsValidLatitude(-90))
	assert.True(t, IsValidLatitude(90))
	assert.False(t, IsValidLatitude(90.0001))
	assert.False(t, IsValidLatitude(math.NaN()))
	assert.True(t, IsValidLongitude(-180))
	assert.True(t, IsValidLongitude(180))
	assert.False(t, IsValidLongitude(-180.5))
}
