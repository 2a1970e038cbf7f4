package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitQuadrants(t *testing.T) {
	t.Parallel()

	b := Bound{SW: LatLng{Lat: 0, Lng: 0}, NE: LatLng{Lat: 2, Lng: 2}}
	got := b.Split()

	want := [4]Bound{
		{SW: LatLng{0, 0}, NE: LatLng{1, 1}},
		{SW: LatLng{0, 1}, NE: LatLng{1, 2}},
		{SW: LatLng{1, 1}, NE: LatLng{2, 2}},
		{SW: LatLng{1, 0}, NE: LatLng{2, 1}},
	}
	require.Equal(t, want, got)
}

func TestSplitReconstructsParent(t *testing.T) {
	t.Parallel()

	b := Bound{SW: LatLng{Lat: 51.7, Lng: -1.3}, NE: LatLng{Lat: 51.8, Lng: -1.2}}
	quads := b.Split()
	mid := b.Mid()

	// The four children tile the parent: outer corners match the
	// parent's, and every child touches the midpoint.
	require.Equal(t, b.SW, quads[0].SW)
	require.Equal(t, b.NE, quads[2].NE)
	assert.Equal(t, mid, quads[0].NE)
	assert.Equal(t, mid, quads[2].SW)
	assert.Equal(t, mid.Lng, quads[1].SW.Lng)
	assert.Equal(t, mid.Lat, quads[1].NE.Lat)
	assert.Equal(t, mid.Lat, quads[3].SW.Lat)
	assert.Equal(t, mid.Lng, quads[3].NE.Lng)

	for _, q := range quads {
		require.NoError(t, q.Validate())
	}
}

func TestKeyQuantizesDrift(t *testing.T) {
	t.Parallel()

	a := Bound{SW: LatLng{Lat: 51.750000, Lng: -1.250000}, NE: LatLng{Lat: 51.8, Lng: -1.2}}
	// A per-coordinate error far below the quantization step must
	// collapse to the same key.
	b := Bound{SW: LatLng{Lat: 51.7500000001, Lng: -1.2499999999}, NE: LatLng{Lat: 51.8, Lng: -1.2}}
	require.Equal(t, a.Key(), b.Key())

	c := Bound{SW: LatLng{Lat: 51.751, Lng: -1.25}, NE: LatLng{Lat: 51.8, Lng: -1.2}}
	require.NotEqual(t, a.Key(), c.Key())
}

func TestOffsetShiftsEveryCoordinate(t *testing.T) {
	t.Parallel()

	b := Bound{SW: LatLng{Lat: 1, Lng: 2}, NE: LatLng{Lat: 3, Lng: 4}}
	got := b.Offset(0.5)
	require.Equal(t, Bound{SW: LatLng{1.5, 2.5}, NE: LatLng{3.5, 4.5}}, got)
}

func TestValidateRejectsDegenerateBounds(t *testing.T) {
	t.Parallel()

	require.NoError(t, Bound{SW: LatLng{0, 0}, NE: LatLng{1, 1}}.Validate())
	require.Error(t, Bound{SW: LatLng{1, 0}, NE: LatLng{0, 1}}.Validate())
	require.Error(t, Bound{SW: LatLng{0, 1}, NE: LatLng{1, 1}}.Validate())
	require.Error(t, Bound{}.Validate())
}
