package soundscape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steinbro/overscape-server/pkg/overpass"
)

func TestAssembleRingsAlreadyClosed(t *testing.T) {
	ring := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}}

	rings := assembleRings([][]overpass.Point{ring})
	require.Len(t, rings, 1)
	assert.Equal(t, ring, rings[0])
}

func TestAssembleRingsStitchesSegments(t *testing.T) {
	a := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}
	b := []overpass.Point{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 0}, {Lat: 0, Lon: 0}}

	rings := assembleRings([][]overpass.Point{a, b})
	require.Len(t, rings, 1)
	ring := rings[0]
	assert.True(t, isRing(ring))
	assert.Len(t, ring, 5)
}

func TestAssembleRingsReversesSegments(t *testing.T) {
	// Second segment runs the wrong way round; stitching must reverse it.
	a := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}
	b := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}, {Lat: 1, Lon: 1}}

	rings := assembleRings([][]overpass.Point{a, b})
	require.Len(t, rings, 1)
	assert.True(t, isRing(rings[0]))
}

func TestAssembleRingsDropsOpenSegments(t *testing.T) {
	dangling := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 5, Lon: 5}}
	rings := assembleRings([][]overpass.Point{dangling})
	assert.Empty(t, rings)
}

func TestAssembleRingsMultipleRings(t *testing.T) {
	ringAt := func(lat, lon float64) []overpass.Point {
		return []overpass.Point{
			{Lat: lat, Lon: lon}, {Lat: lat, Lon: lon + 1},
			{Lat: lat + 1, Lon: lon + 1}, {Lat: lat, Lon: lon},
		}
	}

	rings := assembleRings([][]overpass.Point{ringAt(0, 0), ringAt(10, 10)})
	assert.Len(t, rings, 2)
}

func TestJoinDoesNotMutateInputs(t *testing.T) {
	a := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}
	b := []overpass.Point{{Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}
	aCopy := append([]overpass.Point(nil), a...)
	bCopy := append([]overpass.Point(nil), b...)

	joined, ok := join(a, b)
	require.True(t, ok)
	assert.Equal(t, []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}, joined)
	assert.Equal(t, aCopy, a)
	assert.Equal(t, bCopy, b)
}

func TestJoinNoSharedEndpoint(t *testing.T) {
	a := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}
	b := []overpass.Point{{Lat: 5, Lon: 5}, {Lat: 6, Lon: 6}}

	_, ok := join(a, b)
	assert.False(t, ok)
}

func TestRingContains(t *testing.T) {
	square := []overpass.Point{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0}, {Lat: 0, Lon: 0},
	}

	assert.True(t, ringContains(square, overpass.Point{Lat: 5, Lon: 5}))
	assert.False(t, ringContains(square, overpass.Point{Lat: 15, Lon: 5}))
	assert.False(t, ringContains(square, overpass.Point{Lat: -1, Lon: -1}))
}
