package soundscape

import (
	"github.com/steinbro/overscape-server/pkg/overpass"
)

// assembleRings stitches way segments into closed rings by matching
// endpoints, the way multipolygon relations are assembled from their
// member ways. Segments that cannot be closed are dropped.
func assembleRings(segments [][]overpass.Point) [][]overpass.Point {
	var rings [][]overpass.Point
	remaining := make([][]overpass.Point, 0, len(segments))
	for _, s := range segments {
		if len(s) >= 2 {
			remaining = append(remaining, s)
		}
	}

	for len(remaining) > 0 {
		ring := remaining[0]
		remaining = remaining[1:]

		for !isRing(ring) {
			extended := false
			for i, seg := range remaining {
				joined, ok := join(ring, seg)
				if !ok {
					continue
				}
				ring = joined
				remaining = append(remaining[:i], remaining[i+1:]...)
				extended = true
				break
			}
			if !extended {
				break
			}
		}

		if isRing(ring) {
			rings = append(rings, ring)
		}
	}

	return rings
}

// isRing reports whether the segment is a closed ring.
func isRing(seg []overpass.Point) bool {
	return len(seg) >= 4 && seg[0] == seg[len(seg)-1]
}

// join connects two segments that share an endpoint, reversing the
// second segment when needed. The shared point is not duplicated and
// the inputs are never mutated.
func join(a, b []overpass.Point) ([]overpass.Point, bool) {
	switch {
	case a[len(a)-1] == b[0]:
		return concat(a, b[1:]), true
	case a[len(a)-1] == b[len(b)-1]:
		return concat(a, reversed(b)[1:]), true
	case a[0] == b[len(b)-1]:
		return concat(b, a[1:]), true
	case a[0] == b[0]:
		return concat(reversed(b), a[1:]), true
	default:
		return nil, false
	}
}

// concat returns a fresh slice holding a followed by b.
func concat(a, b []overpass.Point) []overpass.Point {
	out := make([]overpass.Point, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// reversed returns a copy of the segment in reverse order.
func reversed(seg []overpass.Point) []overpass.Point {
	out := make([]overpass.Point, len(seg))
	for i, p := range seg {
		out[len(seg)-1-i] = p
	}
	return out
}

// ringContains reports whether a point lies inside a ring, using ray
// casting on the lon/lat plane.
func ringContains(ring []overpass.Point, p overpass.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lon < (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lon {
			inside = !inside
		}
	}
	return inside
}
