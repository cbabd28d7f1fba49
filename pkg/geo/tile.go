// Package geo provides slippy-map tile math and coordinate validation.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTile indicates tile coordinates outside the valid range.
var ErrInvalidTile = errors.New("invalid tile coordinates")

const (
	// DefaultZoom is the zoom level the Soundscape client requests tiles at.
	DefaultZoom = 16

	// MaxLatitude is the latitude bound of the Web Mercator projection.
	MaxLatitude = 85.05112878
)

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies within the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// TileToLatLon converts tile coordinates to the latitude and longitude of
// the tile's NW corner. Pass x+1 and/or y+1 for the other corners.
func TileToLatLon(x, y, zoom int) (lat, lon float64) {
	n := math.Pow(2, float64(zoom))
	lon = float64(x)/n*360.0 - 180.0

	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	lat = latRad * 180.0 / math.Pi

	return lat, lon
}

// LatLonToTile converts latitude, longitude and zoom to tile coordinates.
func LatLonToTile(lat, lon float64, zoom int) (x, y int) {
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	n := math.Pow(2, float64(zoom))

	x = int(math.Floor((lon + 180.0) / 360.0 * n))
	y = int(math.Floor((1.0 - math.Log(math.Tan(lat*math.Pi/180.0)+1.0/math.Cos(lat*math.Pi/180.0))/math.Pi) / 2.0 * n))

	return x, y
}

// TileBBox returns the bounding box of a tile. Corner ordering follows
// postgis-vt-util's TileBBox: min/max over the NW and SE corners.
func TileBBox(x, y, zoom int) BoundingBox {
	aLat, aLon := TileToLatLon(x, y, zoom)
	bLat, bLon := TileToLatLon(x+1, y+1, zoom)

	return BoundingBox{
		MinLat: math.Min(aLat, bLat),
		MinLon: math.Min(aLon, bLon),
		MaxLat: math.Max(aLat, bLat),
		MaxLon: math.Max(aLon, bLon),
	}
}

// ValidateCoords validates latitude and longitude values.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return nil
}

// ValidateTile validates tile coordinates for a zoom level.
func ValidateTile(x, y, zoom int) error {
	if zoom < 0 || zoom > 22 {
		return fmt.Errorf("%w: zoom %d must be between 0 and 22", ErrInvalidTile, zoom)
	}
	max := 1 << uint(zoom)
	if x < 0 || x >= max {
		return fmt.Errorf("%w: x %d must be between 0 and %d at zoom %d", ErrInvalidTile, x, max-1, zoom)
	}
	if y < 0 || y >= max {
		return fmt.Errorf("%w: y %d must be between 0 and %d at zoom %d", ErrInvalidTile, y, max-1, zoom)
	}
	return nil
}
