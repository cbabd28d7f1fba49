package geo

import (
	"errors"
	"math"
	"testing"
)

func TestTileToLatLonKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		x, y    int
		zoom    int
		wantLat float64
		wantLon float64
	}{
		{"world origin", 0, 0, 0, MaxLatitude, -180},
		{"center at zoom 1", 1, 1, 1, 0, 0},
		{"east edge", 2, 1, 1, 0, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := TileToLatLon(tt.x, tt.y, tt.zoom)
			if math.Abs(lat-tt.wantLat) > 1e-6 {
				t.Errorf("lat = %f, want %f", lat, tt.wantLat)
			}
			if math.Abs(lon-tt.wantLon) > 1e-6 {
				t.Errorf("lon = %f, want %f", lon, tt.wantLon)
			}
		})
	}
}

func TestLatLonToTileRoundTrip(t *testing.T) {
	// The NW corner of a tile must map back to the same tile.
	coords := []struct {
		x, y int
	}{
		{0, 0},
		{32768, 32768},
		{18747, 25072},
		{65535, 65535},
	}

	for _, c := range coords {
		lat, lon := TileToLatLon(c.x, c.y, DefaultZoom)
		// Nudge inside the tile to avoid landing exactly on the boundary.
		x, y := LatLonToTile(lat-1e-7, lon+1e-7, DefaultZoom)
		if x != c.x || y != c.y {
			t.Errorf("round trip for tile %d/%d got %d/%d", c.x, c.y, x, y)
		}
	}
}

func TestTileBBoxContainsCenter(t *testing.T) {
	bbox := TileBBox(18747, 25072, DefaultZoom)

	if bbox.MinLat >= bbox.MaxLat {
		t.Errorf("MinLat %f not below MaxLat %f", bbox.MinLat, bbox.MaxLat)
	}
	if bbox.MinLon >= bbox.MaxLon {
		t.Errorf("MinLon %f not below MaxLon %f", bbox.MinLon, bbox.MaxLon)
	}

	centerLat := (bbox.MinLat + bbox.MaxLat) / 2
	centerLon := (bbox.MinLon + bbox.MaxLon) / 2
	if !bbox.Contains(centerLat, centerLon) {
		t.Errorf("bbox %+v does not contain its own center", bbox)
	}
	if bbox.Contains(centerLat+1, centerLon) {
		t.Error("bbox contains point one degree north of itself")
	}
}

func TestTileBBoxAdjacentTilesShareEdge(t *testing.T) {
	a := TileBBox(100, 100, DefaultZoom)
	b := TileBBox(101, 100, DefaultZoom)

	if math.Abs(a.MaxLon-b.MinLon) > 1e-9 {
		t.Errorf("adjacent tiles do not share an edge: %f vs %f", a.MaxLon, b.MinLon)
	}
}

func TestValidateCoords(t *testing.T) {
	if err := ValidateCoords(40.7, -74.0); err != nil {
		t.Errorf("valid coords rejected: %v", err)
	}
	if err := ValidateCoords(91, 0); err == nil {
		t.Error("latitude 91 accepted")
	}
	if err := ValidateCoords(0, -181); err == nil {
		t.Error("longitude -181 accepted")
	}
}

func TestValidateTile(t *testing.T) {
	tests := []struct {
		name    string
		x, y    int
		zoom    int
		wantErr bool
	}{
		{"valid", 18747, 25072, 16, false},
		{"corner", 0, 0, 16, false},
		{"max valid", 65535, 65535, 16, false},
		{"x too large", 65536, 0, 16, true},
		{"y negative", 0, -1, 16, true},
		{"zoom negative", 0, 0, -1, true},
		{"zoom too large", 0, 0, 23, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTile(tt.x, tt.y, tt.zoom)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTile(%d, %d, %d) error = %v, wantErr %v",
					tt.x, tt.y, tt.zoom, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTile) {
				t.Errorf("error %v does not wrap ErrInvalidTile", err)
			}
		})
	}
}
