package soundscape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steinbro/overscape-server/pkg/overpass"
)

var testTags = overpass.TagTable{
	"amenity":  nil,
	"building": nil,
	"highway":  nil,
	"railway":  {"station"},
}

func TestFromOverpassNode(t *testing.T) {
	resp := &overpass.Response{
		Elements: []overpass.Element{
			{
				Type: "node",
				ID:   101,
				Lat:  39.28,
				Lon:  -76.59,
				Tags: map[string]string{"amenity": "cafe", "name": "Charmington's"},
			},
		},
	}

	fc := FromOverpass(resp, testTags)
	require.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "amenity", f.FeatureType)
	assert.Equal(t, "cafe", f.FeatureValue)
	assert.Equal(t, []int64{101}, f.OSMIDs)
	assert.Equal(t, "Charmington's", f.Properties["name"])
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, Position{-76.59, 39.28}, f.Geometry.Coordinates)
}

func TestFromOverpassSkipsUnmatchedElements(t *testing.T) {
	resp := &overpass.Response{
		Elements: []overpass.Element{
			// No primary tag.
			{Type: "node", ID: 1, Lat: 1, Lon: 1, Tags: map[string]string{"name": "x"}},
			// Restricted key with an unlisted value.
			{Type: "node", ID: 2, Lat: 1, Lon: 1, Tags: map[string]string{"railway": "rail"}},
			// Way with no geometry.
			{Type: "way", ID: 3, Tags: map[string]string{"highway": "residential"}},
		},
	}

	fc := FromOverpass(resp, testTags)
	assert.Empty(t, fc.Features)
}

func TestFromOverpassWayGeometries(t *testing.T) {
	openRoad := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}
	closedSquare := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}}

	tests := []struct {
		name     string
		el       overpass.Element
		wantType string
	}{
		{
			name: "open highway is a LineString",
			el: overpass.Element{
				Type: "way", ID: 1, Geometry: openRoad,
				Tags: map[string]string{"highway": "residential"},
			},
			wantType: "LineString",
		},
		{
			name: "closed building is a Polygon",
			el: overpass.Element{
				Type: "way", ID: 2, Geometry: closedSquare,
				Tags: map[string]string{"building": "yes"},
			},
			wantType: "Polygon",
		},
		{
			name: "closed highway loop stays a LineString",
			el: overpass.Element{
				Type: "way", ID: 3, Geometry: closedSquare,
				Tags: map[string]string{"highway": "residential"},
			},
			wantType: "LineString",
		},
		{
			name: "closed highway with area=yes is a Polygon",
			el: overpass.Element{
				Type: "way", ID: 4, Geometry: closedSquare,
				Tags: map[string]string{"highway": "pedestrian", "area": "yes"},
			},
			wantType: "Polygon",
		},
		{
			name: "closed building with area=no is a LineString",
			el: overpass.Element{
				Type: "way", ID: 5, Geometry: closedSquare,
				Tags: map[string]string{"building": "yes", "area": "no"},
			},
			wantType: "LineString",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := FromOverpass(&overpass.Response{Elements: []overpass.Element{tt.el}}, testTags)
			require.Len(t, fc.Features, 1)
			assert.Equal(t, tt.wantType, fc.Features[0].Geometry.Type)
		})
	}
}

func TestFromOverpassRelationPolygonWithHole(t *testing.T) {
	outer := []overpass.Point{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0}, {Lat: 0, Lon: 0},
	}
	inner := []overpass.Point{
		{Lat: 4, Lon: 4}, {Lat: 4, Lon: 6}, {Lat: 6, Lon: 6}, {Lat: 6, Lon: 4}, {Lat: 4, Lon: 4},
	}

	resp := &overpass.Response{
		Elements: []overpass.Element{
			{
				Type: "relation",
				ID:   500,
				Tags: map[string]string{"type": "multipolygon", "building": "yes"},
				Members: []overpass.Member{
					{Type: "way", Role: "outer", Geometry: outer},
					{Type: "way", Role: "inner", Geometry: inner},
				},
			},
		},
	}

	fc := FromOverpass(resp, testTags)
	require.Len(t, fc.Features, 1)

	geom := fc.Features[0].Geometry
	require.Equal(t, "Polygon", geom.Type)

	rings, ok := geom.Coordinates.([][]Position)
	require.True(t, ok)
	require.Len(t, rings, 2, "expected an outer ring and one hole")
	assert.Len(t, rings[0], 5)
	assert.Len(t, rings[1], 5)
}

func TestFromOverpassRelationSplitOuterWays(t *testing.T) {
	// An outer ring split across two member ways must be stitched back
	// into a single closed ring.
	half1 := []overpass.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}}
	half2 := []overpass.Point{{Lat: 10, Lon: 10}, {Lat: 10, Lon: 0}, {Lat: 0, Lon: 0}}

	resp := &overpass.Response{
		Elements: []overpass.Element{
			{
				Type: "relation",
				ID:   501,
				Tags: map[string]string{"type": "multipolygon", "building": "yes"},
				Members: []overpass.Member{
					{Type: "way", Role: "outer", Geometry: half1},
					{Type: "way", Role: "outer", Geometry: half2},
				},
			},
		},
	}

	fc := FromOverpass(resp, testTags)
	require.Len(t, fc.Features, 1)
	require.Equal(t, "Polygon", fc.Features[0].Geometry.Type)

	rings := fc.Features[0].Geometry.Coordinates.([][]Position)
	require.Len(t, rings, 1)
	ring := rings[0]
	assert.Equal(t, ring[0], ring[len(ring)-1], "ring must be closed")
}

func TestFromOverpassRelationMultiPolygon(t *testing.T) {
	ringAt := func(lat, lon float64) []overpass.Point {
		return []overpass.Point{
			{Lat: lat, Lon: lon}, {Lat: lat, Lon: lon + 1},
			{Lat: lat + 1, Lon: lon + 1}, {Lat: lat, Lon: lon},
		}
	}

	resp := &overpass.Response{
		Elements: []overpass.Element{
			{
				Type: "relation",
				ID:   502,
				Tags: map[string]string{"type": "multipolygon", "building": "yes"},
				Members: []overpass.Member{
					{Type: "way", Role: "outer", Geometry: ringAt(0, 0)},
					{Type: "way", Role: "outer", Geometry: ringAt(20, 20)},
				},
			},
		},
	}

	fc := FromOverpass(resp, testTags)
	require.Len(t, fc.Features, 1)
	require.Equal(t, "MultiPolygon", fc.Features[0].Geometry.Type)

	polys := fc.Features[0].Geometry.Coordinates.([][][]Position)
	assert.Len(t, polys, 2)
}

func TestFromOverpassSkipsNonAreaRelations(t *testing.T) {
	resp := &overpass.Response{
		Elements: []overpass.Element{
			{
				Type: "relation",
				ID:   503,
				Tags: map[string]string{"type": "route", "highway": "primary"},
			},
		},
	}

	fc := FromOverpass(resp, testTags)
	assert.Empty(t, fc.Features)
}

func TestFeatureCollectionJSON(t *testing.T) {
	fc := FromOverpass(&overpass.Response{
		Elements: []overpass.Element{
			{Type: "node", ID: 7, Lat: 2, Lon: 1, Tags: map[string]string{"amenity": "bench"}},
		},
	}, testTags)

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])

	features := decoded["features"].([]any)
	require.Len(t, features, 1)
	f := features[0].(map[string]any)
	for _, key := range []string{"feature_type", "feature_value", "geometry", "osm_ids", "properties", "type"} {
		assert.Contains(t, f, key)
	}
	assert.Equal(t, []any{1.0, 2.0}, f["geometry"].(map[string]any)["coordinates"])
}

func TestFromOverpassEmptyResponse(t *testing.T) {
	fc := FromOverpass(&overpass.Response{}, testTags)
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.NotNil(t, fc.Features, "features must marshal as [] not null")
	assert.Empty(t, fc.Features)
}
