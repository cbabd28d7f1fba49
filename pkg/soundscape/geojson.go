// Package soundscape converts Overpass API results into the GeoJSON
// feature collection format the Soundscape client consumes. The format
// is described in the Soundscape data-plane schema: every feature
// carries the primary OSM tag it matched as feature_type/feature_value,
// the contributing OSM element IDs, and the full element tag set as
// properties.
package soundscape

import (
	"github.com/steinbro/overscape-server/pkg/overpass"
)

// Position is a GeoJSON coordinate pair in [longitude, latitude] order.
type Position [2]float64

// Geometry is a GeoJSON geometry object.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Feature is a single Soundscape GeoJSON feature.
type Feature struct {
	FeatureType  string            `json:"feature_type"`
	FeatureValue string            `json:"feature_value"`
	Geometry     Geometry          `json:"geometry"`
	OSMIDs       []int64           `json:"osm_ids"`
	Properties   map[string]string `json:"properties"`
	Type         string            `json:"type"`
}

// FeatureCollection is the top-level tile response object.
type FeatureCollection struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

// NewPoint builds a Point geometry.
func NewPoint(lon, lat float64) Geometry {
	return Geometry{Type: "Point", Coordinates: Position{lon, lat}}
}

// NewLineString builds a LineString geometry.
func NewLineString(coords []Position) Geometry {
	return Geometry{Type: "LineString", Coordinates: coords}
}

// NewPolygon builds a Polygon geometry from one or more rings.
func NewPolygon(rings [][]Position) Geometry {
	return Geometry{Type: "Polygon", Coordinates: rings}
}

// NewMultiPolygon builds a MultiPolygon geometry.
func NewMultiPolygon(polygons [][][]Position) Geometry {
	return Geometry{Type: "MultiPolygon", Coordinates: polygons}
}

// linearTags are tag keys whose closed ways stay LineStrings unless
// explicitly marked as areas (a closed residential road is a loop, not
// a polygon).
var linearTags = map[string]bool{
	"highway": true,
	"barrier": true,
}

// FromOverpass converts a decoded Overpass response into a Soundscape
// feature collection, including synthesized road intersections.
func FromOverpass(resp *overpass.Response, tags overpass.TagTable) FeatureCollection {
	features := make([]Feature, 0, len(resp.Elements))

	for _, el := range resp.Elements {
		key, value, ok := tags.PrimaryTag(el.Tags)
		if !ok {
			continue
		}

		geom, ok := elementGeometry(el)
		if !ok {
			continue
		}

		props := el.Tags
		if props == nil {
			props = map[string]string{}
		}

		features = append(features, Feature{
			FeatureType:  key,
			FeatureValue: value,
			Geometry:     geom,
			OSMIDs:       []int64{el.ID},
			Properties:   props,
			Type:         "Feature",
		})
	}

	features = append(features, Intersections(resp)...)

	return FeatureCollection{
		Features: features,
		Type:     "FeatureCollection",
	}
}

// elementGeometry derives the GeoJSON geometry for an element. The
// boolean is false when the element carries no usable geometry.
func elementGeometry(el overpass.Element) (Geometry, bool) {
	switch el.Type {
	case "node":
		return NewPoint(el.Lon, el.Lat), true
	case "way":
		if len(el.Geometry) == 0 {
			return Geometry{}, false
		}
		coords := toPositions(el.Geometry)
		if el.IsClosed() && isArea(el.Tags) {
			return NewPolygon([][]Position{coords}), true
		}
		return NewLineString(coords), true
	case "relation":
		return relationGeometry(el)
	default:
		return Geometry{}, false
	}
}

// isArea reports whether a closed way should be rendered as a polygon.
func isArea(tags map[string]string) bool {
	if tags["area"] == "yes" {
		return true
	}
	if tags["area"] == "no" {
		return false
	}
	for key := range tags {
		if linearTags[key] {
			return false
		}
	}
	return true
}

// relationGeometry assembles a Polygon or MultiPolygon for area-type
// relations from their member way geometries. Relations of other types
// carry no renderable geometry and are skipped.
func relationGeometry(el overpass.Element) (Geometry, bool) {
	relType := el.Tags["type"]
	if relType != "multipolygon" && relType != "boundary" {
		return Geometry{}, false
	}

	var outerSegs, innerSegs [][]overpass.Point
	for _, m := range el.Members {
		if m.Type != "way" || len(m.Geometry) == 0 {
			continue
		}
		switch m.Role {
		case "inner":
			innerSegs = append(innerSegs, m.Geometry)
		default:
			// Outer is the default role for untagged members.
			outerSegs = append(outerSegs, m.Geometry)
		}
	}

	outers := assembleRings(outerSegs)
	if len(outers) == 0 {
		return Geometry{}, false
	}
	inners := assembleRings(innerSegs)

	// One polygon per outer ring; each inner ring becomes a hole in
	// the outer ring that contains it.
	polygons := make([][][]Position, len(outers))
	for i, outer := range outers {
		polygons[i] = [][]Position{toPositions(outer)}
	}
	for _, inner := range inners {
		for i, outer := range outers {
			if ringContains(outer, inner[0]) {
				polygons[i] = append(polygons[i], toPositions(inner))
				break
			}
		}
	}

	if len(polygons) == 1 {
		return NewPolygon(polygons[0]), true
	}
	return NewMultiPolygon(polygons), true
}

// toPositions converts Overpass lat/lon points to GeoJSON positions.
func toPositions(points []overpass.Point) []Position {
	coords := make([]Position, len(points))
	for i, p := range points {
		coords[i] = Position{p.Lon, p.Lat}
	}
	return coords
}
