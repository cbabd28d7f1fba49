package soundscape

import (
	"github.com/steinbro/overscape-server/pkg/overpass"
)

// Intersections finds all points shared by more than one road and
// synthesizes a feature for each, replicating the intersection
// determination of the original Soundscape tile pipeline. Every point
// on a highway way contributes; a point crossed by two or more ways
// becomes a highway/gd_intersection Point feature whose osm_ids lists
// all ways through it.
func Intersections(resp *overpass.Response) []Feature {
	pointIDs := make(map[Position][]int64)
	var order []Position

	for _, el := range resp.Elements {
		if el.Type != "way" || len(el.Geometry) == 0 {
			continue
		}
		if _, isRoad := el.Tags["highway"]; !isRoad {
			continue
		}
		// Only linear ways participate; closed area ways are polygons.
		if el.IsClosed() && isArea(el.Tags) {
			continue
		}
		for _, p := range el.Geometry {
			pos := Position{p.Lon, p.Lat}
			if _, seen := pointIDs[pos]; !seen {
				order = append(order, pos)
			}
			pointIDs[pos] = append(pointIDs[pos], el.ID)
		}
	}

	var features []Feature
	for _, pos := range order {
		ids := pointIDs[pos]
		if len(ids) < 2 {
			continue
		}
		features = append(features, Feature{
			FeatureType:  "highway",
			FeatureValue: "gd_intersection",
			Geometry:     NewPoint(pos[0], pos[1]),
			OSMIDs:       ids,
			Properties:   map[string]string{},
			Type:         "Feature",
		})
	}
	return features
}
