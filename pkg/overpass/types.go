// Package overpass translates tile requests into Overpass QL and
// executes them against an Overpass API endpoint.
package overpass

// Response is the decoded body of an Overpass API JSON response.
type Response struct {
	Version   float64   `json:"version"`
	Generator string    `json:"generator,omitempty"`
	Elements  []Element `json:"elements"`
}

// Element represents a node, way or relation returned from the
// Overpass API. With "out geom", ways carry their full point geometry
// and relation members carry theirs.
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat,omitempty"`
	Lon      float64           `json:"lon,omitempty"`
	Bounds   *Bounds           `json:"bounds,omitempty"`
	Nodes    []int64           `json:"nodes,omitempty"`
	Geometry []Point           `json:"geometry,omitempty"`
	Members  []Member          `json:"members,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Point is a single coordinate in a way or member geometry.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is the bounding box Overpass attaches to ways and relations
// when geometry output is requested.
type Bounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}

// Member is a relation member, optionally with geometry.
type Member struct {
	Type     string  `json:"type"`
	Ref      int64   `json:"ref"`
	Role     string  `json:"role"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Geometry []Point `json:"geometry,omitempty"`
}

// IsClosed reports whether a way's geometry forms a closed ring.
func (e Element) IsClosed() bool {
	if len(e.Geometry) < 4 {
		return false
	}
	first, last := e.Geometry[0], e.Geometry[len(e.Geometry)-1]
	return first.Lat == last.Lat && first.Lon == last.Lon
}
