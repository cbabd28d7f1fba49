package overpass

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/steinbro/overscape-server/pkg/geo"
)

// QueryBuilder provides a fluent interface for building Overpass QL
// queries over a bounding box.
type QueryBuilder struct {
	outFormat string
	timeout   int
	bbox      *geo.BoundingBox
	tags      TagTable
	output    string
}

// NewQueryBuilder creates a builder with default settings. All queries
// request JSON output.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		outFormat: "json",
		timeout:   25,
		output:    "geom",
	}
}

// WithTimeout sets the query timeout in seconds.
func (b *QueryBuilder) WithTimeout(seconds int) *QueryBuilder {
	b.timeout = seconds
	return b
}

// WithBBox sets a global bounding box filter.
func (b *QueryBuilder) WithBBox(bbox geo.BoundingBox) *QueryBuilder {
	b.bbox = &bbox
	return b
}

// WithTagTable sets the primary tag table the query unions over.
func (b *QueryBuilder) WithTagTable(tags TagTable) *QueryBuilder {
	b.tags = tags
	return b
}

// WithOutput sets the output directive (default "geom", which includes
// full geometry for ways and relation members).
func (b *QueryBuilder) WithOutput(output string) *QueryBuilder {
	b.output = output
	return b
}

// Build generates the Overpass query string. The result is the union of
// one nwr statement per primary tag, e.g.:
//
//	[out:json][timeout:25][bbox:34.87,-77.83,38.26,-74.49];
//	(nwr[amenity];nwr[railway~'station|subway_entrance|tram_stop'];);
//	out geom;
//
// Tag keys are emitted in sorted order so the query for a given tile is
// byte-for-byte stable across processes.
func (b *QueryBuilder) Build() string {
	var q strings.Builder

	q.WriteString(fmt.Sprintf("[out:%s][timeout:%d]", b.outFormat, b.timeout))
	if b.bbox != nil {
		q.WriteString(fmt.Sprintf("[bbox:%s,%s,%s,%s]",
			formatCoord(b.bbox.MinLat), formatCoord(b.bbox.MinLon),
			formatCoord(b.bbox.MaxLat), formatCoord(b.bbox.MaxLon)))
	}
	q.WriteString(";(")

	for _, key := range b.tags.Keys() {
		values := b.tags[key]
		if len(values) > 0 {
			q.WriteString(fmt.Sprintf("nwr[%s~'%s'];", key, strings.Join(values, "|")))
		} else {
			q.WriteString(fmt.Sprintf("nwr[%s];", key))
		}
	}

	q.WriteString(fmt.Sprintf(");out %s;", b.output))
	return q.String()
}

// TileQuery builds the query for a single slippy-map tile.
func TileQuery(x, y, zoom int, tags TagTable, timeout int) string {
	return NewQueryBuilder().
		WithTimeout(timeout).
		WithBBox(geo.TileBBox(x, y, zoom)).
		WithTagTable(tags).
		Build()
}

// formatCoord renders a coordinate with the shortest representation
// that round-trips, matching how Overpass echoes coordinates back.
func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
