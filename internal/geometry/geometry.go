package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

var ErrInvalidBoundary = errors.New("invalid field boundary")

// metersPerDegree approximates one degree of latitude near the equator,
// matching the flat-earth hectare conversion used across the platform.
const metersPerDegree = 111139.0

type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Info is everything the analysis pipeline needs from a field boundary.
type Info struct {
	BBox        BBox
	CentroidLat float64
	CentroidLon float64
	AreaHa      float64
}

// Parse validates a GeoJSON polygon boundary and derives its bounding box,
// centroid and area. The boundary must be a closed simple polygon: at least
// four vertices with the first equal to the last.
func Parse(boundary string) (*Info, error) {
	var g geom.T
	if err := geojson.Unmarshal([]byte(boundary), &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
	}

	poly, ok := g.(*geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: geometry is not a polygon", ErrInvalidBoundary)
	}
	if poly.NumLinearRings() == 0 {
		return nil, fmt.Errorf("%w: polygon has no exterior ring", ErrInvalidBoundary)
	}

	ring := poly.LinearRing(0)
	coords := ring.Coords()
	if len(coords) < 4 {
		return nil, fmt.Errorf("%w: ring has %d vertices, need at least 4", ErrInvalidBoundary, len(coords))
	}
	first, last := coords[0], coords[len(coords)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return nil, fmt.Errorf("%w: ring is not closed", ErrInvalidBoundary)
	}

	centroid, err := xy.Centroid(poly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
	}

	info := &Info{
		BBox:        bboxOf(coords),
		CentroidLat: centroid[1],
		CentroidLon: centroid[0],
		AreaHa:      degreesToHectares(poly.Area()),
	}
	return info, nil
}

func bboxOf(coords []geom.Coord) BBox {
	b := BBox{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, c := range coords {
		b.MinLon = math.Min(b.MinLon, c[0])
		b.MaxLon = math.Max(b.MaxLon, c[0])
		b.MinLat = math.Min(b.MinLat, c[1])
		b.MaxLat = math.Max(b.MaxLat, c[1])
	}
	return b
}

func degreesToHectares(areaDeg2 float64) float64 {
	return math.Abs(areaDeg2) * metersPerDegree * metersPerDegree / 10000
}
