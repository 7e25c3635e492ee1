package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Region is a set of polygons used as a containment test. Coordinates are
// stored in go-geom XY order (x = longitude, y = latitude).
type Region struct {
	polygons []*geom.Polygon
	bounds   *geom.Bounds
}

// NewRegion builds a region from one or more polygon rings. Rings with fewer
// than three distinct vertices are rejected; open rings are closed.
func NewRegion(rings ...[]Coordinate) (*Region, error) {
	if len(rings) == 0 {
		return nil, eris.New("geo: region requires at least one ring")
	}
	r := &Region{bounds: geom.NewBounds(geom.XY)}
	for i, ring := range rings {
		poly, err := Polygon(ring)
		if err != nil {
			return nil, eris.Wrapf(err, "geo: ring %d", i)
		}
		r.polygons = append(r.polygons, poly)
		r.bounds.Extend(poly)
	}
	return r, nil
}

// Polygon converts a ring of coordinates into a single-ring go-geom polygon
// with SRID 4326.
func Polygon(ring []Coordinate) (*geom.Polygon, error) {
	if len(ring) < 3 {
		return nil, eris.Errorf("geo: polygon ring needs at least 3 points, got %d", len(ring))
	}
	flat := make([]float64, 0, (len(ring)+1)*2)
	for _, c := range ring {
		flat = append(flat, c.Lng, c.Lat)
	}
	first, last := ring[0], ring[len(ring)-1]
	if first != last {
		flat = append(flat, first.Lng, first.Lat)
	} else if len(ring) < 4 {
		return nil, eris.Errorf("geo: closed polygon ring needs at least 4 points, got %d", len(ring))
	}

	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
		return nil, eris.Wrap(err, "geo: push ring")
	}
	return poly, nil
}

// Contains reports whether c lies inside or on the boundary of any polygon.
func (r *Region) Contains(c Coordinate) bool {
	if r == nil {
		return false
	}
	pt := geom.Coord{c.Lng, c.Lat}
	if !r.bounds.OverlapsPoint(geom.XY, pt) {
		return false
	}
	for _, poly := range r.polygons {
		if !poly.Bounds().OverlapsPoint(geom.XY, pt) {
			continue
		}
		if xy.IsPointInRing(geom.XY, pt, poly.LinearRing(0).FlatCoords()) {
			return true
		}
	}
	return false
}

// Bounds returns the south-west and north-east corners of the region.
func (r *Region) Bounds() (sw, ne Coordinate) {
	return Coordinate{Lat: r.bounds.Min(1), Lng: r.bounds.Min(0)},
		Coordinate{Lat: r.bounds.Max(1), Lng: r.bounds.Max(0)}
}

// Len returns the number of polygons in the region.
func (r *Region) Len() int {
	if r == nil {
		return 0
	}
	return len(r.polygons)
}

// Centroid returns the area-weighted centroid of a polygon ring.
func Centroid(ring []Coordinate) (Coordinate, error) {
	poly, err := Polygon(ring)
	if err != nil {
		return Coordinate{}, err
	}
	c, err := xy.Centroid(poly)
	if err != nil {
		return Coordinate{}, eris.Wrap(err, "geo: centroid")
	}
	return Coordinate{Lat: c[1], Lng: c[0]}, nil
}
