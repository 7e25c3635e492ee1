// Package grid generates evenly spaced candidate points over a bounded region.
package grid

import (
	"iter"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
)

// DegreesPerKM is an approximate conversion factor for latitude degrees to kilometers.
// At mid-latitudes, 1 degree of latitude is approximately 111 km.
const DegreesPerKM = 1.0 / 111.0

// MaxSize caps the grid dimension so a misconfigured cell size cannot request
// an unbounded number of candidates.
const MaxSize = 500

// BBox represents a geographic bounding box.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Validate checks that the box is well formed.
func (b BBox) Validate() error {
	sw := geo.Coordinate{Lat: b.MinLat, Lng: b.MinLng}
	ne := geo.Coordinate{Lat: b.MaxLat, Lng: b.MaxLng}
	if err := sw.Validate(); err != nil {
		return eris.Wrap(model.ErrInvalidOptions, "grid: south-west corner: "+err.Error())
	}
	if err := ne.Validate(); err != nil {
		return eris.Wrap(model.ErrInvalidOptions, "grid: north-east corner: "+err.Error())
	}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return eris.Wrapf(model.ErrInvalidOptions, "grid: inverted bounds %+v", b)
	}
	return nil
}

// Center returns the midpoint of the box.
func (b BBox) Center() geo.Coordinate {
	return geo.Coordinate{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// BoundsOf returns the box enclosing coords, expanded by padDeg on every side
// and clamped to valid latitude and longitude ranges.
func BoundsOf(coords []geo.Coordinate, padDeg float64) (BBox, error) {
	if len(coords) == 0 {
		return BBox{}, eris.Wrap(model.ErrInsufficientData, "grid: no coordinates to bound")
	}
	b := BBox{MinLat: math.Inf(1), MinLng: math.Inf(1), MaxLat: math.Inf(-1), MaxLng: math.Inf(-1)}
	for _, c := range coords {
		b.MinLat = math.Min(b.MinLat, c.Lat)
		b.MinLng = math.Min(b.MinLng, c.Lng)
		b.MaxLat = math.Max(b.MaxLat, c.Lat)
		b.MaxLng = math.Max(b.MaxLng, c.Lng)
	}
	b.MinLat = math.Max(-90, b.MinLat-padDeg)
	b.MinLng = math.Max(-180, b.MinLng-padDeg)
	b.MaxLat = math.Min(90, b.MaxLat+padDeg)
	b.MaxLng = math.Min(180, b.MaxLng+padDeg)
	return b, nil
}

// SizeForCellKM returns the grid size whose cells are roughly cellKM tall over
// the box's latitude span, clamped to [1, MaxSize].
func SizeForCellKM(b BBox, cellKM float64) (int, error) {
	if cellKM <= 0 {
		return 0, eris.Wrap(model.ErrInvalidOptions, "grid: cell_km must be positive")
	}
	cellDeg := cellKM * DegreesPerKM
	span := math.Max(b.MaxLat-b.MinLat, b.MaxLng-b.MinLng)
	// The epsilon absorbs float error so an exact multiple does not round up.
	n := int(math.Ceil(span/cellDeg - 1e-9))
	return min(max(n, 1), MaxSize), nil
}

// Option configures a Grid.
type Option func(*Grid)

// WithContainment keeps only points for which contains returns true.
func WithContainment(contains func(geo.Coordinate) bool) Option {
	return func(g *Grid) {
		g.filters = append(g.filters, contains)
	}
}

// WithRegion keeps only points inside the region.
func WithRegion(r *geo.Region) Option {
	return WithContainment(r.Contains)
}

// WithMaxRadius keeps only points within radiusKM of center.
func WithMaxRadius(center geo.Coordinate, radiusKM float64) Option {
	return WithContainment(func(c geo.Coordinate) bool {
		return geo.Distance(center, c) <= radiusKM
	})
}

// Grid is a size×size lattice of cell centers over a bounding box.
type Grid struct {
	bounds  BBox
	size    int
	filters []func(geo.Coordinate) bool
}

// New creates a Grid of size×size cells over bounds.
func New(bounds BBox, size int, opts ...Option) (*Grid, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 || size > MaxSize {
		return nil, eris.Wrapf(model.ErrInvalidOptions, "grid: size must be in [1,%d], got %d", MaxSize, size)
	}
	g := &Grid{bounds: bounds, size: size}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Bounds returns the grid's bounding box.
func (g *Grid) Bounds() BBox { return g.bounds }

// Size returns the number of cells per side.
func (g *Grid) Size() int { return g.size }

// Points lazily yields the accepted cell centers in row-major order: latitude
// rows ascending, longitude columns ascending within a row. The index is the
// position among accepted points.
func (g *Grid) Points() iter.Seq2[int, geo.Coordinate] {
	latStep := (g.bounds.MaxLat - g.bounds.MinLat) / float64(g.size)
	lngStep := (g.bounds.MaxLng - g.bounds.MinLng) / float64(g.size)

	return func(yield func(int, geo.Coordinate) bool) {
		n := 0
		for i := 0; i < g.size; i++ {
			lat := g.bounds.MinLat + (float64(i)+0.5)*latStep
			for j := 0; j < g.size; j++ {
				c := geo.Coordinate{Lat: lat, Lng: g.bounds.MinLng + (float64(j)+0.5)*lngStep}
				if !g.accept(c) {
					continue
				}
				if !yield(n, c) {
					return
				}
				n++
			}
		}
	}
}

// Collect materializes Points into a slice.
func (g *Grid) Collect() []geo.Coordinate {
	out := make([]geo.Coordinate, 0, g.size*g.size)
	for _, c := range g.Points() {
		out = append(out, c)
	}
	return out
}

func (g *Grid) accept(c geo.Coordinate) bool {
	for _, f := range g.filters {
		if !f(c) {
			return false
		}
	}
	return true
}
