package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Validate reports whether the coordinate lies within lat [-90,90] and lng [-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return eris.New("geo: coordinate is NaN")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return eris.Errorf("geo: latitude %f out of range", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return eris.Errorf("geo: longitude %f out of range", c.Lng)
	}
	return nil
}

// IsZero reports whether both components are zero, which loaders treat as a
// missing coordinate.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}
