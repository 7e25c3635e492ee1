package model

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hospital-siting/internal/geo"
)

// UrbanZone is a demographic area considered for hospital coverage.
type UrbanZone struct {
	ID               string           `json:"id" yaml:"id"`
	Name             string           `json:"name" yaml:"name"`
	Population       int              `json:"population" yaml:"population"`
	DeprivationIndex float64          `json:"deprivationIndex" yaml:"deprivation_index"`
	Center           geo.Coordinate   `json:"center" yaml:"center"`
	Bounds           []geo.Coordinate `json:"bounds" yaml:"bounds"`
}

// Validate rejects zones the engine cannot use. Bounds are optional; when
// present they must form a polygon ring with at least three distinct vertices.
func (z UrbanZone) Validate() error {
	if z.ID == "" {
		return eris.Wrap(ErrInvalidRecord, "zone: missing id")
	}
	if z.Population <= 0 {
		return eris.Wrapf(ErrInvalidRecord, "zone %s: population must be positive, got %d", z.ID, z.Population)
	}
	if math.IsNaN(z.DeprivationIndex) || z.DeprivationIndex < 0 || z.DeprivationIndex > 1 {
		return eris.Wrapf(ErrInvalidRecord, "zone %s: deprivation index %f outside [0,1]", z.ID, z.DeprivationIndex)
	}
	if z.Center.IsZero() {
		return eris.Wrapf(ErrInvalidRecord, "zone %s: missing center (coordinate (0,0) treated as missing)", z.ID)
	}
	if err := z.Center.Validate(); err != nil {
		return eris.Wrapf(ErrInvalidRecord, "zone %s: %v", z.ID, err)
	}
	if len(z.Bounds) == 0 {
		return nil
	}
	for _, c := range z.Bounds {
		if err := c.Validate(); err != nil {
			return eris.Wrapf(ErrInvalidRecord, "zone %s bounds: %v", z.ID, err)
		}
	}
	if _, err := geo.Polygon(z.Bounds); err != nil {
		return eris.Wrapf(ErrInvalidRecord, "zone %s bounds: %v", z.ID, err)
	}
	return nil
}

// ScoredZone is an UrbanZone with the fields derived by the scoring engine.
type ScoredZone struct {
	UrbanZone
	DistanceToNearestHospital float64 `json:"distanceToNearestHospital"`
	NearestHospitalID         string  `json:"nearestHospitalId"`
	PriorityScore             float64 `json:"priorityScore"`
	Color                     string  `json:"color"`
	Coverage                  string  `json:"coverage"`
}
