package analysis

import (
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
	"github.com/sells-group/hospital-siting/internal/suggest"
)

// attributor assigns zone demographics to candidate points.
type attributor struct {
	zones    []model.UrbanZone
	regions  []*geo.Region // parallel to zones; nil when a zone has no usable bounds
	centers  []geo.Coordinate
	radiusKM float64
}

func newAttributor(zones []model.UrbanZone, radiusKM float64) *attributor {
	a := &attributor{
		zones:    zones,
		regions:  make([]*geo.Region, len(zones)),
		centers:  make([]geo.Coordinate, len(zones)),
		radiusKM: radiusKM,
	}
	for i, z := range zones {
		a.centers[i] = z.Center
		if len(z.Bounds) < 3 {
			continue
		}
		r, err := geo.NewRegion(z.Bounds)
		if err != nil {
			zap.L().Debug("analysis: zone bounds unusable for attribution",
				zap.String("zone_id", z.ID), zap.Error(err))
			continue
		}
		a.regions[i] = r
	}
	return a
}

// zoneFor returns the index of the zone whose polygon contains p (first in
// input order), else of the nearest zone center within radiusKM, else -1.
func (a *attributor) zoneFor(p geo.Coordinate) int {
	for i, r := range a.regions {
		if r.Contains(p) {
			return i
		}
	}
	idx, km, ok := geo.Nearest(p, a.centers)
	if ok && km <= a.radiusKM {
		return idx
	}
	return -1
}

func (a *attributor) candidate(p geo.Coordinate) suggest.Candidate {
	c := suggest.Candidate{Location: p}
	if i := a.zoneFor(p); i >= 0 {
		z := a.zones[i]
		c.Population = z.Population
		c.DeprivationIndex = z.DeprivationIndex
		c.ZoneID = z.ID
		c.ZoneName = z.Name
	}
	return c
}
