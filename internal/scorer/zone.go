// Package scorer computes nearest-hospital distances and normalized priority
// scores for urban zones.
package scorer

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
)

// Option configures zone scoring.
type Option func(*options)

type options struct {
	coverageKM float64
}

// WithCoverageKM sets the distance used to classify zone coverage.
func WithCoverageKM(km float64) Option {
	return func(o *options) {
		o.coverageKM = km
	}
}

// Result holds scored zones and the normalization denominators used.
type Result struct {
	Zones         []model.ScoredZone `json:"zones"`
	MaxPopulation int                `json:"maxPopulation"`
	MaxDistanceKM float64            `json:"maxDistanceKm"`
	// Degenerate is true when a normalization denominator was zero and the
	// corresponding score contribution was forced to zero.
	Degenerate bool `json:"degenerate"`
}

// ScoreZones scores zones against the given hospitals. It is shorthand for
// Score(...).Zones.
func ScoreZones(zones []model.UrbanZone, hospitals []model.Hospital, opts ...Option) ([]model.ScoredZone, error) {
	res, err := Score(zones, hospitals, opts...)
	if err != nil {
		return nil, err
	}
	return res.Zones, nil
}

// Score computes, for every zone, the distance to its nearest hospital and
// priorityScore = (population/maxPopulation) * deprivationIndex * (distance/maxDistance).
// Input slices are not modified. Zero denominators contribute zero.
func Score(zones []model.UrbanZone, hospitals []model.Hospital, opts ...Option) (*Result, error) {
	o := options{coverageKM: geo.DefaultCoverageKM}
	for _, opt := range opts {
		opt(&o)
	}

	if len(hospitals) == 0 {
		return nil, eris.Wrap(model.ErrInsufficientData, "scorer: at least one hospital is required")
	}
	if len(zones) == 0 {
		return nil, eris.Wrap(model.ErrInsufficientData, "scorer: at least one zone is required")
	}
	for _, h := range hospitals {
		if err := h.Validate(); err != nil {
			return nil, eris.Wrap(err, "scorer: validate hospitals")
		}
	}
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			return nil, eris.Wrap(err, "scorer: validate zones")
		}
	}

	locations := model.Locations(hospitals)
	res := &Result{Zones: make([]model.ScoredZone, len(zones))}

	for i, z := range zones {
		idx, km, _ := geo.Nearest(z.Center, locations)
		res.Zones[i] = model.ScoredZone{
			UrbanZone:                 cloneZone(z),
			DistanceToNearestHospital: km,
			NearestHospitalID:         hospitals[idx].ID,
			Coverage:                  geo.Classify(km, o.coverageKM),
		}
		if z.Population > res.MaxPopulation {
			res.MaxPopulation = z.Population
		}
		if km > res.MaxDistanceKM {
			res.MaxDistanceKM = km
		}
	}

	if res.MaxPopulation == 0 || res.MaxDistanceKM == 0 {
		res.Degenerate = true
		zap.L().Debug("scorer: zero normalization denominator",
			zap.Int("max_population", res.MaxPopulation),
			zap.Float64("max_distance_km", res.MaxDistanceKM),
			zap.Error(model.ErrDegenerateInput),
		)
	}

	for i := range res.Zones {
		z := &res.Zones[i]
		popScore := ratio(float64(z.Population), float64(res.MaxPopulation))
		distScore := ratio(z.DistanceToNearestHospital, res.MaxDistanceKM)
		z.PriorityScore = popScore * z.DeprivationIndex * distScore
		z.Color = Color(z.PriorityScore)
	}

	return res, nil
}

// Rank returns a copy of zones ordered by priority score, highest first.
// Equal scores keep their input order.
func Rank(zones []model.ScoredZone) []model.ScoredZone {
	out := make([]model.ScoredZone, len(zones))
	copy(out, zones)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})
	return out
}

// AbovePriority returns the zones whose priority score exceeds threshold, in
// input order.
func AbovePriority(zones []model.ScoredZone, threshold float64) []model.ScoredZone {
	var out []model.ScoredZone
	for _, z := range zones {
		if z.PriorityScore > threshold {
			out = append(out, z)
		}
	}
	return out
}

// ratio divides num by den, returning zero for a zero denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func cloneZone(z model.UrbanZone) model.UrbanZone {
	if z.Bounds != nil {
		b := make([]geo.Coordinate, len(z.Bounds))
		copy(b, z.Bounds)
		z.Bounds = b
	}
	return z
}

// String implements fmt.Stringer for log output.
func (r *Result) String() string {
	return fmt.Sprintf("zones=%d max_population=%d max_distance_km=%.3f degenerate=%t",
		len(r.Zones), r.MaxPopulation, r.MaxDistanceKM, r.Degenerate)
}
