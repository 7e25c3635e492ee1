// Package suggest scores candidate sites and selects a ranked, spatially
// separated set of suggestions for new facilities.
package suggest

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
)

// Strategy names accepted by ParseStrategy.
const (
	StrategyCoverageGap     = "coverage_gap"
	StrategyDemandQuadratic = "demand_quadratic"
	StrategyDemandLog       = "demand_log"
	StrategyZonePriority    = "zone_priority"
)

// Candidate is a point under consideration for a new facility, together with
// the need attributed to it.
type Candidate struct {
	Location         geo.Coordinate `json:"location"`
	Population       int            `json:"population"`
	DeprivationIndex float64        `json:"deprivationIndex"`
	ZoneID           string         `json:"zoneId,omitempty"`
	ZoneName         string         `json:"zoneName,omitempty"`
}

// Metrics are the facility-relative measurements of one candidate.
type Metrics struct {
	NearestKM  float64
	HasNearest bool
	Accessible int
}

// Strategy assigns an underserved-ness score to a candidate. Higher is more
// underserved.
type Strategy interface {
	Name() string
	Score(c Candidate, m Metrics) float64
}

// FacilityRequirer is implemented by strategies that cannot score a candidate
// without at least one existing facility.
type FacilityRequirer interface {
	RequiresFacilities() bool
}

// Normalizer is implemented by two-pass strategies that rescale raw scores once
// every candidate has been scored.
type Normalizer interface {
	Normalize(cands []Candidate, metrics []Metrics, scores []float64)
}

// ParseStrategy returns the strategy registered under name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyCoverageGap:
		return CoverageGap{}, nil
	case StrategyDemandQuadratic:
		return DemandQuadratic{}, nil
	case StrategyDemandLog:
		return DemandLog{}, nil
	case StrategyZonePriority:
		return ZonePriority{}, nil
	default:
		return nil, eris.Wrapf(model.ErrInvalidOptions, "suggest: unknown strategy %q", name)
	}
}

// Strategies lists the registered strategy names.
func Strategies() []string {
	return []string{StrategyCoverageGap, StrategyDemandQuadratic, StrategyDemandLog, StrategyZonePriority}
}

// CoverageGap scores a candidate by its distance to the nearest facility.
type CoverageGap struct{}

// Name implements Strategy.
func (CoverageGap) Name() string { return StrategyCoverageGap }

// Score implements Strategy.
func (CoverageGap) Score(_ Candidate, m Metrics) float64 {
	return m.NearestKM
}

// RequiresFacilities implements FacilityRequirer.
func (CoverageGap) RequiresFacilities() bool { return true }

// DemandQuadratic scores (population/1000)^2 minus the number of accessible
// facilities.
type DemandQuadratic struct{}

// Name implements Strategy.
func (DemandQuadratic) Name() string { return StrategyDemandQuadratic }

// Score implements Strategy.
func (DemandQuadratic) Score(c Candidate, m Metrics) float64 {
	k := float64(c.Population) / 1000
	return k*k - float64(m.Accessible)
}

// DemandLog scores ln(population) * 1/(1+accessible) * (1+deprivation).
type DemandLog struct{}

// Name implements Strategy.
func (DemandLog) Name() string { return StrategyDemandLog }

// Score implements Strategy.
func (DemandLog) Score(c Candidate, m Metrics) float64 {
	return logPopulation(c.Population) * (1 / (1 + float64(m.Accessible))) * (1 + c.DeprivationIndex)
}

// logPopulation is ln(p), floored at zero for p <= 1.
func logPopulation(p int) float64 {
	if p <= 1 {
		return 0
	}
	return math.Log(float64(p))
}

// ZonePriority applies the zone priority formula to candidates:
// (population/maxPopulation) * deprivation * (distance/maxDistance), with the
// maxima taken over the candidate set.
type ZonePriority struct{}

// Name implements Strategy.
func (ZonePriority) Name() string { return StrategyZonePriority }

// Score returns the unnormalized product; Normalize rescales it.
func (ZonePriority) Score(c Candidate, m Metrics) float64 {
	return float64(c.Population) * c.DeprivationIndex * m.NearestKM
}

// RequiresFacilities implements FacilityRequirer.
func (ZonePriority) RequiresFacilities() bool { return true }

// Normalize divides every raw score by maxPopulation*maxDistance. A zero
// denominator sets every score to zero.
func (ZonePriority) Normalize(cands []Candidate, metrics []Metrics, scores []float64) {
	maxPop, maxDist := 0.0, 0.0
	for i := range cands {
		maxPop = math.Max(maxPop, float64(cands[i].Population))
		maxDist = math.Max(maxDist, metrics[i].NearestKM)
	}
	den := maxPop * maxDist
	for i := range scores {
		if den == 0 {
			scores[i] = 0
			continue
		}
		scores[i] /= den
	}
}
