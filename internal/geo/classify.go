// Package geo provides coordinates, great-circle distance, polygon regions, and
// coverage classification for hospital siting.
package geo

// Coverage classification constants.
const (
	ClassCovered = "covered"
	ClassFringe  = "fringe"
	ClassGap     = "gap"
)

// DefaultCoverageKM is the distance within which a hospital is considered to
// cover a location.
const DefaultCoverageKM = 10.0

// fringeMultiplier scales the coverage distance to the outer fringe band.
const fringeMultiplier = 2.0

// Classify returns the coverage classification for a location whose nearest
// hospital is distanceKM away.
// Rules:
//   - covered: distance <= coverageKM
//   - fringe: distance <= 2 * coverageKM
//   - gap: anything farther
//
// A non-positive coverageKM falls back to DefaultCoverageKM.
func Classify(distanceKM, coverageKM float64) string {
	if coverageKM <= 0 {
		coverageKM = DefaultCoverageKM
	}
	if distanceKM <= coverageKM {
		return ClassCovered
	}
	if distanceKM <= coverageKM*fringeMultiplier {
		return ClassFringe
	}
	return ClassGap
}
