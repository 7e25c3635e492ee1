package geo

import "math"

// EarthRadiusKM is the mean Earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

// Distance returns the great-circle distance between a and b in kilometers.
// Inputs are not validated.
func Distance(a, b Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*(math.Cos(lat1)*math.Cos(lat2))
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Nearest returns the index of the point in pts closest to p and its distance
// in kilometers. ok is false when pts is empty. Ties resolve to the lowest index.
func Nearest(p Coordinate, pts []Coordinate) (idx int, km float64, ok bool) {
	if len(pts) == 0 {
		return -1, 0, false
	}
	idx, km = 0, Distance(p, pts[0])
	for i := 1; i < len(pts); i++ {
		if d := Distance(p, pts[i]); d < km {
			idx, km = i, d
		}
	}
	return idx, km, true
}

// CountWithin returns how many points lie within radiusKM of p (inclusive).
func CountWithin(p Coordinate, pts []Coordinate, radiusKM float64) int {
	n := 0
	for _, q := range pts {
		if Distance(p, q) <= radiusKM {
			n++
		}
	}
	return n
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
