// Package report encodes analysis results for display layers: GeoJSON for
// maps, XLSX workbooks and aligned text tables.
package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/hospital-siting/internal/analysis"
	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
)

// Feature kinds, stored in each feature's "kind" property.
const (
	KindZone       = "zone"
	KindHospital   = "hospital"
	KindSuggestion = "suggestion"
)

// GeoJSON builds a feature collection with one polygon per zone (a point at
// the center when the zone has no bounds), one point per hospital and one
// point per suggestion.
func GeoJSON(r *analysis.Report) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{}
	bounds := geom.NewBounds(geom.XY)

	for _, z := range r.Zones {
		g, err := zoneGeometry(z.UrbanZone)
		if err != nil {
			return nil, eris.Wrapf(err, "report: zone %s", z.ID)
		}
		bounds.Extend(g)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       z.ID,
			Geometry: g,
			Properties: map[string]interface{}{
				"kind":                      KindZone,
				"name":                      z.Name,
				"population":                z.Population,
				"deprivationIndex":          z.DeprivationIndex,
				"distanceToNearestHospital": z.DistanceToNearestHospital,
				"nearestHospitalId":         z.NearestHospitalID,
				"priorityScore":             z.PriorityScore,
				"color":                     z.Color,
				"coverage":                  z.Coverage,
			},
		})
	}

	for _, h := range r.Hospitals {
		g := point(h.Location)
		bounds.Extend(g)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       h.ID,
			Geometry: g,
			Properties: map[string]interface{}{
				"kind":     KindHospital,
				"name":     h.Name,
				"capacity": h.Capacity,
				"type":     string(h.Type),
			},
		})
	}

	for _, s := range r.Suggestions() {
		g := point(s.Center)
		bounds.Extend(g)
		props := map[string]interface{}{
			"kind":  KindSuggestion,
			"rank":  s.Rank,
			"name":  s.Name,
			"score": s.Score,
		}
		if s.ZoneID != "" {
			props["zoneId"] = s.ZoneID
		}
		for k, v := range s.Details {
			props[k] = v
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   g,
			Properties: props,
		})
	}

	if len(fc.Features) > 0 {
		fc.BBox = bounds
	}
	return fc, nil
}

// WriteGeoJSON encodes the report's feature collection to w.
func WriteGeoJSON(w io.Writer, r *analysis.Report) error {
	fc, err := GeoJSON(r)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "report: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write geojson")
	}
	return nil
}

func zoneGeometry(z model.UrbanZone) (geom.T, error) {
	if len(z.Bounds) < 3 {
		return point(z.Center), nil
	}
	return geo.Polygon(z.Bounds)
}

func point(c geo.Coordinate) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lng, c.Lat}).SetSRID(4326)
}
