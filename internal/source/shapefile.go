package source

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
)

// Attribute columns read from shapefiles. Matching is case-insensitive.
var (
	ZoneFields     = []string{"ZONE_ID", "NAME", "POP", "DEPRIV"}
	HospitalFields = []string{"HOSP_ID", "NAME", "CAPACITY", "TYPE"}
)

// ShapefileLoader reads zones from a polygon shapefile and hospitals from a
// point shapefile. A zone's center is the centroid of its outer ring.
type ShapefileLoader struct {
	HospitalsPath string
	ZonesPath     string
}

// Load implements Loader.
func (l *ShapefileLoader) Load(ctx context.Context) (*Dataset, error) {
	zones, err := readZoneShapefile(l.ZonesPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "source: load")
	}
	hospitals, err := readHospitalShapefile(l.HospitalsPath)
	if err != nil {
		return nil, err
	}
	return &Dataset{Hospitals: hospitals, Zones: zones, Origin: "shapefile:" + l.ZonesPath}, nil
}

// shapefileRecords iterates a shapefile, calling fn with each shape and an
// attribute lookup by column name.
func shapefileRecords(path string, fn func(shape shp.Shape, attr func(string) string) error) error {
	reader, err := shp.Open(path)
	if err != nil {
		return eris.Wrapf(err, "source: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			skipped++
			continue
		}
		attr := func(col string) string {
			idx, ok := fieldIdx[strings.ToLower(col)]
			if !ok {
				return ""
			}
			return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
		}
		if err := fn(shape, attr); err != nil {
			return eris.Wrapf(err, "source: %s", path)
		}
	}
	if err := reader.Err(); err != nil {
		return eris.Wrapf(err, "source: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return nil
}

func readZoneShapefile(path string) ([]model.UrbanZone, error) {
	var zones []model.UrbanZone
	err := shapefileRecords(path, func(shape shp.Shape, attr func(string) string) error {
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return eris.Errorf("zone %s: expected polygon, got %T", attr("ZONE_ID"), shape)
		}
		ring := outerRing(poly)
		center, err := geo.Centroid(ring)
		if err != nil {
			return eris.Wrapf(err, "zone %s: centroid", attr("ZONE_ID"))
		}
		pop, err := parseInt(attr("POP"))
		if err != nil {
			return eris.Wrapf(model.ErrInvalidRecord, "zone %s: POP %q", attr("ZONE_ID"), attr("POP"))
		}
		dep, err := parseFloat(attr("DEPRIV"))
		if err != nil {
			return eris.Wrapf(model.ErrInvalidRecord, "zone %s: DEPRIV %q", attr("ZONE_ID"), attr("DEPRIV"))
		}
		zones = append(zones, model.UrbanZone{
			ID:               attr("ZONE_ID"),
			Name:             attr("NAME"),
			Population:       pop,
			DeprivationIndex: dep,
			Center:           center,
			Bounds:           ring,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return zones, nil
}

func readHospitalShapefile(path string) ([]model.Hospital, error) {
	var hospitals []model.Hospital
	err := shapefileRecords(path, func(shape shp.Shape, attr func(string) string) error {
		pt, ok := shape.(*shp.Point)
		if !ok {
			return eris.Errorf("hospital %s: expected point, got %T", attr("HOSP_ID"), shape)
		}
		capacity := 0
		if s := attr("CAPACITY"); s != "" {
			n, err := parseInt(s)
			if err != nil {
				return eris.Wrapf(model.ErrInvalidRecord, "hospital %s: CAPACITY %q", attr("HOSP_ID"), s)
			}
			capacity = n
		}
		h := model.Hospital{
			ID:       attr("HOSP_ID"),
			Name:     attr("NAME"),
			Location: geo.Coordinate{Lat: pt.Y, Lng: pt.X},
			Capacity: capacity,
		}
		if s := attr("TYPE"); s != "" {
			t, err := model.ParseHospitalType(s)
			if err != nil {
				return eris.Wrapf(err, "hospital %s", h.ID)
			}
			h.Type = t
		}
		hospitals = append(hospitals, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hospitals, nil
}

// outerRing returns the first part of the polygon as coordinates, without the
// closing point.
func outerRing(p *shp.Polygon) []geo.Coordinate {
	end := len(p.Points)
	if p.NumParts > 1 {
		end = int(p.Parts[1])
	}
	pts := p.Points[:end]
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	ring := make([]geo.Coordinate, len(pts))
	for i, pt := range pts {
		ring[i] = geo.Coordinate{Lat: pt.Y, Lng: pt.X}
	}
	return ring
}

func parseInt(s string) (int, error) {
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse number %q", s)
	}
	return f, nil
}
