package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/hospital-siting/internal/analysis"
)

// Sheet names used by WriteXLSX.
const (
	SheetZones       = "Zones"
	SheetSuggestions = "Suggestions"
)

var (
	zoneHeader = []string{
		"Zone ID", "Name", "Population", "Deprivation Index", "Nearest Hospital",
		"Distance (km)", "Priority Score", "Coverage", "Color",
	}
	suggestionHeader = []string{
		"Rank", "Name", "Score", "Latitude", "Longitude", "Zone ID",
		"Distance to Nearest (km)", "Accessible Facilities", "Population",
	}
)

// WriteXLSX writes a workbook with a Zones sheet (highest priority first) and
// a Suggestions sheet.
func WriteXLSX(w io.Writer, r *analysis.Report) error {
	f := xlsx.NewFile()

	zones, err := f.AddSheet(SheetZones)
	if err != nil {
		return eris.Wrap(err, "xlsx: add zones sheet")
	}
	addHeader(zones, zoneHeader)
	for _, z := range rankedZones(r) {
		row := zones.AddRow()
		row.AddCell().SetString(z.ID)
		row.AddCell().SetString(z.Name)
		row.AddCell().SetInt(z.Population)
		row.AddCell().SetFloat(z.DeprivationIndex)
		row.AddCell().SetString(z.NearestHospitalID)
		row.AddCell().SetFloat(round(z.DistanceToNearestHospital, 3))
		row.AddCell().SetFloat(round(z.PriorityScore, 4))
		row.AddCell().SetString(z.Coverage)
		row.AddCell().SetString(z.Color)
	}

	sugg, err := f.AddSheet(SheetSuggestions)
	if err != nil {
		return eris.Wrap(err, "xlsx: add suggestions sheet")
	}
	addHeader(sugg, suggestionHeader)
	for _, s := range r.Suggestions() {
		row := sugg.AddRow()
		row.AddCell().SetInt(s.Rank)
		row.AddCell().SetString(s.Name)
		row.AddCell().SetFloat(round(s.Score, 4))
		row.AddCell().SetFloat(s.Center.Lat)
		row.AddCell().SetFloat(s.Center.Lng)
		row.AddCell().SetString(s.ZoneID)
		if d, ok := s.Details["distance_to_nearest_km"]; ok {
			row.AddCell().SetFloat(round(d, 3))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetInt(int(s.Details["accessible_facilities"]))
		row.AddCell().SetInt(int(s.Details["population"]))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		row.AddCell().SetString(c)
	}
}
