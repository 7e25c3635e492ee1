package report

import (
	"io"
	"math"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/hospital-siting/internal/analysis"
	"github.com/sells-group/hospital-siting/internal/model"
	"github.com/sells-group/hospital-siting/internal/scorer"
	"github.com/sells-group/hospital-siting/internal/suggest"
)

// NoSitesMessage is printed when a run produced no suggestions.
const NoSitesMessage = "no sites found: no candidate passed scoring and thresholds"

// newPrinter returns a printer that formats numbers with thousands separators.
func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// WriteZonesTable writes zones as an aligned table, highest priority first.
func WriteZonesTable(w io.Writer, zones []model.ScoredZone) error {
	printer := newPrinter()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printer.Fprintf(tw, "RANK\tZONE\tNAME\tPOPULATION\tDEPRIVATION\tNEAREST\tDISTANCE KM\tPRIORITY\tCOVERAGE\n")
	for i, z := range scorer.Rank(zones) {
		printer.Fprintf(tw, "%d\t%s\t%s\t%d\t%.2f\t%s\t%.2f\t%.3f\t%s\n",
			i+1, z.ID, z.Name, z.Population, z.DeprivationIndex,
			z.NearestHospitalID, z.DistanceToNearestHospital, z.PriorityScore, z.Coverage)
	}
	return eris.Wrap(tw.Flush(), "report: flush zones table")
}

// WriteSuggestionsTable writes suggestions as an aligned table, or
// NoSitesMessage when there are none.
func WriteSuggestionsTable(w io.Writer, suggestions []model.Suggestion) error {
	if len(suggestions) == 0 {
		_, err := io.WriteString(w, NoSitesMessage+"\n")
		return eris.Wrap(err, "report: write suggestions table")
	}

	printer := newPrinter()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printer.Fprintf(tw, "RANK\tNAME\tSCORE\tLAT\tLNG\tNEAREST KM\tACCESSIBLE\tPOPULATION\n")
	for _, s := range suggestions {
		nearest := "-"
		if d, ok := s.Details["distance_to_nearest_km"]; ok {
			nearest = printer.Sprintf("%.2f", d)
		}
		printer.Fprintf(tw, "%d\t%s\t%.3f\t%.5f\t%.5f\t%s\t%d\t%d\n",
			s.Rank, s.Name, s.Score, s.Center.Lat, s.Center.Lng, nearest,
			int(s.Details["accessible_facilities"]), int(s.Details["population"]))
	}
	return eris.Wrap(tw.Flush(), "report: flush suggestions table")
}

// WriteCandidatesTable writes candidate points with the need attributed to
// each.
func WriteCandidatesTable(w io.Writer, candidates []suggest.Candidate) error {
	printer := newPrinter()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printer.Fprintf(tw, "INDEX\tLAT\tLNG\tZONE\tPOPULATION\tDEPRIVATION\n")
	for i, c := range candidates {
		zone := c.ZoneID
		if zone == "" {
			zone = "-"
		}
		printer.Fprintf(tw, "%d\t%.5f\t%.5f\t%s\t%d\t%.2f\n",
			i, c.Location.Lat, c.Location.Lng, zone, c.Population, c.DeprivationIndex)
	}
	return eris.Wrap(tw.Flush(), "report: flush candidates table")
}

// WriteSummary writes a short run summary followed by the suggestions table.
func WriteSummary(w io.Writer, r *analysis.Report) error {
	sel := r.Selection
	newPrinter().Fprintf(w, "run %s  strategy %s  candidates %s  evaluated %d  qualified %d\n\n",
		r.RunID, sel.Strategy, r.Candidates, sel.Evaluated, sel.Qualified)
	return WriteSuggestionsTable(w, r.Suggestions())
}

func rankedZones(r *analysis.Report) []model.ScoredZone {
	return scorer.Rank(r.Zones)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
