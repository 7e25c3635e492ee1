package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/report"
	"github.com/sells-group/hospital-siting/internal/scorer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score urban zones by hospital access need",
	Long: `Score every urban zone by distance to its nearest hospital, population and
deprivation index, and print the zones highest priority first.

Examples:
  # All zones
  siting score

  # Only zones above the configured priority threshold
  siting score --min-priority 0.6

  # Machine-readable output
  siting score --format json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.Float64("min-priority", -1, "only show zones with a priority score above this value")
	f.String("format", "table", "output format (table, json)")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ds, err := loadDataset(ctx, "source")
	if err != nil {
		return err
	}

	res, err := scorer.Score(ds.Zones, ds.Hospitals, scorer.WithCoverageKM(cfg.Analysis.CoverageKM))
	if err != nil {
		return eris.Wrap(err, "score zones")
	}
	if res.Degenerate {
		zap.L().Warn("degenerate input: a normalization denominator is zero; affected terms score 0")
	}

	zones := scorer.Rank(res.Zones)
	if minPriority, _ := cmd.Flags().GetFloat64("min-priority"); minPriority >= 0 {
		zones = scorer.AbovePriority(zones, minPriority)
	}

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	switch format {
	case "table":
		return report.WriteZonesTable(out, zones)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(zones), "encode zones")
	default:
		return eris.Errorf("unknown format %q (want table or json)", format)
	}
}
