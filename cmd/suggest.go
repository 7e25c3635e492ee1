package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hospital-siting/internal/analysis"
	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/report"
	"github.com/sells-group/hospital-siting/internal/suggest"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest sites for new hospitals",
	Long: fmt.Sprintf(`Score candidate points by how underserved they are and select a ranked set of
sites that keeps at least --min-separation-km from each other and from existing
hospitals.

Strategies: %s

Examples:
  # Defaults from config
  siting suggest

  # Population-weighted demand over zone centers
  siting suggest --strategy demand_log --candidates zones

  # Ten sites at least 8 km apart, scoring above 2
  siting suggest --k 10 --min-separation-km 8 --min-score 2`, strings.Join(suggest.Strategies(), ", ")),
	RunE: runSuggest,
}

func init() {
	f := suggestCmd.Flags()
	f.String("strategy", "", "candidate scoring strategy (default from config)")
	f.Int("k", 0, "maximum number of suggestions (default from config)")
	f.Float64("min-separation-km", -1, "minimum distance between sites and from hospitals (default from config)")
	f.Int("grid-size", 0, "candidate grid points per side (default from config)")
	f.Float64("min-score", 0, "drop candidates scoring at or below this value")
	f.String("candidates", "", "candidate source: grid or zones (default from config)")
	f.String("format", "table", "output format (table, json)")
	rootCmd.AddCommand(suggestCmd)
}

// suggestConfig applies the command's flags to the configured analysis.
func suggestConfig(cmd *cobra.Command, base config.AnalysisConfig) config.AnalysisConfig {
	f := cmd.Flags()
	ac := base
	if v, _ := f.GetString("strategy"); v != "" {
		ac.Strategy = v
	}
	if v, _ := f.GetInt("k"); v > 0 {
		ac.TopK = v
	}
	if v, _ := f.GetFloat64("min-separation-km"); v >= 0 {
		ac.MinSeparationKM = v
	}
	if v, _ := f.GetInt("grid-size"); v > 0 {
		ac.GridSize = v
		ac.CellKM = 0
	}
	if f.Changed("min-score") {
		v, _ := f.GetFloat64("min-score")
		ac.MinScore = v
		ac.MinScoreEnabled = true
	}
	if v, _ := f.GetString("candidates"); v != "" {
		ac.Candidates = v
	}
	return ac
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ds, err := loadDataset(ctx, "analysis")
	if err != nil {
		return err
	}

	rep, err := analysis.New(suggestConfig(cmd, cfg.Analysis)).Run(ctx, ds)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	switch format {
	case "table":
		return report.WriteSummary(out, rep)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rep.Selection), "encode suggestions")
	default:
		return eris.Errorf("unknown format %q (want table or json)", format)
	}
}
