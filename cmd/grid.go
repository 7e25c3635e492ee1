package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/hospital-siting/internal/analysis"
	"github.com/sells-group/hospital-siting/internal/report"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "List candidate grid points",
	Long: `Generate the candidate grid over the dataset's bounds and list each point
with the zone need attributed to it.

Examples:
  # 20x20 grid
  siting grid --size 20

  # Only points inside a zone polygon
  siting grid --size 40 --restrict`,
	RunE: runGrid,
}

func init() {
	f := gridCmd.Flags()
	f.Int("size", 0, "points per side (default from config)")
	f.Bool("restrict", false, "keep only points inside a zone polygon")
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset(cmd.Context(), "analysis")
	if err != nil {
		return err
	}

	ac := cfg.Analysis
	ac.Candidates = analysis.CandidatesGrid
	if size, _ := cmd.Flags().GetInt("size"); size > 0 {
		ac.GridSize = size
		ac.CellKM = 0
	}
	if restrict, _ := cmd.Flags().GetBool("restrict"); restrict {
		ac.RestrictToZones = true
	}

	set, err := analysis.New(ac).Candidates(ds.Zones, ds.Hospitals)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	b := set.Bounds
	fmt.Fprintf(out, "grid %dx%d over [%.5f,%.5f]-[%.5f,%.5f]: %d points\n\n",
		set.GridSize, set.GridSize, b.MinLat, b.MinLng, b.MaxLat, b.MaxLng, len(set.Candidates))
	return report.WriteCandidatesTable(out, set.Candidates)
}
