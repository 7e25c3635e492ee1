package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/analysis"
	"github.com/sells-group/hospital-siting/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export scored zones and suggestions",
	Long: `Run an analysis with the configured options and write the result for a map
or spreadsheet.

Examples:
  siting export --format geojson --out siting.geojson
  siting export --format xlsx --out siting.xlsx`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.String("format", "geojson", "output format (geojson, xlsx)")
	f.String("out", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

// exportWriter returns the encoder for format.
func exportWriter(format string) (func(io.Writer, *analysis.Report) error, error) {
	switch format {
	case "geojson":
		return report.WriteGeoJSON, nil
	case "xlsx":
		return report.WriteXLSX, nil
	default:
		return nil, eris.Errorf("unknown format %q (want geojson or xlsx)", format)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	write, err := exportWriter(format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ds, err := loadDataset(ctx, "analysis")
	if err != nil {
		return err
	}

	rep, err := analysis.New(cfg.Analysis).Run(ctx, ds)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return write(cmd.OutOrStdout(), rep)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f, rep); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}

	zap.L().Info("export written",
		zap.String("format", format),
		zap.String("path", path),
		zap.String("run_id", rep.RunID),
		zap.Int("suggestions", len(rep.Suggestions())),
	)
	return nil
}
