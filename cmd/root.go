package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/source"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "siting",
	Short: "Hospital siting analysis",
	Long:  "Scores urban zones by distance to existing hospitals, population and deprivation, and suggests spatially separated sites for new facilities.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadDataset validates the configuration for mode and loads the configured
// dataset.
func loadDataset(ctx context.Context, mode string) (*source.Dataset, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	loader, err := source.New(cfg.Source)
	if err != nil {
		return nil, err
	}

	ds, err := source.LoadValidated(ctx, loader)
	if err != nil {
		return nil, err
	}

	zap.L().Info("dataset loaded",
		zap.String("origin", ds.Origin),
		zap.Int("hospitals", len(ds.Hospitals)),
		zap.Int("zones", len(ds.Zones)),
	)
	return ds, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
