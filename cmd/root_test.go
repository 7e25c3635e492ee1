package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/report"
)

const hospitalsJSON = `[
  {"id": "h1", "name": "Hospital Civil", "location": {"lat": 20.0, "lng": -103.0}, "capacity": 400, "type": "General"},
  {"id": "h2", "name": "Clinica Norte", "location": {"lat": 20.1, "lng": -103.1}, "capacity": 40, "type": "Clinic"}
]`

const zonesJSON = `[
  {"id": "z1", "name": "Centro", "population": 10000, "deprivationIndex": 0.8, "center": {"lat": 20.05, "lng": -103.05}},
  {"id": "z2", "name": "Oblatos", "population": 4000, "deprivationIndex": 0.3, "center": {"lat": 20.3, "lng": -103.3}}
]`

// setupConfig writes a small dataset to a temp dir and points the global
// config at it.
func setupConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	hp := filepath.Join(dir, "hospitals.json")
	zp := filepath.Join(dir, "urban-zones.json")
	require.NoError(t, os.WriteFile(hp, []byte(hospitalsJSON), 0o644))
	require.NoError(t, os.WriteFile(zp, []byte(zonesJSON), 0o644))

	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = &config.Config{
		Source: config.SourceConfig{Driver: "json", HospitalsPath: hp, ZonesPath: zp},
		Analysis: config.AnalysisConfig{
			Strategy:          "coverage_gap",
			Candidates:        "zones",
			GridSize:          10,
			PaddingDeg:        0.05,
			TopK:              5,
			MinSeparationKM:   5,
			AccessRadiusKM:    10,
			DemandRadiusKM:    5,
			CoverageKM:        10,
			PriorityThreshold: 0.6,
		},
		Server: config.ServerConfig{Port: 8080},
	}
}

// newTestCommand resets c's flags to their defaults, parses args and
// captures output in the returned buffer.
func newTestCommand(t *testing.T, c *cobra.Command, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	require.NoError(t, c.Flags().Parse(args))

	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetContext(context.Background())
	return c, &buf
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"score", "grid", "suggest", "export", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "siting", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{scoreCmd, []string{"min-priority", "format"}},
		{gridCmd, []string{"size", "restrict"}},
		{suggestCmd, []string{"strategy", "k", "min-separation-km", "grid-size", "min-score", "candidates", "format"}},
		{exportCmd, []string{"format", "out"}},
		{serveCmd, []string{"port"}},
	}
	for _, tt := range tests {
		for _, name := range tt.flags {
			assert.NotNil(t, tt.cmd.Flags().Lookup(name), "%s should have --%s", tt.cmd.Name(), name)
		}
	}
	assert.Contains(t, suggestCmd.Long, "demand_quadratic")
}

func TestRunScore(t *testing.T) {
	setupConfig(t)

	cmd, buf := newTestCommand(t, scoreCmd)
	require.NoError(t, runScore(cmd, nil))
	assert.Contains(t, buf.String(), "Centro")
	assert.Contains(t, buf.String(), "Oblatos")

	// Centro scores about 0.2 and Oblatos 0.12.
	cmd, buf = newTestCommand(t, scoreCmd, "--min-priority", "0.15")
	require.NoError(t, runScore(cmd, nil))
	assert.Contains(t, buf.String(), "Centro")
	assert.NotContains(t, buf.String(), "Oblatos")

	cmd, _ = newTestCommand(t, scoreCmd, "--format", "csv")
	assert.Error(t, runScore(cmd, nil))
}

func TestRunSuggest(t *testing.T) {
	setupConfig(t)

	cmd, buf := newTestCommand(t, suggestCmd)
	require.NoError(t, runSuggest(cmd, nil))
	assert.Contains(t, buf.String(), "strategy coverage_gap")
	assert.Contains(t, buf.String(), "Site 1 near Oblatos")
}

func TestRunSuggest_NoSites(t *testing.T) {
	setupConfig(t)

	cmd, buf := newTestCommand(t, suggestCmd, "--min-score", "100000")
	require.NoError(t, runSuggest(cmd, nil))
	assert.Contains(t, buf.String(), report.NoSitesMessage)
}

func TestRunSuggest_InvalidStrategy(t *testing.T) {
	setupConfig(t)

	cmd, _ := newTestCommand(t, suggestCmd, "--strategy", "nearest")
	assert.Error(t, runSuggest(cmd, nil))
}

func TestRunSuggest_KTooLarge(t *testing.T) {
	setupConfig(t)

	cmd, _ := newTestCommand(t, suggestCmd, "--k", "2000000000")
	assert.Error(t, runSuggest(cmd, nil))
}

func TestSuggestConfig(t *testing.T) {
	base := config.AnalysisConfig{Strategy: "coverage_gap", Candidates: "grid", TopK: 5, MinSeparationKM: 5, GridSize: 50, CellKM: 1}

	cmd, _ := newTestCommand(t, suggestCmd)
	assert.Equal(t, base, suggestConfig(cmd, base))

	cmd, _ = newTestCommand(t, suggestCmd,
		"--strategy", "demand_log", "--k", "3", "--min-separation-km", "0",
		"--grid-size", "20", "--min-score", "0", "--candidates", "zones")
	got := suggestConfig(cmd, base)
	assert.Equal(t, "demand_log", got.Strategy)
	assert.Equal(t, 3, got.TopK)
	assert.Zero(t, got.MinSeparationKM)
	assert.Equal(t, 20, got.GridSize)
	assert.Zero(t, got.CellKM)
	assert.True(t, got.MinScoreEnabled)
	assert.Equal(t, "zones", got.Candidates)
}

func TestRunGrid(t *testing.T) {
	setupConfig(t)

	cmd, buf := newTestCommand(t, gridCmd, "--size", "4")
	require.NoError(t, runGrid(cmd, nil))
	assert.Contains(t, buf.String(), "grid 4x4")
	assert.Contains(t, buf.String(), "16 points")
}

func TestRunExport(t *testing.T) {
	setupConfig(t)
	out := filepath.Join(t.TempDir(), "siting.geojson")

	cmd, _ := newTestCommand(t, exportCmd, "--format", "geojson", "--out", out)
	require.NoError(t, runExport(cmd, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)

	cmd, buf := newTestCommand(t, exportCmd, "--format", "xlsx")
	require.NoError(t, runExport(cmd, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")), "xlsx output should be a zip archive")

	cmd, _ = newTestCommand(t, exportCmd, "--format", "pdf")
	assert.Error(t, runExport(cmd, nil))
}

func TestLoadDataset_InvalidConfig(t *testing.T) {
	setupConfig(t)
	cfg.Source.Driver = "csv"

	_, err := loadDataset(context.Background(), "source")
	assert.Error(t, err)
}
