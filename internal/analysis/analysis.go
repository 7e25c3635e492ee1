// Package analysis runs one end-to-end siting analysis over a dataset: zone
// scoring, candidate generation, need attribution and site selection.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/grid"
	"github.com/sells-group/hospital-siting/internal/model"
	"github.com/sells-group/hospital-siting/internal/scorer"
	"github.com/sells-group/hospital-siting/internal/source"
	"github.com/sells-group/hospital-siting/internal/suggest"
)

// Candidate modes.
const (
	CandidatesGrid  = "grid"
	CandidatesZones = "zones"
)

// Report is the immutable output of one run.
type Report struct {
	RunID    string    `json:"runId"`
	Origin   string    `json:"origin,omitempty"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`

	Hospitals  []model.Hospital   `json:"hospitals"`
	Zones      []model.ScoredZone `json:"zones"`
	Degenerate bool               `json:"degenerate"`
	// HighPriority are the zones above the configured priority threshold,
	// highest first.
	HighPriority []model.ScoredZone `json:"highPriority"`

	Bounds     grid.BBox `json:"bounds"`
	Candidates string    `json:"candidates"`
	GridSize   int       `json:"gridSize,omitempty"`

	Selection *suggest.Result `json:"selection"`
}

// Status returns the selection status.
func (r *Report) Status() suggest.Status {
	if r.Selection == nil {
		return suggest.StatusNoQualifyingCandidates
	}
	return r.Selection.Status
}

// Suggestions returns the ranked suggestions.
func (r *Report) Suggestions() []model.Suggestion {
	if r.Selection == nil {
		return nil
	}
	return r.Selection.Suggestions
}

// Analyzer runs analyses with a fixed configuration.
type Analyzer struct {
	cfg config.AnalysisConfig
	log *zap.Logger
}

// New returns an Analyzer for cfg.
func New(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		log: zap.L().With(zap.String("component", "analysis")),
	}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() config.AnalysisConfig { return a.cfg }

// SelectOptions converts the analysis configuration to selector options.
func SelectOptions(cfg config.AnalysisConfig) (suggest.Options, error) {
	strategy, err := suggest.ParseStrategy(cfg.Strategy)
	if err != nil {
		return suggest.Options{}, err
	}
	opts := suggest.Options{
		Strategy:        strategy,
		K:               cfg.TopK,
		MinSeparationKM: cfg.MinSeparationKM,
		AccessRadiusKM:  cfg.AccessRadiusKM,
		Workers:         cfg.Workers,
		BatchSize:       cfg.BatchSize,
	}
	if cfg.MinScoreEnabled {
		v := cfg.MinScore
		opts.MinScore = &v
	}
	return opts, opts.Validate()
}

// Run scores the dataset's zones, builds candidates, and selects suggested
// sites. The dataset is validated first and never modified.
func (a *Analyzer) Run(ctx context.Context, ds *source.Dataset) (*Report, error) {
	started := time.Now()
	if ds == nil {
		return nil, eris.Wrap(model.ErrInsufficientData, "analysis: no dataset")
	}
	if err := ds.Validate(); err != nil {
		return nil, eris.Wrap(err, "analysis: validate dataset")
	}

	opts, err := SelectOptions(a.cfg)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: options")
	}

	runID := uuid.New().String()
	log := a.log.With(zap.String("run_id", runID))

	scored, err := scorer.Score(ds.Zones, ds.Hospitals, scorer.WithCoverageKM(a.cfg.CoverageKM))
	if err != nil {
		return nil, eris.Wrap(err, "analysis: score zones")
	}

	set, err := a.Candidates(ds.Zones, ds.Hospitals)
	if err != nil {
		return nil, err
	}

	sel, err := suggest.Select(ctx, set.Candidates, model.Locations(ds.Hospitals), opts)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: select sites")
	}

	r := &Report{
		RunID:        runID,
		Origin:       ds.Origin,
		Started:      started.UTC(),
		Hospitals:    ds.Hospitals,
		Zones:        scored.Zones,
		Degenerate:   scored.Degenerate,
		HighPriority: scorer.AbovePriority(scorer.Rank(scored.Zones), a.cfg.PriorityThreshold),
		Bounds:       set.Bounds,
		Candidates:   set.Mode,
		GridSize:     set.GridSize,
		Selection:    sel,
	}
	r.Duration = time.Since(started).Round(time.Microsecond).String()

	log.Info("analysis complete",
		zap.String("strategy", sel.Strategy),
		zap.String("status", string(sel.Status)),
		zap.Int("zones", len(r.Zones)),
		zap.Int("candidates", sel.Evaluated),
		zap.Int("suggestions", len(sel.Suggestions)),
		zap.String("duration", r.Duration),
	)
	return r, nil
}

// CandidateSet is the candidate list for one run and how it was built.
type CandidateSet struct {
	Mode       string
	Bounds     grid.BBox
	GridSize   int
	Candidates []suggest.Candidate
}

// Candidates builds the candidate set for zones and hospitals according to the
// configured mode. Grid candidates are attributed the need of the zone that
// contains them, or else of the nearest zone center within demand_radius_km.
func (a *Analyzer) Candidates(zones []model.UrbanZone, hospitals []model.Hospital) (*CandidateSet, error) {
	bounds, err := grid.BoundsOf(extent(zones, hospitals), a.cfg.PaddingDeg)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: bounds")
	}

	switch a.cfg.Candidates {
	case CandidatesZones:
		out := make([]suggest.Candidate, len(zones))
		for i, z := range zones {
			out[i] = suggest.Candidate{
				Location:         z.Center,
				Population:       z.Population,
				DeprivationIndex: z.DeprivationIndex,
				ZoneID:           z.ID,
				ZoneName:         z.Name,
			}
		}
		return &CandidateSet{Mode: CandidatesZones, Bounds: bounds, Candidates: out}, nil
	case "", CandidatesGrid:
	default:
		return nil, eris.Wrapf(model.ErrInvalidOptions, "analysis: unknown candidate mode %q", a.cfg.Candidates)
	}

	g, err := a.Grid(bounds, zones)
	if err != nil {
		return nil, err
	}

	attr := newAttributor(zones, a.cfg.DemandRadiusKM)
	var out []suggest.Candidate
	for _, p := range g.Points() {
		out = append(out, attr.candidate(p))
	}
	return &CandidateSet{Mode: CandidatesGrid, Bounds: bounds, GridSize: g.Size(), Candidates: out}, nil
}

// Grid returns the candidate grid over bounds with the configured size and
// filters.
func (a *Analyzer) Grid(bounds grid.BBox, zones []model.UrbanZone) (*grid.Grid, error) {
	size := a.cfg.GridSize
	if a.cfg.CellKM > 0 {
		n, err := grid.SizeForCellKM(bounds, a.cfg.CellKM)
		if err != nil {
			return nil, eris.Wrap(err, "analysis: grid size")
		}
		size = n
	}

	var opts []grid.Option
	if a.cfg.RestrictToZones {
		region, err := zoneRegion(zones)
		if err != nil {
			return nil, eris.Wrap(err, "analysis: zone region")
		}
		if region.Len() > 0 {
			opts = append(opts, grid.WithRegion(region))
		} else {
			a.log.Warn("restrict_to_zones set but no zone has bounds; using full grid")
		}
	}
	if a.cfg.MaxRadiusKM > 0 {
		opts = append(opts, grid.WithMaxRadius(bounds.Center(), a.cfg.MaxRadiusKM))
	}

	g, err := grid.New(bounds, size, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: grid")
	}
	return g, nil
}

// extent collects every coordinate that should fall inside the analysis bounds.
func extent(zones []model.UrbanZone, hospitals []model.Hospital) []geo.Coordinate {
	var pts []geo.Coordinate
	for _, h := range hospitals {
		pts = append(pts, h.Location)
	}
	for _, z := range zones {
		pts = append(pts, z.Center)
		pts = append(pts, z.Bounds...)
	}
	return pts
}

func zoneRegion(zones []model.UrbanZone) (*geo.Region, error) {
	var rings [][]geo.Coordinate
	for _, z := range zones {
		if len(z.Bounds) >= 3 {
			rings = append(rings, z.Bounds)
		}
	}
	if len(rings) == 0 {
		return nil, nil
	}
	return geo.NewRegion(rings...)
}
