package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hospital-siting/internal/analysis"
	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/model"
	"github.com/sells-group/hospital-siting/internal/suggest"
)

// Overrides are per-request changes to the configured analysis options.
// Nil fields keep the configured value.
type Overrides struct {
	Strategy        *string  `json:"strategy,omitempty"`
	Candidates      *string  `json:"candidates,omitempty"`
	K               *int     `json:"k,omitempty"`
	MinSeparationKM *float64 `json:"min_separation_km,omitempty"`
	GridSize        *int     `json:"grid_size,omitempty"`
	MinScore        *float64 `json:"min_score,omitempty"`
}

// parseOverrides reads overrides from query parameters.
func parseOverrides(q url.Values) (Overrides, error) {
	var o Overrides
	if v := q.Get("strategy"); v != "" {
		o.Strategy = &v
	}
	if v := q.Get("candidates"); v != "" {
		o.Candidates = &v
	}
	if v := q.Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, eris.Wrapf(model.ErrInvalidOptions, "k: %q is not an integer", v)
		}
		if n < 1 || n > suggest.MaxK {
			return o, eris.Wrapf(model.ErrInvalidOptions, "k: must be in [1,%d], got %d", suggest.MaxK, n)
		}
		o.K = &n
	}
	if v := q.Get("grid_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, eris.Wrapf(model.ErrInvalidOptions, "grid_size: %q is not an integer", v)
		}
		o.GridSize = &n
	}
	if v := q.Get("min_separation_km"); v != "" {
		f, err := parseFloat("min_separation_km", v)
		if err != nil {
			return o, err
		}
		o.MinSeparationKM = &f
	}
	if v := q.Get("min_score"); v != "" {
		f, err := parseFloat("min_score", v)
		if err != nil {
			return o, err
		}
		o.MinScore = &f
	}
	return o, nil
}

func parseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Wrapf(model.ErrInvalidOptions, "%s: %q is not a number", name, v)
	}
	return f, nil
}

// Apply returns cfg with the overrides applied. An explicit grid size
// replaces a configured cell size.
func (o Overrides) Apply(cfg config.AnalysisConfig) config.AnalysisConfig {
	if o.Strategy != nil {
		cfg.Strategy = *o.Strategy
	}
	if o.Candidates != nil {
		cfg.Candidates = *o.Candidates
	}
	if o.K != nil {
		cfg.TopK = *o.K
	}
	if o.MinSeparationKM != nil {
		cfg.MinSeparationKM = *o.MinSeparationKM
	}
	if o.GridSize != nil {
		cfg.GridSize = *o.GridSize
		cfg.CellKM = 0
	}
	if o.MinScore != nil {
		cfg.MinScore = *o.MinScore
		cfg.MinScoreEnabled = true
	}
	return normalize(cfg)
}

// normalize canonicalizes names so equivalent requests share a cache key.
func normalize(cfg config.AnalysisConfig) config.AnalysisConfig {
	cfg.Strategy = strings.ToLower(strings.TrimSpace(cfg.Strategy))
	if cfg.Strategy == "" {
		cfg.Strategy = suggest.StrategyCoverageGap
	}
	cfg.Candidates = strings.ToLower(strings.TrimSpace(cfg.Candidates))
	if cfg.Candidates == "" {
		cfg.Candidates = analysis.CandidatesGrid
	}
	if !cfg.MinScoreEnabled {
		cfg.MinScore = 0
	}
	return cfg
}

// cacheKey identifies the analysis a configuration produces.
func cacheKey(cfg config.AnalysisConfig) string {
	return fmt.Sprintf("%+v", normalize(cfg))
}
