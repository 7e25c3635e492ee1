package suggest

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
)

// Defaults used by DefaultOptions.
const (
	DefaultK               = 5
	DefaultMinSeparationKM = 5.0
	DefaultAccessRadiusKM  = 10.0
	DefaultWorkers         = 4
	DefaultBatchSize       = 256
)

// MaxK caps the number of suggestions a single run may request.
const MaxK = 1000

// Options control candidate scoring and selection.
type Options struct {
	Strategy        Strategy
	K               int
	MinSeparationKM float64
	// MinScore, when set, drops candidates with score <= *MinScore.
	MinScore       *float64
	AccessRadiusKM float64
	Workers        int
	BatchSize      int
}

// DefaultOptions returns options for the coverage_gap strategy.
func DefaultOptions() Options {
	return Options{
		Strategy:        CoverageGap{},
		K:               DefaultK,
		MinSeparationKM: DefaultMinSeparationKM,
		AccessRadiusKM:  DefaultAccessRadiusKM,
		Workers:         DefaultWorkers,
		BatchSize:       DefaultBatchSize,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	switch {
	case o.Strategy == nil:
		return eris.Wrap(model.ErrInvalidOptions, "suggest: strategy is required")
	case o.K < 1 || o.K > MaxK:
		return eris.Wrapf(model.ErrInvalidOptions, "suggest: k must be in [1,%d], got %d", MaxK, o.K)
	case o.MinSeparationKM < 0 || math.IsNaN(o.MinSeparationKM):
		return eris.Wrapf(model.ErrInvalidOptions, "suggest: min separation must be >= 0, got %g", o.MinSeparationKM)
	case o.AccessRadiusKM < 0 || math.IsNaN(o.AccessRadiusKM):
		return eris.Wrapf(model.ErrInvalidOptions, "suggest: access radius must be >= 0, got %g", o.AccessRadiusKM)
	case o.MinScore != nil && math.IsNaN(*o.MinScore):
		return eris.Wrap(model.ErrInvalidOptions, "suggest: min score is NaN")
	}
	return nil
}

// Select scores every candidate with opts.Strategy and greedily picks up to K
// of them, best first, such that each pick is farther than MinSeparationKM
// from every earlier pick and from every existing facility. Candidates with
// equal scores keep their input order.
//
// Scoring runs on opts.Workers goroutines in batches of opts.BatchSize and
// stops between batches when ctx is done. The result is identical to a serial
// run.
func Select(ctx context.Context, candidates []Candidate, facilities []geo.Coordinate, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("component", "suggest"), zap.String("strategy", opts.Strategy.Name()))

	if fr, ok := opts.Strategy.(FacilityRequirer); ok && fr.RequiresFacilities() && len(facilities) == 0 {
		return nil, eris.Wrapf(model.ErrInsufficientData, "suggest: strategy %s needs at least one facility", opts.Strategy.Name())
	}

	metrics, scores, err := scoreAll(ctx, candidates, facilities, opts)
	if err != nil {
		return nil, err
	}
	if n, ok := opts.Strategy.(Normalizer); ok {
		n.Normalize(candidates, metrics, scores)
	}

	ranked := rank(candidates, scores, opts.MinScore)

	res := &Result{
		Strategy:  opts.Strategy.Name(),
		Evaluated: len(candidates),
		Qualified: len(ranked),
		Ranked:    ranked,
	}

	picked := make([]geo.Coordinate, 0, min(opts.K, len(ranked)))
	for _, cp := range ranked {
		if len(res.Suggestions) == opts.K {
			break
		}
		if !separated(cp.Coordinate, picked, opts.MinSeparationKM) ||
			!separated(cp.Coordinate, facilities, opts.MinSeparationKM) {
			res.Excluded++
			continue
		}
		picked = append(picked, cp.Coordinate)
		res.Suggestions = append(res.Suggestions, newSuggestion(len(res.Suggestions)+1, cp, candidates[cp.Index], metrics[cp.Index]))
	}

	if len(res.Suggestions) == 0 {
		res.Status = StatusNoQualifyingCandidates
		res.Suggestions = []model.Suggestion{}
	} else {
		res.Status = StatusOK
	}

	log.Debug("selection complete",
		zap.Int("evaluated", res.Evaluated),
		zap.Int("qualified", res.Qualified),
		zap.Int("excluded", res.Excluded),
		zap.Int("selected", len(res.Suggestions)),
	)
	return res, nil
}

// scoreAll measures and scores candidates in parallel batches.
func scoreAll(ctx context.Context, candidates []Candidate, facilities []geo.Coordinate, opts Options) ([]Metrics, []float64, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	batch := opts.BatchSize
	if batch < 1 {
		batch = DefaultBatchSize
	}

	metrics := make([]Metrics, len(candidates))
	scores := make([]float64, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(candidates); start += batch {
		if gctx.Err() != nil {
			break
		}
		end := min(start+batch, len(candidates))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				m := measure(candidates[i].Location, facilities, opts.AccessRadiusKM)
				metrics[i] = m
				scores[i] = opts.Strategy.Score(candidates[i], m)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "suggest: score candidates")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "suggest: score candidates")
	}
	return metrics, scores, nil
}

func measure(p geo.Coordinate, facilities []geo.Coordinate, accessKM float64) Metrics {
	var m Metrics
	if _, km, ok := geo.Nearest(p, facilities); ok {
		m.NearestKM = km
		m.HasNearest = true
	}
	m.Accessible = geo.CountWithin(p, facilities, accessKM)
	return m
}

// rank drops NaN and below-threshold scores and sorts the rest descending,
// keeping input order among equal scores.
func rank(candidates []Candidate, scores []float64, minScore *float64) []model.CandidatePoint {
	out := make([]model.CandidatePoint, 0, len(candidates))
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if minScore != nil && s <= *minScore {
			continue
		}
		out = append(out, model.CandidatePoint{Index: i, Coordinate: candidates[i].Location, Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// separated reports whether p is strictly farther than km from every point.
func separated(p geo.Coordinate, pts []geo.Coordinate, km float64) bool {
	for _, q := range pts {
		if geo.Distance(p, q) <= km {
			return false
		}
	}
	return true
}

func newSuggestion(rank int, cp model.CandidatePoint, c Candidate, m Metrics) model.Suggestion {
	details := map[string]float64{
		"score":                 cp.Score,
		"accessible_facilities": float64(m.Accessible),
		"population":            float64(c.Population),
		"deprivation_index":     c.DeprivationIndex,
		"lat":                   c.Location.Lat,
		"lng":                   c.Location.Lng,
	}
	if m.HasNearest {
		details["distance_to_nearest_km"] = m.NearestKM
	}

	name := fmt.Sprintf("Site %d at (%.4f, %.4f)", rank, c.Location.Lat, c.Location.Lng)
	if c.ZoneName != "" {
		name = fmt.Sprintf("Site %d near %s", rank, c.ZoneName)
	}

	return model.Suggestion{
		Rank:    rank,
		Name:    name,
		Score:   cp.Score,
		Center:  c.Location,
		ZoneID:  c.ZoneID,
		Details: details,
	}
}
