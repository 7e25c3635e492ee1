package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
	"github.com/sells-group/hospital-siting/internal/source"
	"github.com/sells-group/hospital-siting/internal/suggest"
)

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Strategy:          suggest.StrategyCoverageGap,
		Candidates:        CandidatesGrid,
		GridSize:          10,
		PaddingDeg:        0.05,
		TopK:              5,
		MinSeparationKM:   5,
		AccessRadiusKM:    10,
		DemandRadiusKM:    5,
		CoverageKM:        10,
		PriorityThreshold: 0.6,
		Workers:           2,
		BatchSize:         16,
	}
}

func testDataset() *source.Dataset {
	return &source.Dataset{
		Hospitals: []model.Hospital{
			{ID: "h1", Name: "Hospital Civil", Location: geo.Coordinate{Lat: 20.0, Lng: -103.0}, Capacity: 400, Type: model.HospitalGeneral},
			{ID: "h2", Name: "Clinica Norte", Location: geo.Coordinate{Lat: 20.1, Lng: -103.1}, Capacity: 40, Type: model.HospitalClinic},
		},
		Zones: []model.UrbanZone{
			{
				ID: "z1", Name: "Centro", Population: 10000, DeprivationIndex: 0.8,
				Center: geo.Coordinate{Lat: 20.05, Lng: -103.05},
				Bounds: []geo.Coordinate{{Lat: 20.0, Lng: -103.1}, {Lat: 20.1, Lng: -103.1}, {Lat: 20.1, Lng: -103.0}, {Lat: 20.0, Lng: -103.0}},
			},
		},
		Origin: "test",
	}
}

func TestRun_ZoneCandidates(t *testing.T) {
	cfg := testConfig()
	cfg.Candidates = CandidatesZones

	r, err := New(cfg).Run(context.Background(), testDataset())
	require.NoError(t, err)

	_, err = uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "test", r.Origin)
	assert.Equal(t, CandidatesZones, r.Candidates)

	require.Len(t, r.Zones, 1)
	assert.InDelta(t, 0.8, r.Zones[0].PriorityScore, 1e-9)
	require.Len(t, r.HighPriority, 1)
	assert.Equal(t, "z1", r.HighPriority[0].ID)

	assert.Equal(t, suggest.StatusOK, r.Status())
	require.Len(t, r.Suggestions(), 1)
	s := r.Suggestions()[0]
	assert.Equal(t, "Site 1 near Centro", s.Name)
	assert.Equal(t, "z1", s.ZoneID)
	assert.InDelta(t, r.Zones[0].DistanceToNearestHospital, s.Score, 1e-9)
}

func TestRun_GridCandidates(t *testing.T) {
	r, err := New(testConfig()).Run(context.Background(), testDataset())
	require.NoError(t, err)

	assert.Equal(t, CandidatesGrid, r.Candidates)
	assert.Equal(t, 10, r.GridSize)
	assert.Equal(t, 100, r.Selection.Evaluated)
	assert.NotEmpty(t, r.Suggestions())
	assert.LessOrEqual(t, len(r.Suggestions()), 5)

	assert.InDelta(t, 19.95, r.Bounds.MinLat, 1e-9)
	assert.InDelta(t, 20.15, r.Bounds.MaxLat, 1e-9)

	for _, s := range r.Suggestions() {
		for _, h := range r.Hospitals {
			assert.Greater(t, geo.Distance(s.Center, h.Location), 5.0)
		}
	}
}

func TestCandidates_Attribution(t *testing.T) {
	ds := testDataset()
	set, err := New(testConfig()).Candidates(ds.Zones, ds.Hospitals)
	require.NoError(t, err)
	require.Len(t, set.Candidates, 100)

	var inZone, outside int
	for _, c := range set.Candidates {
		switch c.ZoneID {
		case "z1":
			inZone++
			assert.Equal(t, 10000, c.Population)
			assert.Equal(t, 0.8, c.DeprivationIndex)
			assert.Equal(t, "Centro", c.ZoneName)
		case "":
			outside++
			assert.Zero(t, c.Population)
		}
	}
	assert.Positive(t, inZone)
	assert.Positive(t, outside)
}

func TestCandidates_RestrictToZones(t *testing.T) {
	cfg := testConfig()
	cfg.RestrictToZones = true

	ds := testDataset()
	set, err := New(cfg).Candidates(ds.Zones, ds.Hospitals)
	require.NoError(t, err)
	require.NotEmpty(t, set.Candidates)
	assert.Less(t, len(set.Candidates), 100)
	for _, c := range set.Candidates {
		assert.Equal(t, "z1", c.ZoneID)
	}
}

func TestCandidates_RestrictWithoutBounds(t *testing.T) {
	cfg := testConfig()
	cfg.RestrictToZones = true

	ds := testDataset()
	ds.Zones[0].Bounds = nil
	set, err := New(cfg).Candidates(ds.Zones, ds.Hospitals)
	require.NoError(t, err)
	assert.Len(t, set.Candidates, 100)
}

func TestCandidates_CellKM(t *testing.T) {
	cfg := testConfig()
	cfg.CellKM = 2.22 // 0.02 degrees over a 0.2 degree box

	ds := testDataset()
	set, err := New(cfg).Candidates(ds.Zones, ds.Hospitals)
	require.NoError(t, err)
	assert.Equal(t, 10, set.GridSize)
}

func TestCandidates_UnknownMode(t *testing.T) {
	cfg := testConfig()
	cfg.Candidates = "random"

	ds := testDataset()
	_, err := New(cfg).Candidates(ds.Zones, ds.Hospitals)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrInvalidOptions))
}

func TestAttributor_DemandRadius(t *testing.T) {
	zones := []model.UrbanZone{
		{ID: "a", Name: "A", Population: 100, DeprivationIndex: 0.1, Center: geo.Coordinate{Lat: 0, Lng: 0}},
		{ID: "b", Name: "B", Population: 200, DeprivationIndex: 0.2, Center: geo.Coordinate{Lat: 0, Lng: 0.1}},
	}
	attr := newAttributor(zones, 5)

	// 0.03 degrees of longitude at the equator is about 3.3 km.
	assert.Equal(t, "a", attr.candidate(geo.Coordinate{Lat: 0, Lng: 0.03}).ZoneID)
	assert.Equal(t, "b", attr.candidate(geo.Coordinate{Lat: 0, Lng: 0.08}).ZoneID)
	assert.Equal(t, "", attr.candidate(geo.Coordinate{Lat: 0, Lng: 0.5}).ZoneID)
}

func TestAttributor_PolygonWinsOverNearestCenter(t *testing.T) {
	zones := []model.UrbanZone{
		{ID: "near", Population: 100, Center: geo.Coordinate{Lat: 0, Lng: 0.011}},
		{
			ID: "poly", Population: 200, Center: geo.Coordinate{Lat: 0, Lng: -0.05},
			Bounds: []geo.Coordinate{{Lat: -0.1, Lng: -0.1}, {Lat: 0.1, Lng: -0.1}, {Lat: 0.1, Lng: 0.01}, {Lat: -0.1, Lng: 0.01}},
		},
	}
	attr := newAttributor(zones, 5)
	assert.Equal(t, "poly", attr.candidate(geo.Coordinate{Lat: 0, Lng: 0.005}).ZoneID)
}

func TestRun_SoftEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.MinScoreEnabled = true
	cfg.MinScore = 1e9

	r, err := New(cfg).Run(context.Background(), testDataset())
	require.NoError(t, err)
	assert.Equal(t, suggest.StatusNoQualifyingCandidates, r.Status())
	assert.Empty(t, r.Suggestions())
	assert.True(t, eris.Is(r.Selection.Err(), model.ErrNoQualifyingCandidates))
}

func TestRun_Errors(t *testing.T) {
	t.Run("no hospitals", func(t *testing.T) {
		ds := testDataset()
		ds.Hospitals = nil
		_, err := New(testConfig()).Run(context.Background(), ds)
		require.Error(t, err)
		assert.True(t, eris.Is(err, model.ErrInsufficientData))
	})

	t.Run("nil dataset", func(t *testing.T) {
		_, err := New(testConfig()).Run(context.Background(), nil)
		assert.True(t, eris.Is(err, model.ErrInsufficientData))
	})

	t.Run("malformed zone", func(t *testing.T) {
		ds := testDataset()
		ds.Zones[0].Population = 0
		_, err := New(testConfig()).Run(context.Background(), ds)
		require.Error(t, err)
		assert.True(t, eris.Is(err, model.ErrInvalidRecord))
	})

	t.Run("degenerate zone ring", func(t *testing.T) {
		cfg := testConfig()
		cfg.RestrictToZones = true
		ds := testDataset()
		ds.Zones[0].Bounds = []geo.Coordinate{{Lat: 20, Lng: -103}, {Lat: 20.1, Lng: -103}, {Lat: 20, Lng: -103}}
		_, err := New(cfg).Run(context.Background(), ds)
		require.Error(t, err)
		assert.True(t, eris.Is(err, model.ErrInvalidRecord))
	})

	t.Run("k above max", func(t *testing.T) {
		cfg := testConfig()
		cfg.TopK = suggest.MaxK + 1
		_, err := New(cfg).Run(context.Background(), testDataset())
		require.Error(t, err)
		assert.True(t, eris.Is(err, model.ErrInvalidOptions))
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := testConfig()
		cfg.Strategy = "nearest"
		_, err := New(cfg).Run(context.Background(), testDataset())
		require.Error(t, err)
		assert.True(t, eris.Is(err, model.ErrInvalidOptions))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(testConfig()).Run(ctx, testDataset())
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestSelectOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy = suggest.StrategyDemandLog
	cfg.MinScoreEnabled = true
	cfg.MinScore = 2.5

	opts, err := SelectOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, suggest.StrategyDemandLog, opts.Strategy.Name())
	require.NotNil(t, opts.MinScore)
	assert.Equal(t, 2.5, *opts.MinScore)
	assert.Equal(t, 5, opts.K)

	cfg.MinScoreEnabled = false
	opts, err = SelectOptions(cfg)
	require.NoError(t, err)
	assert.Nil(t, opts.MinScore)

	cfg.TopK = 0
	_, err = SelectOptions(cfg)
	assert.True(t, eris.Is(err, model.ErrInvalidOptions))
}
