// Package source loads hospital and urban-zone reference data from files and
// databases. Loaders are read-only.
package source

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/model"
)

// Loader reads one dataset.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Dataset, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context) (*Dataset, error) { return f(ctx) }

// Dataset is the reference data for one analysis session.
type Dataset struct {
	Hospitals []model.Hospital  `json:"hospitals" yaml:"hospitals"`
	Zones     []model.UrbanZone `json:"zones" yaml:"zones"`
	// Origin describes where the data came from, e.g. "json:data/hospitals.json".
	Origin string `json:"origin,omitempty" yaml:"-"`
}

// Validate rejects malformed records and duplicate IDs. It does not require
// the dataset to be non-empty; the scoring engine reports that case.
func (d *Dataset) Validate() error {
	seen := make(map[string]struct{}, len(d.Hospitals))
	for i, h := range d.Hospitals {
		if err := h.Validate(); err != nil {
			return eris.Wrapf(err, "source: hospital #%d", i)
		}
		if _, dup := seen[h.ID]; dup {
			return eris.Wrapf(model.ErrInvalidRecord, "source: duplicate hospital id %q", h.ID)
		}
		seen[h.ID] = struct{}{}
	}

	seen = make(map[string]struct{}, len(d.Zones))
	for i, z := range d.Zones {
		if err := z.Validate(); err != nil {
			return eris.Wrapf(err, "source: zone #%d", i)
		}
		if _, dup := seen[z.ID]; dup {
			return eris.Wrapf(model.ErrInvalidRecord, "source: duplicate zone id %q", z.ID)
		}
		seen[z.ID] = struct{}{}
	}
	return nil
}

// String summarizes the dataset.
func (d *Dataset) String() string {
	return fmt.Sprintf("%s: %d hospitals, %d zones", d.Origin, len(d.Hospitals), len(d.Zones))
}

// New returns the loader selected by cfg.Driver.
func New(cfg config.SourceConfig) (Loader, error) {
	switch cfg.Driver {
	case "json":
		return &JSONLoader{HospitalsPath: cfg.HospitalsPath, ZonesPath: cfg.ZonesPath}, nil
	case "yaml":
		return &YAMLLoader{Path: cfg.Path}, nil
	case "shapefile":
		return &ShapefileLoader{HospitalsPath: cfg.HospitalsPath, ZonesPath: cfg.ZonesPath}, nil
	case "postgres":
		return &PostgresLoader{URL: cfg.DatabaseURL, Pool: cfg.Pool}, nil
	case "sqlite":
		return &SQLiteLoader{DSN: cfg.DatabaseURL}, nil
	default:
		return nil, eris.Errorf("source: unknown driver %q", cfg.Driver)
	}
}

// LoadValidated runs l and validates the result.
func LoadValidated(ctx context.Context, l Loader) (*Dataset, error) {
	ds, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
