package source

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// JSONLoader reads the two JSON arrays used by the web client:
// hospitals.json and urban-zones.json.
type JSONLoader struct {
	HospitalsPath string
	ZonesPath     string
}

// Load implements Loader.
func (l *JSONLoader) Load(ctx context.Context) (*Dataset, error) {
	var ds Dataset
	if err := readJSON(l.HospitalsPath, &ds.Hospitals); err != nil {
		return nil, eris.Wrap(err, "source: load hospitals")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "source: load")
	}
	if err := readJSON(l.ZonesPath, &ds.Zones); err != nil {
		return nil, eris.Wrap(err, "source: load zones")
	}
	ds.Origin = "json:" + l.ZonesPath

	zap.L().Debug("source: loaded json",
		zap.String("hospitals", l.HospitalsPath),
		zap.String("zones", l.ZonesPath),
		zap.Int("hospital_count", len(ds.Hospitals)),
		zap.Int("zone_count", len(ds.Zones)),
	)
	return &ds, nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

// YAMLLoader reads a single document of the form {hospitals: [...], zones: [...]}.
type YAMLLoader struct {
	Path string
}

// Load implements Loader.
func (l *YAMLLoader) Load(_ context.Context) (*Dataset, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", l.Path)
	}
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, eris.Wrapf(err, "source: parse %s", l.Path)
	}
	ds.Origin = "yaml:" + l.Path
	return &ds, nil
}
