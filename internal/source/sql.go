package source

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/db"
	"github.com/sells-group/hospital-siting/internal/geo"
	"github.com/sells-group/hospital-siting/internal/model"
)

// Queries shared by the PostgreSQL and SQLite loaders. Zone bounds are stored
// as a JSON array of {lat, lng} objects.
const (
	hospitalsQuery = `SELECT id, name, lat, lng, capacity, type FROM hospitals ORDER BY id`
	zonesQuery     = `SELECT id, name, population, deprivation_index, center_lat, center_lng, COALESCE(bounds, '') FROM urban_zones ORDER BY id`
)

// Schema creates the tables read by the database loaders. Loaders never run
// it; it documents the expected layout and seeds test fixtures.
const Schema = `
CREATE TABLE IF NOT EXISTS hospitals (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	lat      DOUBLE PRECISION NOT NULL,
	lng      DOUBLE PRECISION NOT NULL,
	capacity INTEGER NOT NULL DEFAULT 0,
	type     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS urban_zones (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	population        INTEGER NOT NULL,
	deprivation_index DOUBLE PRECISION NOT NULL,
	center_lat        DOUBLE PRECISION NOT NULL,
	center_lng        DOUBLE PRECISION NOT NULL,
	bounds            TEXT
);
`

// rowScanner is the part of pgx.Rows and *sql.Rows used here.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanHospitals(rows rowScanner) ([]model.Hospital, error) {
	var out []model.Hospital
	for rows.Next() {
		var h model.Hospital
		var typ string
		if err := rows.Scan(&h.ID, &h.Name, &h.Location.Lat, &h.Location.Lng, &h.Capacity, &typ); err != nil {
			return nil, eris.Wrap(err, "scan hospital")
		}
		if typ != "" {
			t, err := model.ParseHospitalType(typ)
			if err != nil {
				return nil, eris.Wrapf(err, "hospital %s", h.ID)
			}
			h.Type = t
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate hospitals")
	}
	return out, nil
}

func scanZones(rows rowScanner) ([]model.UrbanZone, error) {
	var out []model.UrbanZone
	for rows.Next() {
		var z model.UrbanZone
		var bounds string
		if err := rows.Scan(&z.ID, &z.Name, &z.Population, &z.DeprivationIndex, &z.Center.Lat, &z.Center.Lng, &bounds); err != nil {
			return nil, eris.Wrap(err, "scan zone")
		}
		if bounds != "" {
			var ring []geo.Coordinate
			if err := json.Unmarshal([]byte(bounds), &ring); err != nil {
				return nil, eris.Wrapf(model.ErrInvalidRecord, "zone %s: bounds: %v", z.ID, err)
			}
			z.Bounds = ring
		}
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate zones")
	}
	return out, nil
}

// PostgresLoader reads the hospitals and urban_zones tables over pgx.
type PostgresLoader struct {
	URL  string
	Pool config.PoolConfig

	// conn, when set, is used instead of opening a pool from URL.
	conn db.Pool
}

// NewPostgresLoader returns a loader that queries an existing pool.
func NewPostgresLoader(pool db.Pool) *PostgresLoader {
	return &PostgresLoader{conn: pool}
}

// Load implements Loader.
func (l *PostgresLoader) Load(ctx context.Context) (*Dataset, error) {
	pool := l.conn
	if pool == nil {
		p, err := db.Connect(ctx, l.URL, db.PoolOptions{
			MaxConns: l.Pool.MaxConns,
			MinConns: l.Pool.MinConns,
			Retry:    db.RetryOptions{Attempts: l.Pool.ConnectAttempts},
		})
		if err != nil {
			return nil, eris.Wrap(err, "source: postgres")
		}
		defer p.Close()
		pool = p
	}

	hrows, err := pool.Query(ctx, hospitalsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "source: postgres: query hospitals")
	}
	hospitals, err := scanHospitals(hrows)
	hrows.Close()
	if err != nil {
		return nil, eris.Wrap(err, "source: postgres")
	}

	zrows, err := pool.Query(ctx, zonesQuery)
	if err != nil {
		return nil, eris.Wrap(err, "source: postgres: query zones")
	}
	zones, err := scanZones(zrows)
	zrows.Close()
	if err != nil {
		return nil, eris.Wrap(err, "source: postgres")
	}

	zap.L().Debug("source: loaded postgres",
		zap.Int("hospital_count", len(hospitals)),
		zap.Int("zone_count", len(zones)),
	)
	return &Dataset{Hospitals: hospitals, Zones: zones, Origin: "postgres"}, nil
}

// SQLiteLoader reads the same tables from a SQLite database file.
type SQLiteLoader struct {
	DSN string

	// sqlDB, when set, is used instead of opening DSN.
	sqlDB *sql.DB
}

// NewSQLiteLoader returns a loader that queries an open database.
func NewSQLiteLoader(conn *sql.DB) *SQLiteLoader {
	return &SQLiteLoader{sqlDB: conn}
}

// OpenSQLite opens a SQLite database with a busy timeout.
func OpenSQLite(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: exec PRAGMA busy_timeout")
	}
	return conn, nil
}

// Load implements Loader.
func (l *SQLiteLoader) Load(ctx context.Context) (*Dataset, error) {
	conn := l.sqlDB
	if conn == nil {
		c, err := OpenSQLite(l.DSN)
		if err != nil {
			return nil, eris.Wrap(err, "source: sqlite")
		}
		defer c.Close() //nolint:errcheck
		conn = c
	}

	hrows, err := conn.QueryContext(ctx, hospitalsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "source: sqlite: query hospitals")
	}
	hospitals, err := scanHospitals(hrows)
	hrows.Close() //nolint:errcheck
	if err != nil {
		return nil, eris.Wrap(err, "source: sqlite")
	}

	zrows, err := conn.QueryContext(ctx, zonesQuery)
	if err != nil {
		return nil, eris.Wrap(err, "source: sqlite: query zones")
	}
	zones, err := scanZones(zrows)
	zrows.Close() //nolint:errcheck
	if err != nil {
		return nil, eris.Wrap(err, "source: sqlite")
	}

	return &Dataset{Hospitals: hospitals, Zones: zones, Origin: "sqlite:" + l.DSN}, nil
}
