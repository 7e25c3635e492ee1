package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MaxTopK bounds analysis.top_k. It matches the selection engine limit.
const MaxTopK = 1000

// Config holds the full application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourceConfig selects and configures the data loader.
type SourceConfig struct {
	Driver        string     `yaml:"driver" mapstructure:"driver"`
	HospitalsPath string     `yaml:"hospitals_path" mapstructure:"hospitals_path"`
	ZonesPath     string     `yaml:"zones_path" mapstructure:"zones_path"`
	Path          string     `yaml:"path" mapstructure:"path"`
	DatabaseURL   string     `yaml:"database_url" mapstructure:"database_url"`
	Pool          PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
	// ConnectAttempts is the number of tries for the initial connection.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// AnalysisConfig configures zone scoring and site suggestion.
type AnalysisConfig struct {
	// Strategy names the candidate scoring strategy (coverage_gap,
	// demand_quadratic, demand_log, zone_priority).
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	// Candidates is "grid" or "zones".
	Candidates      string  `yaml:"candidates" mapstructure:"candidates"`
	GridSize        int     `yaml:"grid_size" mapstructure:"grid_size"`
	CellKM          float64 `yaml:"cell_km" mapstructure:"cell_km"`
	PaddingDeg      float64 `yaml:"padding_deg" mapstructure:"padding_deg"`
	RestrictToZones bool    `yaml:"restrict_to_zones" mapstructure:"restrict_to_zones"`
	MaxRadiusKM     float64 `yaml:"max_radius_km" mapstructure:"max_radius_km"`

	TopK            int     `yaml:"top_k" mapstructure:"top_k"`
	MinSeparationKM float64 `yaml:"min_separation_km" mapstructure:"min_separation_km"`
	MinScore        float64 `yaml:"min_score" mapstructure:"min_score"`
	MinScoreEnabled bool    `yaml:"min_score_enabled" mapstructure:"min_score_enabled"`
	AccessRadiusKM  float64 `yaml:"access_radius_km" mapstructure:"access_radius_km"`
	DemandRadiusKM  float64 `yaml:"demand_radius_km" mapstructure:"demand_radius_km"`

	CoverageKM        float64 `yaml:"coverage_km" mapstructure:"coverage_km"`
	PriorityThreshold float64 `yaml:"priority_threshold" mapstructure:"priority_threshold"`

	Workers   int `yaml:"workers" mapstructure:"workers"`
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit       float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst       int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CacheEntries    int      `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.driver", "json")
	v.SetDefault("source.hospitals_path", "data/hospitals.json")
	v.SetDefault("source.zones_path", "data/urban-zones.json")
	v.SetDefault("source.pool.connect_attempts", 3)
	v.SetDefault("analysis.strategy", "coverage_gap")
	v.SetDefault("analysis.candidates", "grid")
	v.SetDefault("analysis.grid_size", 50)
	v.SetDefault("analysis.padding_deg", 0.05)
	v.SetDefault("analysis.top_k", 5)
	v.SetDefault("analysis.min_separation_km", 5.0)
	v.SetDefault("analysis.access_radius_km", 10.0)
	v.SetDefault("analysis.demand_radius_km", 5.0)
	v.SetDefault("analysis.coverage_km", 10.0)
	v.SetDefault("analysis.priority_threshold", 0.6)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.batch_size", 256)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.cache_entries", 128)
	v.SetDefault("server.cache_ttl_minutes", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "source" for commands
// that load a dataset, "analysis" for commands that also run the engine, and
// "server" for the HTTP API.
func (c *Config) Validate(mode string) error {
	var errs []string

	checkSource := func() {
		switch c.Source.Driver {
		case "json":
			if c.Source.HospitalsPath == "" || c.Source.ZonesPath == "" {
				errs = append(errs, "source.hospitals_path and source.zones_path are required for the json driver")
			}
		case "yaml":
			if c.Source.Path == "" {
				errs = append(errs, "source.path is required for the yaml driver")
			}
		case "shapefile":
			if c.Source.HospitalsPath == "" || c.Source.ZonesPath == "" {
				errs = append(errs, "source.hospitals_path and source.zones_path are required for the shapefile driver")
			}
		case "postgres", "sqlite":
			if c.Source.DatabaseURL == "" {
				errs = append(errs, "source.database_url is required for the "+c.Source.Driver+" driver")
			}
		default:
			errs = append(errs, "source.driver must be one of json, yaml, shapefile, postgres, sqlite")
		}
	}

	checkAnalysis := func() {
		a := c.Analysis
		switch a.Candidates {
		case "grid", "zones":
		default:
			errs = append(errs, "analysis.candidates must be grid or zones")
		}
		if a.GridSize <= 0 && a.CellKM <= 0 {
			errs = append(errs, "analysis.grid_size or analysis.cell_km must be positive")
		}
		if a.TopK <= 0 || a.TopK > MaxTopK {
			errs = append(errs, fmt.Sprintf("analysis.top_k must be in [1,%d]", MaxTopK))
		}
		if a.MinSeparationKM < 0 {
			errs = append(errs, "analysis.min_separation_km must be >= 0")
		}
		if a.AccessRadiusKM < 0 {
			errs = append(errs, "analysis.access_radius_km must be >= 0")
		}
		if a.Workers < 0 {
			errs = append(errs, "analysis.workers must be >= 0")
		}
	}

	switch mode {
	case "source":
		checkSource()
	case "analysis":
		checkSource()
		checkAnalysis()
	case "server":
		checkSource()
		checkAnalysis()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
