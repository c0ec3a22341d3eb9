package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

// ErrMissingKey marks a required pipeline config key that is absent or empty.
// Construction fails on the first missing key, before any source is contacted.
var ErrMissingKey = errors.New("missing required config key")

// PipelineConfig describes one pipeline run. All keys are required.
type PipelineConfig struct {
	// DBPath is the data source DSN, e.g. "sqlite://farm_survey.db".
	DBPath string `yaml:"db_path" toml:"db_path"`

	// SQLQuery is executed verbatim against the source.
	SQLQuery string `yaml:"sql_query" toml:"sql_query"`

	// ColumnsToRename holds exactly one pair of column names whose labels
	// are exchanged (the survey export swaps them).
	ColumnsToRename map[string]string `yaml:"columns_to_rename" toml:"columns_to_rename"`

	// ValuesToRename remaps crop labels; labels without an entry pass
	// through unchanged.
	ValuesToRename map[string]string `yaml:"values_to_rename" toml:"values_to_rename"`

	// WeatherMappingCSV locates the Field_ID -> weather station reference
	// table, served as CSV over HTTP.
	WeatherMappingCSV string `yaml:"weather_mapping_csv" toml:"weather_mapping_csv"`
}

// SwapPair returns the two column names to exchange.
func (p *PipelineConfig) SwapPair() (string, string) {
	for old, new := range p.ColumnsToRename {
		return old, new
	}
	return "", ""
}

// Config holds all service settings: the pipeline definition from the config
// file plus operational settings from environment variables.
type Config struct {
	Pipeline PipelineConfig

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// RefreshInterval > 0 re-runs the pipeline on the interval with the
	// health/metrics server up; 0 means run once and exit.
	RefreshInterval time.Duration

	// FetchTimeout bounds the weather mapping HTTP fetch.
	FetchTimeout time.Duration
}

// Load reads the pipeline config file (YAML or TOML by extension) and the
// service environment, applying defaults where unset.
func Load(path string) (*Config, error) {
	pipeline, err := loadPipelineFile(path)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := envDuration("REFRESH_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Pipeline:        *pipeline,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RefreshInterval: refreshInterval,
		FetchTimeout:    fetchTimeout,
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("FETCH_TIMEOUT must be positive")
	}
	return cfg, nil
}

func loadPipelineFile(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var p PipelineConfig
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml, or .toml)", ext)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *PipelineConfig) validate() error {
	if p.DBPath == "" {
		return fmt.Errorf("%w: db_path", ErrMissingKey)
	}
	if p.SQLQuery == "" {
		return fmt.Errorf("%w: sql_query", ErrMissingKey)
	}
	if len(p.ColumnsToRename) == 0 {
		return fmt.Errorf("%w: columns_to_rename", ErrMissingKey)
	}
	if len(p.ColumnsToRename) != 1 {
		return fmt.Errorf("columns_to_rename must hold exactly one pair, got %d", len(p.ColumnsToRename))
	}
	if a, b := p.SwapPair(); a == b {
		return fmt.Errorf("columns_to_rename must name two distinct columns, got %q twice", a)
	}
	if p.ValuesToRename == nil {
		return fmt.Errorf("%w: values_to_rename", ErrMissingKey)
	}
	if p.WeatherMappingCSV == "" {
		return fmt.Errorf("%w: weather_mapping_csv", ErrMissingKey)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
