package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings. Values come from environment
// variables, an optional YAML file named by CONFIG_FILE, and built-in
// defaults, in that order of precedence.
type Config struct {
	DataDir    string
	DataFormat string
	SQLitePath string
	OutputDir  string

	HTTPAddr        string
	Serve           bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Station classification.
	PrimaryStationCount int
	PrimaryStations     []string

	// Satellite aggregation.
	SatYearMin int
	SatYearMax int
	MinCellObs int
}

// fileConfig mirrors Config for the optional YAML file. Pointer fields
// distinguish "absent" from zero values.
type fileConfig struct {
	DataDir             *string  `yaml:"data_dir"`
	DataFormat          *string  `yaml:"data_format"`
	SQLitePath          *string  `yaml:"sqlite_path"`
	OutputDir           *string  `yaml:"output_dir"`
	HTTPAddr            *string  `yaml:"http_addr"`
	Serve               *bool    `yaml:"serve"`
	LogLevel            *string  `yaml:"log_level"`
	LogFormat           *string  `yaml:"log_format"`
	ShutdownTimeout     *string  `yaml:"shutdown_timeout"`
	PrimaryStationCount *int     `yaml:"primary_station_count"`
	PrimaryStations     []string `yaml:"primary_stations"`
	SatYearMin          *int     `yaml:"sat_year_min"`
	SatYearMax          *int     `yaml:"sat_year_max"`
	MinCellObs          *int     `yaml:"min_cell_obs"`
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:             "data",
		DataFormat:          "csv",
		OutputDir:           "out",
		HTTPAddr:            ":8080",
		LogLevel:            "info",
		LogFormat:           "json",
		ShutdownTimeout:     10 * time.Second,
		PrimaryStationCount: 3,
		SatYearMin:          1997,
		SatYearMax:          2018,
		MinCellObs:          100,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}

	if fc.DataDir != nil {
		cfg.DataDir = *fc.DataDir
	}
	if fc.DataFormat != nil {
		cfg.DataFormat = *fc.DataFormat
	}
	if fc.SQLitePath != nil {
		cfg.SQLitePath = *fc.SQLitePath
	}
	if fc.OutputDir != nil {
		cfg.OutputDir = *fc.OutputDir
	}
	if fc.HTTPAddr != nil {
		cfg.HTTPAddr = *fc.HTTPAddr
	}
	if fc.Serve != nil {
		cfg.Serve = *fc.Serve
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown_timeout in %s: %w", path, err)
		}
		cfg.ShutdownTimeout = d
	}
	if fc.PrimaryStationCount != nil {
		cfg.PrimaryStationCount = *fc.PrimaryStationCount
	}
	if fc.PrimaryStations != nil {
		cfg.PrimaryStations = fc.PrimaryStations
	}
	if fc.SatYearMin != nil {
		cfg.SatYearMin = *fc.SatYearMin
	}
	if fc.SatYearMax != nil {
		cfg.SatYearMax = *fc.SatYearMax
	}
	if fc.MinCellObs != nil {
		cfg.MinCellObs = *fc.MinCellObs
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("DATA_FORMAT"); v != "" {
		cfg.DataFormat = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SERVE"); v != "" {
		cfg.Serve = v == "true"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("invalid SHUTDOWN_TIMEOUT")
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("PRIMARY_STATION_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PRIMARY_STATION_COUNT")
		}
		cfg.PrimaryStationCount = n
	}
	if v := os.Getenv("PRIMARY_STATIONS"); v != "" {
		cfg.PrimaryStations = parseStations(v)
	}
	if v := os.Getenv("SAT_YEAR_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid SAT_YEAR_MIN")
		}
		cfg.SatYearMin = n
	}
	if v := os.Getenv("SAT_YEAR_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid SAT_YEAR_MAX")
		}
		cfg.SatYearMax = n
	}
	if v := os.Getenv("MIN_CELL_OBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid MIN_CELL_OBS")
		}
		cfg.MinCellObs = n
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.DataFormat != "csv" && cfg.DataFormat != "sqlite" {
		return errors.New("DATA_FORMAT must be csv or sqlite")
	}
	if cfg.DataFormat == "sqlite" && cfg.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required when DATA_FORMAT is sqlite")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if cfg.PrimaryStationCount < 1 {
		return errors.New("PRIMARY_STATION_COUNT must be at least 1")
	}
	if cfg.SatYearMax < cfg.SatYearMin {
		return errors.New("SAT_YEAR_MAX must not be before SAT_YEAR_MIN")
	}
	if cfg.MinCellObs < 1 {
		return errors.New("MIN_CELL_OBS must be at least 1")
	}

	return nil
}

// parseStations splits a comma-separated station list, trimming spaces
// and dropping empty entries.
func parseStations(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if station := strings.TrimSpace(part); station != "" {
			out = append(out, station)
		}
	}
	return out
}
