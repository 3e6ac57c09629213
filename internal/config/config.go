// Package config loads the pwfconvert CLI settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/tabular"
)

// Config is the CLI configuration.
type Config struct {
	LogLevel string               `json:"log_level"`
	Athlete  AthleteConfig        `json:"athlete"`
	Pool     *fitconvert.PoolBins `json:"pool,omitempty"`
	Tabular  TabularConfig        `json:"tabular"`
	Export   ExportConfig         `json:"export"`
}

// AthleteConfig holds the inputs of the power analysis.
type AthleteConfig struct {
	FTPWatts    float64 `json:"ftp_watts"`
	EstimateFTP bool    `json:"estimate_ftp"`
}

// TabularConfig holds CSV/Parquet defaults.
type TabularConfig struct {
	Columns  string `json:"columns"`
	Metadata bool   `json:"metadata"`
}

// ExportConfig fills the export_source block of PWF output.
type ExportConfig struct {
	AppName    string `json:"app_name"`
	AppVersion string `json:"app_version"`
}

// ErrNoConfig is returned when an explicitly named config file doesn't exist.
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	bins := fitconvert.DefaultPoolBins()
	return Config{
		LogLevel: "warn",
		Pool:     &bins,
		Export:   ExportConfig{AppName: "pwfconvert"},
	}
}

// Load reads the JSON file at path, fills missing values from DefaultConfig
// and applies PWFCONVERT_LOG_LEVEL and PWFCONVERT_FTP. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		var fromFile Config
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		cfg = withDefaults(fromFile)
	}

	cfg.LogLevel = envStr("PWFCONVERT_LOG_LEVEL", cfg.LogLevel)
	cfg.Athlete.FTPWatts = envFloat("PWFCONVERT_FTP", cfg.Athlete.FTPWatts)

	if cfg.Athlete.FTPWatts < 0 {
		return nil, fmt.Errorf("athlete.ftp_watts must not be negative, got %v", cfg.Athlete.FTPWatts)
	}
	if err := cfg.Pool.Validate(); err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	if _, err := tabular.ParseColumns(cfg.Tabular.Columns); err != nil {
		return nil, fmt.Errorf("tabular.columns: %w", err)
	}
	return &cfg, nil
}

func withDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Pool == nil {
		cfg.Pool = defaults.Pool
	}
	if cfg.Export.AppName == "" {
		cfg.Export.AppName = defaults.Export.AppName
	}
	return cfg
}

// Analysis turns the athlete and pool settings into analyzer options.
func (c *Config) Analysis() fitconvert.Options {
	return fitconvert.Options{
		Power: fitconvert.PowerOptions{
			FTPWatts:    c.Athlete.FTPWatts,
			EstimateFTP: c.Athlete.EstimateFTP,
		},
		Pool: c.Pool,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
