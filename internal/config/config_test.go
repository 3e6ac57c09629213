package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pwfconvert.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.LogLevel)
	require.NotNil(t, cfg.Pool)
	assert.Len(t, cfg.Pool.Bins, 2)
	assert.Equal(t, "25 m", cfg.Pool.Default.Name)
	assert.Equal(t, "pwfconvert", cfg.Export.AppName)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("PWFCONVERT_LOG_LEVEL", "")
	t.Setenv("PWFCONVERT_FTP", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, `{
  "athlete": {"ftp_watts": 250, "estimate_ftp": true},
  "tabular": {"columns": "hr,power", "metadata": true}
}`)
	t.Setenv("PWFCONVERT_LOG_LEVEL", "debug")
	t.Setenv("PWFCONVERT_FTP", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250.0, cfg.Athlete.FTPWatts)
	assert.True(t, cfg.Tabular.Metadata)
	require.NotNil(t, cfg.Pool)
	assert.Equal(t, "50 m", cfg.Pool.Bins[0].Name)
	assert.Equal(t, "pwfconvert", cfg.Export.AppName)

	t.Setenv("PWFCONVERT_FTP", "280")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 280.0, cfg.Athlete.FTPWatts)

	a := cfg.Analysis()
	assert.Equal(t, 280.0, a.Power.FTPWatts)
	assert.True(t, a.Power.EstimateFTP)
	assert.Same(t, cfg.Pool, a.Pool)
}

func TestLoadCustomPoolBins(t *testing.T) {
	t.Setenv("PWFCONVERT_FTP", "")
	path := writeConfig(t, `{"pool": {"bins": [{"name": "25 yd", "min": 20, "max": 24, "meters": 22.86}], "default": {"name": "25 m", "meters": 25}}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	bin, ok := cfg.Pool.Classify(22.9)
	assert.True(t, ok)
	assert.Equal(t, "25 yd", bin.Name)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("PWFCONVERT_FTP", "")
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"athlete":`},
		{"negative ftp", `{"athlete": {"ftp_watts": -1}}`},
		{"inverted pool bin", `{"pool": {"bins": [{"name": "x", "min": 5, "max": 1}], "default": {"name": "25 m"}}}`},
		{"unknown column", `{"tabular": {"columns": "hr,vo2max"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, ErrNoConfig))
}
