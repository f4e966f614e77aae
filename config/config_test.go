package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sartorproj/tsforecast/arima"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TSF_SYMBOL", "TSF_START", "TSF_END", "TSF_CSV_PATH",
		"TSF_SQLITE_PATH", "TSF_LOG_LEVEL", "TSF_HORIZON", "HTTPS_PROXY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderYahoo, cfg.DataSource.Provider)
	assert.Equal(t, "ETH-USD", cfg.DataSource.Symbol)
	assert.Equal(t, "2020-01-01", cfg.DataSource.Start)
	assert.Equal(t, "2025-01-01", cfg.DataSource.End)

	p := cfg.Pipeline()
	assert.Equal(t, arima.Order{P: 1, D: 1, Q: 1}, p.Order)
	assert.Equal(t, 30, p.Horizon)
	assert.Equal(t, 0.95, p.Confidence)
	assert.Equal(t, 0.05, p.Significance)
	assert.Equal(t, []int{7, 30}, p.MAWindows)
	assert.Empty(t, cfg.Output.SQLitePath)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_source:
  symbol: BTC-USD
  start: "2021-06-01"
analysis:
  order: [2, 1, 0]
  horizon: 14
  confidence: 0.9
log:
  level: debug
  format: json
`)
	t.Setenv("TSF_END", "2022-06-01")
	t.Setenv("TSF_SQLITE_PATH", "runs.db")
	t.Setenv("HTTPS_PROXY", "http://proxy:8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "BTC-USD", cfg.DataSource.Symbol)
	assert.Equal(t, "2022-06-01", cfg.DataSource.End)
	assert.Equal(t, "runs.db", cfg.Output.SQLitePath)
	assert.Equal(t, "http://proxy:8080", cfg.Proxy)

	p := cfg.Pipeline()
	assert.Equal(t, arima.Order{P: 2, D: 1, Q: 0}, p.Order)
	assert.Equal(t, 14, p.Horizon)
	assert.Equal(t, 0.9, p.Confidence)

	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestLoadCSVPathSwitchesProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("TSF_CSV_PATH", "prices.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderCSV, cfg.DataSource.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoadHorizonFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"valid", "14", 14, false},
		{"not a number", "two weeks", 0, true},
		{"fractional", "7.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TSF_HORIZON", tt.value)

			cfg, err := Load("")
			if tt.wantErr {
				assert.ErrorContains(t, err, "TSF_HORIZON")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Pipeline().Horizon)
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "data_source: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "ftp" }},
		{"csv without path", func(c *Config) { c.DataSource.Provider = ProviderCSV }},
		{"bad start", func(c *Config) { c.DataSource.Start = "01/01/2020" }},
		{"empty range", func(c *Config) { c.DataSource.End = c.DataSource.Start }},
		{"short order", func(c *Config) { c.Analysis.Order = []int{1, 1} }},
		{"bad confidence", func(c *Config) { c.Analysis.Confidence = 1.5 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLoggerFallback(t *testing.T) {
	cfg := &Config{}
	cfg.Log.Level = "nonsense"
	logger := cfg.NewLogger()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
