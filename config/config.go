// Package config loads run settings from a YAML file, an optional .env file
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sartorproj/tsforecast/arima"
	"github.com/sartorproj/tsforecast/pipeline"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Data source providers.
const (
	ProviderYahoo = "yahoo"
	ProviderCSV   = "csv"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider          string  `yaml:"provider"`
		Symbol            string  `yaml:"symbol"`
		Start             string  `yaml:"start"` // YYYY-MM-DD, inclusive
		End               string  `yaml:"end"`   // YYYY-MM-DD, exclusive
		CSVPath           string  `yaml:"csv_path"`
		BaseURL           string  `yaml:"base_url"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"data_source"`
	Analysis struct {
		TargetColumn    string  `yaml:"target_column"`
		Significance    float64 `yaml:"significance"`
		Order           []int   `yaml:"order"` // p, d, q
		Horizon         int     `yaml:"horizon"`
		Confidence      float64 `yaml:"confidence"`
		MAWindows       []int   `yaml:"ma_windows"`
		CorrelogramLags int     `yaml:"correlogram_lags"`
		KPSSRegression  string  `yaml:"kpss_regression"`
	} `yaml:"analysis"`
	Output struct {
		CleanedCSV  string `yaml:"cleaned_csv"`
		ForecastCSV string `yaml:"forecast_csv"`
		ResultsJSON string `yaml:"results_json"` // empty skips the export
		SQLitePath  string `yaml:"sqlite_path"` // empty disables the recorder
	} `yaml:"output"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; an empty path
// skips the file. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TSF_SYMBOL"); v != "" {
		c.DataSource.Symbol = v
	}
	if v := os.Getenv("TSF_START"); v != "" {
		c.DataSource.Start = v
	}
	if v := os.Getenv("TSF_END"); v != "" {
		c.DataSource.End = v
	}
	if v := os.Getenv("TSF_CSV_PATH"); v != "" {
		c.DataSource.CSVPath = v
		c.DataSource.Provider = ProviderCSV
	}
	if v := os.Getenv("TSF_SQLITE_PATH"); v != "" {
		c.Output.SQLitePath = v
	}
	if v := os.Getenv("TSF_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TSF_HORIZON"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TSF_HORIZON %q: %w", v, err)
		}
		c.Analysis.Horizon = h
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := pipeline.DefaultConfig()

	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "ETH-USD"
	}
	if c.DataSource.Start == "" {
		c.DataSource.Start = "2020-01-01"
	}
	if c.DataSource.End == "" {
		c.DataSource.End = "2025-01-01"
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 1
	}

	a := &c.Analysis
	if a.TargetColumn == "" {
		a.TargetColumn = def.TargetColumn
	}
	if a.Significance == 0 {
		a.Significance = def.Significance
	}
	if len(a.Order) == 0 {
		a.Order = []int{def.Order.P, def.Order.D, def.Order.Q}
	}
	if a.Horizon == 0 {
		a.Horizon = def.Horizon
	}
	if a.Confidence == 0 {
		a.Confidence = def.Confidence
	}
	if len(a.MAWindows) == 0 {
		a.MAWindows = def.MAWindows
	}
	if a.CorrelogramLags == 0 {
		a.CorrelogramLags = def.CorrelogramLags
	}
	if a.KPSSRegression == "" {
		a.KPSSRegression = def.KPSSRegression
	}

	if c.Output.CleanedCSV == "" {
		c.Output.CleanedCSV = "cleaned_data.csv"
	}
	if c.Output.ForecastCSV == "" {
		c.Output.ForecastCSV = "forecast.csv"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo:
		if c.DataSource.Symbol == "" {
			return fmt.Errorf("data_source.symbol is required")
		}
	case ProviderCSV:
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for the csv provider")
		}
	default:
		return fmt.Errorf("data_source.provider must be %q or %q, got %q", ProviderYahoo, ProviderCSV, c.DataSource.Provider)
	}

	start, end, err := c.Range()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("data_source.start %s must be before end %s", c.DataSource.Start, c.DataSource.End)
	}

	if len(c.Analysis.Order) != 3 {
		return fmt.Errorf("analysis.order must have three entries (p, d, q), got %d", len(c.Analysis.Order))
	}
	if err := c.Pipeline().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Range parses the data source date bounds as UTC days.
func (c *Config) Range() (start, end time.Time, err error) {
	start, err = time.Parse(time.DateOnly, c.DataSource.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data_source.start: %w", err)
	}
	end, err = time.Parse(time.DateOnly, c.DataSource.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data_source.end: %w", err)
	}
	return start, end, nil
}

// Pipeline maps the analysis section onto pipeline settings.
func (c *Config) Pipeline() pipeline.Config {
	a := c.Analysis
	cfg := pipeline.Config{
		TargetColumn:    a.TargetColumn,
		Significance:    a.Significance,
		Horizon:         a.Horizon,
		Confidence:      a.Confidence,
		MAWindows:       append([]int(nil), a.MAWindows...),
		CorrelogramLags: a.CorrelogramLags,
		KPSSRegression:  a.KPSSRegression,
	}
	if len(a.Order) == 3 {
		cfg.Order = arima.Order{P: a.Order[0], D: a.Order[1], Q: a.Order[2]}
	}
	return cfg
}

// NewLogger builds a logger from the log section. Invalid settings fall
// back to info level text output.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(c.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}
