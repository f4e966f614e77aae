// Package main runs the daily price analysis for one symbol: it loads OHLCV
// history, tests stationarity, fits the configured ARIMA model and writes a
// 30-day forecast.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sartorproj/tsforecast/config"
	"github.com/sartorproj/tsforecast/marketdata"
	"github.com/sartorproj/tsforecast/pipeline"
	"github.com/sartorproj/tsforecast/recorder"
	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/sirupsen/logrus"
)

// ForecastPoint is one forecast step for JSON export
type ForecastPoint struct {
	Date  string  `json:"date"`
	Mean  float64 `json:"mean"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Results holds the headline numbers of a run for JSON export
type Results struct {
	Symbol         string          `json:"symbol"`
	Source         string          `json:"source"`
	NObs           int             `json:"n_obs"`
	Order          string          `json:"order"`
	AIC            float64         `json:"aic"`
	BIC            float64         `json:"bic"`
	RMSE           float64         `json:"rmse"`
	MAE            float64         `json:"mae"`
	MAPE           float64         `json:"mape"`
	RawStationary  bool            `json:"raw_stationary"`
	DiffStationary bool            `json:"diff_stationary"`
	Forecast       []ForecastPoint `json:"forecast"`
}

func main() {
	os.Exit(execute())
}

// execute runs the program and returns its exit code, so that deferred
// cleanup finishes before the process exits.
func execute() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	symbol := flag.String("symbol", "", "ticker symbol (overrides config)")
	csvPath := flag.String("csv", "", "read OHLCV history from this CSV instead of fetching")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Errorf("Load config: %v", err)
		return 2
	}
	if *symbol != "" {
		cfg.DataSource.Symbol = *symbol
	}
	if *csvPath != "" {
		cfg.DataSource.Provider = config.ProviderCSV
		cfg.DataSource.CSVPath = *csvPath
	}
	if err := cfg.Validate(); err != nil {
		logrus.Errorf("Invalid config: %v", err)
		return 2
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Errorf("Run failed: %v", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Daily price analysis: %s\n", cfg.DataSource.Symbol)
	fmt.Println(strings.Repeat("=", 80))

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	start, end, err := cfg.Range()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"source": fetcher.Name(),
		"symbol": cfg.DataSource.Symbol,
		"start":  cfg.DataSource.Start,
		"end":    cfg.DataSource.End,
	}).Info("Fetching history")

	bars, err := fetcher.FetchDaily(ctx, cfg.DataSource.Symbol, start, end)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	table, err := timeseries.NewTable(bars)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	if table.Dropped() > 0 {
		log.WithField("dropped", table.Dropped()).Warn("Dropped rows with missing values")
	}
	if err := table.SaveCSV(cfg.Output.CleanedCSV); err != nil {
		return fmt.Errorf("save cleaned data: %w", err)
	}
	log.WithField("path", cfg.Output.CleanedCSV).Info("Cleaned data written")

	report, err := pipeline.Run(table, cfg.Pipeline(), log)
	if err != nil {
		return err
	}
	if err := report.WriteText(os.Stdout); err != nil {
		return err
	}

	if err := report.Forecast.SaveCSV(cfg.Output.ForecastCSV); err != nil {
		return fmt.Errorf("save forecast: %w", err)
	}
	log.WithField("path", cfg.Output.ForecastCSV).Info("Forecast written")

	if cfg.Output.ResultsJSON != "" {
		if err := exportResults(cfg.Output.ResultsJSON, cfg.DataSource.Symbol, fetcher.Name(), report); err != nil {
			return fmt.Errorf("export results: %w", err)
		}
	}

	rec, err := newRecorder(cfg, log)
	if err != nil {
		return err
	}
	defer rec.Close()

	recordCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := rec.RecordRun(recordCtx, cfg.DataSource.Symbol, report); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func newFetcher(cfg *config.Config) (marketdata.Fetcher, error) {
	if cfg.DataSource.Provider == config.ProviderCSV {
		return marketdata.NewCSVFetcher(cfg.DataSource.CSVPath), nil
	}
	f, err := marketdata.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	if err != nil {
		return nil, err
	}
	if cfg.DataSource.BaseURL != "" {
		f.BaseURL = cfg.DataSource.BaseURL
	}
	return f, nil
}

func newRecorder(cfg *config.Config, log logrus.FieldLogger) (recorder.Recorder, error) {
	if cfg.Output.SQLitePath == "" {
		return recorder.NoopRecorder{}, nil
	}
	return recorder.NewSQLiteRecorder(cfg.Output.SQLitePath, log)
}

// exportResults writes the headline numbers of report as indented JSON.
func exportResults(path, symbol, source string, report *pipeline.Report) error {
	res := Results{
		Symbol:         symbol,
		Source:         source,
		NObs:           report.Model.NObs(),
		Order:          report.Model.Order().String(),
		AIC:            report.Model.Criteria().AIC,
		BIC:            report.Model.Criteria().BIC,
		RMSE:           report.Metrics.RMSE,
		MAE:            report.Metrics.MAE,
		MAPE:           report.Metrics.MAPE,
		RawStationary:  report.Raw.ADF.IsStationary,
		DiffStationary: report.Differenced.ADF.IsStationary,
	}
	fc := report.Forecast
	for i := 0; i < fc.Mean.Len(); i++ {
		res.Forecast = append(res.Forecast, ForecastPoint{
			Date:  fc.Mean.Time(i).Format(time.DateOnly),
			Mean:  fc.Mean.At(i),
			Lower: fc.Lower.At(i),
			Upper: fc.Upper.At(i),
		})
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
