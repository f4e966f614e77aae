// Package tsforecast analyses and forecasts a single asset's daily price
// series.
//
// A run loads OHLCV history, summarises it, tests the closing price for
// stationarity before and after first differencing, fits a fixed-order ARIMA
// model, scores its in-sample one-step predictions and emits a 30-day point
// forecast with confidence bounds.
//
// # Quick Start
//
//	fetcher, _ := marketdata.NewYahooFetcher("", 1)
//	bars, _ := fetcher.FetchDaily(ctx, "ETH-USD", start, end)
//	table, _ := timeseries.NewTable(bars)
//	report, err := pipeline.Run(table, pipeline.DefaultConfig(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.WriteText(os.Stdout)
//
// # Packages
//
//   - timeseries: series and observation tables, differencing, alignment, CSV I/O
//   - stats: descriptive statistics, ADF and KPSS tests, ACF/PACF, residual diagnostics
//   - arima: exact-likelihood ARIMA(p,d,q) fitting, summaries and forecasts
//   - evaluate: RMSE, MAE and MAPE over aligned timestamps
//   - pipeline: the staged run and its text report
//   - marketdata: Yahoo Finance and CSV loaders
//   - recorder: SQLite persistence of runs
//   - config: YAML, .env and environment configuration
//
// The demo directory contains the command-line program.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - MacKinnon, J.G. (2010). Critical Values for Cointegration Tests. Queen's Economics Department Working Paper 1227
//   - Durbin, J., & Koopman, S.J. (2012). Time Series Analysis by State Space Methods
package tsforecast
