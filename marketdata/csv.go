package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/sartorproj/tsforecast/timeseries"
)

// CSVFetcher implements Fetcher over a local OHLCV file, such as one
// written by Table.SaveCSV. The symbol is informational only.
type CSVFetcher struct {
	Path    string
	Options *timeseries.CSVOptions
}

// NewCSVFetcher reads path with the default CSV options.
func NewCSVFetcher(path string) *CSVFetcher {
	return &CSVFetcher{Path: path, Options: timeseries.DefaultCSVOptions()}
}

// Name identifies the source in logs.
func (f *CSVFetcher) Name() string { return "csv" }

// FetchDaily reads the file and keeps the bars in [start, end).
func (f *CSVFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]timeseries.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars, err := timeseries.LoadCSV(f.Path, f.Options)
	if err != nil {
		return nil, fmt.Errorf("csv %s: %w", f.Path, err)
	}

	bars = inRange(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("csv %s (%s): %w", f.Path, symbol, ErrNoData)
	}
	return bars, nil
}
