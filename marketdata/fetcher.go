// Package marketdata loads daily OHLCV history from external sources.
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/sartorproj/tsforecast/timeseries"
)

// ErrNoData is returned when a source has no bars for the request.
var ErrNoData = errors.New("no market data")

// Fetcher retrieves daily bars for a symbol in [start, end). Bars are
// returned in strictly increasing time order, one per calendar day.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]timeseries.Bar, error)
	Name() string
}

// truncateDay returns the UTC calendar day containing t.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inRange keeps bars whose day lies in [start, end). A zero bound is open.
func inRange(bars []timeseries.Bar, start, end time.Time) []timeseries.Bar {
	out := bars[:0:0]
	for _, b := range bars {
		if !start.IsZero() && b.Time.Before(truncateDay(start)) {
			continue
		}
		if !end.IsZero() && !b.Time.Before(truncateDay(end)) {
			continue
		}
		out = append(out, b)
	}
	return out
}
