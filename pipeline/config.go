package pipeline

import (
	"fmt"

	"github.com/sartorproj/tsforecast/arima"
	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
)

// Config holds the analysis constants of one run.
type Config struct {
	// TargetColumn is the table column that is tested, modelled and forecast.
	TargetColumn string

	// Significance is the ADF p-value threshold for calling a series
	// stationary.
	Significance float64

	// Order is fixed. Stationarity results are reported but never used to
	// change it.
	Order arima.Order

	// Horizon is the number of steps to forecast.
	Horizon int

	// Confidence is the coverage of the forecast interval.
	Confidence float64

	// MAWindows are the trailing moving-average windows added to the table.
	MAWindows []int

	// CorrelogramLags is the largest ACF/PACF lag reported for the
	// differenced series.
	CorrelogramLags int

	// KPSSRegression is "c" or "ct".
	KPSSRegression string
}

// DefaultConfig returns the daily-price defaults.
func DefaultConfig() Config {
	return Config{
		TargetColumn:    timeseries.ColumnClose,
		Significance:    stats.DefaultSignificance,
		Order:           arima.DefaultOrder,
		Horizon:         30,
		Confidence:      0.95,
		MAWindows:       []int{7, 30},
		CorrelogramLags: 40,
		KPSSRegression:  "c",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.TargetColumn == "" {
		return fmt.Errorf("target column is required")
	}
	if !(c.Significance > 0 && c.Significance < 1) {
		return fmt.Errorf("significance must be in (0, 1), got %v", c.Significance)
	}
	if c.Order.P < 0 || c.Order.D < 0 || c.Order.Q < 0 {
		return fmt.Errorf("invalid order %s", c.Order)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if !(c.Confidence > 0 && c.Confidence < 1) {
		return fmt.Errorf("confidence must be in (0, 1), got %v", c.Confidence)
	}
	for _, w := range c.MAWindows {
		if w <= 0 {
			return fmt.Errorf("moving average window must be positive, got %d", w)
		}
	}
	if c.CorrelogramLags < 1 {
		return fmt.Errorf("correlogram lags must be positive, got %d", c.CorrelogramLags)
	}
	if c.KPSSRegression != "c" && c.KPSSRegression != "ct" {
		return fmt.Errorf("kpss regression must be c or ct, got %q", c.KPSSRegression)
	}
	return nil
}
