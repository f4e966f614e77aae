package pipeline

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sartorproj/tsforecast/arima"
	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticBars(seed int64, n int) []timeseries.Bar {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]timeseries.Bar, n)
	price := 200.0
	for i := range bars {
		open := price
		price += rng.NormFloat64() * 2
		bars[i] = timeseries.Bar{
			Time:     start.AddDate(0, 0, i),
			Open:     open,
			High:     math.Max(open, price) + 1,
			Low:      math.Min(open, price) - 1,
			Close:    price,
			AdjClose: price,
			Volume:   1000 + float64(i),
		}
	}
	return bars
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.05, cfg.Significance)
	assert.Equal(t, arima.Order{P: 1, D: 1, Q: 1}, cfg.Order)
	assert.Equal(t, 30, cfg.Horizon)
	assert.Equal(t, 0.95, cfg.Confidence)
	assert.Equal(t, []int{7, 30}, cfg.MAWindows)
	assert.Equal(t, 40, cfg.CorrelogramLags)
	assert.Equal(t, "Close", cfg.TargetColumn)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty target", func(c *Config) { c.TargetColumn = "" }},
		{"significance", func(c *Config) { c.Significance = 1 }},
		{"order", func(c *Config) { c.Order.P = -1 }},
		{"horizon", func(c *Config) { c.Horizon = 0 }},
		{"confidence", func(c *Config) { c.Confidence = 0 }},
		{"window", func(c *Config) { c.MAWindows = []int{0} }},
		{"lags", func(c *Config) { c.CorrelogramLags = 0 }},
		{"kpss", func(c *Config) { c.KPSSRegression = "x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRun(t *testing.T) {
	table, err := timeseries.NewTable(syntheticBars(1, 400))
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	report, err := Run(table, DefaultConfig(), logger)
	require.NoError(t, err)

	assert.Contains(t, report.Table.Columns(), "MA_7")
	assert.Contains(t, report.Table.Columns(), "MA_30")
	assert.Contains(t, report.Table.Columns(), "Close_diff")
	assert.NotContains(t, table.Columns(), "Close_diff")
	assert.Len(t, report.Summary, 8)

	require.NotNil(t, report.Raw.ADF)
	require.NotNil(t, report.Differenced.ADF)
	assert.True(t, report.Differenced.ADF.IsStationary)
	require.NotNil(t, report.Differenced.PP)
	assert.True(t, report.Differenced.PP.IsStationary)

	require.NotNil(t, report.ACF)
	assert.Len(t, report.ACF.Values, 41)

	assert.Equal(t, arima.DefaultOrder, report.Model.Order())
	require.NotNil(t, report.ModelSummary)
	require.NotNil(t, report.Metrics)
	assert.Equal(t, 399, report.Metrics.N)
	assert.False(t, math.IsNaN(report.Metrics.RMSE))

	require.NotNil(t, report.Forecast)
	assert.Equal(t, 30, report.Forecast.Mean.Len())
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 400), report.Forecast.Mean.Time(0))

	var stages []any
	for _, e := range hook.AllEntries() {
		stages = append(stages, e.Data["stage"])
	}
	assert.Contains(t, stages, StageFit)
	assert.Contains(t, stages, StageForecast)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "ADF Statistic")
	assert.Contains(t, out, "PP Statistic")
	assert.Contains(t, out, "ARIMA(1,1,1)")
	assert.Contains(t, out, "MAPE")
	assert.Contains(t, out, "FORECAST (30 steps, 95% interval)")
}

func TestRunOrderIsFixed(t *testing.T) {
	table, err := timeseries.NewTable(syntheticBars(2, 200))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Order = arima.Order{P: 0, D: 1, Q: 1}
	report, err := Run(table, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Order, report.Model.Order())
}

func TestRunStageErrors(t *testing.T) {
	short, err := timeseries.NewTable(syntheticBars(3, 15))
	require.NoError(t, err)

	_, err = Run(short, DefaultConfig(), nil)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageTestRaw, stageErr.Stage)
	assert.ErrorIs(t, err, timeseries.ErrInsufficientData)

	table, err := timeseries.NewTable(syntheticBars(4, 100))
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.TargetColumn = "Missing"
	_, err = Run(table, cfg, nil)
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageSummarize, stageErr.Stage)

	cfg = DefaultConfig()
	cfg.Horizon = -1
	report, err := Run(table, cfg, nil)
	assert.Nil(t, report)
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageConfig, stageErr.Stage)
}

func TestRunConstantSeries(t *testing.T) {
	bars := syntheticBars(5, 100)
	for i := range bars {
		bars[i].Close = 100
	}
	table, err := timeseries.NewTable(bars)
	require.NoError(t, err)

	_, err = Run(table, DefaultConfig(), nil)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageTestRaw, stageErr.Stage)
}
