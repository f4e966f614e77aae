package evaluate

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sartorproj/tsforecast/arima"
	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	truth := timeseries.New([]float64{100, 200, 400})
	pred := timeseries.New([]float64{110, 190, 400})

	m, err := Evaluate(truth, pred)
	require.NoError(t, err)

	assert.Equal(t, 3, m.N)
	assert.InDelta(t, math.Sqrt(200.0/3), m.RMSE, 1e-12)
	assert.InDelta(t, 20.0/3, m.MAE, 1e-12)
	assert.InDelta(t, (0.1+0.05)/3, m.MAPE, 1e-12)
}

func TestEvaluateAlignsOnTimestamps(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	truth := timeseries.NewDaily(start, []float64{10, 20, 30, 40})
	pred := timeseries.NewDaily(start.AddDate(0, 0, 1), []float64{22, math.NaN(), 44, 99})

	m, err := Evaluate(truth, pred)
	require.NoError(t, err)
	assert.Equal(t, 2, m.N)
	assert.InDelta(t, 3.0, m.MAE, 1e-12)
	assert.InDelta(t, (0.1+0.1)/2, m.MAPE, 1e-12)
}

func TestEvaluateDisjoint(t *testing.T) {
	a := timeseries.NewDaily(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []float64{1, 2, 3})
	b := timeseries.NewDaily(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), []float64{1, 2, 3})

	_, err := Evaluate(a, b)
	assert.ErrorIs(t, err, timeseries.ErrEmptyIntersection)
}

func TestEvaluateZeroActual(t *testing.T) {
	_, err := Evaluate(timeseries.New([]float64{1, 0, 2}), timeseries.New([]float64{1, 1, 1}))
	assert.ErrorIs(t, err, ErrZeroActual)
}

func TestEvaluateRandomWalkFit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 300)
	level := 1000.0
	for i := range values {
		level += rng.NormFloat64()
		values[i] = level
	}
	series := timeseries.New(values)

	model, err := arima.Fit(series, arima.DefaultOrder)
	require.NoError(t, err)

	truth := series.Slice(1, series.Len())
	fitted, err := model.FittedValues()
	require.NoError(t, err)
	m, err := Evaluate(truth, fitted)
	require.NoError(t, err)
	t.Logf("rmse=%.4f mae=%.4f mape=%.6f n=%d", m.RMSE, m.MAE, m.MAPE, m.N)

	assert.Equal(t, 299, m.N)
	assert.False(t, math.IsNaN(m.RMSE) || math.IsInf(m.RMSE, 0))
	assert.False(t, math.IsNaN(m.MAPE) || math.IsInf(m.MAPE, 0))
	assert.InDelta(t, 1.0, m.RMSE, 0.5)
}
