package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whiteNoise(seed int64, n int, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = sigma * rng.NormFloat64()
	}
	return values
}

func randomWalk(seed int64, n int) []float64 {
	steps := whiteNoise(seed, n, 1)
	values := make([]float64, n)
	level := 100.0
	for i, e := range steps {
		level += e
		values[i] = level
	}
	return values
}

func ar1(seed int64, n int, phi float64) []float64 {
	noise := whiteNoise(seed, n, 1)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + noise[i]
	}
	return values
}

func TestACF(t *testing.T) {
	series := timeseries.New(ar1(1, 500, 0.8))
	acf := ACF(series, 10)

	require.Len(t, acf, 11)
	assert.InDelta(t, 1.0, acf[0], 1e-10)
	assert.InDelta(t, 0.8, acf[1], 0.1)
	assert.Greater(t, acf[1], acf[5])
}

func TestACFConstant(t *testing.T) {
	assert.Nil(t, ACF(timeseries.New([]float64{3, 3, 3, 3}), 2))
}

func TestACFSkipsUndefined(t *testing.T) {
	values := ar1(2, 200, 0.5)
	withGap := append([]float64{math.NaN()}, values...)

	assert.Equal(t, ACF(timeseries.New(values), 5), ACF(timeseries.New(withGap), 5))
}

func TestPACF(t *testing.T) {
	series := timeseries.New(ar1(3, 1000, 0.7))
	pacf := PACF(series, 10)

	require.Len(t, pacf, 11)
	assert.InDelta(t, 1.0, pacf[0], 1e-10)
	assert.InDelta(t, 0.7, pacf[1], 0.1)
	for lag := 2; lag <= 10; lag++ {
		assert.Less(t, math.Abs(pacf[lag]), 0.15, "lag %d", lag)
	}
}

func TestCorrelogram(t *testing.T) {
	series := timeseries.New(ar1(4, 400, 0.8)).Diff()

	acf := ACFWithConfidence(series, 40)
	require.NotNil(t, acf)
	assert.Len(t, acf.Values, 41)
	assert.InDelta(t, 1.96/math.Sqrt(399), acf.ConfBound, 1e-12)

	pacf := PACFWithConfidence(series, 40)
	require.NotNil(t, pacf)
	assert.Len(t, pacf.Lags, 41)
	t.Logf("significant PACF lags: %v", pacf.Significant())
}

func TestSignificantLags(t *testing.T) {
	values := []float64{1.0, 0.5, 0.1, -0.4, 0.05}
	assert.Equal(t, []int{1, 3}, SignificantLags(values, 0.2))
}

func TestLjungBox(t *testing.T) {
	noise, err := LjungBox(timeseries.New(whiteNoise(5, 500, 1)), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, noise.DOF)
	assert.Greater(t, noise.PValue, 0.001)

	correlated, err := LjungBox(timeseries.New(ar1(6, 500, 0.8)), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, correlated.DOF)
	assert.Less(t, correlated.PValue, 0.05)
	assert.Greater(t, correlated.Statistic, noise.Statistic)

	_, err = LjungBox(timeseries.New([]float64{1, 2, 3}), 10, 0)
	assert.ErrorIs(t, err, timeseries.ErrInsufficientData)
}

func TestJarqueBera(t *testing.T) {
	normal, err := JarqueBera(timeseries.New(whiteNoise(7, 1000, 2)))
	require.NoError(t, err)
	assert.InDelta(t, 0, normal.Skew, 0.25)
	assert.InDelta(t, 3, normal.Kurtosis, 0.5)
	assert.Greater(t, normal.PValue, 0.001)

	rng := rand.New(rand.NewSource(8))
	skewed := make([]float64, 1000)
	for i := range skewed {
		skewed[i] = rng.ExpFloat64()
	}
	exp, err := JarqueBera(timeseries.New(skewed))
	require.NoError(t, err)
	assert.Greater(t, exp.Skew, 1.0)
	assert.Less(t, exp.PValue, 0.01)

	_, err = JarqueBera(timeseries.New([]float64{1, 1, 1, 1}))
	assert.ErrorIs(t, err, ErrSingular)
}
