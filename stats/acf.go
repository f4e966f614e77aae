// Package stats provides statistical tests and functions for time series analysis.
package stats

import (
	"math"

	"github.com/sartorproj/tsforecast/timeseries"
	"gonum.org/v1/gonum/stat"
)

// ACF calculates the Autocorrelation Function for the defined values of the
// series. Returns ACF values for lags 0 to maxLag, or nil for a constant or
// empty series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	values := series.DropUndefined().Values()
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(values, nil)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}

	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf
}

// PACF calculates the Partial Autocorrelation Function by solving the
// Yule-Walker equations on the biased autocovariances with the
// Durbin-Levinson recursion. Returns PACF values for lags 0 to maxLag.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	acf := ACF(series, maxLag)
	if len(acf) < 2 {
		return nil
	}
	maxLag = len(acf) - 1

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1.0

	phi := make([]float64, maxLag+1)
	prev := make([]float64, maxLag+1)
	phi[1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		copy(prev, phi)

		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
			den -= prev[j] * acf[j]
		}

		if den == 0 {
			break
		}

		phi[k] = num / den
		pacf[k] = phi[k]

		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
	}

	return pacf
}

// Correlogram holds ACF or PACF values with their 95% bounds.
type Correlogram struct {
	Lags      []int
	Values    []float64
	ConfBound float64 // ±1.96/sqrt(n)
}

// Significant returns the lags (excluding 0) outside the confidence bounds.
func (c *Correlogram) Significant() []int {
	return SignificantLags(c.Values, c.ConfBound)
}

func newCorrelogram(values []float64, n int) *Correlogram {
	if values == nil {
		return nil
	}
	lags := make([]int, len(values))
	for i := range lags {
		lags[i] = i
	}
	return &Correlogram{
		Lags:      lags,
		Values:    values,
		ConfBound: 1.96 / math.Sqrt(float64(n)),
	}
}

// ACFWithConfidence calculates ACF with confidence bounds.
func ACFWithConfidence(series *timeseries.Series, maxLag int) *Correlogram {
	clean := series.DropUndefined()
	return newCorrelogram(ACF(clean, maxLag), clean.Len())
}

// PACFWithConfidence calculates PACF with confidence bounds.
func PACFWithConfidence(series *timeseries.Series, maxLag int) *Correlogram {
	clean := series.DropUndefined()
	return newCorrelogram(PACF(clean, maxLag), clean.Len())
}

// SignificantLags returns the lags where ACF/PACF values exceed confidence bounds.
func SignificantLags(values []float64, confBound float64) []int {
	var significant []int
	for i := 1; i < len(values); i++ {
		if math.Abs(values[i]) > confBound {
			significant = append(significant, i)
		}
	}
	return significant
}
