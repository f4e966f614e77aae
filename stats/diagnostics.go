package stats

import (
	"fmt"
	"math"

	"github.com/sartorproj/tsforecast/timeseries"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int // Degrees of freedom
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// fitdf is the number of estimated ARMA parameters (p + q).
func LjungBox(series *timeseries.Series, lags, fitdf int) (*LjungBoxResult, error) {
	clean := series.DropUndefined()
	n := clean.Len()
	if n < 10 || lags < 1 {
		return nil, fmt.Errorf("ljung-box: %d observations at %d lags: %w", n, lags, timeseries.ErrInsufficientData)
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(clean, lags)
	if acf == nil {
		return nil, fmt.Errorf("ljung-box: constant series: %w", ErrSingular)
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := max(lags-fitdf, 1)
	chi := distuv.ChiSquared{K: float64(dof)}

	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}, nil
}

// JarqueBeraResult represents the result of a Jarque-Bera normality test.
type JarqueBeraResult struct {
	Statistic float64
	PValue    float64
	Skew      float64
	Kurtosis  float64 // non-excess kurtosis, 3 for a normal distribution
}

// JarqueBera tests whether the series has the skewness and kurtosis of a
// normal distribution.
func JarqueBera(series *timeseries.Series) (*JarqueBeraResult, error) {
	values := series.DropUndefined().Values()
	n := len(values)
	if n < 3 {
		return nil, fmt.Errorf("jarque-bera: %d observations: %w", n, timeseries.ErrInsufficientData)
	}

	mean := stat.Mean(values, nil)
	var m2, m3, m4 float64
	for _, v := range values {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	nf := float64(n)
	m2 /= nf
	m3 /= nf
	m4 /= nf
	if m2 == 0 {
		return nil, fmt.Errorf("jarque-bera: constant series: %w", ErrSingular)
	}

	// Population moments, matching the classical statistic.
	skew := m3 / (m2 * math.Sqrt(m2))
	kurt := m4 / (m2 * m2)
	jb := nf / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)

	chi := distuv.ChiSquared{K: 2}
	return &JarqueBeraResult{
		Statistic: jb,
		PValue:    chi.Survival(jb),
		Skew:      skew,
		Kurtosis:  kurt,
	}, nil
}
