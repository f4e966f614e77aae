package arima

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sartorproj/tsforecast/timeseries"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ForecastResult holds point forecasts with a symmetric confidence interval.
type ForecastResult struct {
	Mean       *timeseries.Series
	Lower      *timeseries.Series
	Upper      *timeseries.Series
	Confidence float64
	StdErr     []float64
}

// Forecast predicts horizon steps past the end of the fitted series. Bounds
// are mean ± z*se where se grows with the step through the psi weights of
// theta(B) / (phi(B)(1-B)^d). Timestamps continue at the series' modal step.
func (m *Model) Forecast(horizon int, confidence float64) (*ForecastResult, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}

	// Differenced-scale forecasts from the filtered state.
	ss := newStateSpace(m.ar, m.ma)
	a := m.finalState()
	w := make([]float64, horizon)
	for h := range w {
		w[h] = m.mean + a.AtVec(0)
		next := mat.NewVecDense(ss.r, nil)
		next.MulVec(ss.t, a)
		a = next
	}

	mean := m.integrate(w)

	psi := psiWeights(m.ar, m.ma, m.order.D, horizon)
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)

	se := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	cum := 0.0
	for h := 0; h < horizon; h++ {
		cum += psi[h] * psi[h]
		se[h] = math.Sqrt(m.variance * cum)
		lower[h] = mean[h] - z*se[h]
		upper[h] = mean[h] + z*se[h]
	}

	ts := m.data.FutureTimestamps(horizon)
	meanSeries, err := timeseries.NewWithTimestamps(ts, mean)
	if err != nil {
		return nil, err
	}
	lowerSeries, _ := meanSeries.WithValues(lower)
	upperSeries, _ := meanSeries.WithValues(upper)

	return &ForecastResult{
		Mean:       meanSeries.WithName("Forecast"),
		Lower:      lowerSeries.WithName("Lower"),
		Upper:      upperSeries.WithName("Upper"),
		Confidence: confidence,
		StdErr:     se,
	}, nil
}

// integrate undoes d rounds of differencing, anchoring each level at the
// last observed value of the corresponding difference.
func (m *Model) integrate(w []float64) []float64 {
	result := append([]float64(nil), w...)
	for k := m.order.D - 1; k >= 0; k-- {
		_, last, _ := m.data.DiffN(k).Last()
		prev := last
		for h := range result {
			result[h] += prev
			prev = result[h]
		}
	}
	return result
}

// psiWeights returns the first n coefficients of the MA(infinity)
// representation theta(B) / (phi(B)(1-B)^d).
func psiWeights(ar, ma []float64, d, n int) []float64 {
	// phi(B)(1-B)^d as 1 - sum(phiStar_i B^i).
	poly := make([]float64, len(ar)+1)
	poly[0] = 1
	for i, phi := range ar {
		poly[i+1] = -phi
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c
		}
		poly = next
	}

	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		if j == 0 {
			psi[0] = 1
			continue
		}
		v := 0.0
		if j <= len(ma) {
			v = ma[j-1]
		}
		for i := 1; i < len(poly) && i <= j; i++ {
			v -= poly[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// WriteCSV writes Date, Forecast, Lower and Upper columns.
func (f *ForecastResult) WriteCSV(w io.Writer) error {
	return timeseries.WriteCSV(w, "Date", f.Mean, f.Lower, f.Upper)
}

// SaveCSV writes the forecast to filename.
func (f *ForecastResult) SaveCSV(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := f.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
