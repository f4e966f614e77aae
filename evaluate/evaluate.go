// Package evaluate scores predictions against observed values.
package evaluate

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/tsforecast/timeseries"
)

// ErrZeroActual is returned when an observed value used as a MAPE
// denominator is zero.
var ErrZeroActual = errors.New("observed value is zero, MAPE is undefined")

// Metrics are in-sample accuracy measures over aligned observations.
type Metrics struct {
	RMSE float64
	MAE  float64
	MAPE float64 // fraction; multiply by 100 for percent
	N    int     // number of aligned points
}

// Evaluate aligns truth and prediction on their common timestamps, ignoring
// undefined values, and computes RMSE, MAE and MAPE over the intersection.
func Evaluate(truth, prediction *timeseries.Series) (*Metrics, error) {
	actual, predicted := timeseries.Align(truth, prediction)
	if actual.Len() == 0 {
		return nil, fmt.Errorf("evaluate %q against %q: %w", truth.Name(), prediction.Name(), timeseries.ErrEmptyIntersection)
	}
	return compute(actual.Values(), predicted.Values())
}

func compute(actual, predicted []float64) (*Metrics, error) {
	n := len(actual)
	var sse, sae, sape float64
	for i := 0; i < n; i++ {
		if actual[i] == 0 {
			return nil, fmt.Errorf("%w at %d", ErrZeroActual, i)
		}
		d := actual[i] - predicted[i]
		sse += d * d
		sae += math.Abs(d)
		sape += math.Abs(d / actual[i])
	}
	return &Metrics{
		RMSE: math.Sqrt(sse / float64(n)),
		MAE:  sae / float64(n),
		MAPE: sape / float64(n),
		N:    n,
	}, nil
}
