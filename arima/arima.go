// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrModelFit is returned when a model cannot be estimated.
	ErrModelFit = errors.New("model fit failed")

	// ErrNotFitted is returned by methods of a Model that did not come
	// from Fit.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrInvalidHorizon is returned for a non-positive forecast horizon.
	ErrInvalidHorizon = errors.New("forecast horizon must be positive")

	// ErrInvalidConfidence is returned for a confidence level outside (0, 1).
	ErrInvalidConfidence = errors.New("confidence must be in (0, 1)")
)

// MinExtraObservations is how many points beyond p+d+q a series needs.
const MinExtraObservations = 10

// penalty replaces the objective where the likelihood cannot be evaluated.
const penalty = 1e10

// maxEvaluations bounds the likelihood evaluations of one fit.
var maxEvaluations = 20000

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

// DefaultOrder is the fixed ARIMA(1,1,1) order.
var DefaultOrder = Order{P: 1, D: 1, Q: 1}

// String renders the order as ARIMA(p,d,q).
func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model is a fitted ARIMA model. Fit is the only way to obtain a usable
// one; its state is read through accessors and never changes after Fit
// returns. Methods of a zero Model return ErrNotFitted.
type Model struct {
	order    Order
	ar       []float64 // phi
	ma       []float64 // theta
	mean     float64   // zero when d > 0
	variance float64   // innovation variance sigma^2
	ic       stats.InformationCriteria
	evals    int

	data   *timeseries.Series // clean input
	diffed []float64          // defined values of the d-th difference
	out    *filterOutput
}

// Fit estimates an ARIMA model by exact Gaussian maximum likelihood. The
// d-th difference of the series is modelled as a stationary, invertible
// ARMA(p, q) evaluated with a Kalman filter; a mean term is estimated only
// when d is zero. Undefined values are dropped first. An optimizer that
// stops at its evaluation or iteration limit is a failed fit.
func Fit(series *timeseries.Series, order Order) (*Model, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("%w: invalid order %s", ErrModelFit, order)
	}

	clean := series.DropUndefined()
	need := order.P + order.D + order.Q + MinExtraObservations
	if clean.Len() < need {
		return nil, fmt.Errorf("%w: %w: %d observations, %s needs %d",
			ErrModelFit, timeseries.ErrInsufficientData, clean.Len(), order, need)
	}

	w := clean.DiffN(order.D).DropUndefined().Values()
	if floats.Max(w)-floats.Min(w) == 0 {
		return nil, fmt.Errorf("%w: differenced series has zero variance", ErrModelFit)
	}

	m := &Model{
		order:  order,
		data:   clean,
		diffed: w,
	}

	x := m.startParams()
	if len(x) > 0 {
		result, err := m.optimize(x)
		if err != nil {
			return nil, err
		}
		x = result.X
		m.evals = result.Stats.FuncEvaluations
	}

	mean, ar, ma := m.unpack(x)
	out, err := m.run(mean, ar, ma)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFit, err)
	}

	m.mean, m.ar, m.ma = mean, ar, ma
	m.out = out
	m.variance = out.sigma2
	m.ic = *stats.CalculateIC(out.logLik, len(w), m.nParams())
	return m, nil
}

// check reports whether m came from Fit.
func (m *Model) check() error {
	if m == nil || m.out == nil {
		return ErrNotFitted
	}
	return nil
}

// Order returns the model order.
func (m *Model) Order() Order { return m.order }

// AR returns a copy of the autoregressive coefficients.
func (m *Model) AR() []float64 { return append([]float64(nil), m.ar...) }

// MA returns a copy of the moving average coefficients.
func (m *Model) MA() []float64 { return append([]float64(nil), m.ma...) }

// Mean returns the estimated process mean, zero when d > 0.
func (m *Model) Mean() float64 { return m.mean }

// Variance returns the innovation variance.
func (m *Model) Variance() float64 { return m.variance }

// LogLik returns the maximised log-likelihood.
func (m *Model) LogLik() float64 { return m.ic.LogLik }

// Criteria returns AIC, AICc, BIC and HQIC of the fit.
func (m *Model) Criteria() stats.InformationCriteria { return m.ic }

// Evals returns the likelihood evaluations used by the optimizer.
func (m *Model) Evals() int { return m.evals }

func (m *Model) hasMean() bool {
	return m.order.D == 0
}

// nParams counts the estimated parameters including sigma^2.
func (m *Model) nParams() int {
	k := m.order.P + m.order.Q + 1
	if m.hasMean() {
		k++
	}
	return k
}

// startParams returns unconstrained start values: the sample mean,
// Yule-Walker AR estimates and zero MA terms.
func (m *Model) startParams() []float64 {
	var x []float64
	y := m.diffed
	if m.hasMean() {
		mean := stat.Mean(y, nil)
		x = append(x, mean)
		y = make([]float64, len(m.diffed))
		for i, v := range m.diffed {
			y[i] = v - mean
		}
	}

	ar := make([]float64, m.order.P)
	if m.order.P > 0 {
		if yw := yuleWalker(stats.ACF(timeseries.New(y), m.order.P), m.order.P); yw != nil {
			ar = yw
		}
	}
	x = append(x, unconstrainStationary(ar)...)
	x = append(x, unconstrainInvertible(make([]float64, m.order.Q))...)
	return x
}

// unpack maps an unconstrained parameter vector onto model coefficients.
func (m *Model) unpack(x []float64) (mean float64, ar, ma []float64) {
	i := 0
	if m.hasMean() {
		mean = x[0]
		i = 1
	}
	ar = constrainStationary(x[i : i+m.order.P])
	ma = constrainInvertible(x[i+m.order.P : i+m.order.P+m.order.Q])
	return mean, ar, ma
}

// run filters the differenced data under the given coefficients.
func (m *Model) run(mean float64, ar, ma []float64) (*filterOutput, error) {
	y := m.diffed
	if mean != 0 {
		y = make([]float64, len(m.diffed))
		for i, v := range m.diffed {
			y[i] = v - mean
		}
	}
	return newStateSpace(ar, ma).filter(y)
}

func (m *Model) optimize(x0 []float64) (*optimize.Result, error) {
	n := float64(len(m.diffed))
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			mean, ar, ma := m.unpack(x)
			out, err := m.run(mean, ar, ma)
			if err != nil || math.IsNaN(out.logLik) {
				return penalty
			}
			return -out.logLik / n
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if result == nil {
		return nil, fmt.Errorf("%w: optimizer: %v", ErrModelFit, err)
	}
	switch result.Status {
	case optimize.FunctionEvaluationLimit, optimize.IterationLimit:
		return nil, fmt.Errorf("%w: optimizer did not converge: %v after %d evaluations",
			ErrModelFit, result.Status, result.Stats.FuncEvaluations)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: optimizer: %v", ErrModelFit, err)
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) || result.F >= penalty {
		return nil, fmt.Errorf("%w: likelihood is not finite at the optimum", ErrModelFit)
	}
	return result, nil
}

// NObs returns the number of observations the likelihood was evaluated on.
func (m *Model) NObs() int {
	return len(m.diffed)
}

// Data returns the series the model was fitted to.
func (m *Model) Data() *timeseries.Series {
	return m.data
}

// FittedValues returns one-step-ahead predictions on the scale of the
// original series. The first d timestamps have no prediction and are
// omitted.
func (m *Model) FittedValues() (*timeseries.Series, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	obs := m.data.Slice(m.order.D, m.data.Len())
	vals := obs.Values()
	for i := range vals {
		vals[i] -= m.out.v[i]
	}
	fitted, err := obs.WithValues(vals)
	if err != nil {
		return nil, err
	}
	return fitted.WithName("fitted"), nil
}

// Residuals returns observed minus fitted values on the FittedValues index.
func (m *Model) Residuals() (*timeseries.Series, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	obs := m.data.Slice(m.order.D, m.data.Len())
	resid, err := obs.WithValues(m.out.v)
	if err != nil {
		return nil, err
	}
	return resid.WithName("residuals"), nil
}

// finalState returns a copy of the predicted state one step past the sample.
func (m *Model) finalState() *mat.VecDense {
	return mat.VecDenseCopyOf(m.out.state)
}
