package stats

import (
	"fmt"
	"math"

	"github.com/sartorproj/tsforecast/timeseries"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSignificance is the p-value threshold used to classify a series.
const DefaultSignificance = 0.05

// MinADFObservations is the fewest defined points ADF accepts.
const MinADFObservations = 20

// LagCriterion selects how ADF chooses the number of lagged differences.
type LagCriterion string

const (
	// LagAIC picks the lag with the lowest Akaike criterion.
	LagAIC LagCriterion = "aic"
	// LagBIC picks the lag with the lowest Bayesian criterion.
	LagBIC LagCriterion = "bic"
	// LagFixed uses MaxLag as given.
	LagFixed LagCriterion = "fixed"
)

// Options configures ADF. The zero value selects lags by AIC up to the
// Schwert bound and classifies at DefaultSignificance.
type Options struct {
	MaxLag       int // 0 selects ceil(12*(n/100)^(1/4))
	Criterion    LagCriterion
	Significance float64
}

func (o Options) significance() float64 {
	if o.Significance <= 0 || o.Significance >= 1 {
		return DefaultSignificance
	}
	return o.Significance
}

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	NObs           int
	CriticalValues map[string]float64 // keyed "1%", "5%", "10%"
	ICBest         float64            // NaN when lags are fixed
	IsStationary   bool
}

// ADF performs the Augmented Dickey-Fuller test for a unit root with a
// constant in the test regression. The null hypothesis is that the series
// has a unit root; the series is classified stationary when the p-value does
// not exceed the significance level. Undefined values are dropped first.
func ADF(series *timeseries.Series, opts Options) (*ADFResult, error) {
	x := series.DropUndefined().Values()
	n := len(x)
	if n < MinADFObservations {
		return nil, fmt.Errorf("adf: %d observations, need %d: %w", n, MinADFObservations, timeseries.ErrInsufficientData)
	}

	maxLag := opts.MaxLag
	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	maxLag = min(maxLag, n/2-2)
	if maxLag < 0 {
		return nil, fmt.Errorf("adf: series too short for lag selection: %w", timeseries.ErrInsufficientData)
	}

	diff := make([]float64, n-1)
	floats.SubTo(diff, x[1:], x[:n-1])

	usedLag := maxLag
	icBest := math.NaN()
	if opts.Criterion != LagFixed {
		// All candidates share the sample implied by maxLag.
		best := math.Inf(1)
		for lag := 0; lag <= maxLag; lag++ {
			res, err := olsRegression(adfDesign(x, diff, maxLag, lag), diff[maxLag:])
			if err != nil {
				continue
			}
			ic := res.aic()
			if opts.Criterion == LagBIC {
				ic = res.bic()
			}
			if ic < best {
				best, usedLag = ic, lag
			}
		}
		if math.IsInf(best, 1) {
			return nil, fmt.Errorf("adf: lag selection: %w", ErrSingular)
		}
		icBest = best
	}

	res, err := olsRegression(adfDesign(x, diff, usedLag, usedLag), diff[usedLag:])
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	tStat := res.coeffs[1] / res.stdErrors[1]
	pValue := MacKinnonPValue(tStat)

	return &ADFResult{
		Statistic:      tStat,
		PValue:         pValue,
		Lags:           usedLag,
		NObs:           res.nobs,
		CriticalValues: MacKinnonCritical(res.nobs),
		ICBest:         icBest,
		IsStationary:   pValue <= opts.significance(),
	}, nil
}

// adfDesign builds the regressors [1, x_{t}, dx_{t-1}, ..., dx_{t-lags}] for
// the response dx_{t}, t = trim..len(diff)-1, where dx_t = x_{t+1} - x_t.
func adfDesign(x, diff []float64, trim, lags int) *mat.Dense {
	rows := len(diff) - trim
	cols := 2 + lags
	design := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		t := i + trim
		design.Set(i, 0, 1)
		design.Set(i, 1, x[t])
		for j := 1; j <= lags; j++ {
			design.Set(i, 1+j, diff[t-j])
		}
	}
	return design
}

// MacKinnon (1994) response surface for a constant-only regression with one
// variable.
var (
	tauMax      = 2.74
	tauMin      = -18.83
	tauStar     = -1.61
	tauSmallP   = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP   = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	tauCritical = map[string][]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.04},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
)

// MacKinnonPValue returns the approximate p-value of an ADF statistic for a
// regression with a constant.
func MacKinnonPValue(stat float64) float64 {
	switch {
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}
	coeffs := tauLargeP
	if stat <= tauStar {
		coeffs = tauSmallP
	}
	return distuv.UnitNormal.CDF(polyval(coeffs, stat))
}

// MacKinnonCritical returns the 1%, 5% and 10% critical values for nobs
// observations using the MacKinnon (2010) finite-sample surface.
func MacKinnonCritical(nobs int) map[string]float64 {
	out := make(map[string]float64, len(tauCritical))
	for level, coeffs := range tauCritical {
		out[level] = polyval(coeffs, 1/float64(nobs))
	}
	return out
}

// polyval evaluates c[0] + c[1]*x + c[2]*x^2 + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// PhillipsPerronResult represents the result of a Phillips-Perron test.
type PhillipsPerronResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	NObs           int
	CriticalValues map[string]float64
	IsStationary   bool
}

// PhillipsPerron performs the Phillips-Perron Z-tau test for a unit root
// with a constant. Unlike ADF it adds no lagged differences; serial
// correlation is handled by a Newey-West correction of the t statistic.
// nlags <= 0 selects floor(4*(n/100)^(1/4)). The statistic shares the ADF
// null distribution, so p-values and critical values are MacKinnon's.
func PhillipsPerron(series *timeseries.Series, nlags int, alpha float64) (*PhillipsPerronResult, error) {
	x := series.DropUndefined().Values()
	n := len(x)
	if n < MinADFObservations {
		return nil, fmt.Errorf("pp: %d observations, need %d: %w", n, MinADFObservations, timeseries.ErrInsufficientData)
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultSignificance
	}

	diff := make([]float64, n-1)
	floats.SubTo(diff, x[1:], x[:n-1])
	nobs := len(diff)

	if nlags <= 0 {
		nlags = int(math.Floor(4 * math.Pow(float64(n)/100, 0.25)))
	}
	nlags = min(nlags, nobs-1)

	// dx_t = alpha + beta*x_t + u_t
	res, err := olsRegression(adfDesign(x, diff, 0, 0), diff)
	if err != nil {
		return nil, fmt.Errorf("pp: %w", err)
	}

	resid := make([]float64, nobs)
	for t, d := range diff {
		resid[t] = d - res.coeffs[0] - res.coeffs[1]*x[t]
	}

	gamma0 := res.ssr / float64(nobs)
	lambda2 := gamma0
	for l := 1; l <= nlags; l++ {
		cov := floats.Dot(resid[l:], resid[:nobs-l]) / float64(nobs)
		lambda2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if lambda2 <= 0 {
		return nil, fmt.Errorf("pp: non-positive long-run variance: %w", ErrSingular)
	}

	se := res.stdErrors[1]
	s := math.Sqrt(res.ssr / float64(nobs-2))
	tStat := res.coeffs[1] / se
	lambda := math.Sqrt(lambda2)
	stat := math.Sqrt(gamma0/lambda2)*tStat - (lambda2-gamma0)/(2*lambda)*float64(nobs)*se/s

	pValue := MacKinnonPValue(stat)
	return &PhillipsPerronResult{
		Statistic:      stat,
		PValue:         pValue,
		Lags:           nlags,
		NObs:           nobs,
		CriticalValues: MacKinnonCritical(nobs),
		IsStationary:   pValue <= alpha,
	}, nil
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	CriticalValues map[string]float64
	IsStationary   bool
}

// kpssTable holds the KPSS (1992) critical values for a regression type.
type kpssTable struct {
	crit  []float64
	pvals []float64
}

var kpssTables = map[string]kpssTable{
	"c":  {crit: []float64{0.347, 0.463, 0.574, 0.739}, pvals: []float64{0.10, 0.05, 0.025, 0.01}},
	"ct": {crit: []float64{0.119, 0.146, 0.176, 0.216}, pvals: []float64{0.10, 0.05, 0.025, 0.01}},
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is level ("c") or trend ("ct")
// stationary, so the series is classified stationary when the p-value
// exceeds alpha. The p-value is interpolated from the tabulated critical
// values and clipped to [0.01, 0.10].
func KPSS(series *timeseries.Series, regression string, nlags int, alpha float64) (*KPSSResult, error) {
	x := series.DropUndefined().Values()
	n := len(x)
	if n < MinADFObservations {
		return nil, fmt.Errorf("kpss: %d observations, need %d: %w", n, MinADFObservations, timeseries.ErrInsufficientData)
	}
	if regression == "" {
		regression = "c"
	}
	table, ok := kpssTables[regression]
	if !ok {
		return nil, fmt.Errorf("kpss: unknown regression %q", regression)
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultSignificance
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	nlags = min(nlags, n-1)

	residuals := make([]float64, n)
	if regression == "ct" {
		design := mat.NewDense(n, 2, nil)
		for i := range x {
			design.Set(i, 0, 1)
			design.Set(i, 1, float64(i))
		}
		res, err := olsRegression(design, x)
		if err != nil {
			return nil, fmt.Errorf("kpss: detrend: %w", err)
		}
		for i, v := range x {
			residuals[i] = v - res.coeffs[0] - res.coeffs[1]*float64(i)
		}
	} else {
		mean := floats.Sum(x) / float64(n)
		for i, v := range x {
			residuals[i] = v - mean
		}
	}

	// Long-run variance with Bartlett weights.
	s2 := floats.Dot(residuals, residuals) / float64(n)
	for l := 1; l <= nlags; l++ {
		cov := floats.Dot(residuals[l:], residuals[:n-l]) / float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		return nil, fmt.Errorf("kpss: non-positive long-run variance: %w", ErrSingular)
	}

	cumSum := make([]float64, n)
	floats.CumSum(cumSum, residuals)
	stat := floats.Dot(cumSum, cumSum) / (float64(n) * float64(n) * s2)

	pValue := interpolate(stat, table.crit, table.pvals)
	crit := map[string]float64{
		"10%":  table.crit[0],
		"5%":   table.crit[1],
		"2.5%": table.crit[2],
		"1%":   table.crit[3],
	}

	return &KPSSResult{
		Statistic:      stat,
		PValue:         pValue,
		Lags:           nlags,
		CriticalValues: crit,
		IsStationary:   pValue > alpha,
	}, nil
}

// interpolate maps x through the increasing knots xs onto ys, clamping
// outside the table.
func interpolate(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}
	for i := 1; i <= last; i++ {
		if x <= xs[i] {
			w := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + w*(ys[i]-ys[i-1])
		}
	}
	return ys[last]
}
