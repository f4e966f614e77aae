package arima

import (
	"fmt"
	"math"
	"strings"

	"github.com/sartorproj/tsforecast/stats"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ljungBoxLags is the residual autocorrelation horizon reported in summaries.
const ljungBoxLags = 10

// Coefficient is one estimated parameter with its Wald statistics.
type Coefficient struct {
	Name   string
	Value  float64
	StdErr float64
	Z      float64
	PValue float64
	Lower  float64 // 95% interval
	Upper  float64
}

// Summary describes a fitted model.
type Summary struct {
	Order        Order
	NObs         int
	Coefficients []Coefficient
	LogLik       float64
	AIC          float64
	AICc         float64
	BIC          float64
	HQIC         float64
	Evals        int
	LjungBox     *stats.LjungBoxResult   // nil when the residuals are too short
	JarqueBera   *stats.JarqueBeraResult // nil when the residuals are degenerate
}

// Summary returns a summary of the fitted model. Standard errors come from
// a numerical Hessian of the profile log-likelihood; they are NaN when the
// Hessian is not negative definite.
func (m *Model) Summary() (*Summary, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	names, values := m.coefficientVector()
	se := m.standardErrors(values)

	z := distuv.UnitNormal.Quantile(0.975)
	coeffs := make([]Coefficient, 0, len(names)+1)
	for i, name := range names {
		coeffs = append(coeffs, newCoefficient(name, values[i], se[i], z))
	}
	n := float64(m.NObs())
	coeffs = append(coeffs, newCoefficient("sigma2", m.variance, math.Sqrt(2*m.variance*m.variance/n), z))

	s := &Summary{
		Order:        m.order,
		NObs:         m.NObs(),
		Coefficients: coeffs,
		LogLik:       m.ic.LogLik,
		AIC:          m.ic.AIC,
		AICc:         m.ic.AICc,
		BIC:          m.ic.BIC,
		HQIC:         m.ic.HQIC,
		Evals:        m.evals,
	}

	resid, err := m.Residuals()
	if err != nil {
		return nil, err
	}
	if lb, err := stats.LjungBox(resid, ljungBoxLags, m.order.P+m.order.Q); err == nil {
		s.LjungBox = lb
	}
	if jb, err := stats.JarqueBera(resid); err == nil {
		s.JarqueBera = jb
	}
	return s, nil
}

func newCoefficient(name string, value, se, z float64) Coefficient {
	c := Coefficient{Name: name, Value: value, StdErr: se}
	c.Z = value / se
	c.PValue = 2 * distuv.UnitNormal.Survival(math.Abs(c.Z))
	c.Lower = value - z*se
	c.Upper = value + z*se
	return c
}

// coefficientVector lists the constrained parameters excluding sigma^2.
func (m *Model) coefficientVector() ([]string, []float64) {
	var names []string
	var values []float64
	if m.hasMean() {
		names = append(names, "const")
		values = append(values, m.mean)
	}
	for i, v := range m.ar {
		names = append(names, fmt.Sprintf("ar.L%d", i+1))
		values = append(values, v)
	}
	for i, v := range m.ma {
		names = append(names, fmt.Sprintf("ma.L%d", i+1))
		values = append(values, v)
	}
	return names, values
}

func (m *Model) standardErrors(values []float64) []float64 {
	k := len(values)
	se := make([]float64, k)
	for i := range se {
		se[i] = math.NaN()
	}
	if k == 0 {
		return se
	}

	p := m.order.P
	loglik := func(x []float64) float64 {
		mean := 0.0
		i := 0
		if m.hasMean() {
			mean = x[0]
			i = 1
		}
		out, err := m.run(mean, x[i:i+p], x[i+p:])
		if err != nil {
			return math.NaN()
		}
		return out.logLik
	}

	hess := mat.NewSymDense(k, nil)
	fd.Hessian(hess, loglik, values, nil)

	info := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			v := -hess.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return se
			}
			info.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(info); !ok {
		return se
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return se
	}
	for i := range se {
		if v := cov.At(i, i); v > 0 {
			se[i] = math.Sqrt(v)
		}
	}
	return se
}

// String renders the summary as a coefficient table followed by fit
// statistics and residual diagnostics.
func (s *Summary) String() string {
	var b strings.Builder
	rule := strings.Repeat("=", 78)

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%-20s %s\n", "Model:", s.Order)
	fmt.Fprintf(&b, "%-20s %d\n", "No. Observations:", s.NObs)
	fmt.Fprintf(&b, "%-20s %.3f\n", "Log Likelihood:", s.LogLik)
	fmt.Fprintf(&b, "%-20s %.3f\n", "AIC:", s.AIC)
	fmt.Fprintf(&b, "%-20s %.3f\n", "AICc:", s.AICc)
	fmt.Fprintf(&b, "%-20s %.3f\n", "BIC:", s.BIC)
	fmt.Fprintf(&b, "%-20s %.3f\n", "HQIC:", s.HQIC)
	fmt.Fprintf(&b, "%-20s %d\n", "Evaluations:", s.Evals)
	fmt.Fprintln(&b, strings.Repeat("-", 78))
	fmt.Fprintf(&b, "%-10s %12s %12s %9s %8s %12s %12s\n", "", "coef", "std err", "z", "P>|z|", "[0.025", "0.975]")
	for _, c := range s.Coefficients {
		fmt.Fprintf(&b, "%-10s %12.4f %12.4f %9.3f %8.3f %12.4f %12.4f\n",
			c.Name, c.Value, c.StdErr, c.Z, c.PValue, c.Lower, c.Upper)
	}
	fmt.Fprintln(&b, strings.Repeat("-", 78))
	if s.LjungBox != nil {
		fmt.Fprintf(&b, "Ljung-Box (L%d) Q: %.2f  Prob(Q): %.2f\n", s.LjungBox.Lags, s.LjungBox.Statistic, s.LjungBox.PValue)
	}
	if s.JarqueBera != nil {
		fmt.Fprintf(&b, "Jarque-Bera (JB): %.2f  Prob(JB): %.2f  Skew: %.2f  Kurtosis: %.2f\n",
			s.JarqueBera.Statistic, s.JarqueBera.PValue, s.JarqueBera.Skew, s.JarqueBera.Kurtosis)
	}
	fmt.Fprintln(&b, rule)
	return b.String()
}
