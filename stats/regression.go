package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a regression design matrix has no unique
// least-squares solution, e.g. for a constant series.
var ErrSingular = errors.New("singular regression")

// olsResult holds an ordinary least squares fit.
type olsResult struct {
	coeffs    []float64
	stdErrors []float64
	ssr       float64
	nobs      int
}

// olsRegression regresses y on the columns of x. Standard errors use the
// unbiased residual variance ssr/(n-k).
func olsRegression(x *mat.Dense, y []float64) (*olsResult, error) {
	n, k := x.Dims()
	if n != len(y) || n <= k {
		return nil, ErrSingular
	}

	xtx := mat.NewSymDense(k, nil)
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(xtx); !ok {
		return nil, ErrSingular
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, ErrSingular
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(yv, &fitted)
	ssr := mat.Dot(&resid, &resid)

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, ErrSingular
	}

	s2 := ssr / float64(n-k)
	res := &olsResult{
		coeffs:    make([]float64, k),
		stdErrors: make([]float64, k),
		ssr:       ssr,
		nobs:      n,
	}
	for i := 0; i < k; i++ {
		res.coeffs[i] = beta.AtVec(i)
		res.stdErrors[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	if ssr == 0 {
		return nil, ErrSingular
	}
	return res, nil
}

// logLik is the Gaussian log-likelihood with the variance concentrated out.
func (r *olsResult) logLik() float64 {
	n := float64(r.nobs)
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(r.ssr/n) + 1)
}

func (r *olsResult) aic() float64 {
	return -2*r.logLik() + 2*float64(len(r.coeffs))
}

func (r *olsResult) bic() float64 {
	return -2*r.logLik() + math.Log(float64(r.nobs))*float64(len(r.coeffs))
}
