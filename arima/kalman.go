package arima

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errFilter = errors.New("kalman filter diverged")

// stateSpace is the Harvey representation of a zero-mean ARMA(p, q):
//
//	alpha_{t+1} = T alpha_t + R eps_t,  y_t = Z alpha_t
//
// with r = max(p, q+1), T holding phi in its first column and ones on the
// superdiagonal, R = (1, theta_1, ..., theta_{r-1}) and Z = e_1.
type stateSpace struct {
	r   int
	t   *mat.Dense
	rrt *mat.SymDense
}

func newStateSpace(ar, ma []float64) *stateSpace {
	r := max(len(ar), len(ma)+1)

	t := mat.NewDense(r, r, nil)
	for i, phi := range ar {
		t.Set(i, 0, phi)
	}
	for i := 0; i+1 < r; i++ {
		t.Set(i, i+1, 1)
	}

	rv := make([]float64, r)
	rv[0] = 1
	copy(rv[1:], ma)
	rrt := mat.NewSymDense(r, nil)
	rrt.SymOuterK(1, mat.NewDense(r, 1, rv))

	return &stateSpace{r: r, t: t, rrt: rrt}
}

// initialCovariance solves P = T P T' + R R' for the unconditional state
// covariance of a stationary model.
func (ss *stateSpace) initialCovariance() (*mat.Dense, error) {
	r := ss.r
	r2 := r * r

	var kron mat.Dense
	kron.Kronecker(ss.t, ss.t)

	lhs := mat.NewDense(r2, r2, nil)
	for i := 0; i < r2; i++ {
		lhs.Set(i, i, 1)
	}
	lhs.Sub(lhs, &kron)

	// Row-major vec satisfies the same Kronecker identity as column-major.
	rhs := mat.NewVecDense(r2, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			rhs.SetVec(i*r+j, ss.rrt.At(i, j))
		}
	}

	var vecP mat.VecDense
	if err := vecP.SolveVec(lhs, rhs); err != nil {
		return nil, errFilter
	}

	p := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			p.Set(i, j, vecP.AtVec(i*r+j))
		}
	}
	if p.At(0, 0) <= 0 {
		return nil, errFilter
	}
	return p, nil
}

// filterOutput holds the one-step-ahead innovations of a filter pass.
type filterOutput struct {
	v      []float64     // innovations y_t - E[y_t | y_{<t}]
	f      []float64     // innovation variances in units of sigma^2
	state  *mat.VecDense // predicted state for the first step past the sample
	sigma2 float64
	logLik float64
}

// filter runs the Kalman filter over y (already demeaned) and returns the
// likelihood with sigma^2 concentrated out.
func (ss *stateSpace) filter(y []float64) (*filterOutput, error) {
	n := len(y)
	if n == 0 {
		return nil, errFilter
	}

	p, err := ss.initialCovariance()
	if err != nil {
		return nil, err
	}

	r := ss.r
	a := mat.NewVecDense(r, nil)
	out := &filterOutput{
		v: make([]float64, n),
		f: make([]float64, n),
	}

	var ta, k, pcol mat.VecDense
	var tp, tpt mat.Dense
	kk := mat.NewDense(r, r, nil)

	sumScaled := 0.0
	sumLogF := 0.0
	for i, obs := range y {
		v := obs - a.AtVec(0)
		f := p.At(0, 0)
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, errFilter
		}
		out.v[i] = v
		out.f[i] = f
		sumScaled += v * v / f
		sumLogF += math.Log(f)

		// K = T P Z' / F
		pcol.CloneFromVec(p.ColView(0))
		k.MulVec(ss.t, &pcol)
		k.ScaleVec(1/f, &k)

		// a <- T a + K v
		ta.MulVec(ss.t, a)
		a.AddScaledVec(&ta, v, &k)

		// P <- T P T' - F K K' + R R'
		tp.Mul(ss.t, p)
		tpt.Mul(&tp, ss.t.T())
		kk.Outer(f, &k, &k)
		tpt.Sub(&tpt, kk)
		tpt.Add(&tpt, ss.rrt)
		p.Copy(&tpt)
	}

	nf := float64(n)
	out.sigma2 = sumScaled / nf
	if !(out.sigma2 > 0) || math.IsInf(out.sigma2, 0) {
		return nil, errFilter
	}
	out.logLik = -nf/2*(math.Log(2*math.Pi)+math.Log(out.sigma2)+1) - sumLogF/2
	out.state = a
	return out, nil
}
