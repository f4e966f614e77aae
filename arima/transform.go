package arima

import "math"

// constrainStationary maps unconstrained reals onto the coefficients of a
// stationary AR polynomial 1 - phi_1 B - ... - phi_k B^k. Each value is first
// squashed into a partial autocorrelation in (-1, 1), then expanded with the
// Durbin-Levinson recursion.
func constrainStationary(x []float64) []float64 {
	k := len(x)
	if k == 0 {
		return nil
	}

	pacf := make([]float64, k)
	for i, v := range x {
		pacf[i] = v / math.Sqrt(1+v*v)
	}
	return levinsonForward(pacf)
}

// unconstrainStationary inverts constrainStationary for coefficients of a
// stationary polynomial. Partial autocorrelations are clipped away from ±1
// so that start values stay finite.
func unconstrainStationary(phi []float64) []float64 {
	k := len(phi)
	if k == 0 {
		return nil
	}

	pacf := levinsonBackward(phi)
	out := make([]float64, k)
	for i, r := range pacf {
		r = math.Max(-0.99, math.Min(0.99, r))
		out[i] = r / math.Sqrt(1-r*r)
	}
	return out
}

// levinsonForward turns partial autocorrelations into AR coefficients.
func levinsonForward(pacf []float64) []float64 {
	k := len(pacf)
	phi := make([]float64, k)
	prev := make([]float64, k)
	for m := 0; m < k; m++ {
		copy(prev, phi)
		phi[m] = pacf[m]
		for i := 0; i < m; i++ {
			phi[i] = prev[i] - pacf[m]*prev[m-i-1]
		}
	}
	return phi
}

// levinsonBackward recovers partial autocorrelations from AR coefficients.
func levinsonBackward(phi []float64) []float64 {
	k := len(phi)
	cur := append([]float64(nil), phi...)
	pacf := make([]float64, k)
	for m := k - 1; m >= 0; m-- {
		r := cur[m]
		pacf[m] = r
		if m == 0 {
			break
		}
		denom := 1 - r*r
		if denom <= 0 {
			denom = 1e-8
		}
		next := make([]float64, m)
		for i := 0; i < m; i++ {
			next[i] = (cur[i] + r*cur[m-i-1]) / denom
		}
		cur = next
	}
	return pacf
}

// constrainInvertible maps unconstrained reals onto an invertible MA
// polynomial 1 + theta_1 B + ... + theta_k B^k.
func constrainInvertible(x []float64) []float64 {
	phi := constrainStationary(x)
	for i := range phi {
		phi[i] = -phi[i]
	}
	return phi
}

func unconstrainInvertible(theta []float64) []float64 {
	neg := make([]float64, len(theta))
	for i, v := range theta {
		neg[i] = -v
	}
	return unconstrainStationary(neg)
}

// yuleWalker estimates AR coefficients from autocorrelations with the
// Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	v := 1 - phi[0]*phi[0]

	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}
