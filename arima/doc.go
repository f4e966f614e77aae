// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// # Estimation
//
// Fit differences the series d times and maximises the exact Gaussian
// likelihood of the resulting ARMA(p,q) process. The likelihood is computed
// by a Kalman filter on the Harvey state-space form, initialised at the
// stationary state covariance, with the innovation variance concentrated
// out. Coefficients are searched with Nelder-Mead over a reparameterisation
// that keeps the AR part stationary and the MA part invertible. A mean is
// estimated only when d is zero. A search that stops at its evaluation limit
// fails with ErrModelFit, so every Model returned by Fit has converged.
//
//	model, err := arima.Fit(series, arima.DefaultOrder)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, _ := model.Summary()
//	fmt.Println(summary)
//
// # Fitted Values and Residuals
//
// FittedValues are one-step-ahead predictions on the original scale; the
// first d observations have none. Residuals are observed minus fitted.
//
// # Forecasting
//
//	fc, err := model.Forecast(30, 0.95)
//	for i := 0; i < fc.Mean.Len(); i++ {
//	    fmt.Println(fc.Mean.Time(i), fc.Lower.At(i), fc.Mean.At(i), fc.Upper.At(i))
//	}
//
// Interval width grows with the horizon following the psi weights of the
// integrated model.
package arima
