// Package stats provides statistical tests and analysis functions for time series.
//
// All functions ignore undefined (NaN) positions of their input series.
//
// # Stationarity Tests
//
//	// Augmented Dickey-Fuller test
//	// H0: Series has unit root (non-stationary)
//	adf, err := stats.ADF(series, stats.Options{})
//	fmt.Printf("ADF: stat=%.4f, p=%.4f, lags=%d, stationary=%v\n",
//	    adf.Statistic, adf.PValue, adf.Lags, adf.IsStationary)
//
//	// KPSS test
//	// H0: Series is level stationary
//	kpss, err := stats.KPSS(series, "c", 0, 0.05)
//
// ADF selects the number of lagged differences by AIC up to
// ceil(12*(n/100)^(1/4)) and reports MacKinnon p-values and critical values.
//
// # Descriptive Statistics
//
//	d := stats.Describe(closes)
//	fmt.Println(d.Count, d.Mean, d.Std, d.Q25, d.Median, d.Q75)
//
// # Autocorrelation Functions
//
//	acf := stats.ACFWithConfidence(diffed, 40)
//	pacf := stats.PACFWithConfidence(diffed, 40)
//	significant := pacf.Significant()
//
// # Residual Diagnostics
//
//	lb, err := stats.LjungBox(residuals, 10, p+q)
//	jb, err := stats.JarqueBera(residuals)
package stats
