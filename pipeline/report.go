package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sartorproj/tsforecast/stats"
)

// WriteText renders the report in the order the stages ran.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	fmt.Fprintf(&b, "%s\nDESCRIPTIVE STATISTICS\n%s\n", rule, rule)
	fmt.Fprintf(&b, "%-12s %8s %14s %14s %14s %14s %14s %14s %14s\n",
		"", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
	for _, d := range r.Summary {
		fmt.Fprintf(&b, "%-12s %8d %14.4f %14.4f %14.4f %14.4f %14.4f %14.4f %14.4f\n",
			d.Name, d.Count, d.Mean, d.Std, d.Min, d.Q25, d.Median, d.Q75, d.Max)
	}

	fmt.Fprintf(&b, "\n%s\nSTATIONARITY\n%s\n", rule, rule)
	writeStationarity(&b, "Raw "+r.Config.TargetColumn, r.Raw)
	writeStationarity(&b, "Differenced "+r.Config.TargetColumn, r.Differenced)

	if r.PACF != nil {
		fmt.Fprintf(&b, "Significant PACF lags (|r| > %.4f): %v\n", r.PACF.ConfBound, r.PACF.Significant())
	}
	if r.ACF != nil {
		fmt.Fprintf(&b, "Significant ACF lags (|r| > %.4f): %v\n", r.ACF.ConfBound, r.ACF.Significant())
	}

	fmt.Fprintf(&b, "\n%s\nMODEL\n", rule)
	if r.ModelSummary != nil {
		b.WriteString(r.ModelSummary.String())
	}

	if r.Metrics != nil {
		fmt.Fprintf(&b, "\nRMSE: %.4f\n", r.Metrics.RMSE)
		fmt.Fprintf(&b, "MAE:  %.4f\n", r.Metrics.MAE)
		fmt.Fprintf(&b, "MAPE: %.2f%%\n", r.Metrics.MAPE*100)
	}

	if r.Forecast != nil {
		fc := r.Forecast
		fmt.Fprintf(&b, "\n%s\nFORECAST (%d steps, %.0f%% interval)\n%s\n", rule, fc.Mean.Len(), fc.Confidence*100, rule)
		fmt.Fprintf(&b, "%-12s %14s %14s %14s\n", "Date", "Forecast", "Lower", "Upper")
		for i := 0; i < fc.Mean.Len(); i++ {
			fmt.Fprintf(&b, "%-12s %14.4f %14.4f %14.4f\n",
				fc.Mean.Time(i).Format(time.DateOnly), fc.Mean.At(i), fc.Lower.At(i), fc.Upper.At(i))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeStationarity(b *strings.Builder, label string, s Stationarity) {
	if s.ADF == nil {
		return
	}
	verdict := stationaryLabel(s.ADF.IsStationary)
	fmt.Fprintf(b, "%s\n", label)
	fmt.Fprintf(b, "  ADF Statistic: %.6f\n", s.ADF.Statistic)
	fmt.Fprintf(b, "  p-value:       %.6f\n", s.ADF.PValue)
	fmt.Fprintf(b, "  Lags used:     %d  (nobs %d)\n", s.ADF.Lags, s.ADF.NObs)
	for _, level := range []string{"1%", "5%", "10%"} {
		fmt.Fprintf(b, "  Critical %-4s %.4f\n", level+":", s.ADF.CriticalValues[level])
	}
	fmt.Fprintf(b, "  => %s\n", verdict)
	if s.KPSS != nil {
		writeKPSS(b, s.KPSS)
	}
	if s.PP != nil {
		fmt.Fprintf(b, "  PP Statistic:   %.6f  p-value: %.4f  => %s\n", s.PP.Statistic, s.PP.PValue, stationaryLabel(s.PP.IsStationary))
	}
}

func writeKPSS(b *strings.Builder, k *stats.KPSSResult) {
	fmt.Fprintf(b, "  KPSS Statistic: %.6f  p-value: %.4f  => %s\n", k.Statistic, k.PValue, stationaryLabel(k.IsStationary))
}

func stationaryLabel(stationary bool) string {
	if stationary {
		return "stationary"
	}
	return "non-stationary"
}
