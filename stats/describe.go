package stats

import (
	"math"
	"sort"

	"github.com/sartorproj/tsforecast/timeseries"
	"gonum.org/v1/gonum/stat"
)

// Description summarises the defined values of a series.
type Description struct {
	Name   string
	Count  int
	Mean   float64
	Std    float64 // sample standard deviation
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe computes count, mean, sample standard deviation, extremes and
// quartiles of the defined values. Quartiles interpolate linearly between
// order statistics. Statistics of an empty series are NaN.
func Describe(series *timeseries.Series) Description {
	values := series.DropUndefined().Values()
	d := Description{Name: series.Name(), Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		d.Mean, d.Std, d.Min, d.Q25, d.Median, d.Q75, d.Max = nan, nan, nan, nan, nan, nan, nan
		return d
	}

	sort.Float64s(values)
	d.Mean, d.Std = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		d.Std = math.NaN()
	}
	d.Min = values[0]
	d.Max = values[len(values)-1]
	d.Q25 = quantile(0.25, values)
	d.Median = quantile(0.5, values)
	d.Q75 = quantile(0.75, values)
	return d
}

// quantile interpolates linearly between the order statistics of sorted at
// position p*(n-1).
func quantile(p float64, sorted []float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(sorted)-1)
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// DescribeTable describes each named column of the table, in order.
func DescribeTable(table *timeseries.Table, columns ...string) ([]Description, error) {
	if len(columns) == 0 {
		columns = table.Columns()
	}
	out := make([]Description, 0, len(columns))
	for _, name := range columns {
		s, err := table.Column(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Describe(s))
	}
	return out, nil
}
