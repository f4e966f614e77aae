// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Day is the sampling step of a daily series.
const Day = 24 * time.Hour

// epoch anchors the synthetic daily index built by New.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Series is an immutable sequence of (timestamp, value) pairs with strictly
// increasing timestamps. Undefined values are stored as NaN.
type Series struct {
	timestamps []time.Time
	values     []float64
	name       string
}

// New creates a daily series from values, indexed from 2000-01-01 UTC.
func New(values []float64) *Series {
	return NewDaily(epoch, values)
}

// NewDaily creates a daily series whose first observation is at start.
func NewDaily(start time.Time, values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = start.AddDate(0, 0, i)
	}
	return &Series{
		timestamps: timestamps,
		values:     append([]float64(nil), values...),
	}
}

// NewWithTimestamps creates a series with explicit timestamps. Timestamps must
// be strictly increasing.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrDataQuality, len(timestamps), len(values))
	}
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return nil, fmt.Errorf("%w: timestamp %s at position %d is not after %s",
				ErrDataQuality, timestamps[i].Format(time.RFC3339), i, timestamps[i-1].Format(time.RFC3339))
		}
	}
	return &Series{
		timestamps: append([]time.Time(nil), timestamps...),
		values:     append([]float64(nil), values...),
	}, nil
}

// derive builds a series that shares nothing with s except its name.
func (s *Series) derive(timestamps []time.Time, values []float64, suffix string) *Series {
	return &Series{
		timestamps: timestamps,
		values:     values,
		name:       s.name + suffix,
	}
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.values)
}

// Name returns the series label.
func (s *Series) Name() string {
	return s.name
}

// WithName returns a copy of the series labelled name.
func (s *Series) WithName(name string) *Series {
	c := s.Copy()
	c.name = name
	return c
}

// At returns the value at position i.
func (s *Series) At(i int) float64 {
	return s.values[i]
}

// Time returns the timestamp at position i.
func (s *Series) Time(i int) time.Time {
	return s.timestamps[i]
}

// Values returns a copy of the values.
func (s *Series) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Timestamps returns a copy of the timestamps.
func (s *Series) Timestamps() []time.Time {
	return append([]time.Time(nil), s.timestamps...)
}

// Last returns the final timestamp and value. ok is false for an empty series.
func (s *Series) Last() (t time.Time, v float64, ok bool) {
	if len(s.values) == 0 {
		return time.Time{}, math.NaN(), false
	}
	n := len(s.values) - 1
	return s.timestamps[n], s.values[n], true
}

// defined returns the values that are not NaN.
func (s *Series) defined() []float64 {
	out := make([]float64, 0, len(s.values))
	for _, v := range s.values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean calculates the arithmetic mean of the defined values.
func (s *Series) Mean() float64 {
	vals := s.defined()
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// Variance calculates the sample variance of the defined values.
func (s *Series) Variance() float64 {
	vals := s.defined()
	if len(vals) < 2 {
		return 0
	}
	return stat.Variance(vals, nil)
}

// Std calculates the sample standard deviation of the defined values.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum defined value.
func (s *Series) Min() float64 {
	vals := s.defined()
	if len(vals) == 0 {
		return math.NaN()
	}
	return floats.Min(vals)
}

// Max returns the maximum defined value.
func (s *Series) Max() float64 {
	vals := s.defined()
	if len(vals) == 0 {
		return math.NaN()
	}
	return floats.Max(vals)
}

// Median returns the median of the defined values.
func (s *Series) Median() float64 {
	sorted := s.defined()
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Diff calculates the first difference of the series.
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN applies the first difference n times. The result keeps the input
// index; its first n positions are undefined (NaN).
func (s *Series) DiffN(n int) *Series {
	if n <= 0 {
		return s.Copy()
	}

	values := append([]float64(nil), s.values...)
	for k := 0; k < n; k++ {
		for i := len(values) - 1; i >= 0; i-- {
			if i < k+1 {
				values[i] = math.NaN()
				continue
			}
			values[i] -= values[i-1]
		}
	}

	suffix := "_diff"
	if n > 1 {
		suffix = fmt.Sprintf("_diff%d", n)
	}
	return s.derive(append([]time.Time(nil), s.timestamps...), values, suffix)
}

// DropUndefined returns the series without its NaN positions.
func (s *Series) DropUndefined() *Series {
	timestamps := make([]time.Time, 0, len(s.values))
	values := make([]float64, 0, len(s.values))
	for i, v := range s.values {
		if math.IsNaN(v) {
			continue
		}
		timestamps = append(timestamps, s.timestamps[i])
		values = append(values, v)
	}
	return s.derive(timestamps, values, "")
}

// MovingAverage calculates a trailing simple moving average. The result keeps
// the input index; the first window-1 positions are undefined, as is any
// window that contains an undefined value.
func (s *Series) MovingAverage(window int) *Series {
	result := make([]float64, len(s.values))
	for i := range result {
		result[i] = math.NaN()
	}

	if window > 0 {
		sum := 0.0
		missing := 0
		for i, v := range s.values {
			if math.IsNaN(v) {
				missing++
			} else {
				sum += v
			}
			if i >= window {
				old := s.values[i-window]
				if math.IsNaN(old) {
					missing--
				} else {
					sum -= old
				}
			}
			if i >= window-1 && missing == 0 {
				result[i] = sum / float64(window)
			}
		}
	}

	return s.derive(append([]time.Time(nil), s.timestamps...), result, fmt.Sprintf("_ma%d", window))
}

// WithValues returns a series on the same index carrying values.
func (s *Series) WithValues(values []float64) (*Series, error) {
	if len(values) != len(s.values) {
		return nil, fmt.Errorf("%w: %d values for an index of %d", ErrDataQuality, len(values), len(s.values))
	}
	return s.derive(append([]time.Time(nil), s.timestamps...), append([]float64(nil), values...), ""), nil
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.values) {
		end = len(s.values)
	}
	if start >= end {
		return s.derive([]time.Time{}, []float64{}, "")
	}

	values := make([]float64, end-start)
	copy(values, s.values[start:end])

	timestamps := make([]time.Time, len(values))
	copy(timestamps, s.timestamps[start:end])

	return s.derive(timestamps, values, "")
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.derive(append([]time.Time(nil), s.timestamps...), append([]float64(nil), s.values...), "")
}

// Frequency returns the most common step between consecutive timestamps.
// Series shorter than two points are assumed to be daily.
func (s *Series) Frequency() time.Duration {
	if len(s.timestamps) < 2 {
		return Day
	}

	counts := make(map[time.Duration]int)
	best, bestCount := Day, 0
	for i := 1; i < len(s.timestamps); i++ {
		step := s.timestamps[i].Sub(s.timestamps[i-1])
		counts[step]++
		if c := counts[step]; c > bestCount || (c == bestCount && step < best) {
			best, bestCount = step, c
		}
	}
	return best
}

// FutureTimestamps returns h timestamps continuing the series at its
// Frequency, starting one step after the last observation.
func (s *Series) FutureTimestamps(h int) []time.Time {
	if h <= 0 {
		return []time.Time{}
	}

	last := epoch.AddDate(0, 0, -1)
	if t, _, ok := s.Last(); ok {
		last = t
	}

	step := s.Frequency()
	out := make([]time.Time, h)
	for i := range out {
		if step == Day {
			// Calendar days survive DST shifts in non-UTC locations.
			out[i] = last.AddDate(0, 0, i+1)
		} else {
			out[i] = last.Add(time.Duration(i+1) * step)
		}
	}
	return out
}
