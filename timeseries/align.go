package timeseries

import (
	"math"
	"time"
)

// Align inner-joins two series on their timestamps. Positions where either
// side is undefined (NaN) count as absent. The returned series share the
// same index and keep the names of their inputs; they may be empty.
func Align(a, b *Series) (*Series, *Series) {
	n := min(a.Len(), b.Len())
	timestamps := make([]time.Time, 0, n)
	left := make([]float64, 0, n)
	right := make([]float64, 0, n)

	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		ta, tb := a.timestamps[i], b.timestamps[j]
		switch {
		case ta.Before(tb):
			i++
		case tb.Before(ta):
			j++
		default:
			va, vb := a.values[i], b.values[j]
			if !math.IsNaN(va) && !math.IsNaN(vb) {
				timestamps = append(timestamps, ta)
				left = append(left, va)
				right = append(right, vb)
			}
			i++
			j++
		}
	}

	shared := append([]time.Time(nil), timestamps...)
	return a.derive(timestamps, left, ""), b.derive(shared, right, "")
}
