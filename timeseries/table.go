package timeseries

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Standard column names of an observation table.
const (
	ColumnOpen     = "Open"
	ColumnHigh     = "High"
	ColumnLow      = "Low"
	ColumnClose    = "Close"
	ColumnAdjClose = "Adj Close"
	ColumnVolume   = "Volume"
)

// requiredColumns must be defined for a row to survive cleaning.
var requiredColumns = []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// Bar is one daily OHLCV observation. Missing fields are NaN.
type Bar struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

func (b Bar) field(column string) float64 {
	switch column {
	case ColumnOpen:
		return b.Open
	case ColumnHigh:
		return b.High
	case ColumnLow:
		return b.Low
	case ColumnClose:
		return b.Close
	case ColumnAdjClose:
		return b.AdjClose
	case ColumnVolume:
		return b.Volume
	}
	return math.NaN()
}

// Table is a cleaned set of named columns sharing one strictly increasing
// daily index. Tables are immutable; WithColumn returns a new table.
type Table struct {
	index   []time.Time
	columns map[string][]float64
	order   []string
	dropped int
}

// NewTable builds a table from bars. Rows with a missing or non-finite value
// in any of Open, High, Low, Close or Volume are dropped. Bars must be in
// strictly increasing time order.
func NewTable(bars []Bar) (*Table, error) {
	t := &Table{
		columns: make(map[string][]float64),
		order:   []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnAdjClose, ColumnVolume},
	}

	var prev time.Time
	for i, b := range bars {
		if i > 0 && !b.Time.After(prev) {
			return nil, fmt.Errorf("%w: bar %d at %s is not after %s",
				ErrDataQuality, i, b.Time.Format(time.DateOnly), prev.Format(time.DateOnly))
		}
		prev = b.Time

		if !rowDefined(b) {
			t.dropped++
			continue
		}
		t.index = append(t.index, b.Time)
		for _, name := range t.order {
			v := b.field(name)
			if name == ColumnAdjClose && math.IsNaN(v) {
				v = b.Close
			}
			t.columns[name] = append(t.columns[name], v)
		}
	}

	if len(t.index) == 0 {
		return nil, fmt.Errorf("%w: no complete rows among %d bars", ErrDataQuality, len(bars))
	}
	return t, nil
}

func rowDefined(b Bar) bool {
	for _, name := range requiredColumns {
		v := b.field(name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.index)
}

// Dropped returns how many input rows were removed during cleaning.
func (t *Table) Dropped() int {
	return t.dropped
}

// Index returns a copy of the shared timestamps.
func (t *Table) Index() []time.Time {
	return append([]time.Time(nil), t.index...)
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// Column returns the named column as a series labelled with its name.
func (t *Table) Column(name string) (*Series, error) {
	values, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown column %q", ErrDataQuality, name)
	}
	return &Series{
		timestamps: append([]time.Time(nil), t.index...),
		values:     append([]float64(nil), values...),
		name:       name,
	}, nil
}

// WithColumn returns a copy of the table with s stored under name. The series
// must share the table's index; an existing column of that name is replaced.
func (t *Table) WithColumn(name string, s *Series) (*Table, error) {
	if s.Len() != len(t.index) {
		return nil, fmt.Errorf("%w: column %q has %d rows, table has %d", ErrDataQuality, name, s.Len(), len(t.index))
	}
	for i, ts := range t.index {
		if !s.timestamps[i].Equal(ts) {
			return nil, fmt.Errorf("%w: column %q is not on the table index at row %d", ErrDataQuality, name, i)
		}
	}

	out := &Table{
		index:   t.index,
		columns: make(map[string][]float64, len(t.columns)+1),
		order:   t.Columns(),
		dropped: t.dropped,
	}
	for k, v := range t.columns {
		out.columns[k] = v
	}
	if !slices.Contains(out.order, name) {
		out.order = append(out.order, name)
	}
	out.columns[name] = append([]float64(nil), s.values...)
	return out, nil
}
