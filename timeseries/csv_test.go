package timeseries

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ohlcvCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-01,100.5,102,99,101.25,101.25,1500
2024-01-02,101.25,103,100,102.5,102.5,1600
2024-01-03,102.5,104,,103,103,1700
2024-01-04,103,105,102,104.75,104.75,null
2024-01-05,104.75,106,103,105.5,105.5,1800`

func TestLoadCSVFromReader(t *testing.T) {
	bars, err := LoadCSVFromReader(strings.NewReader(ohlcvCSV), nil)
	require.NoError(t, err)
	require.Len(t, bars, 5)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 100.5, bars[0].Open)
	assert.Equal(t, 101.25, bars[0].Close)
	assert.Equal(t, 1500.0, bars[0].Volume)
	assert.True(t, math.IsNaN(bars[2].Low))
	assert.True(t, math.IsNaN(bars[3].Volume))
}

func TestLoadCSVMissingAdjClose(t *testing.T) {
	data := `ds,Open,High,Low,Close,Volume
01/02/2024,1,2,0.5,1.5,10`

	bars, err := LoadCSVFromReader(strings.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.True(t, math.IsNaN(bars[0].AdjClose))
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no date column", "Open,Close\n1,2"},
		{"bad date", "Date,Close\nyesterday,2"},
		{"bad number", "Date,Close\n2024-01-01,abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSVFromReader(strings.NewReader(tt.data), nil)
			assert.ErrorIs(t, err, ErrDataQuality)
		})
	}

	_, err := LoadCSVFromReader(strings.NewReader("Date,Close\n"), nil)
	assert.Error(t, err)
}

func TestNewTableCleansRows(t *testing.T) {
	bars, err := LoadCSVFromReader(strings.NewReader(ohlcvCSV), nil)
	require.NoError(t, err)

	table, err := NewTable(bars)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 2, table.Dropped())

	closes, err := table.Column(ColumnClose)
	require.NoError(t, err)
	assert.Equal(t, []float64{101.25, 102.5, 105.5}, closes.Values())
	assert.Equal(t, ColumnClose, closes.Name())
}

func TestNewTableRejectsUnordered(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []Bar{
		{Time: base.AddDate(0, 0, 1), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Time: base, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}

	_, err := NewTable(bars)
	assert.ErrorIs(t, err, ErrDataQuality)

	_, err = NewTable(nil)
	assert.ErrorIs(t, err, ErrDataQuality)
}

func TestTableWithColumn(t *testing.T) {
	bars, err := LoadCSVFromReader(strings.NewReader(ohlcvCSV), nil)
	require.NoError(t, err)
	table, err := NewTable(bars)
	require.NoError(t, err)

	closes, err := table.Column(ColumnClose)
	require.NoError(t, err)

	extended, err := table.WithColumn("Close_diff", closes.Diff())
	require.NoError(t, err)
	assert.Contains(t, extended.Columns(), "Close_diff")
	assert.NotContains(t, table.Columns(), "Close_diff")

	_, err = table.WithColumn("short", closes.Slice(0, 2))
	assert.ErrorIs(t, err, ErrDataQuality)

	_, err = table.Column("missing")
	assert.ErrorIs(t, err, ErrDataQuality)
}

func TestTableCSVRoundTrip(t *testing.T) {
	bars, err := LoadCSVFromReader(strings.NewReader(ohlcvCSV), nil)
	require.NoError(t, err)
	table, err := NewTable(bars)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "clean.csv")
	require.NoError(t, table.SaveCSV(path))

	reloaded, err := LoadCSV(path, nil)
	require.NoError(t, err)
	again, err := NewTable(reloaded)
	require.NoError(t, err)
	assert.Equal(t, table.Index(), again.Index())
}

func TestWriteCSVUndefinedCells(t *testing.T) {
	s := New([]float64{1, 2, 4}).WithName("y")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, "ds", s, s.Diff()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ds,y,y_diff", lines[0])
	assert.Equal(t, "2000-01-01,1,", lines[1])
	assert.Equal(t, "2000-01-03,4,2", lines[3])
}
