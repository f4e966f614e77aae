package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	values := []float64{math.NaN(), 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	d := Describe(timeseries.New(values).WithName("Close"))

	assert.Equal(t, "Close", d.Name)
	assert.Equal(t, 10, d.Count)
	assert.InDelta(t, 5.5, d.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(55.0/6.0), d.Std, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.InDelta(t, 3.25, d.Q25, 1e-12)
	assert.InDelta(t, 5.5, d.Median, 1e-12)
	assert.InDelta(t, 7.75, d.Q75, 1e-12)
	assert.Equal(t, 10.0, d.Max)
}

func TestDescribeDegenerate(t *testing.T) {
	empty := Describe(timeseries.New(nil))
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))

	single := Describe(timeseries.New([]float64{4}))
	assert.Equal(t, 4.0, single.Median)
	assert.True(t, math.IsNaN(single.Std))
}

func TestDescribeTable(t *testing.T) {
	csv := `Date,Open,High,Low,Close,Volume
2024-01-01,1,2,0.5,1.5,10
2024-01-02,1.5,2.5,1,2,20
2024-01-03,2,3,1.5,2.5,30`
	bars, err := timeseries.LoadCSVFromReader(strings.NewReader(csv), nil)
	require.NoError(t, err)
	table, err := timeseries.NewTable(bars)
	require.NoError(t, err)

	descs, err := DescribeTable(table, timeseries.ColumnClose, timeseries.ColumnVolume)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.InDelta(t, 2.0, descs[0].Mean, 1e-12)
	assert.InDelta(t, 20.0, descs[1].Median, 1e-12)

	all, err := DescribeTable(table)
	require.NoError(t, err)
	assert.Len(t, all, len(table.Columns()))

	_, err = DescribeTable(table, "Missing")
	assert.ErrorIs(t, err, timeseries.ErrDataQuality)
}
