// Package timeseries provides time series data structures and utilities.
//
// A Series is an immutable, strictly time-ordered sequence of float64
// observations. Undefined positions are NaN; transforms that shift the data,
// such as Diff and MovingAverage, keep the input index and mark the leading
// positions undefined instead of shortening the result.
//
// # Creating a Series
//
//	series := timeseries.New([]float64{100, 102, 105, 103, 108, 110})
//
//	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
//	daily := timeseries.NewDaily(start, values)
//
// # Transformations
//
//	diff := series.Diff()            // first difference, leading NaN
//	diff2 := series.DiffN(2)         // second difference, two leading NaN
//	ma := series.MovingAverage(7)    // trailing 7-point mean
//	clean := diff.DropUndefined()    // remove NaN positions
//
// # Alignment
//
// Align inner-joins two series on their timestamps, skipping positions that
// are undefined on either side:
//
//	truth, pred := timeseries.Align(observed, fitted)
//
// # Observation tables
//
// Daily OHLCV bars are loaded from CSV and cleaned into a Table. Rows with a
// missing field are dropped; unordered input is rejected with ErrDataQuality.
//
//	bars, err := timeseries.LoadCSV("eth.csv", nil)
//	table, err := timeseries.NewTable(bars)
//	closes, err := table.Column(timeseries.ColumnClose)
package timeseries
