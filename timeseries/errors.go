package timeseries

import "errors"

// Errors shared by every stage that consumes a Series or Table.
var (
	// ErrInsufficientData is returned when a series is too short for the
	// requested test or model order.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrEmptyIntersection is returned when two series share no timestamps.
	ErrEmptyIntersection = errors.New("series have no timestamps in common")

	// ErrDataQuality is returned when missing, non-numeric or unordered data
	// reaches code that requires a clean series.
	ErrDataQuality = errors.New("data quality")
)
