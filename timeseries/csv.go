package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVOptions holds options for OHLCV CSV loading.
type CSVOptions struct {
	DateColumn string // Column name for dates (default: "Date")
	DateFormat string // Preferred date format (default: "2006-01-02")
	Delimiter  rune   // Field delimiter (default: ',')
	SkipRows   int    // Number of rows to skip before the header
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn: "Date",
		DateFormat: time.DateOnly,
		Delimiter:  ',',
	}
}

var dateFormats = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// LoadCSV loads daily bars from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) ([]Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads daily bars from r. The header must name a date
// column and any of Open, High, Low, Close, Adj Close and Volume. Empty,
// NA, NaN and null cells become NaN so that NewTable can drop the row.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) ([]Bar, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx := -1
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		switch {
		case h == opts.DateColumn, dateIdx == -1 && (h == "Date" || h == "date" || h == "ds"):
			dateIdx = i
		case h == ColumnOpen, h == ColumnHigh, h == ColumnLow, h == ColumnClose, h == ColumnAdjClose, h == ColumnVolume:
			cols[h] = i
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("%w: no date column in header %v", ErrDataQuality, header)
	}

	var bars []Bar
	line := 1 + opts.SkipRows
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		ts, err := parseDate(cell(record, dateIdx), opts.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataQuality, line, err)
		}

		bar := Bar{Time: ts}
		for name, idx := range cols {
			v, err := parseNumber(cell(record, idx))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: parse %s %q: %v", ErrDataQuality, line, name, cell(record, idx), err)
			}
			bar.set(name, v)
		}
		for _, name := range []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnAdjClose, ColumnVolume} {
			if _, ok := cols[name]; !ok {
				bar.set(name, math.NaN())
			}
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}
	return bars, nil
}

func (b *Bar) set(column string, v float64) {
	switch column {
	case ColumnOpen:
		b.Open = v
	case ColumnHigh:
		b.High = v
	case ColumnLow:
		b.Low = v
	case ColumnClose:
		b.Close = v
	case ColumnAdjClose:
		b.AdjClose = v
	case ColumnVolume:
		b.Volume = v
	}
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(record[idx], "\""))
}

func parseDate(s, preferred string) (time.Time, error) {
	if preferred != "" {
		if ts, err := time.Parse(preferred, s); err == nil {
			return ts, nil
		}
	}
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// parseNumber reads a price or volume cell exactly before narrowing to float64.
func parseNumber(s string) (float64, error) {
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// WriteCSV writes series that share one index as a CSV with a leading date
// column. Undefined values are written as empty cells.
func WriteCSV(w io.Writer, dateHeader string, series ...*Series) error {
	if len(series) == 0 {
		return errors.New("no series to write")
	}
	n := series[0].Len()
	for _, s := range series[1:] {
		if s.Len() != n {
			return fmt.Errorf("%w: series %q has %d rows, expected %d", ErrDataQuality, s.Name(), s.Len(), n)
		}
	}

	writer := bufio.NewWriter(w)
	header := make([]string, 0, len(series)+1)
	header = append(header, dateHeader)
	for _, s := range series {
		header = append(header, s.Name())
	}
	writer.WriteString(strings.Join(header, ","))
	writer.WriteString("\n")

	for i := 0; i < n; i++ {
		writer.WriteString(series[0].timestamps[i].Format(time.DateOnly))
		for _, s := range series {
			writer.WriteString(",")
			if v := s.values[i]; !math.IsNaN(v) {
				writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		writer.WriteString("\n")
	}

	return writer.Flush()
}

// WriteCSV writes every column of the table under a Date header.
func (t *Table) WriteCSV(w io.Writer) error {
	series := make([]*Series, 0, len(t.order))
	for _, name := range t.order {
		s, err := t.Column(name)
		if err != nil {
			return err
		}
		series = append(series, s)
	}
	return WriteCSV(w, "Date", series...)
}

// SaveCSV writes the table to filename.
func (t *Table) SaveCSV(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
