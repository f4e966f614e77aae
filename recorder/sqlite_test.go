package recorder

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/sartorproj/tsforecast/pipeline"
	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runReport(t *testing.T) *pipeline.Report {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]timeseries.Bar, 250)
	price := 50.0
	for i := range bars {
		open := price
		price += rng.NormFloat64()
		bars[i] = timeseries.Bar{
			Time:     start.AddDate(0, 0, i),
			Open:     open,
			High:     math.Max(open, price) + 0.5,
			Low:      math.Min(open, price) - 0.5,
			Close:    price,
			AdjClose: price,
			Volume:   500,
		}
	}
	table, err := timeseries.NewTable(bars)
	require.NoError(t, err)

	report, err := pipeline.Run(table, pipeline.DefaultConfig(), nil)
	require.NoError(t, err)
	return report
}

func count(t *testing.T, r *SQLiteRecorder, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestSQLiteRecorder(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), logger)
	require.NoError(t, err)
	defer rec.Close()

	report := runReport(t)
	ctx := context.Background()

	id, err := rec.RecordRun(ctx, "TEST", report)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	assert.Equal(t, 1, count(t, rec, `SELECT COUNT(*) FROM runs WHERE symbol = ?`, "TEST"))
	assert.Equal(t, report.Config.Horizon, count(t, rec, `SELECT COUNT(*) FROM forecasts WHERE run_id = ?`, id))
	assert.Equal(t, len(report.ModelSummary.Coefficients), count(t, rec, `SELECT COUNT(*) FROM coefficients WHERE run_id = ?`, id))
	assert.Equal(t, 2, count(t, rec, `SELECT COUNT(*) FROM stationarity_tests WHERE run_id = ? AND test = 'adf'`, id))
	assert.Equal(t, 2, count(t, rec, `SELECT COUNT(*) FROM stationarity_tests WHERE run_id = ? AND test = 'pp'`, id))

	var model string
	var rmse float64
	require.NoError(t, rec.db.QueryRow(`SELECT model, rmse FROM runs WHERE id = ?`, id).Scan(&model, &rmse))
	assert.Equal(t, "ARIMA(1,1,1)", model)
	assert.InDelta(t, report.Metrics.RMSE, rmse, 1e-9)

	var first string
	require.NoError(t, rec.db.QueryRow(`SELECT date FROM forecasts WHERE run_id = ? AND step = 1`, id).Scan(&first))
	assert.Equal(t, report.Forecast.Mean.Time(0).Format(time.DateOnly), first)

	id2, err := rec.RecordRun(ctx, "TEST", report)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2)

	assert.NotEmpty(t, hook.AllEntries())
	t.Logf("recorded runs %d and %d", id, id2)
}

func TestSQLiteRecorderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	logger, _ := test.NewNullLogger()

	rec, err := NewSQLiteRecorder(path, logger)
	require.NoError(t, err)
	_, err = rec.RecordRun(context.Background(), "A", runReport(t))
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	rec, err = NewSQLiteRecorder(path, logger)
	require.NoError(t, err)
	defer rec.Close()
	assert.Equal(t, 1, count(t, rec, `SELECT COUNT(*) FROM runs`))
}

func TestSQLiteRecorderRejectsEmptyReport(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), logger)
	require.NoError(t, err)
	defer rec.Close()

	_, err = rec.RecordRun(context.Background(), "X", &pipeline.Report{})
	assert.Error(t, err)
	assert.Equal(t, 0, count(t, rec, `SELECT COUNT(*) FROM runs`))
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	id, err := rec.RecordRun(context.Background(), "X", nil)
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, rec.Close())
}
