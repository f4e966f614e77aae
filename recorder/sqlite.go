package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sartorproj/tsforecast/pipeline"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log logrus.FieldLogger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("SQLite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			target      TEXT,
			model       TEXT,
			n_obs       INTEGER,
			log_lik     REAL,
			aic         REAL,
			bic         REAL,
			sigma2      REAL,
			evals       INTEGER,
			rmse        REAL,
			mae         REAL,
			mape        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS coefficients (
			run_id   INTEGER NOT NULL REFERENCES runs(id),
			name     TEXT NOT NULL,
			value    REAL,
			std_err  REAL,
			p_value  REAL
		)`,

		`CREATE TABLE IF NOT EXISTS stationarity_tests (
			run_id        INTEGER NOT NULL REFERENCES runs(id),
			series        TEXT NOT NULL,
			test          TEXT NOT NULL,
			statistic     REAL,
			p_value       REAL,
			lags          INTEGER,
			is_stationary INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS forecasts (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			step   INTEGER NOT NULL,
			date   TEXT NOT NULL,
			mean   REAL,
			lower  REAL,
			upper  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecasts_run ON forecasts(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN to NULL.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

// RecordRun writes the run, its coefficients, stationarity tests and
// forecast in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, symbol string, report *pipeline.Report) (int64, error) {
	if report == nil || report.Model == nil {
		return 0, errors.New("record run: report has no model")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	m := report.Model
	ic := m.Criteria()
	rmse, mae, mape := math.NaN(), math.NaN(), math.NaN()
	if report.Metrics != nil {
		rmse, mae, mape = report.Metrics.RMSE, report.Metrics.MAE, report.Metrics.MAPE
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO runs
		(timestamp, symbol, target, model, n_obs, log_lik, aic, bic, sigma2, evals, rmse, mae, mape)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), symbol, report.Config.TargetColumn, m.Order().String(), m.NObs(),
		nullable(ic.LogLik), nullable(ic.AIC), nullable(ic.BIC), nullable(m.Variance()), m.Evals(),
		nullable(rmse), nullable(mae), nullable(mape),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	if report.ModelSummary != nil {
		for _, c := range report.ModelSummary.Coefficients {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO coefficients (run_id, name, value, std_err, p_value) VALUES (?, ?, ?, ?, ?)`,
				id, c.Name, nullable(c.Value), nullable(c.StdErr), nullable(c.PValue)); err != nil {
				return 0, fmt.Errorf("insert coefficient %s: %w", c.Name, err)
			}
		}
	}

	for _, st := range []struct {
		series string
		result pipeline.Stationarity
	}{
		{"raw", report.Raw},
		{"differenced", report.Differenced},
	} {
		if err := insertStationarity(ctx, tx, id, st.series, st.result); err != nil {
			return 0, err
		}
	}

	if fc := report.Forecast; fc != nil {
		for i := 0; i < fc.Mean.Len(); i++ {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO forecasts (run_id, step, date, mean, lower, upper) VALUES (?, ?, ?, ?, ?, ?)`,
				id, i+1, fc.Mean.Time(i).Format(time.DateOnly),
				nullable(fc.Mean.At(i)), nullable(fc.Lower.At(i)), nullable(fc.Upper.At(i))); err != nil {
				return 0, fmt.Errorf("insert forecast step %d: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.log.WithFields(logrus.Fields{"run_id": id, "symbol": symbol}).Info("Run recorded")
	return id, nil
}

func insertStationarity(ctx context.Context, tx *sql.Tx, id int64, series string, s pipeline.Stationarity) error {
	const q = `INSERT INTO stationarity_tests
		(run_id, series, test, statistic, p_value, lags, is_stationary) VALUES (?, ?, ?, ?, ?, ?, ?)`

	if adf := s.ADF; adf != nil {
		if _, err := tx.ExecContext(ctx, q, id, series, "adf",
			nullable(adf.Statistic), nullable(adf.PValue), adf.Lags, adf.IsStationary); err != nil {
			return fmt.Errorf("insert adf %s: %w", series, err)
		}
	}
	if kpss := s.KPSS; kpss != nil {
		if _, err := tx.ExecContext(ctx, q, id, series, "kpss",
			nullable(kpss.Statistic), nullable(kpss.PValue), kpss.Lags, kpss.IsStationary); err != nil {
			return fmt.Errorf("insert kpss %s: %w", series, err)
		}
	}
	if pp := s.PP; pp != nil {
		if _, err := tx.ExecContext(ctx, q, id, series, "pp",
			nullable(pp.Statistic), nullable(pp.PValue), pp.Lags, pp.IsStationary); err != nil {
			return fmt.Errorf("insert pp %s: %w", series, err)
		}
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// compile-time interface checks
var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = NoopRecorder{}
)
