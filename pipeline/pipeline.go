// Package pipeline runs the analysis stages over one observation table.
package pipeline

import (
	"fmt"
	"io"

	"github.com/sartorproj/tsforecast/arima"
	"github.com/sartorproj/tsforecast/evaluate"
	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/sirupsen/logrus"
)

// Stage names a pipeline step.
type Stage string

const (
	StageConfig      Stage = "config"
	StageSummarize   Stage = "summarize"
	StageTestRaw     Stage = "test_raw"
	StageDifference  Stage = "difference"
	StageTestDiff    Stage = "test_differenced"
	StageCorrelogram Stage = "correlogram"
	StageFit         Stage = "fit"
	StageEvaluate    Stage = "evaluate"
	StageForecast    Stage = "forecast"
)

// StageError records which stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

// Error reports the failing stage and its cause.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the stage cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Stationarity pairs the ADF decision with the KPSS and Phillips-Perron
// cross-checks. A cross-check is nil when it could not be computed.
type Stationarity struct {
	ADF  *stats.ADFResult
	KPSS *stats.KPSSResult
	PP   *stats.PhillipsPerronResult
}

// Report is the complete output of a run.
type Report struct {
	Config       Config
	Table        *timeseries.Table // input plus moving averages and first difference
	Summary      []stats.Description
	Raw          Stationarity
	Differenced  Stationarity
	ACF          *stats.Correlogram
	PACF         *stats.Correlogram
	Model        *arima.Model
	ModelSummary *arima.Summary
	Metrics      *evaluate.Metrics
	Forecast     *arima.ForecastResult
}

// Run executes every stage in order and returns either a full report or a
// *StageError. Stationarity results are reported only; the model order is
// always cfg.Order. A nil logger discards log output.
func Run(table *timeseries.Table, cfg Config, log logrus.FieldLogger) (*Report, error) {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	if err := cfg.Validate(); err != nil {
		return nil, &StageError{Stage: StageConfig, Err: err}
	}

	r := &runner{cfg: cfg, log: log, report: &Report{Config: cfg}}
	steps := []struct {
		stage Stage
		fn    func(*timeseries.Table) error
	}{
		{StageSummarize, r.summarize},
		{StageTestRaw, r.testRaw},
		{StageDifference, r.difference},
		{StageTestDiff, r.testDifferenced},
		{StageCorrelogram, r.correlogram},
		{StageFit, r.fit},
		{StageEvaluate, r.evaluate},
		{StageForecast, r.forecast},
	}

	r.report.Table = table
	for _, step := range steps {
		if err := step.fn(r.report.Table); err != nil {
			log.WithField("stage", step.stage).Errorf("Stage failed: %v", err)
			return nil, &StageError{Stage: step.stage, Err: err}
		}
	}
	return r.report, nil
}

type runner struct {
	cfg    Config
	log    logrus.FieldLogger
	report *Report

	target *timeseries.Series
	diffed *timeseries.Series
}

func (r *runner) summarize(table *timeseries.Table) error {
	target, err := table.Column(r.cfg.TargetColumn)
	if err != nil {
		return err
	}
	r.target = target

	for _, w := range r.cfg.MAWindows {
		name := fmt.Sprintf("MA_%d", w)
		table, err = table.WithColumn(name, target.MovingAverage(w).WithName(name))
		if err != nil {
			return err
		}
	}
	r.report.Table = table

	summary, err := stats.DescribeTable(table)
	if err != nil {
		return err
	}
	r.report.Summary = summary

	r.log.WithFields(logrus.Fields{
		"stage":   StageSummarize,
		"rows":    table.Len(),
		"dropped": table.Dropped(),
		"columns": len(table.Columns()),
	}).Info("Summarized observation table")
	return nil
}

func (r *runner) test(series *timeseries.Series, stage Stage) (Stationarity, error) {
	adf, err := stats.ADF(series, stats.Options{Significance: r.cfg.Significance})
	if err != nil {
		return Stationarity{}, err
	}

	kpss, err := stats.KPSS(series, r.cfg.KPSSRegression, 0, r.cfg.Significance)
	if err != nil {
		r.log.WithField("stage", stage).Warnf("KPSS skipped: %v", err)
		kpss = nil
	}

	pp, err := stats.PhillipsPerron(series, 0, r.cfg.Significance)
	if err != nil {
		r.log.WithField("stage", stage).Warnf("Phillips-Perron skipped: %v", err)
		pp = nil
	}

	r.log.WithFields(logrus.Fields{
		"stage":      stage,
		"series":     series.Name(),
		"statistic":  adf.Statistic,
		"p_value":    adf.PValue,
		"lags":       adf.Lags,
		"stationary": adf.IsStationary,
	}).Info("ADF test complete")
	return Stationarity{ADF: adf, KPSS: kpss, PP: pp}, nil
}

func (r *runner) testRaw(*timeseries.Table) error {
	res, err := r.test(r.target, StageTestRaw)
	if err != nil {
		return err
	}
	r.report.Raw = res
	return nil
}

func (r *runner) difference(table *timeseries.Table) error {
	name := r.cfg.TargetColumn + "_diff"
	r.diffed = r.target.Diff().WithName(name)

	extended, err := table.WithColumn(name, r.diffed)
	if err != nil {
		return err
	}
	r.report.Table = extended
	return nil
}

func (r *runner) testDifferenced(*timeseries.Table) error {
	res, err := r.test(r.diffed, StageTestDiff)
	if err != nil {
		return err
	}
	r.report.Differenced = res
	return nil
}

func (r *runner) correlogram(*timeseries.Table) error {
	r.report.ACF = stats.ACFWithConfidence(r.diffed, r.cfg.CorrelogramLags)
	r.report.PACF = stats.PACFWithConfidence(r.diffed, r.cfg.CorrelogramLags)
	if r.report.PACF != nil {
		r.log.WithFields(logrus.Fields{
			"stage":       StageCorrelogram,
			"significant": r.report.PACF.Significant(),
		}).Debug("PACF of differenced series")
	}
	return nil
}

func (r *runner) fit(*timeseries.Table) error {
	model, err := arima.Fit(r.target, r.cfg.Order)
	if err != nil {
		return err
	}
	summary, err := model.Summary()
	if err != nil {
		return err
	}
	r.report.Model = model
	r.report.ModelSummary = summary

	r.log.WithFields(logrus.Fields{
		"stage":  StageFit,
		"order":  model.Order().String(),
		"loglik": model.LogLik(),
		"aic":    model.Criteria().AIC,
		"evals":  model.Evals(),
	}).Info("Model fitted")
	return nil
}

func (r *runner) evaluate(*timeseries.Table) error {
	fitted, err := r.report.Model.FittedValues()
	if err != nil {
		return err
	}
	metrics, err := evaluate.Evaluate(r.target, fitted)
	if err != nil {
		return err
	}
	r.report.Metrics = metrics

	r.log.WithFields(logrus.Fields{
		"stage": StageEvaluate,
		"rmse":  metrics.RMSE,
		"mape":  metrics.MAPE,
		"n":     metrics.N,
	}).Info("In-sample evaluation complete")
	return nil
}

func (r *runner) forecast(*timeseries.Table) error {
	fc, err := r.report.Model.Forecast(r.cfg.Horizon, r.cfg.Confidence)
	if err != nil {
		return err
	}
	r.report.Forecast = fc

	r.log.WithFields(logrus.Fields{
		"stage":      StageForecast,
		"horizon":    r.cfg.Horizon,
		"confidence": r.cfg.Confidence,
	}).Info("Forecast complete")
	return nil
}
