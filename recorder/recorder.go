// Package recorder persists pipeline runs for later inspection.
package recorder

import (
	"context"

	"github.com/sartorproj/tsforecast/pipeline"
)

// Recorder stores the outcome of a pipeline run.
type Recorder interface {
	// RecordRun stores report under symbol and returns the run id.
	RecordRun(ctx context.Context, symbol string, report *pipeline.Report) (int64, error)
	Close() error
}

// NoopRecorder discards every run.
type NoopRecorder struct{}

// RecordRun returns run id 0 without storing anything.
func (NoopRecorder) RecordRun(context.Context, string, *pipeline.Report) (int64, error) {
	return 0, nil
}

// Close is a no-op.
func (NoopRecorder) Close() error { return nil }
