package recorder

import "IndexTrend/internal/model"

// Recorder persists run history for later analysis. Nothing in the pipeline
// reads it back.
type Recorder interface {
	RecordFetch(runID string, outcome model.FetchOutcome) error
	RecordRun(summary *model.RunSummary) error
	Close() error
}
