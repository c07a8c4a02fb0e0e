package model

import "time"

// RunState is a pipeline state. Done and NoNewData are successful terminals.
type RunState string

const (
	StateIdle                RunState = "IDLE"
	StateDeterminingLastDate RunState = "DETERMINING_LAST_DATE"
	StateFetchingMissingDays RunState = "FETCHING_MISSING_DAYS"
	StateMerging             RunState = "MERGING"
	StateNoNewData           RunState = "NO_NEW_DATA"
	StateFitting             RunState = "FITTING"
	StateRendering           RunState = "RENDERING"
	StateDone                RunState = "DONE"
	StateFailed              RunState = "FAILED"
)

// RunSummary describes one pipeline run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	State      RunState
	Watermark  time.Time
	AsOf       time.Time

	Fetched         int // Success outcomes carrying a row
	Empty           int // Success outcomes without the tracked index
	Skipped         int
	HTTPErrors      int
	TransportErrors int

	Added    int
	Replaced int
	Records  int // rows in the store after the merge

	LastClose    float64
	LastAvg      float64
	LongAverage  float64 // 200-row SMA of the close; zero when the history is shorter
	YearPosition float64 // last close within the trailing-year range, 0~1

	Artifacts []TrendArtifact
	Err       string
}

// Count tallies an outcome into the summary.
func (r *RunSummary) Count(o FetchOutcome) {
	switch o.Kind {
	case OutcomeSuccess:
		if o.Row != nil {
			r.Fetched++
		} else {
			r.Empty++
		}
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeHTTPError:
		r.HTTPErrors++
	case OutcomeTransportError:
		r.TransportErrors++
	}
}
