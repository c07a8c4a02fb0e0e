package collector

import (
	"context"
	"time"

	"IndexTrend/internal/model"
)

// Fetcher retrieves and classifies one day's record for the tracked index.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) model.FetchOutcome
	Name() string
}
