package collector

import (
	"context"
	"time"

	"IndexTrend/internal/logger"
	"IndexTrend/internal/model"
)

// Collector walks the missing days and gathers whatever rows the fetcher returns.
type Collector struct {
	Fetcher Fetcher
	// OnOutcome, when set, sees every outcome in date order.
	OnOutcome func(model.FetchOutcome)
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// CollectMissing fetches every date in [watermark+1, today-1]. Per-day failures
// are logged and skipped; only context cancellation stops the walk early.
func (c *Collector) CollectMissing(ctx context.Context, watermark, today time.Time) ([]model.ArchiveRow, error) {
	var rows []model.ArchiveRow
	for day := range NewCursor(watermark, today).Days() {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		out := c.Fetcher.Fetch(ctx, day.Date)
		logOutcome(out)
		if c.OnOutcome != nil {
			c.OnOutcome(out)
		}
		if out.HasRow() {
			rows = append(rows, *out.Row)
		}
	}
	if len(rows) > 0 {
		logger.Infof("%d records found", len(rows))
	}
	return rows, nil
}

func logOutcome(o model.FetchOutcome) {
	date := o.Date.Format(model.DateLayout)
	switch o.Kind {
	case model.OutcomeSkipped:
		logger.Infow("skipping day", "date", date, "weekday", o.Date.Weekday().String(), "reason", o.Reason)
	case model.OutcomeSuccess:
		if o.Row == nil {
			logger.Warnw("http get success but index not present", "date", date)
			return
		}
		logger.Infow("http get success", "date", date, "close", o.Row.Close.String())
	case model.OutcomeHTTPError:
		logger.Warnw("status code not 2xx", "date", date, "status_code", o.Status, "content", string(o.Payload))
	case model.OutcomeTransportError:
		logger.Errorw("error occurred while fetching data", "date", date, "error", o.Err)
	}
}
