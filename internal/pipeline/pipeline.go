// Package pipeline runs one incremental update: find the last stored date,
// fetch the missing days, merge, refit the trend and redraw the charts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"IndexTrend/internal/calculator"
	"IndexTrend/internal/collector"
	"IndexTrend/internal/logger"
	"IndexTrend/internal/model"
	"IndexTrend/internal/notifier"
	"IndexTrend/internal/recorder"
	"IndexTrend/internal/series"
)

// ErrEmptySeries means the store holds no rows and no start date is configured,
// so there is no watermark to resume from.
var ErrEmptySeries = errors.New("store is empty and no start date is configured")

// Renderer draws the trend charts.
type Renderer interface {
	Render(ctx context.Context, points []model.TrendPoint, asOf, now time.Time) ([]model.TrendArtifact, error)
}

// Notifier delivers the run summary.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Pipeline wires the stages together. Runs are sequential; Run must not be
// called concurrently.
type Pipeline struct {
	Store     series.Store
	Fetcher   collector.Fetcher
	Renderer  Renderer
	Recorder  recorder.Recorder
	Notifier  Notifier // optional
	IndexName string
	// StartDate seeds the watermark for an empty store. Zero means unset.
	StartDate time.Time
	Location  *time.Location
	Now       func() time.Time

	mu   sync.Mutex
	last *model.RunSummary
}

// New creates a pipeline with a noop recorder, no notifier and the local clock.
func New(store series.Store, fetcher collector.Fetcher, renderer Renderer) *Pipeline {
	return &Pipeline{
		Store:    store,
		Fetcher:  fetcher,
		Renderer: renderer,
		Recorder: recorder.NewNoopRecorder(),
		Location: time.Local,
		Now:      time.Now,
	}
}

// Run executes one update. The returned summary is never nil; its State is
// Done or NoNewData on success and Failed when err is non-nil.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	now := p.Now().In(p.Location)
	sum := &model.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: now,
		State:     model.StateIdle,
	}
	logger.Infow("run started", "run_id", sum.RunID)

	err := p.run(ctx, sum, now)
	if err != nil {
		sum.State = model.StateFailed
		sum.Err = err.Error()
		logger.Errorw("run failed", "run_id", sum.RunID, "error", err)
	}
	sum.FinishedAt = p.Now().In(p.Location)
	p.finish(ctx, sum)
	return sum, err
}

// Last returns the most recent finished run, or nil.
func (p *Pipeline) Last() *model.RunSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Pipeline) run(ctx context.Context, sum *model.RunSummary, now time.Time) error {
	p.enter(sum, model.StateDeterminingLastDate)
	existing, err := p.Store.Load()
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	watermark, ok := existing.Watermark()
	if !ok {
		if p.StartDate.IsZero() {
			return ErrEmptySeries
		}
		watermark = model.DateOnly(p.StartDate)
		logger.Infof("store is empty, starting after %s", watermark.Format(model.DateLayout))
	}
	sum.Watermark = watermark
	logger.Infof("last date in store: %s", watermark.Format(model.DateLayout))
	p.record(sum)

	p.enter(sum, model.StateFetchingMissingDays)
	col := collector.NewCollector(p.Fetcher)
	col.OnOutcome = func(o model.FetchOutcome) {
		sum.Count(o)
		if err := p.Recorder.RecordFetch(sum.RunID, o); err != nil {
			logger.Errorf("record fetch: %v", err)
		}
	}
	rows, err := col.CollectMissing(ctx, watermark, model.DateOnly(now))
	if err != nil {
		return fmt.Errorf("collect missing days: %w", err)
	}

	p.enter(sum, model.StateMerging)
	res, err := series.Persist(p.Store, existing, rows)
	sum.Added, sum.Replaced = res.Added, res.Replaced
	if errors.Is(err, series.ErrNoNewData) {
		sum.Records = len(existing)
		p.enter(sum, model.StateNoNewData)
		logger.Infof("no new data")
		return nil
	}
	if err != nil {
		return err
	}
	sum.AsOf = res.Watermark
	sum.Records = len(res.Series)

	p.enter(sum, model.StateFitting)
	points, err := calculator.FitTrend(res.Series)
	if err != nil {
		return fmt.Errorf("fit trend: %w", err)
	}
	summarize(sum, points)

	p.enter(sum, model.StateRendering)
	artifacts, err := p.Renderer.Render(ctx, points, res.Watermark, now)
	if err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	sum.Artifacts = artifacts

	p.enter(sum, model.StateDone)
	logger.Infof("%d records in store, data upto %s", sum.Records, sum.AsOf.Format(model.DateLayout))
	return nil
}

func (p *Pipeline) enter(sum *model.RunSummary, state model.RunState) {
	logger.Debugf("run %s: %s -> %s", sum.RunID, sum.State, state)
	sum.State = state
}

// summarize stores the latest close and composite value, the long moving
// average and where the close sits within the trailing-year range.
func summarize(sum *model.RunSummary, points []model.TrendPoint) {
	last := points[len(points)-1]
	sum.LastClose = last.Close
	sum.LastAvg = last.Avg
	if ma, err := calculator.LongAverage(points); err == nil {
		sum.LongAverage = ma
	}

	high, low, err := calculator.ValueRange(calculator.TrailingWindow(points, calculator.DaysLastYear))
	if err != nil {
		return
	}
	if pos, err := calculator.RangePosition(last.Close, high, low); err == nil {
		sum.YearPosition = pos
	}
}

func (p *Pipeline) finish(ctx context.Context, sum *model.RunSummary) {
	p.record(sum)
	logger.Infow("run finished",
		"run_id", sum.RunID,
		"state", string(sum.State),
		"skipped", sum.Skipped,
		"empty", sum.Empty,
		"http_errors", sum.HTTPErrors,
		"transport_errors", sum.TransportErrors,
		"added", sum.Added,
		"replaced", sum.Replaced,
		"duration", sum.FinishedAt.Sub(sum.StartedAt).String(),
	)

	p.mu.Lock()
	p.last = sum
	p.mu.Unlock()

	// NoNewData is the common case on weekends and holidays; stay quiet.
	if p.Notifier == nil || sum.State == model.StateNoNewData {
		return
	}
	if err := p.Notifier.SendWithRetry(ctx, notifier.FormatRunSummary(p.IndexName, sum), 3); err != nil {
		logger.Errorf("send notification: %v", err)
	}
}

func (p *Pipeline) record(sum *model.RunSummary) {
	if err := p.Recorder.RecordRun(sum); err != nil {
		logger.Errorf("record run: %v", err)
	}
}
