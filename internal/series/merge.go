// Package series merges freshly fetched archive rows into the persisted history.
package series

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"IndexTrend/internal/logger"
	"IndexTrend/internal/model"
)

// RowDateLayout is the archive's day-month-year date text.
const RowDateLayout = "02-01-2006"

// ErrNoNewData reports that there was nothing to merge; the store is untouched.
var ErrNoNewData = errors.New("no new data")

// Store is the durable tabular store the merged series is written to.
type Store interface {
	Load() (model.Series, error)
	Save(model.Series) error
}

// Result describes a merge.
type Result struct {
	Series    model.Series
	Added     int
	Replaced  int
	Unchanged int // rows identical to the bar already stored
	Dropped   int
	Watermark time.Time
}

// Normalize converts an archive row into a bar, parsing its textual date.
func Normalize(row model.ArchiveRow) (model.DailyBar, error) {
	d, err := time.Parse(RowDateLayout, strings.TrimSpace(row.Date))
	if err != nil {
		return model.DailyBar{}, fmt.Errorf("parse row date %q: %w", row.Date, err)
	}
	return model.DailyBar{
		Date:  d,
		Open:  row.Open,
		High:  row.High,
		Low:   row.Low,
		Close: row.Close,
	}, nil
}

// Merge upserts rows into existing keyed by date. Existing bars keep their
// position; a row for a date already present replaces that bar in place, and
// rows for new dates are appended in the order given. existing is not modified.
// The result is not sorted.
func Merge(existing model.Series, rows []model.ArchiveRow) Result {
	merged := make(model.Series, len(existing), len(existing)+len(rows))
	copy(merged, existing)

	pos := make(map[time.Time]int, len(merged))
	for i, b := range merged {
		pos[model.DateOnly(b.Date)] = i
	}

	var res Result
	for _, row := range rows {
		bar, err := Normalize(row)
		if err != nil {
			logger.Warnf("dropping row: %v", err)
			res.Dropped++
			continue
		}
		key := model.DateOnly(bar.Date)
		if i, ok := pos[key]; ok {
			if sameBar(merged[i], bar) {
				res.Unchanged++
				continue
			}
			merged[i] = bar
			res.Replaced++
			continue
		}
		pos[key] = len(merged)
		merged = append(merged, bar)
		res.Added++
	}

	res.Series = merged
	res.Watermark, _ = merged.Watermark()
	return res
}

func sameBar(a, b model.DailyBar) bool {
	return a.Open.Equal(b.Open) && a.High.Equal(b.High) &&
		a.Low.Equal(b.Low) && a.Close.Equal(b.Close)
}

// Persist merges rows into existing and overwrites the store with the result.
// With no rows, or none that add or change a bar, it writes nothing and
// returns ErrNoNewData.
func Persist(store Store, existing model.Series, rows []model.ArchiveRow) (Result, error) {
	if len(rows) == 0 {
		return Result{Series: existing}, ErrNoNewData
	}
	res := Merge(existing, rows)
	if res.Added == 0 && res.Replaced == 0 {
		return res, ErrNoNewData
	}
	if err := store.Save(res.Series); err != nil {
		return res, fmt.Errorf("save series: %w", err)
	}
	return res, nil
}
