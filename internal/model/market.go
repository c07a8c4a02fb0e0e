package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date layout used in logs and chart titles.
const DateLayout = "2006-01-02"

// DailyBar is one trading day's open/high/low/close for the tracked index.
type DailyBar struct {
	Date  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Series is the persisted daily history, one bar per date.
type Series []DailyBar

// Watermark returns the most recent date present. ok is false for an empty series.
func (s Series) Watermark() (last time.Time, ok bool) {
	for i, b := range s {
		if i == 0 || b.Date.After(last) {
			last = b.Date
		}
	}
	return last, len(s) > 0
}

// Sorted returns a copy ordered by date ascending.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Closes extracts the closing prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close.InexactFloat64()
	}
	return closes
}

// ArchiveRow is the tracked index's row from a daily archive file, projected onto
// the canonical column names. Date is still the archive's dd-mm-yyyy text.
type ArchiveRow struct {
	Date  string
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
