package collector

import (
	"iter"
	"time"

	"IndexTrend/internal/model"
)

// Day is a candidate date produced by a Cursor.
type Day struct {
	Date        time.Time
	BusinessDay bool
}

// IsBusinessDay reports whether t falls Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Cursor enumerates the dates strictly between a watermark and today.
type Cursor struct {
	from  time.Time // first date, inclusive
	until time.Time // exclusive
}

// NewCursor covers [lastKnown+1, today-1]. Both bounds are reduced to calendar dates.
func NewCursor(lastKnown, today time.Time) Cursor {
	return Cursor{
		from:  model.DateOnly(lastKnown).AddDate(0, 0, 1),
		until: model.DateOnly(today),
	}
}

// Days yields each candidate date in ascending order. The sequence can be
// ranged over any number of times.
func (c Cursor) Days() iter.Seq[Day] {
	return func(yield func(Day) bool) {
		for d := c.from; d.Before(c.until); d = d.AddDate(0, 0, 1) {
			if !yield(Day{Date: d, BusinessDay: IsBusinessDay(d)}) {
				return
			}
		}
	}
}
