package calculator

import (
	"errors"
	"math"

	"IndexTrend/internal/model"
)

// DaysLastYear approximates the number of trading days in a year. The trailing
// chart is a row-count window of this size, not a calendar cutoff.
const DaysLastYear = 260

// TrailingWindow returns the last n points, or all of them when fewer exist.
func TrailingWindow(points []model.TrendPoint, n int) []model.TrendPoint {
	if n <= 0 {
		return nil
	}
	start := len(points) - n
	if start < 0 {
		start = 0
	}
	return points[start:]
}

// ValueRange scans closes and composite values and returns the overall high and low.
func ValueRange(points []model.TrendPoint) (high, low float64, err error) {
	if len(points) == 0 {
		return 0, 0, errors.New("no points provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range points {
		high = math.Max(high, math.Max(p.Close, p.Avg))
		low = math.Min(low, math.Min(p.Close, p.Avg))
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
