package calculator

import (
	"errors"

	"IndexTrend/internal/model"
)

// LongAveragePeriod is the row count of the long simple moving average
// reported alongside the trend.
const LongAveragePeriod = 200

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// LongAverage returns the LongAveragePeriod SMA of the fitted points' closes.
func LongAverage(points []model.TrendPoint) (float64, error) {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}
	return CalculateSMA(closes, LongAveragePeriod)
}
