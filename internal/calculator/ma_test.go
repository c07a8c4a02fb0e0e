package calculator

import (
	"math"
	"testing"

	"IndexTrend/internal/model"
)

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("SMA = %v, want 4", got)
	}

	if _, err := CalculateSMA([]float64{1, 2}, 3); err == nil {
		t.Error("expected error for short input")
	}
	if _, err := CalculateSMA([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}

func TestLongAverage(t *testing.T) {
	points := make([]model.TrendPoint, 250)
	for i := range points {
		points[i].Close = float64(i)
	}
	got, err := LongAverage(points)
	if err != nil {
		t.Fatal(err)
	}
	// mean of 50..249
	if math.Abs(got-149.5) > 1e-9 {
		t.Errorf("LongAverage = %v, want 149.5", got)
	}

	if _, err := LongAverage(points[:199]); err == nil {
		t.Error("expected error with fewer than 200 points")
	}
}
