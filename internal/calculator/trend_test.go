package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexTrend/internal/model"
)

func seriesFrom(closes []float64) model.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, len(closes))
	for i, c := range closes {
		v := decimal.NewFromFloat(c)
		s[i] = model.DailyBar{Date: start.AddDate(0, 0, i), Open: v, High: v, Low: v, Close: v}
	}
	return s
}

func TestCompositeAverage(t *testing.T) {
	assert.Equal(t, 12.0, CompositeAverage(10, 12, 14))
}

func TestFitPolynomial_RecoversExactPolynomials(t *testing.T) {
	tests := []struct {
		name   string
		degree int
		f      func(x float64) float64
	}{
		{"linear", 1, func(x float64) float64 { return 3*x + 7 }},
		{"quadratic", 2, func(x float64) float64 { return 0.5*x*x - 2*x + 100 }},
		{"cubic", 3, func(x float64) float64 { return 0.01*x*x*x - 0.3*x*x + x + 50 }},
		{"quartic", 4, func(x float64) float64 { return 1e-4*math.Pow(x, 4) - 0.01*x*x*x + 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := make([]float64, 40)
			for i := range y {
				y[i] = tt.f(float64(i))
			}
			fitted, err := FitPolynomial(y, tt.degree)
			require.NoError(t, err)
			for i := range y {
				assert.InDelta(t, y[i], fitted[i], 1e-6, "row %d", i)
			}
		})
	}
}

func TestFitPolynomial_LinearLeastSquares(t *testing.T) {
	// y = 1, 3, 2: the OLS line through x=0,1,2 is y = 1.5 + 0.5x.
	fitted, err := FitPolynomial([]float64{1, 3, 2}, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2.0, 2.5}, fitted, 1e-9)
}

func TestFitPolynomial_LongSeriesStable(t *testing.T) {
	n := 5000
	y := make([]float64, n)
	for i := range y {
		x := float64(i)
		y[i] = 8000 + 3*x + 1e-9*math.Pow(x, 4)
	}
	fitted, err := FitPolynomial(y, 4)
	require.NoError(t, err)
	assert.InDelta(t, y[0], fitted[0], 1e-3)
	assert.InDelta(t, y[n-1], fitted[n-1], 1e-3)
}

func TestFitTrend_AvgExcludesDegreeOne(t *testing.T) {
	closes := []float64{10, 14, 11, 18, 16, 22, 19, 25, 24, 30, 26, 33}
	points, err := FitTrend(seriesFrom(closes))
	require.NoError(t, err)
	require.Len(t, points, len(closes))

	for i, p := range points {
		assert.Equal(t, i, p.Index)
		want := (p.Degree[2] + p.Degree[3] + p.Degree[4]) / 3
		assert.InDelta(t, want, p.Avg, 1e-9)
	}

	// Perturbing the linear prediction must not move the composite.
	p := points[3]
	before := CompositeAverage(p.Degree[2], p.Degree[3], p.Degree[4])
	p.Degree[1] += 1000
	assert.Equal(t, before, CompositeAverage(p.Degree[2], p.Degree[3], p.Degree[4]))
}

func TestFitTrend_SortsByDate(t *testing.T) {
	s := seriesFrom([]float64{1, 2, 3, 4, 5, 6})
	s[0], s[5] = s[5], s[0]

	points, err := FitTrend(s)
	require.NoError(t, err)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Date.After(points[i-1].Date))
	}
	assert.Equal(t, 1.0, points[0].Close)
	assert.Equal(t, 6.0, points[5].Close)
}

func TestFitTrend_InsufficientData(t *testing.T) {
	for _, n := range []int{0, 1, 4} {
		_, err := FitTrend(seriesFrom(make([]float64, n)))
		assert.ErrorIs(t, err, ErrInsufficientData, "n=%d", n)
	}
	_, err := FitTrend(seriesFrom([]float64{1, 2, 3, 4, 5}))
	assert.NoError(t, err)
}
