package calculator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"IndexTrend/internal/model"
)

// ErrInsufficientData is returned when the series cannot support the highest
// polynomial degree (or is empty).
var ErrInsufficientData = errors.New("insufficient data for trend fit")

// MaxDegree is the highest polynomial degree fitted.
const MaxDegree = 4

// FitPolynomial fits y against the dense index 0..len(y)-1 with ordinary least
// squares on the basis (1, x, ..., x^degree) and returns the fitted values.
//
// The index is scaled onto [0,1] before expansion. That is an affine change of
// variable within the same polynomial space, so the fitted values are those of
// the raw-index fit, while keeping the design matrix well conditioned for
// multi-thousand-row histories.
func FitPolynomial(y []float64, degree int) ([]float64, error) {
	n := len(y)
	if degree < 0 {
		return nil, fmt.Errorf("degree must be non-negative, got %d", degree)
	}
	if n <= degree {
		return nil, fmt.Errorf("%w: %d rows for degree %d", ErrInsufficientData, n, degree)
	}

	xs := make([]float64, n)
	for i := range xs {
		if n > 1 {
			xs[i] = float64(i) / float64(n-1)
		}
	}

	a := mat.NewDense(n, degree+1, nil)
	for i, x := range xs {
		p := 1.0
		for k := 0; k <= degree; k++ {
			a.Set(i, k, p)
			p *= x
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("%w: degree %d: %v", ErrInsufficientData, degree, err)
	}

	fitted := make([]float64, n)
	mat.NewVecDense(n, fitted).MulVec(a, &coef)
	return fitted, nil
}

// CompositeAverage is the smoothed signal: the mean of the degree 2, 3 and 4
// predictions. The linear fit is deliberately left out.
func CompositeAverage(deg2, deg3, deg4 float64) float64 {
	return (deg2 + deg3 + deg4) / 3
}

// FitTrend sorts the series by date, assigns a dense 0-based index and fits
// every degree in model.Degrees against the close.
func FitTrend(series model.Series) ([]model.TrendPoint, error) {
	if len(series) <= MaxDegree {
		return nil, fmt.Errorf("%w: %d rows, need more than %d", ErrInsufficientData, len(series), MaxDegree)
	}
	sorted := series.Sorted()
	closes := sorted.Closes()

	points := make([]model.TrendPoint, len(sorted))
	for i, b := range sorted {
		points[i] = model.TrendPoint{Index: i, Date: b.Date, Close: closes[i]}
	}

	for _, d := range model.Degrees {
		fitted, err := FitPolynomial(closes, d)
		if err != nil {
			return nil, err
		}
		for i, v := range fitted {
			points[i].Degree[d] = v
		}
	}
	for i := range points {
		p := &points[i]
		p.Avg = CompositeAverage(p.Degree[2], p.Degree[3], p.Degree[4])
	}
	return points, nil
}
