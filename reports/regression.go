package reports

import "gonum.org/v1/gonum/stat"

// Fit is a degree-1 least-squares polynomial: y = Slope*x + Intercept.
type Fit struct {
	Slope     float64
	Intercept float64
}

func (f Fit) At(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// LinearFit fits a straight line through (xs[i], ys[i]).
// It reports false when fewer than two distinct x values are given.
func LinearFit(xs, ys []float64) (Fit, bool) {
	if len(xs) != len(ys) || len(xs) < 2 || !distinctX(xs) {
		return Fit{}, false
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return Fit{Slope: slope, Intercept: intercept}, true
}

func distinctX(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return true
		}
	}
	return false
}
