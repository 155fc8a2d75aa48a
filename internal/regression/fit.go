// Package regression fits a straight line to paired samples by ordinary least squares.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Sample is one (x, y) observation. Values are expected to be finite.
type Sample struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Result is the outcome of a single fit. Predictions are aligned by index
// with the input samples.
type Result struct {
	Slope       float64   `json:"slope" yaml:"slope"`
	Intercept   float64   `json:"intercept" yaml:"intercept"`
	RSquared    float64   `json:"r_squared" yaml:"r_squared"`
	Predictions []float64 `json:"predictions" yaml:"predictions"`

	xs []float64
	ys []float64
}

// Fit computes the least-squares line through samples.
//
// It returns *InvalidInputError when samples is empty and *DegenerateInputError
// when all x-values are equal or their spread is not representable. The input slice is not modified.
func Fit(samples []Sample) (*Result, error) {
	n := len(samples)
	if n == 0 {
		return nil, &InvalidInputError{Reason: "no samples"}
	}
	xs, ys := Split(samples)
	if constant(xs) {
		return nil, &DegenerateInputError{X: xs[0], N: n}
	}

	xMean := stat.Mean(xs, nil)
	yMean := stat.Mean(ys, nil)
	// Pin the mean for a flat target so deviations are exactly zero.
	flatY := constant(ys)
	if flatY {
		yMean = ys[0]
	}

	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - xMean
		sxy += dx * (ys[i] - yMean)
		sxx += dx * dx
	}
	if sxx == 0 || !finite(sxx) {
		return nil, &DegenerateInputError{X: xs[0], N: n, Reason: fmt.Sprintf("x variance %g", sxx)}
	}
	slope := sxy / sxx
	intercept := yMean - slope*xMean
	if !finite(slope) || !finite(intercept) {
		return nil, &DegenerateInputError{X: xs[0], N: n, Reason: fmt.Sprintf("slope %g, intercept %g", slope, intercept)}
	}

	preds := make([]float64, n)
	var ssRes, ssTot float64
	for i, x := range xs {
		preds[i] = slope*x + intercept
		r := ys[i] - preds[i]
		ssRes += r * r
		d := ys[i] - yMean
		ssTot += d * d
	}

	if !finite(ssRes) {
		return nil, &DegenerateInputError{X: xs[0], N: n, Reason: "residuals overflow"}
	}

	return &Result{
		Slope:       slope,
		Intercept:   intercept,
		RSquared:    rSquared(ssRes, ssTot, flatY),
		Predictions: preds,
		xs:          xs,
		ys:          ys,
	}, nil
}

// rSquared returns 1 - ssRes/ssTot clamped to [0, 1]. A flat target has no
// variance to explain: it scores 1 when the residuals vanish too, else 0.
func rSquared(ssRes, ssTot float64, flatY bool) float64 {
	if flatY || ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	if r2 > 1 {
		return 1
	}
	return r2
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Predict evaluates the fitted line at x.
func (r *Result) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// X returns the x-values the line was fitted on, in input order.
func (r *Result) X() []float64 { return r.xs }

// Y returns the observed y-values, in input order.
func (r *Result) Y() []float64 { return r.ys }

// Split separates samples into parallel x and y slices.
func Split(samples []Sample) (xs, ys []float64) {
	xs = make([]float64, len(samples))
	ys = make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.X
		ys[i] = s.Y
	}
	return xs, ys
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
