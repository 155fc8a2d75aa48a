package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ResidualStats summarizes observed minus predicted values.
type ResidualStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"` // population standard deviation
	MaxAbs float64 `json:"max_abs" yaml:"max_abs"`
	RMSE   float64 `json:"rmse" yaml:"rmse"`
}

// Residuals returns y[i] - prediction[i] in input order.
func (r *Result) Residuals() []float64 {
	if len(r.ys) == 0 {
		return nil
	}
	return floats.SubTo(make([]float64, len(r.ys)), r.ys, r.Predictions)
}

// Stats computes residual statistics for the fit.
func (r *Result) Stats() ResidualStats {
	res := r.Residuals()
	if len(res) == 0 {
		return ResidualStats{}
	}
	mean, std := stat.PopMeanStdDev(res, nil)
	var maxAbs float64
	for _, v := range res {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	return ResidualStats{
		Mean:   mean,
		StdDev: std,
		MaxAbs: maxAbs,
		RMSE:   floats.Norm(res, 2) / math.Sqrt(float64(len(res))),
	}
}

// Equation renders the fitted line as "Y = aX + b", folding a negative
// intercept into the operator.
func Equation(slope, intercept float64, decimals int) string {
	if decimals < 0 {
		decimals = 4
	}
	if intercept >= 0 {
		return fmt.Sprintf("Y = %.*fX + %.*f", decimals, slope, decimals, intercept)
	}
	return fmt.Sprintf("Y = %.*fX - %.*f", decimals, slope, decimals, -intercept)
}

// Equation renders this result's line with four decimals.
func (r *Result) Equation() string { return Equation(r.Slope, r.Intercept, 4) }

// FitQuality is a coarse verdict on R².
type FitQuality string

const (
	QualityExcellent FitQuality = "excellent"
	QualityGood      FitQuality = "good"
	QualityFair      FitQuality = "fair"
)

// Quality grades r2: at least 0.9 is excellent, at least 0.7 good, anything lower fair.
func Quality(r2 float64) FitQuality {
	switch {
	case r2 >= 0.9:
		return QualityExcellent
	case r2 >= 0.7:
		return QualityGood
	default:
		return QualityFair
	}
}
