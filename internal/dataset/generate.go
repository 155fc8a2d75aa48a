package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/linefit/internal/regression"
)

// GenerateOptions describes synthetic data around a known line.
type GenerateOptions struct {
	N         int
	Noise     float64
	Seed      uint64
	Slope     float64
	Intercept float64
	XMin      float64
	XMax      float64
}

// DefaultGenerateOptions yields 100 points around Y = 2X + 30 with noise 10.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{N: 100, Noise: 10, Seed: 42, Slope: 2, Intercept: 30, XMin: 0, XMax: 100}
}

// Generate draws X uniformly from [XMin, XMax) and adds Gaussian noise to the
// line. The same options always produce the same samples.
func Generate(opt GenerateOptions) ([]regression.Sample, error) {
	if opt.N <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", opt.N)
	}
	if opt.Noise < 0 {
		return nil, fmt.Errorf("noise must not be negative, got %g", opt.Noise)
	}
	if opt.XMax <= opt.XMin {
		return nil, fmt.Errorf("x range [%g, %g) is empty", opt.XMin, opt.XMax)
	}
	src := rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15)
	xd := distuv.Uniform{Min: opt.XMin, Max: opt.XMax, Src: src}
	nd := distuv.Normal{Mu: 0, Sigma: opt.Noise, Src: src}
	out := make([]regression.Sample, opt.N)
	for i := range out {
		out[i].X = xd.Rand()
	}
	for i := range out {
		out[i].Y = opt.Slope*out[i].X + opt.Intercept
		if opt.Noise > 0 {
			out[i].Y += nd.Rand()
		}
	}
	return out, nil
}

// WriteCSV writes samples under an "X,Y" header.
func WriteCSV(w io.Writer, samples []regression.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{defaultXColumn, defaultYColumn}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range samples {
		rec := []string{strconv.FormatFloat(s.X, 'f', -1, 64), strconv.FormatFloat(s.Y, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
