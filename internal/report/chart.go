package report

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/linefit/internal/regression"
	"github.com/KaramelBytes/linefit/internal/service"
)

// ChartFileName is the download name of rendered charts.
const ChartFileName = "regression_result.png"

// RenderChart draws the samples as a scatter with the fitted line over them
// and writes a PNG to w.
func RenderChart(w io.Writer, a *service.Analysis, cfg Config) error {
	if a == nil || a.Len() == 0 {
		return errors.New("nothing to plot")
	}
	l := cfg.ChartLabels()
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = DefaultConfig().Width
	}
	if height <= 0 {
		height = DefaultConfig().Height
	}

	lineX, lineY := sortedLine(a.X, a.Predictions)
	points := chart.ContinuousSeries{
		Name:    l.DataPoints,
		XValues: a.X,
		YValues: a.Y,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    4,
			DotColor:    chart.ColorBlue.WithAlpha(153),
		},
	}
	line := chart.ContinuousSeries{
		Name:    fmt.Sprintf("%s: %s", l.RegressionLine, regression.Equation(a.Slope, a.Intercept, 2)),
		XValues: lineX,
		YValues: lineY,
		Style: chart.Style{
			StrokeColor: chart.ColorRed,
			StrokeWidth: 2,
		},
	}

	lo, hi := bounds(a.Y, a.Predictions)
	info := chart.AnnotationSeries{
		Annotations: []chart.Value2{{
			XValue: lineX[0],
			YValue: hi,
			Label: fmt.Sprintf("%s: %.4f   %s: %.4f   %s: %.4f",
				l.Slope, a.Slope, l.Intercept, a.Intercept, l.RSquared, a.RSquared),
		}},
	}

	ch := chart.Chart{
		Title:      l.Title,
		TitleStyle: chart.Style{FontSize: 14},
		Width:      width,
		Height:     height,
		Font:       cfg.Font,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Name: l.XAxis},
		YAxis:      chart.YAxis{Name: l.YAxis},
		Series:     []chart.Series{points, line, info},
	}
	if lo == hi {
		// a flat target has no y extent to scale
		ch.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// sortedLine orders the fitted points by x so the line is drawn left to right.
func sortedLine(xs, preds []float64) ([]float64, []float64) {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return xs[idx[i]] < xs[idx[j]] })
	sx := make([]float64, len(xs))
	sy := make([]float64, len(xs))
	for i, k := range idx {
		sx[i] = xs[k]
		sy[i] = preds[k]
	}
	return sx, sy
}

func bounds(sets ...[]float64) (lo, hi float64) {
	first := true
	for _, s := range sets {
		for _, v := range s {
			if first {
				lo, hi, first = v, v, false
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}
