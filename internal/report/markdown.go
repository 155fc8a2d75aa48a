package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/linefit/internal/service"
)

// Markdown renders a compact text report. At most maxRows detail rows are
// listed; maxRows <= 0 lists all of them.
func Markdown(a *service.Analysis, l Labels, maxRows int) string {
	var b strings.Builder
	b.WriteString("[REGRESSION SUMMARY]\n")
	if ds := a.Dataset; ds != nil {
		if ds.Name != "" {
			b.WriteString(fmt.Sprintf("File: %s\n", ds.Name))
		}
		if ds.Processed < ds.Rows {
			b.WriteString(fmt.Sprintf("%s: ~%d (processed %d)\n", l.TotalRows, ds.Rows, ds.Processed))
		} else {
			b.WriteString(fmt.Sprintf("%s: %d\n", l.TotalRows, ds.Rows))
		}
		if ds.Skipped > 0 {
			b.WriteString(fmt.Sprintf("%s: %d\n", l.SkippedRows, ds.Skipped))
		}
		b.WriteString(fmt.Sprintf("Columns: %s ~ %s\n", ds.XColumn, ds.YColumn))
	}
	b.WriteString(fmt.Sprintf("Samples: %d\n", a.Len()))
	b.WriteString(fmt.Sprintf("- %s: %.4f\n", l.Slope, a.Slope))
	b.WriteString(fmt.Sprintf("- %s: %.4f\n", l.Intercept, a.Intercept))
	b.WriteString(fmt.Sprintf("- %s: %.4f\n", l.RSquared, a.RSquared))

	b.WriteString("\n[EQUATION]\n")
	b.WriteString(a.Equation)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s: %s (R² = %.4f)\n", l.Evaluation, l.QualityText(a.Quality), a.RSquared))

	b.WriteString("\n[RESIDUALS]\n")
	b.WriteString(fmt.Sprintf("- %s: %.4f\n", l.MeanResidual, a.Stats.Mean))
	b.WriteString(fmt.Sprintf("- %s: %.4f\n", l.StdResidual, a.Stats.StdDev))
	b.WriteString(fmt.Sprintf("- %s: %.4f\n", l.MaxResidual, a.Stats.MaxAbs))
	b.WriteString(fmt.Sprintf("- %s: %.4f\n", l.RMSE, a.Stats.RMSE))

	if a.Len() > 0 {
		b.WriteString("\n[DETAIL]\n")
		b.WriteString(fmt.Sprintf("| X | %s | %s | %s |\n", l.YActual, l.YPredicted, l.Residual))
		b.WriteString("| --- | --- | --- | --- |\n")
		n := a.Len()
		if maxRows > 0 && n > maxRows {
			n = maxRows
		}
		for i := 0; i < n; i++ {
			b.WriteString(fmt.Sprintf("| %.4g | %.4g | %.4f | %.4f |\n", a.X[i], a.Y[i], a.Predictions[i], a.Residuals[i]))
		}
		if n < a.Len() {
			b.WriteString(fmt.Sprintf("(%d more rows)\n", a.Len()-n))
		}
	}

	if a.Dataset != nil && len(a.Dataset.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range a.Dataset.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
