package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/middleware"
	"github.com/KaramelBytes/linefit/internal/report"
	"github.com/KaramelBytes/linefit/internal/service"
	"github.com/KaramelBytes/linefit/internal/utils"
)

var (
	fitXCol       string
	fitYCol       string
	fitDelimiter  string
	fitDecimal    string
	fitThousands  string
	fitSheetName  string
	fitSheetIndex int
	fitMaxRows    int
	fitDetailRows int
	fitChartPath  string
	fitOutputPath string
	fitJSON       bool
)

var fitCmd = &cobra.Command{
	Use:   "fit <file>",
	Short: "Fit a line to the X and Y columns of a CSV/TSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		opt := c.DatasetOptions()
		if fitXCol != "" {
			opt.XColumn = fitXCol
		}
		if fitYCol != "" {
			opt.YColumn = fitYCol
		}
		if cmd.Flags().Changed("max-rows") {
			opt.MaxRows = fitMaxRows
		}
		if err := applySeparators(&opt); err != nil {
			return err
		}
		opt.SheetName = fitSheetName
		opt.SheetIndex = fitSheetIndex

		log := newLogger(c)
		defer func() { _ = log.Sync() }()
		slog := log.Sugar().Named("fit")

		ds, err := dataset.LoadFile(args[0], opt)
		if err != nil {
			return err
		}
		svc := service.ApplyMiddleware(service.New(), middleware.Logging(slog))
		a, err := svc.Analyze(cmd.Context(), ds)
		if err != nil {
			return err
		}

		rc := reportConfig(c, slog)
		var out []byte
		if fitJSON {
			out, err = utils.PrettyJSON(a)
			if err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(report.Markdown(a, report.LabelsFor(rc.Locale), fitDetailRows))
		}

		w := cmd.OutOrStdout()
		if fitOutputPath != "" {
			if err := utils.SafeWriteFile(fitOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(w, "✓ Wrote report to %s\n", fitOutputPath)
		} else {
			if _, err := w.Write(out); err != nil {
				return err
			}
		}

		if fitChartPath != "" {
			var png bytes.Buffer
			if err := report.RenderChart(&png, a, rc); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(fitChartPath, png.Bytes()); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(w, "✓ Wrote chart to %s\n", fitChartPath)
		}
		for _, warn := range ds.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", warn)
		}
		return nil
	},
}

func applySeparators(opt *dataset.Options) error {
	if fitDelimiter != "" {
		switch fitDelimiter {
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", fitDelimiter)
		}
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(fitDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", fitDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(fitThousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", fitThousands)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().StringVar(&fitXCol, "x-col", "", "name of the X column (default from config, usually X)")
	fitCmd.Flags().StringVar(&fitYCol, "y-col", "", "name of the Y column (default from config, usually Y)")
	fitCmd.Flags().StringVar(&fitDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	fitCmd.Flags().StringVar(&fitDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fitCmd.Flags().StringVar(&fitThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fitCmd.Flags().StringVar(&fitSheetName, "sheet-name", "", "XLSX: sheet name to read")
	fitCmd.Flags().IntVar(&fitSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fitCmd.Flags().IntVar(&fitMaxRows, "max-rows", 100000, "maximum rows to fit (0 = unlimited)")
	fitCmd.Flags().IntVar(&fitDetailRows, "rows", 20, "detail rows to list in the report (0 = all)")
	fitCmd.Flags().StringVar(&fitChartPath, "chart", "", "optional path to write the chart (PNG)")
	fitCmd.Flags().StringVarP(&fitOutputPath, "output", "o", "", "optional path to write the report instead of stdout")
	fitCmd.Flags().BoolVar(&fitJSON, "json", false, "print the full analysis as JSON")
}
