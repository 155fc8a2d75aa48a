package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/utils"
)

var (
	genOpt    = dataset.DefaultGenerateOptions()
	genOutput string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write sample X/Y data scattered around a known line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := dataset.Generate(genOpt)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := dataset.WriteCSV(&buf, samples); err != nil {
			return err
		}
		if genOutput == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(genOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d samples to %s\n", len(samples), genOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	def := dataset.DefaultGenerateOptions()
	generateCmd.Flags().IntVarP(&genOpt.N, "count", "n", def.N, "number of samples")
	generateCmd.Flags().Float64Var(&genOpt.Noise, "noise", def.Noise, "standard deviation of the Gaussian noise")
	generateCmd.Flags().Uint64Var(&genOpt.Seed, "seed", def.Seed, "random seed")
	generateCmd.Flags().Float64Var(&genOpt.Slope, "slope", def.Slope, "slope of the underlying line")
	generateCmd.Flags().Float64Var(&genOpt.Intercept, "intercept", def.Intercept, "intercept of the underlying line")
	generateCmd.Flags().Float64Var(&genOpt.XMin, "x-min", def.XMin, "lower bound of X")
	generateCmd.Flags().Float64Var(&genOpt.XMax, "x-max", def.XMax, "upper bound of X (exclusive)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "path to write the CSV (stdout if omitted)")
}
