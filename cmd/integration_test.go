package cmd

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/regression"
)

// resetFlags restores every flag of c and its children to its default so
// sticky values do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LINEFIT_LOG_LEVEL", "ERROR")
	return home
}

func TestCLI_GenerateThenFitJSON(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "data.csv")

	out := runCmd(t, "generate", "-n", "200", "--seed", "7", "-o", data)
	if !strings.Contains(out, "✓ Wrote 200 samples") {
		t.Fatalf("unexpected generate output: %q", out)
	}

	out = runCmd(t, "fit", data, "--json")
	var a struct {
		Slope     float64   `json:"slope"`
		Intercept float64   `json:"intercept"`
		RSquared  float64   `json:"r_squared"`
		X         []float64 `json:"x"`
	}
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(a.X) != 200 {
		t.Fatalf("fitted %d samples, want 200", len(a.X))
	}
	if a.Slope < 1.8 || a.Slope > 2.2 || a.Intercept < 22 || a.Intercept > 38 || a.RSquared < 0.9 {
		t.Fatalf("unexpected fit: %+v", a)
	}
}

func TestCLI_FitWritesReportAndChart(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "study.csv")
	if err := os.WriteFile(data, []byte("hours;score\n1;2,5\n2;4,5\n3;6,5\n4;8,5\n"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	report := filepath.Join(home, "out", "report.md")
	chart := filepath.Join(home, "out", "chart.png")

	out := runCmd(t, "fit", data, "--x-col", "hours", "--y-col", "score", "-o", report, "--chart", chart)
	if !strings.Contains(out, "✓ Wrote report") || !strings.Contains(out, "✓ Wrote chart") {
		t.Fatalf("unexpected output: %q", out)
	}
	md, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"[REGRESSION SUMMARY]", "Y = 2.0000X + 0.5000", "Excellent fit"} {
		if !strings.Contains(string(md), want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
	f, err := os.Open(chart)
	if err != nil {
		t.Fatalf("open chart: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Fatalf("decode chart: %v", err)
	}
}

func TestCLI_FitErrors(t *testing.T) {
	home := isolateHome(t)
	missing := filepath.Join(home, "missing.csv")
	if err := os.WriteFile(missing, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "fit", missing)
	var se *dataset.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *dataset.SchemaError", err)
	}

	flat := filepath.Join(home, "flat.csv")
	if err := os.WriteFile(flat, []byte("X,Y\n3,1\n3,2\n3,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, "fit", flat)
	var de *regression.DegenerateInputError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *regression.DegenerateInputError", err)
	}

	if _, err := execute(t, "fit", flat, "--delimiter", "|"); err == nil {
		t.Fatalf("expected error for unsupported delimiter")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)

	runCmd(t, "config", "set", "locale", "zh-CN")
	runCmd(t, "config", "set", "chart_width", "800")
	if _, err := os.Stat(filepath.Join(home, ".linefit", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}

	out := runCmd(t, "config", "set", "x_column", "hours")
	if !strings.Contains(out, "Saved config") {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := execute(t, "config", "set", "chart_width", "abc"); err == nil {
		t.Fatalf("expected error for invalid int")
	}
	if _, err := execute(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}

	// show reads what set saved
	cfg = nil
	loadConfig()
	var buf bytes.Buffer
	configShowCmd.SetOut(&buf)
	if err := configShowCmd.RunE(configShowCmd, nil); err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"locale: zh", "chart_width: 800", "x_column: hours"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("show output missing %q:\n%s", want, buf.String())
		}
	}
}
