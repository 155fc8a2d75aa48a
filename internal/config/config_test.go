package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ListenAddr != ":8501" || c.Locale != "en" || c.XColumn != "X" || c.YColumn != "Y" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.MaxUploadBytes() != 10<<20 || c.ChartWidth != 1000 || c.ChartHeight != 600 || !c.MetricsEnabled || c.TraceExporter != "none" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	opt := c.DatasetOptions()
	if opt.MaxRows != 100000 || opt.PreviewRows != 10 {
		t.Fatalf("dataset options = %+v", opt)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("locale: zh\nx_column: hours\nchart_width: 800\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINEFIT_CHART_WIDTH", "1200")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Locale != "zh" || c.XColumn != "hours" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.ChartWidth != 1200 {
		t.Fatalf("chart_width = %d, want env override 1200", c.ChartWidth)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.YColumn = "score"
	c.FontPath = "/fonts/NotoSansSC.ttf"
	if err := Save(c, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load("")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.YColumn != "score" || again.FontPath != "/fonts/NotoSansSC.ttf" {
		t.Fatalf("saved values lost: %+v", again)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_upload_mb: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
	exporter := filepath.Join(t.TempDir(), "exporter.yaml")
	if err := os.WriteFile(exporter, []byte("trace_exporter: jaeger\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(exporter); err == nil {
		t.Fatalf("expected error for unknown trace exporter")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
