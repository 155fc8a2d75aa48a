package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/linefit/internal/dataset"
)

// Global configuration structure.
type Global struct {
	// HTTP server
	ListenAddr      string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec" yaml:"write_timeout_sec"`
	MetricsEnabled  bool   `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
	// TraceExporter is "none" or "stdout".
	TraceExporter string `mapstructure:"trace_exporter" yaml:"trace_exporter"`

	// Presentation
	Locale      string `mapstructure:"locale" yaml:"locale"`
	FontPath    string `mapstructure:"font_path" yaml:"font_path"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Ingestion
	XColumn     string `mapstructure:"x_column" yaml:"x_column"`
	YColumn     string `mapstructure:"y_column" yaml:"y_column"`
	MaxRows     int    `mapstructure:"max_rows" yaml:"max_rows"`
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.linefit.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".linefit"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.linefit/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("LINEFIT")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8501")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("read_timeout_sec", 15)
	v.SetDefault("write_timeout_sec", 15)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("trace_exporter", "none")
	v.SetDefault("locale", "en")
	v.SetDefault("font_path", "")
	v.SetDefault("chart_width", 1000)
	v.SetDefault("chart_height", 600)
	v.SetDefault("x_column", "X")
	v.SetDefault("y_column", "Y")
	v.SetDefault("max_rows", 100000)
	v.SetDefault("preview_rows", 10)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "CONSOLE")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no component can work with.
func (c *Global) Validate() error {
	var problems []string
	if strings.TrimSpace(c.XColumn) == "" || strings.TrimSpace(c.YColumn) == "" {
		problems = append(problems, "x_column and y_column must not be empty")
	}
	if c.MaxUploadMB <= 0 {
		problems = append(problems, "max_upload_mb must be positive")
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		problems = append(problems, "chart_width and chart_height must be positive")
	}
	if c.MaxRows < 0 || c.PreviewRows < 0 {
		problems = append(problems, "max_rows and preview_rows must not be negative")
	}
	switch c.TraceExporter {
	case "", "none", "stdout":
	default:
		problems = append(problems, fmt.Sprintf("trace_exporter must be none or stdout, got %q", c.TraceExporter))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DatasetOptions maps the ingestion keys onto dataset.Options.
func (c *Global) DatasetOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	opt.XColumn = c.XColumn
	opt.YColumn = c.YColumn
	opt.MaxRows = c.MaxRows
	opt.PreviewRows = c.PreviewRows
	return opt
}

// MaxUploadBytes converts max_upload_mb to bytes.
func (c *Global) MaxUploadBytes() int {
	return c.MaxUploadMB << 20
}
