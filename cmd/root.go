package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/linefit/internal/config"
	"github.com/KaramelBytes/linefit/internal/logger"
	"github.com/KaramelBytes/linefit/internal/report"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagLocale   string
	flagLogLevel string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "linefit",
	Short: "linefit: least-squares line fitting for X/Y datasets",
	Long: `linefit fits a straight line Y = aX + b to two numeric columns of a CSV, TSV or XLSX
file by ordinary least squares and reports slope, intercept, R² and residual statistics,
either from the command line or through a small web page.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.linefit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLocale, "locale", "", "label language: en | zh (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "DEBUG | INFO | WARN | ERROR (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("locale") && flagLocale != "" {
		cfg.Locale = flagLocale
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if debug {
		cfg.LogLevel = "DEBUG"
	}
}

// current returns the loaded configuration, or built-in defaults when none could be loaded.
func current() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{
		ListenAddr:      ":8501",
		MaxUploadMB:     10,
		ReadTimeoutSec:  15,
		WriteTimeoutSec: 15,
		MetricsEnabled:  true,
		TraceExporter:   "none",
		Locale:          "en",
		ChartWidth:      1000,
		ChartHeight:     600,
		XColumn:         "X",
		YColumn:         "Y",
		MaxRows:         100000,
		PreviewRows:     10,
		LogLevel:        "INFO",
		LogFormat:       "CONSOLE",
	}
}

func newLogger(c *cfgpkg.Global) *zap.Logger {
	return logger.New(c.LogLevel, c.LogFormat)
}

// reportConfig builds the presentation settings. A font that cannot be loaded
// is logged and charts fall back to English labels.
func reportConfig(c *cfgpkg.Global, log *zap.SugaredLogger) report.Config {
	rc := report.Config{
		Locale: report.ParseLocale(c.Locale),
		Width:  c.ChartWidth,
		Height: c.ChartHeight,
	}
	if c.FontPath != "" {
		font, err := report.LoadFont(c.FontPath)
		if err != nil {
			log.Warnw("font not usable, charts use English labels", "font_path", c.FontPath, "error", err)
		} else {
			rc.Font = font
		}
	}
	if rc.Locale == report.Chinese && rc.ChartLabels().Locale != report.Chinese {
		log.Infow("no CJK font configured, chart labels fall back to English", "font_path", c.FontPath)
	}
	return rc
}
