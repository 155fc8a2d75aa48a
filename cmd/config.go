package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/linefit/internal/config"
	"github.com/KaramelBytes/linefit/internal/logger"
	"github.com/KaramelBytes/linefit/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set linefit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(w, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(w, "read_timeout_sec: %d\n", c.ReadTimeoutSec)
		fmt.Fprintf(w, "write_timeout_sec: %d\n", c.WriteTimeoutSec)
		fmt.Fprintf(w, "metrics_enabled: %t\n", c.MetricsEnabled)
		fmt.Fprintf(w, "trace_exporter: %s\n", c.TraceExporter)
		fmt.Fprintf(w, "locale: %s\n", c.Locale)
		if c.FontPath != "" {
			fmt.Fprintf(w, "font_path: %s\n", c.FontPath)
		}
		fmt.Fprintf(w, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(w, "chart_height: %d\n", c.ChartHeight)
		fmt.Fprintf(w, "x_column: %s\n", c.XColumn)
		fmt.Fprintf(w, "y_column: %s\n", c.YColumn)
		fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
		fmt.Fprintf(w, "preview_rows: %d\n", c.PreviewRows)
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(w, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "listen_addr":
			cfg.ListenAddr = val
		case "locale":
			cfg.Locale = string(report.ParseLocale(val))
		case "font_path":
			cfg.FontPath = val
		case "x_column":
			cfg.XColumn = val
		case "y_column":
			cfg.YColumn = val
		case "log_level":
			cfg.LogLevel = strings.ToUpper(logger.ParseLevel(val).String())
		case "log_format":
			cfg.LogFormat = string(logger.ParseFormat(val))
		case "trace_exporter":
			cfg.TraceExporter = strings.ToLower(val)
		case "metrics_enabled":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for metrics_enabled: %w", err)
			}
			cfg.MetricsEnabled = b
		case "max_upload_mb", "read_timeout_sec", "write_timeout_sec", "chart_width", "chart_height", "max_rows", "preview_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			setInt(cfg, key, i)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setInt(c *cfgpkg.Global, key string, v int) {
	switch key {
	case "max_upload_mb":
		c.MaxUploadMB = v
	case "read_timeout_sec":
		c.ReadTimeoutSec = v
	case "write_timeout_sec":
		c.WriteTimeoutSec = v
	case "chart_width":
		c.ChartWidth = v
	case "chart_height":
		c.ChartHeight = v
	case "max_rows":
		c.MaxRows = v
	case "preview_rows":
		c.PreviewRows = v
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
