package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/linefit/internal/metrics"
	"github.com/KaramelBytes/linefit/internal/middleware"
	"github.com/KaramelBytes/linefit/internal/server"
	"github.com/KaramelBytes/linefit/internal/service"
	"github.com/KaramelBytes/linefit/internal/telemetry"
)

const instrumentationName = "github.com/KaramelBytes/linefit"

var (
	serveAddr        string
	serveNoMetrics   bool
	serveGracePeriod time.Duration
	serveTraces      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		if serveAddr != "" {
			c.ListenAddr = serveAddr
		}
		if cmd.Flags().Changed("traces") {
			c.TraceExporter = serveTraces
		}
		if err := c.Validate(); err != nil {
			return err
		}
		log := newLogger(c)
		defer func() { _ = log.Sync() }()
		slog := log.Sugar()

		var m *metrics.Metrics
		if c.MetricsEnabled && !serveNoMetrics {
			m = metrics.New()
		}
		tel, err := setupTelemetry(c.TraceExporter, m)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), serveGracePeriod)
			defer cancel()
			if err := tel.Shutdown(ctx); err != nil {
				slog.Warnw("telemetry shutdown", "error", err)
			}
		}()

		svc, err := newService(slog, tel)
		if err != nil {
			return err
		}
		opts := server.Options{
			Addr:           c.ListenAddr,
			ReadTimeout:    time.Duration(c.ReadTimeoutSec) * time.Second,
			WriteTimeout:   time.Duration(c.WriteTimeoutSec) * time.Second,
			MaxUploadBytes: c.MaxUploadBytes(),
			Dataset:        c.DatasetOptions(),
			Report:         reportConfig(c, slog.Named("report")),
			Logger:         slog.Named("server"),
			Metrics:        m,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(svc, opts)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on http://%s\n", srv.Address())

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("server stopped")
		return nil
	},
}

// setupTelemetry exports spans to stderr for the "stdout" exporter (stdout
// carries command output) and bridges fit metrics into the /metrics registry
// when it is served.
func setupTelemetry(exporter string, m *metrics.Metrics) (*telemetry.Providers, error) {
	var opt telemetry.Options
	if exporter == "stdout" {
		opt.Traces = os.Stderr
	}
	if m != nil {
		opt.Registerer = m.Registry()
	}
	return telemetry.Setup(opt)
}

// newService decorates the fitter with logging, tracing and metrics.
func newService(log *zap.SugaredLogger, tel *telemetry.Providers) (service.Service, error) {
	withMetrics, err := middleware.NewOTelMetricsMiddleware(service.New(), tel.Meter.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	return service.ApplyMiddleware(withMetrics,
		middleware.Tracing(tel.Tracer.Tracer(instrumentationName)),
		middleware.Logging(log.Named("fit")),
	), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, usually :8501)")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "disable the /metrics endpoint")
	serveCmd.Flags().StringVar(&serveTraces, "traces", "", "trace exporter: none or stdout (default from config)")
	serveCmd.Flags().DurationVar(&serveGracePeriod, "grace", 10*time.Second, "time allowed for in-flight requests on shutdown")
}
