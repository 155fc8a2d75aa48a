// Package server is the browser surface: an upload form, a result page and
// a small JSON API around the fitting service.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"time"

	"github.com/goccy/go-json"
	fiber "github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/hyp3rd/ewrap"
	"go.uber.org/zap"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/metrics"
	"github.com/KaramelBytes/linefit/internal/report"
	"github.com/KaramelBytes/linefit/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ErrShutdownTimeout is returned when the server does not stop before the context deadline.
var ErrShutdownTimeout = ewrap.New("http shutdown timeout")

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultMaxUpload    = 10 << 20
	defaultDetailRows   = 500
	// multipart framing on top of the file itself
	formOverhead = 1 << 20
)

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxUploadBytes caps the uploaded file size.
	MaxUploadBytes int
	// DetailRows caps the detail table on the result page; 0 means 500.
	DetailRows int
	Dataset    dataset.Options
	Report     report.Config
	// Metrics enables /metrics and request instrumentation when set.
	Metrics *metrics.Metrics
	Logger  *zap.SugaredLogger
}

// Server holds the fiber app and its listener.
type Server struct {
	opts    Options
	app     *fiber.App
	svc     service.Service
	log     *zap.SugaredLogger
	ln      net.Listener
	started bool
}

// New builds the app and mounts all routes. Nothing listens until Start.
func New(svc service.Service, opts Options) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.DetailRows <= 0 {
		opts.DetailRows = defaultDetailRows
	}
	if opts.Report.Width <= 0 || opts.Report.Height <= 0 {
		def := report.DefaultConfig()
		opts.Report.Width, opts.Report.Height = def.Width, def.Height
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	app := fiber.New(fiber.Config{
		AppName:      "linefit",
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		BodyLimit:    opts.MaxUploadBytes + formOverhead,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	s := &Server{opts: opts, app: app, svc: svc, log: log}
	s.mountRoutes()
	return s
}

func (s *Server) mountRoutes() {
	s.app.Use(recoverer.New())
	s.app.Use(s.observe)

	s.app.Get("/", s.handleIndex)
	s.app.Post("/fit", s.handleFitPage)
	s.app.Post("/api/fit", s.handleFitAPI)
	s.app.Post("/chart.png", s.handleChart)
	s.app.Get("/sample.csv", s.handleSample)
	s.app.Get("/health", func(c fiber.Ctx) error { return c.SendString("ok") })
	if s.opts.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.opts.Metrics.Handler()))
	}
}

// observe logs each request and feeds the Prometheus collectors.
func (s *Server) observe(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	took := time.Since(start)
	route := c.Route().Path
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveRequest(route, c.Method(), status, took)
	}
	s.log.Debugw("request", "method", c.Method(), "path", c.Path(), "status", status, "took", took)
	return err
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return ewrap.Wrap(err, "http listen")
	}
	s.ln = ln
	go func() {
		if err := s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			s.log.Errorw("http server stopped", "error", err)
		}
	}()
	s.started = true
	s.log.Infow("listening", "addr", s.Address())
	return nil
}

// Address returns the bound address, empty before Start.
func (s *Server) Address() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server, giving up when ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}
	ch := make(chan error, 1)
	go func() {
		ch <- s.app.Shutdown()
	}()
	select {
	case <-ctx.Done():
		return ErrShutdownTimeout
	case err := <-ch:
		if err != nil {
			return ewrap.Wrap(err, "http shutdown")
		}
		return nil
	}
}
