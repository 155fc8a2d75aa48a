// Package metrics exposes Prometheus metrics for the web surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "linefit"
	subsystem = "http"
)

// Metrics holds collectors registered on a private registry so that several
// servers (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	fitErrors    *prometheus.CounterVec
	uploadBytes  prometheus.Histogram
	fittedPoints prometheus.Histogram
}

// New registers the linefit collectors plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "method", "status"},
		),
		durations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		fitErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fit_errors_total",
				Help:      "Rejected uploads by error kind",
			},
			[]string{"kind"},
		),
		uploadBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_bytes",
				Help:      "Size of uploaded datasets",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
			},
		),
		fittedPoints: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fitted_points",
				Help:      "Number of samples per successful fit",
				Buckets:   prometheus.ExponentialBuckets(2, 4, 10),
			},
		),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, status int, took time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(route).Observe(took.Seconds())
}

// FitError counts a rejected upload.
func (m *Metrics) FitError(kind string) {
	m.fitErrors.WithLabelValues(kind).Inc()
}

// Upload records the size of an accepted upload.
func (m *Metrics) Upload(bytes int) {
	m.uploadBytes.Observe(float64(bytes))
}

// Fitted records the sample count of a successful fit.
func (m *Metrics) Fitted(points int) {
	m.fittedPoints.Observe(float64(points))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
