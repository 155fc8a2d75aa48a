package middleware

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/service"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics for fits.
type OTelMetricsMiddleware struct {
	next service.Service

	calls     metric.Int64Counter
	durations metric.Float64Histogram
	samples   metric.Int64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware(next service.Service, meter metric.Meter) (service.Service, error) {
	calls, err := meter.Int64Counter("linefit.fits")
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	durations, err := meter.Float64Histogram("linefit.fit.duration.ms")
	if err != nil {
		return nil, fmt.Errorf("create histogram: %w", err)
	}
	samples, err := meter.Int64Histogram("linefit.fit.samples")
	if err != nil {
		return nil, fmt.Errorf("create histogram: %w", err)
	}
	return &OTelMetricsMiddleware{next: next, calls: calls, durations: durations, samples: samples}, nil
}

// Analyze implements service.Service with metrics.
func (mw *OTelMetricsMiddleware) Analyze(ctx context.Context, ds *dataset.Dataset) (*service.Analysis, error) {
	start := time.Now()
	a, err := mw.next.Analyze(ctx, ds)

	attrs := []attribute.KeyValue{attribute.Bool("ok", err == nil)}
	if ds != nil {
		attrs = append(attrs, attribute.String("format", ds.Format))
	}
	opt := metric.WithAttributes(attrs...)
	mw.calls.Add(ctx, 1, opt)
	mw.durations.Record(ctx, float64(time.Since(start).Microseconds())/1000, opt)
	if a != nil {
		mw.samples.Record(ctx, int64(a.Len()), opt)
	}
	return a, err
}
