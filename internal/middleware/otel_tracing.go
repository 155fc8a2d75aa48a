package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/service"
)

// OTelTracingMiddleware wraps service.Service with OpenTelemetry spans.
type OTelTracingMiddleware struct {
	next   service.Service
	tracer trace.Tracer
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption func(*OTelTracingMiddleware)

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes(attributes ...attribute.KeyValue) OTelTracingOption {
	return func(m *OTelTracingMiddleware) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware(next service.Service, tracer trace.Tracer, opts ...OTelTracingOption) service.Service {
	mw := &OTelTracingMiddleware{next: next, tracer: tracer}
	for _, o := range opts {
		o(mw)
	}
	return mw
}

// Tracing adapts NewOTelTracingMiddleware to service.ApplyMiddleware.
func Tracing(tracer trace.Tracer, opts ...OTelTracingOption) service.Middleware {
	return func(next service.Service) service.Service { return NewOTelTracingMiddleware(next, tracer, opts...) }
}

// Analyze implements service.Service with tracing.
func (mw *OTelTracingMiddleware) Analyze(ctx context.Context, ds *dataset.Dataset) (*service.Analysis, error) {
	var attrs []attribute.KeyValue
	if ds != nil {
		attrs = append(attrs,
			attribute.String("dataset.format", ds.Format),
			attribute.Int("dataset.samples", len(ds.Samples)),
			attribute.Int("dataset.skipped", ds.Skipped),
		)
	}
	ctx, span := mw.startSpan(ctx, "linefit.Analyze", attrs...)
	defer span.End()

	a, err := mw.next.Analyze(ctx, ds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("fit.id", a.ID),
		attribute.Float64("fit.r_squared", a.RSquared),
	)
	return a, nil
}

// startSpan starts a span with common and provided attributes.
func (mw *OTelTracingMiddleware) startSpan(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := mw.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	if len(mw.commonAttrs) > 0 {
		span.SetAttributes(mw.commonAttrs...)
	}
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
	return ctx, span
}
