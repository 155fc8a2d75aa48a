// Package telemetry installs the OpenTelemetry SDK behind the fit middlewares.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Options selects where telemetry goes. Zero values disable export.
type Options struct {
	// Traces receives finished spans as JSON.
	Traces io.Writer
	// Registerer receives meter readings as Prometheus collectors.
	Registerer prometheus.Registerer
}

// Providers carries the tracer and meter providers handed to the middlewares.
type Providers struct {
	Tracer trace.TracerProvider
	Meter  metric.MeterProvider

	shutdown []func(context.Context) error
}

// Setup builds the providers for opt.
func Setup(opt Options) (*Providers, error) {
	p := &Providers{
		Tracer: tracenoop.NewTracerProvider(),
		Meter:  metricnoop.NewMeterProvider(),
	}
	if opt.Traces != nil {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(opt.Traces))
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		p.Tracer = tp
		p.shutdown = append(p.shutdown, tp.Shutdown)
	}
	if opt.Registerer != nil {
		exp, err := otelprom.New(otelprom.WithRegisterer(opt.Registerer))
		if err != nil {
			return nil, fmt.Errorf("metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
		p.Meter = mp
		p.shutdown = append(p.shutdown, mp.Shutdown)
	}
	return p, nil
}

// Shutdown flushes pending spans and stops the providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
