package middleware

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/regression"
	"github.com/KaramelBytes/linefit/internal/service"
)

func sample(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(csv), "points.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := service.ApplyMiddleware(service.New(), Logging(zap.New(core).Sugar()))

	a, err := svc.Analyze(context.Background(), sample(t, "X,Y\n1,3\n2,5\n3,7\n"))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, a.Slope, 1e-12)

	entries := logs.FilterMessage("fit completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "points.csv", fields["dataset"])
	assert.Equal(t, int64(3), fields["samples"])
	assert.Equal(t, a.ID, fields["id"])

	_, err = svc.Analyze(context.Background(), sample(t, "X,Y\n4,1\n4,2\n"))
	var deg *regression.DegenerateInputError
	require.ErrorAs(t, err, &deg)
	assert.Equal(t, 1, logs.FilterMessage("fit failed").Len())
}

type recordingTracer struct {
	noop.Tracer
	spans []string
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	r.spans = append(r.spans, name)
	return r.Tracer.Start(ctx, name, opts...)
}

func TestTracingMiddleware(t *testing.T) {
	tr := &recordingTracer{}
	svc := NewOTelTracingMiddleware(service.New(), tr)

	_, err := svc.Analyze(context.Background(), sample(t, "X,Y\n1,1\n2,2\n"))
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, []string{"linefit.Analyze", "linefit.Analyze"}, tr.spans)
}

func TestMetricsMiddleware(t *testing.T) {
	meter := metricnoop.NewMeterProvider().Meter("test")
	svc, err := NewOTelMetricsMiddleware(service.New(), meter)
	require.NoError(t, err)

	a, err := svc.Analyze(context.Background(), sample(t, "X,Y\n0,1\n1,2\n2,3\n"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, a.Intercept, 1e-12)

	_, err = svc.Analyze(context.Background(), nil)
	require.Error(t, err)
}
