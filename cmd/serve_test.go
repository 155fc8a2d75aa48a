package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/metrics"
	"github.com/KaramelBytes/linefit/internal/regression"
)

func TestServiceExportsFitMetrics(t *testing.T) {
	m := metrics.New()
	tel, err := setupTelemetry("none", m)
	require.NoError(t, err)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	svc, err := newService(zap.NewNop().Sugar(), tel)
	require.NoError(t, err)

	ds := &dataset.Dataset{Name: "line.csv", Samples: []regression.Sample{{X: 0, Y: 1}, {X: 1, Y: 3}, {X: 2, Y: 5}}}
	_, err = svc.Analyze(context.Background(), ds)
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["linefit_fits_total"], "gathered: %v", names)
}

func TestSetupTelemetryWithoutMetrics(t *testing.T) {
	tel, err := setupTelemetry("none", nil)
	require.NoError(t, err)
	svc, err := newService(zap.NewNop().Sugar(), tel)
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), &dataset.Dataset{Samples: []regression.Sample{{X: 0, Y: 0}, {X: 1, Y: 1}}})
	require.NoError(t, err)
	require.NoError(t, tel.Shutdown(context.Background()))
}
