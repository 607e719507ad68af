// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gallery", cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
}

func TestInit_NilContext(t *testing.T) {
	var ctx context.Context
	_, err := Init(ctx, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_NoopExporters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_UnknownExporters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "jaeger"
	_, err := Init(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownExporter)

	cfg = DefaultConfig()
	cfg.MetricExporter = "influx"
	_, err = Init(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownExporter)
}

func TestInit_StdoutTraces(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"
	cfg.Output = &out

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)

	_, span := otel.Tracer("gallery.test").Start(context.Background(), "Registry.Load")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, out.String(), "Registry.Load")
}

func TestInit_PrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.Registerer = reg

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	defer shutdown(context.Background())

	counter, err := otel.Meter("gallery.test").Int64Counter("gallery_test_events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	var out bytes.Buffer
	require.NoError(t, Gather(&out, reg))
	assert.Contains(t, out.String(), "gallery_test_events")
}

func TestGather_PromautoCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "gallery_gather_test_total",
		Help: "test counter",
	}).Add(2)

	var out bytes.Buffer
	require.NoError(t, Gather(&out, reg))
	assert.Contains(t, out.String(), "# TYPE gallery_gather_test_total counter")
	assert.Contains(t, out.String(), "gallery_gather_test_total 2")
}
