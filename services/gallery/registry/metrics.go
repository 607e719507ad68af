// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for registry operations.
var (
	tracer = otel.Tracer("gallery.registry")
	meter  = otel.Meter("gallery.registry")
)

var (
	groupLoads        metric.Int64Counter
	groupLoadDuration metric.Float64Histogram
	groupEdits        metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		groupLoads, err = meter.Int64Counter(
			"gallery_group_loads_total",
			metric.WithDescription("Total number of group population attempts"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		groupLoadDuration, err = meter.Float64Histogram(
			"gallery_group_load_duration_seconds",
			metric.WithDescription("Duration of populating a single group"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		groupEdits, err = meter.Int64Counter(
			"gallery_group_edits_total",
			metric.WithDescription("Total number of serialized group edits"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordGroupLoad(ctx context.Context, groupID string, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("group", groupID),
		attribute.Bool("success", success),
	)
	groupLoads.Add(ctx, 1, attrs)
	groupLoadDuration.Record(ctx, duration.Seconds(), attrs)
}

func recordGroupEdit(ctx context.Context, groupID string, failed bool) {
	if err := initMetrics(); err != nil {
		return
	}
	groupEdits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("group", groupID),
		attribute.Bool("failed", failed),
	))
}

// startRegistrySpan creates a span for a registry operation.
func startRegistrySpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Registry."+operation, trace.WithAttributes(
		append([]attribute.KeyValue{attribute.String("registry.operation", operation)}, attrs...)...,
	))
}
