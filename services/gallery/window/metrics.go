// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package window

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Synchronizer metrics.
var (
	eventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_window_events_total",
		Help: "Source events applied to windows, by kind and effect (patched or noop)",
	}, []string{"kind", "effect"})

	eventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_window_events_rejected_total",
		Help: "Source events rejected as precondition violations, by kind",
	}, []string{"kind"})

	backfills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_window_backfills_total",
		Help: "Items appended to a window tail after a removal from inside it",
	})

	evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_window_evictions_total",
		Help: "Items dropped from a window tail after an insertion pushed it past capacity",
	})

	resetSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gallery_window_reset_items",
		Help:    "Items copied into a window on reset",
		Buckets: []float64{0, 1, 4, 8, 12, 24, 48},
	})
)
