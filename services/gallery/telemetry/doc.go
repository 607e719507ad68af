// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry wires the OpenTelemetry SDK for the gallery.
//
// The gallery packages use otel.Tracer and otel.Meter directly (registry
// spans and group metrics) and promauto for the hot-path window counters.
// Init installs the providers those calls report to; without Init they
// are no-ops.
//
// # Trace Backend (default: none)
//
// "otlp" exports over gRPC to OTLPEndpoint, "stdout" pretty-prints spans
// to Config.Output.
//
// # Metrics Backend (default: Prometheus)
//
// The Prometheus exporter registers with the default registry, so Gather
// prints OTel and promauto metrics together. There is no HTTP endpoint;
// the CLI's metrics command writes the dump to stdout.
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
package telemetry
