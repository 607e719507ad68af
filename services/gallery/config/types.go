// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the gallery configuration file.
package config

import (
	"github.com/AleutianAI/gallery/services/gallery/registry"
)

// Seed sources.
const (
	SourcePlaceholder = "placeholder"
	SourceFile        = "file"
)

// Log formats. FormatAuto picks text on a terminal and JSON otherwise.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// GalleryConfig is the root of gallery.yaml.
type GalleryConfig struct {
	Groups    []registry.GroupSpec `yaml:"groups" validate:"required,min=1,unique=ID,dive"`
	Seed      SeedConfig           `yaml:"seed"`
	Logging   LoggingConfig        `yaml:"logging"`
	Telemetry TelemetryConfig      `yaml:"telemetry"`
}

// SeedConfig selects where group contents come from.
type SeedConfig struct {
	Source        string `yaml:"source" validate:"oneof=placeholder file"`
	File          string `yaml:"file,omitempty" validate:"required_if=Source file"`
	ItemsPerGroup int    `yaml:"items_per_group" validate:"gte=0,lte=10000"`

	// ImageBase resolves relative image paths, e.g. the placeholder ones.
	ImageBase string `yaml:"image_base,omitempty" validate:"omitempty,url"`
}

// LoggingConfig controls the level, format and optional log directory.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=auto text json"`
	LogDir string `yaml:"log_dir,omitempty"`
}

// TelemetryConfig selects the trace and metric exporters.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"omitempty,oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty" validate:"omitempty,hostname_port"`
}

// DefaultGroups are the six featured photo streams.
func DefaultGroups() []registry.GroupSpec {
	return []registry.GroupSpec{
		{ID: "popular", Title: "Popular"},
		{ID: "editors", Title: "Editors Picks"},
		{ID: "fresh_today", Title: "Fresh Today"},
		{ID: "fresh_yesterday", Title: "Fresh Yesterday"},
		{ID: "fresh_week", Title: "Fresh This Week"},
		{ID: "upcoming", Title: "Upcoming"},
	}
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() GalleryConfig {
	return GalleryConfig{
		Groups: DefaultGroups(),
		Seed: SeedConfig{
			Source:        SourcePlaceholder,
			ItemsPerGroup: 20,
			ImageBase:     "https://img.example.com/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: FormatAuto,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
