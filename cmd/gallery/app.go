// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/AleutianAI/gallery/pkg/logging"
	"github.com/AleutianAI/gallery/pkg/ux"
	"github.com/AleutianAI/gallery/services/gallery/config"
	"github.com/AleutianAI/gallery/services/gallery/populate"
	"github.com/AleutianAI/gallery/services/gallery/registry"
	"github.com/AleutianAI/gallery/services/gallery/telemetry"
)

// app holds everything a command needs once the config is loaded.
type app struct {
	// Flags.
	configPath string
	logLevel   string
	logFormat  string

	cfg       config.GalleryConfig
	logger    *logging.Logger
	registry  *registry.Registry
	populator registry.Populator
	imageBase *url.URL
	shutdown  func(context.Context) error
}

// setup loads the config, then builds the logger, telemetry and registry.
func (a *app) setup(ctx context.Context) error {
	if a.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}
	cfg, created, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		a.cfg.Logging.Format = a.logFormat
	}

	if a.logger, err = newLogger(a.cfg.Logging); err != nil {
		return err
	}
	slog.SetDefault(a.logger.Slog())
	if created {
		a.logger.Info("first run, created default config", "path", a.configPath)
	}

	telCfg := telemetry.DefaultConfig()
	telCfg.TraceExporter = orDefault(a.cfg.Telemetry.TraceExporter, telCfg.TraceExporter)
	telCfg.MetricExporter = orDefault(a.cfg.Telemetry.MetricExporter, telCfg.MetricExporter)
	telCfg.OTLPEndpoint = orDefault(a.cfg.Telemetry.OTLPEndpoint, telCfg.OTLPEndpoint)
	if a.shutdown, err = telemetry.Init(ctx, telCfg); err != nil {
		return err
	}

	if a.cfg.Seed.ImageBase != "" {
		if a.imageBase, err = url.Parse(a.cfg.Seed.ImageBase); err != nil {
			return fmt.Errorf("image_base: %w", err)
		}
	}

	switch a.cfg.Seed.Source {
	case config.SourceFile:
		a.populator = populate.NewFile(a.cfg.Seed.File)
	default:
		a.populator = populate.NewPlaceholder(a.cfg.Seed.ItemsPerGroup)
	}

	a.registry = registry.New(registry.WithLogger(a.logger))
	if err := a.registry.Load(ctx, a.populator, a.cfg.Groups); err != nil {
		return fmt.Errorf("load groups: %w", err)
	}
	return nil
}

// teardown releases what setup acquired. Safe after a partial setup.
func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.registry != nil {
		a.registry.Close()
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(ctx))
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}

// group returns the group with id or a helpful error.
func (a *app) group(id string) (*registry.Group, error) {
	g, ok := a.registry.Group(id)
	if !ok {
		return nil, fmt.Errorf("unknown group %q (run 'gallery groups' to list them)", id)
	}
	return g, nil
}

func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var jsonOut bool
	switch cfg.Format {
	case config.FormatJSON:
		jsonOut = true
	case config.FormatText:
		jsonOut = false
	default:
		jsonOut = !ux.IsTerminal(os.Stderr)
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.LogDir,
		Service: "gallery",
		JSON:    jsonOut,
	}), nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
