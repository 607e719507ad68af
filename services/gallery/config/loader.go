// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/gallery/services/gallery/registry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment overrides applied after the file is read.
const (
	EnvSeedFile = "GALLERY_SEED_FILE"
	EnvLogLevel = "GALLERY_LOG_LEVEL"
)

// configValidate validates loaded configs. Initialized in init() with the
// registry's custom tags.
var configValidate *validator.Validate

func init() {
	configValidate = registry.NewValidator()
}

// DefaultPath returns ~/.gallery/gallery.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".gallery", "gallery.yaml"), nil
}

// Load reads the config at path, creating it with DefaultConfig if it
// does not exist yet.
//
// Inputs:
//
//	path - Config file path. Empty selects DefaultPath.
//
// Outputs:
//
//	GalleryConfig - The parsed config with environment overrides applied.
//	bool - True when the file was created by this call.
//	error - Non-nil on IO, parse or validation failure.
func Load(path string) (GalleryConfig, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return GalleryConfig{}, false, err
		}
	}

	created := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return GalleryConfig{}, false, err
		}
		created = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return GalleryConfig{}, created, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return GalleryConfig{}, created, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, created, nil
}

// Parse decodes data over DefaultConfig, applies environment overrides
// and validates the result. Keys missing from data keep their defaults.
func Parse(data []byte) (GalleryConfig, error) {
	cfg := DefaultConfig()
	// Groups from the file replace the defaults instead of merging.
	cfg.Groups = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GalleryConfig{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	if cfg.Groups == nil {
		cfg.Groups = DefaultGroups()
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return GalleryConfig{}, err
	}
	return cfg, nil
}

// Validate checks the config against its validate tags.
func (c *GalleryConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *GalleryConfig) {
	if file := os.Getenv(EnvSeedFile); file != "" {
		cfg.Seed.Source = SourceFile
		cfg.Seed.File = file
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
