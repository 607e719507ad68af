// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package populate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AleutianAI/gallery/services/gallery/registry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrGroupNotSeeded is returned by File.Populate for a group the seed file
// does not mention.
var ErrGroupNotSeeded = errors.New("group not present in seed file")

// seedValidate validates seed files. Initialized in init() with the
// registry's custom tags.
var seedValidate *validator.Validate

func init() {
	seedValidate = registry.NewValidator()
}

// SeedFile is the on-disk layout of a seed file.
//
// Example:
//
//	groups:
//	  - id: popular
//	    cover_description: Most liked this week
//	    items:
//	      - id: "4021"
//	        title: Harbor at dawn
//	        subtitle: A. Photographer
//	        image: https://img.example.com/4021.jpg
type SeedFile struct {
	Groups []registry.GroupSeed `yaml:"groups" validate:"unique=GroupID,dive"`
}

// Group returns the seed for id.
func (f *SeedFile) Group(id string) (registry.GroupSeed, bool) {
	for _, g := range f.Groups {
		if g.GroupID == id {
			return g, true
		}
	}
	return registry.GroupSeed{}, false
}

// ParseSeedFile decodes and validates seed file content.
func ParseSeedFile(data []byte) (*SeedFile, error) {
	var seeds SeedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := seedValidate.Struct(&seeds); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &seeds, nil
}

// File populates groups from a YAML seed file.
//
// Description:
//
//	The file is re-read on every Read or Populate so edits are picked up
//	without restarting; Watcher relies on this.
//
// Thread Safety:
//
//	Safe for concurrent use.
type File struct {
	path string
}

// NewFile returns a File for path. The file need not exist yet.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the seed file path.
func (f *File) Path() string {
	return f.path
}

// Read loads and validates the seed file.
func (f *File) Read() (*SeedFile, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	seeds, err := ParseSeedFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return seeds, nil
}

// Populate implements registry.Populator.
//
// Outputs:
//
//	registry.GroupSeed - The group's seed from the file.
//	error - ctx.Err(), a read or validation error, or ErrGroupNotSeeded.
func (f *File) Populate(ctx context.Context, spec registry.GroupSpec) (registry.GroupSeed, error) {
	if err := ctx.Err(); err != nil {
		return registry.GroupSeed{}, err
	}
	seeds, err := f.Read()
	if err != nil {
		return registry.GroupSeed{}, err
	}
	seed, ok := seeds.Group(spec.ID)
	if !ok {
		return registry.GroupSeed{}, fmt.Errorf("%w: %q in %s", ErrGroupNotSeeded, spec.ID, f.path)
	}
	return seed, nil
}

var _ registry.Populator = (*File)(nil)
