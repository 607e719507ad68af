// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"context"
	"fmt"
	"regexp"

	"github.com/AleutianAI/gallery/services/gallery/collection"
	"github.com/go-playground/validator/v10"
)

// groupIDPattern matches the feature names used as group ids, e.g. fresh_today.
var groupIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// RegisterValidations adds the "groupid" tag used by GroupSpec and
// GroupSeed to v. Packages that validate seeds or specs call it once when
// they build their validator.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("groupid", func(fl validator.FieldLevel) bool {
		return groupIDPattern.MatchString(fl.Field().String())
	})
}

// NewValidator returns a validator with the registry's custom tags
// installed. It panics if registration fails, which only happens when a
// tag name or function is malformed.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(fmt.Sprintf("registry: register validations: %v", err))
	}
	return v
}

// GroupSpec declares a group: its identity and static display metadata.
type GroupSpec struct {
	ID       string `yaml:"id" validate:"required,groupid"`
	Title    string `yaml:"title" validate:"required"`
	Subtitle string `yaml:"subtitle,omitempty"`
}

// ItemSeed is the raw data for one item before it enters a collection.
type ItemSeed struct {
	ID          string `yaml:"id,omitempty"`
	Title       string `yaml:"title" validate:"required"`
	Subtitle    string `yaml:"subtitle,omitempty"`
	Description string `yaml:"description,omitempty"`
	Content     string `yaml:"content,omitempty"`
	Image       string `yaml:"image,omitempty"`
}

// Item builds a collection item owned by groupID.
func (s ItemSeed) Item(groupID string) *collection.Item {
	item := collection.NewItem(s.ID)
	item.Title = s.Title
	item.Subtitle = s.Subtitle
	item.Description = s.Description
	item.Content = s.Content
	item.GroupID = groupID
	if s.Image != "" {
		item.Image = collection.NewImagePath(s.Image)
	}
	return item
}

// GroupSeed is what a Populator produces for one group.
//
// CoverDescription and CoverImage are optional; Load falls back to the
// first item's description and image when they are empty.
type GroupSeed struct {
	GroupID          string     `yaml:"id" validate:"required,groupid"`
	CoverDescription string     `yaml:"cover_description,omitempty"`
	CoverImage       string     `yaml:"cover_image,omitempty"`
	Items            []ItemSeed `yaml:"items" validate:"dive"`
}

// BuildItems builds the seed's items for the given group.
func (s GroupSeed) BuildItems(groupID string) []*collection.Item {
	items := make([]*collection.Item, len(s.Items))
	for i, seed := range s.Items {
		items[i] = seed.Item(groupID)
	}
	return items
}

// Populator supplies the initial contents of a group.
//
// Implementations live in the populate package. Populate may be called
// concurrently for different specs and should honour ctx cancellation.
type Populator interface {
	Populate(ctx context.Context, spec GroupSpec) (GroupSeed, error)
}

// PopulatorFunc adapts a function to the Populator interface.
type PopulatorFunc func(ctx context.Context, spec GroupSpec) (GroupSeed, error)

// Populate calls f.
func (f PopulatorFunc) Populate(ctx context.Context, spec GroupSpec) (GroupSeed, error) {
	return f(ctx, spec)
}
