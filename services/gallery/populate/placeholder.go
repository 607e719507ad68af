// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package populate provides registry.Populator implementations and a
// watcher that pushes seed file changes into a running registry.
package populate

import (
	"context"
	"fmt"

	"github.com/AleutianAI/gallery/services/gallery/registry"
)

// DefaultItemsPerGroup is the Placeholder item count when none is set.
const DefaultItemsPerGroup = 20

// Placeholder generates deterministic stand-in items for any group.
//
// Description:
//
//	Items are named after the group so the same spec always yields the
//	same seed. Image paths are relative ("placeholder/<group>/<n>.jpg")
//	and resolve against whatever base URL the caller configures.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Placeholder struct {
	itemsPerGroup int
}

// NewPlaceholder returns a Placeholder producing itemsPerGroup items per
// group. Values below zero select DefaultItemsPerGroup.
func NewPlaceholder(itemsPerGroup int) *Placeholder {
	if itemsPerGroup < 0 {
		itemsPerGroup = DefaultItemsPerGroup
	}
	return &Placeholder{itemsPerGroup: itemsPerGroup}
}

// Populate implements registry.Populator.
func (p *Placeholder) Populate(ctx context.Context, spec registry.GroupSpec) (registry.GroupSeed, error) {
	if err := ctx.Err(); err != nil {
		return registry.GroupSeed{}, err
	}

	seed := registry.GroupSeed{
		GroupID: spec.ID,
		Items:   make([]registry.ItemSeed, p.itemsPerGroup),
	}
	for i := range seed.Items {
		n := i + 1
		seed.Items[i] = registry.ItemSeed{
			ID:          fmt.Sprintf("%s-%02d", spec.ID, n),
			Title:       fmt.Sprintf("%s #%d", spec.Title, n),
			Subtitle:    fmt.Sprintf("Photographer %d", n),
			Description: fmt.Sprintf("Placeholder photo %d of %s.", n, spec.Title),
			Content:     fmt.Sprintf("Placeholder photo %d of %s. Replace the seed source to show real photos.", n, spec.Title),
			Image:       fmt.Sprintf("placeholder/%s/%d.jpg", spec.ID, n),
		}
	}
	return seed, nil
}

var _ registry.Populator = (*Placeholder)(nil)
