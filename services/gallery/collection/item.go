// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collection

import (
	"github.com/google/uuid"
)

// Item is one entity held by a Collection: a stable identity plus mutable
// display fields.
//
// Description:
//
//	The identifier is fixed at construction and is the only thing that
//	matters for window membership; two Items with equal display fields
//	but different IDs are different items. Display fields may be edited
//	in place by the collection's single writer.
//
// Thread Safety:
//
//	Items are not synchronized. Edit them only through Group.Edit or
//	from the goroutine that owns the collection.
type Item struct {
	id string

	// Title is the primary display string.
	Title string

	// Subtitle is the secondary display string (for photos, the author).
	Subtitle string

	// Description is a short summary.
	Description string

	// Content is the long-form text shown on a detail view.
	Content string

	// GroupID names the group that owns this item.
	GroupID string

	// Image references the item's picture.
	Image ImageRef
}

// NewItem creates an Item with the given identifier.
//
// Inputs:
//
//	id - Stable identifier. An empty id is replaced by a random UUID.
//
// Outputs:
//
//	*Item - The new item with empty display fields.
func NewItem(id string) *Item {
	if id == "" {
		id = uuid.NewString()
	}
	return &Item{id: id}
}

// ID returns the item's stable identifier.
func (i *Item) ID() string {
	return i.id
}

// String returns the title.
func (i *Item) String() string {
	return i.Title
}

// SameItem reports whether a and b are the same item by identity.
// Two nil items are the same; a nil and a non-nil item are not.
func SameItem(a, b *Item) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.id == b.id
}

// IDs returns the identifiers of items in order.
func IDs(items []*Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID()
	}
	return ids
}
