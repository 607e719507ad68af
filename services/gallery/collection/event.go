// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collection

import "fmt"

// Kind identifies the variant of an Event.
type Kind string

const (
	// KindInsert is emitted when an item is inserted (or appended).
	KindInsert Kind = "insert"

	// KindMove is emitted when an item is relocated.
	KindMove Kind = "move"

	// KindRemove is emitted when an item is removed.
	KindRemove Kind = "remove"

	// KindReplace is emitted when an item is replaced in place.
	KindReplace Kind = "replace"

	// KindReset is emitted when the whole contents changed.
	KindReset Kind = "reset"
)

// Kinds lists every event kind in declaration order.
var Kinds = []Kind{KindInsert, KindMove, KindRemove, KindReplace, KindReset}

// Event describes exactly one mutation of a Collection.
//
// Description:
//
//	Event is a closed union: the only implementations are Insert, Move,
//	Remove, Replace and Reset, enforced by an unexported method. Code that
//	consumes events type-switches over these five and treats any other
//	value as a defect.
//
// Thread Safety:
//
//	Events are values and are immutable once emitted. The Item pointers
//	they carry are shared with the collection.
type Event interface {
	// Kind returns the variant tag.
	Kind() Kind

	fmt.Stringer

	isEvent()
}

// Insert reports that Item now occupies Index and everything previously at
// Index and after shifted up by one.
type Insert struct {
	Index int
	Item  *Item
}

// Move reports that the item at OldIndex now sits at NewIndex. Items
// strictly between the two shifted by one toward OldIndex.
type Move struct {
	OldIndex int
	NewIndex int
	Item     *Item
}

// Remove reports that the item at Index was removed and everything after
// it shifted down by one.
type Remove struct {
	Index int
	Item  *Item
}

// Replace reports that Item replaced Old at Index. No index shifted.
type Replace struct {
	Index int
	Old   *Item
	Item  *Item
}

// Reset reports that the contents changed arbitrarily, possibly to empty.
type Reset struct{}

func (Insert) Kind() Kind  { return KindInsert }
func (Move) Kind() Kind    { return KindMove }
func (Remove) Kind() Kind  { return KindRemove }
func (Replace) Kind() Kind { return KindReplace }
func (Reset) Kind() Kind   { return KindReset }

func (Insert) isEvent()  {}
func (Move) isEvent()    {}
func (Remove) isEvent()  {}
func (Replace) isEvent() {}
func (Reset) isEvent()   {}

func (e Insert) String() string  { return fmt.Sprintf("Insert(%d, %s)", e.Index, itemID(e.Item)) }
func (e Move) String() string    { return fmt.Sprintf("Move(%d, %d)", e.OldIndex, e.NewIndex) }
func (e Remove) String() string  { return fmt.Sprintf("Remove(%d)", e.Index) }
func (e Replace) String() string { return fmt.Sprintf("Replace(%d, %s)", e.Index, itemID(e.Item)) }
func (Reset) String() string     { return "Reset" }

func itemID(item *Item) string {
	if item == nil {
		return "<nil>"
	}
	return item.ID()
}
