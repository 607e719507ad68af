// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package collection provides an observable, ordered sequence of items.
//
// Every positional mutation of a Collection is described by exactly one
// Event (Insert, Move, Remove, Replace or Reset) which is delivered to all
// subscribers synchronously, in mutation order, before the mutating call
// returns.
//
// Thread Safety:
//
//	Reads are safe from any goroutine. Mutations follow a single-writer
//	model: callers must serialize mutations of one Collection (see
//	registry.Group.Edit). Two goroutines mutating the same Collection
//	without external serialization may deliver events out of order.
package collection

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler receives events from a Collection. It runs on the mutating
// goroutine after the mutation is visible and may read the collection.
// It must not mutate the collection it is subscribed to.
type Handler func(ev Event)

// View is the read-only side of a Collection handed to consumers.
type View interface {
	// Len returns the number of items.
	Len() int

	// At returns the item at index i. It panics if i is out of range.
	At(i int) *Item

	// Items returns a copy of the items in order.
	Items() []*Item

	// IndexOf returns the index of the item with id, or -1.
	IndexOf(id string) int

	// Subscribe registers handler for events of the given kinds (all kinds
	// when none are given) and returns a subscription id.
	Subscribe(handler Handler, kinds ...Kind) (string, error)

	// Unsubscribe removes a subscription. It reports whether it existed.
	Unsubscribe(id string) bool
}

// Subscription is a registered event handler.
type Subscription struct {
	// ID uniquely identifies this subscription.
	ID string

	// Handler processes matching events.
	Handler Handler

	// Kinds limits which event kinds are delivered (nil = all kinds).
	Kinds []Kind
}

func (s *Subscription) wants(k Kind) bool {
	if len(s.Kinds) == 0 {
		return true
	}
	for _, want := range s.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Record is one entry of a Collection's event history.
type Record struct {
	// Seq is the 1-based sequence number of the event within the collection.
	Seq uint64

	// Event is the emitted event.
	Event Event

	// Timestamp is when the event was emitted.
	Timestamp time.Time
}

// Option configures a Collection.
type Option func(*Collection)

// WithHistorySize keeps the last size emitted events for diagnostics.
// Zero (the default) disables history.
func WithHistorySize(size int) Option {
	return func(c *Collection) {
		if size > 0 {
			c.historySize = size
		}
	}
}

// WithName labels the collection in logs and diagnostics.
func WithName(name string) Option {
	return func(c *Collection) {
		c.name = name
	}
}

// Collection is an observable ordered sequence of items.
//
// Thread Safety: see the package documentation.
type Collection struct {
	mu            sync.RWMutex
	name          string
	items         []*Item
	subscriptions []*Subscription
	seq           uint64
	history       []Record
	historySize   int
}

// New creates an empty Collection.
func New(opts ...Option) *Collection {
	c := &Collection{}
	for _, opt := range opts {
		opt(c)
	}
	if c.historySize > 0 {
		c.history = make([]Record, 0, c.historySize)
	}
	return c
}

// Name returns the label set with WithName.
func (c *Collection) Name() string {
	return c.name
}

// =============================================================================
// Reads
// =============================================================================

// Len returns the number of items.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// At returns the item at index i.
//
// It panics with an *IndexError if i is out of range, mirroring slice
// indexing; callers are expected to check Len first.
func (c *Collection) At(i int) *Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.items) {
		panic(&IndexError{Op: "at", Index: i, Limit: len(c.items)})
	}
	return c.items[i]
}

// Items returns a copy of the items in order.
func (c *Collection) Items() []*Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// IndexOf returns the index of the first item whose ID is id, or -1.
func (c *Collection) IndexOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, item := range c.items {
		if item.ID() == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// Mutations
// =============================================================================

// Append adds items to the end, emitting one Insert per item.
//
// Description:
//
//	All items are checked before any is added, so a nil item rejects the
//	whole call without emitting.
//
// Outputs:
//
//	error - ErrNilItem if any item is nil.
func (c *Collection) Append(items ...*Item) error {
	for _, item := range items {
		if item == nil {
			return ErrNilItem
		}
	}
	for _, item := range items {
		c.mu.Lock()
		idx := len(c.items)
		c.items = append(c.items, item)
		c.commit(Insert{Index: idx, Item: item})
	}
	return nil
}

// Insert places item at index i (0 <= i <= Len) and emits Insert.
//
// Outputs:
//
//	error - *IndexError if i is out of range, ErrNilItem if item is nil.
func (c *Collection) Insert(i int, item *Item) error {
	if item == nil {
		return ErrNilItem
	}
	c.mu.Lock()
	if i < 0 || i > len(c.items) {
		limit := len(c.items) + 1
		c.mu.Unlock()
		return &IndexError{Op: "insert", Index: i, Limit: limit}
	}
	c.items = insertAt(c.items, i, item)
	c.commit(Insert{Index: i, Item: item})
	return nil
}

// RemoveAt removes the item at index i and emits Remove.
//
// Outputs:
//
//	*Item - The removed item.
//	error - *IndexError if i is out of range.
func (c *Collection) RemoveAt(i int) (*Item, error) {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		limit := len(c.items)
		c.mu.Unlock()
		return nil, &IndexError{Op: "remove", Index: i, Limit: limit}
	}
	removed := c.items[i]
	c.items = removeAt(c.items, i)
	c.commit(Remove{Index: i, Item: removed})
	return removed, nil
}

// Remove removes the first item whose ID is id.
//
// Outputs:
//
//	bool - False if no item has that id; nothing is emitted in that case.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	for i, item := range c.items {
		if item.ID() == id {
			c.items = removeAt(c.items, i)
			c.commit(Remove{Index: i, Item: item})
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// Move relocates the item at oldIndex to newIndex and emits Move.
//
// Both indices must be valid positions in the current collection. Moving
// an item onto its own index still emits.
//
// Outputs:
//
//	error - *IndexError if either index is out of range.
func (c *Collection) Move(oldIndex, newIndex int) error {
	c.mu.Lock()
	n := len(c.items)
	if oldIndex < 0 || oldIndex >= n {
		c.mu.Unlock()
		return &IndexError{Op: "move", Index: oldIndex, Limit: n}
	}
	if newIndex < 0 || newIndex >= n {
		c.mu.Unlock()
		return &IndexError{Op: "move", Index: newIndex, Limit: n}
	}
	item := c.items[oldIndex]
	c.items = moveItem(c.items, oldIndex, newIndex)
	c.commit(Move{OldIndex: oldIndex, NewIndex: newIndex, Item: item})
	return nil
}

// Replace overwrites the item at index i and emits Replace, even when
// item is identical to the current one.
//
// Outputs:
//
//	*Item - The replaced item.
//	error - *IndexError if i is out of range, ErrNilItem if item is nil.
func (c *Collection) Replace(i int, item *Item) (*Item, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		limit := len(c.items)
		c.mu.Unlock()
		return nil, &IndexError{Op: "replace", Index: i, Limit: limit}
	}
	old := c.items[i]
	c.items[i] = item
	c.commit(Replace{Index: i, Old: old, Item: item})
	return old, nil
}

// Clear removes every item and emits Reset.
func (c *Collection) Clear() {
	c.mu.Lock()
	c.items = nil
	c.commit(Reset{})
}

// ResetTo replaces the whole contents with items and emits a single Reset.
//
// Outputs:
//
//	error - ErrNilItem if any item is nil; the collection is unchanged.
func (c *Collection) ResetTo(items []*Item) error {
	for _, item := range items {
		if item == nil {
			return ErrNilItem
		}
	}
	fresh := make([]*Item, len(items))
	copy(fresh, items)

	c.mu.Lock()
	c.items = fresh
	c.commit(Reset{})
	return nil
}

// commit records ev, releases the write lock and delivers ev to every
// matching subscriber. The caller must hold c.mu for writing.
//
// Handlers run after the lock is released so they can read the
// collection. A panicking handler propagates to the mutating caller:
// handler failures are defects, not conditions to swallow.
func (c *Collection) commit(ev Event) {
	c.seq++
	if c.historySize > 0 {
		if len(c.history) >= c.historySize {
			c.history = c.history[1:]
		}
		c.history = append(c.history, Record{Seq: c.seq, Event: ev, Timestamp: time.Now()})
	}
	subs := make([]*Subscription, len(c.subscriptions))
	copy(subs, c.subscriptions)
	c.mu.Unlock()

	for _, sub := range subs {
		if sub.wants(ev.Kind()) {
			sub.Handler(ev)
		}
	}
}

// =============================================================================
// Subscriptions
// =============================================================================

// Subscribe registers handler for events of the given kinds.
//
// Description:
//
//	Handlers are invoked in registration order. With no kinds the handler
//	receives every event. The returned id is used with Unsubscribe.
//
// Inputs:
//
//	handler - Function to call for each matching event.
//	kinds - Event kinds to deliver (none = all kinds).
//
// Outputs:
//
//	string - Subscription ID.
//	error - ErrNilHandler if handler is nil.
func (c *Collection) Subscribe(handler Handler, kinds ...Kind) (string, error) {
	if handler == nil {
		return "", ErrNilHandler
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &Subscription{
		ID:      uuid.NewString(),
		Handler: handler,
		Kinds:   kinds,
	}
	c.subscriptions = append(c.subscriptions, sub)
	return sub.ID, nil
}

// Unsubscribe removes a subscription and reports whether it existed.
func (c *Collection) Unsubscribe(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, sub := range c.subscriptions {
		if sub.ID == id {
			c.subscriptions = append(c.subscriptions[:i:i], c.subscriptions[i+1:]...)
			return true
		}
	}
	return false
}

// SubscriptionCount returns the number of active subscriptions.
func (c *Collection) SubscriptionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscriptions)
}

// =============================================================================
// History
// =============================================================================

// Seq returns the number of events emitted so far.
func (c *Collection) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}

// History returns a copy of the retained event records, oldest first.
func (c *Collection) History() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.history))
	copy(out, c.history)
	return out
}

// HistoryByKind returns retained records of one kind, oldest first.
func (c *Collection) HistoryByKind(kind Kind) []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Record
	for _, rec := range c.history {
		if rec.Event.Kind() == kind {
			out = append(out, rec)
		}
	}
	return out
}

var _ View = (*Collection)(nil)

// =============================================================================
// Slice helpers
// =============================================================================

func insertAt(items []*Item, i int, item *Item) []*Item {
	items = append(items, nil)
	copy(items[i+1:], items[i:])
	items[i] = item
	return items
}

func removeAt(items []*Item, i int) []*Item {
	copy(items[i:], items[i+1:])
	items[len(items)-1] = nil
	return items[:len(items)-1]
}

func moveItem(items []*Item, from, to int) []*Item {
	item := items[from]
	switch {
	case from < to:
		copy(items[from:to], items[from+1:to+1])
	case from > to:
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
	return items
}
