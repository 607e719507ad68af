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
	"sync"

	"github.com/AleutianAI/gallery/pkg/logging"
	"github.com/AleutianAI/gallery/services/gallery/collection"
	"github.com/AleutianAI/gallery/services/gallery/window"
)

// TopItemsCapacity is the size of every group's top-items window.
const TopItemsCapacity = 12

// =============================================================================
// Group
// =============================================================================

// Group is a named collection of items plus a window over its first
// TopItemsCapacity items.
//
// Description:
//
//	The metadata fields are set at construction and treated as static.
//	Items may only be mutated through Edit, which holds the group lock for
//	the whole edit. Every event the source emits during the edit is applied
//	to the top-items window before the mutating call returns, so once Edit
//	returns the window equals the first N items of the source.
//
// Thread Safety:
//
//	Edit, Snapshot, Verify, History and Close are safe for concurrent use.
//	Items and TopItems return live views; reads through them are
//	individually safe but may interleave with an Edit. Use Snapshot for a
//	consistent pair.
//
//	Handlers subscribed to Items or TopItems run on the editing goroutine
//	while Edit holds the group lock. They must not call Edit, Snapshot,
//	Verify, History or Close, which wait for that lock and would never get
//	it. Read through the views instead, or use WatchTopItems.
type Group struct {
	// ID uniquely identifies the group within a registry.
	ID string

	// Title is the primary display string.
	Title string

	// Subtitle is the secondary display string.
	Subtitle string

	// CoverDescription describes the group's cover. Like the other metadata
	// it is fixed once the group is loaded; seed reloads only reset items.
	CoverDescription string

	// CoverImage is the group's cover picture, fixed at load time.
	CoverImage collection.ImageRef

	mu     sync.RWMutex
	items  *collection.Collection
	top    *window.Synchronizer
	subID  string
	closed bool
	logger *logging.Logger
}

// Snapshot is a consistent copy of a group's items and top items.
type Snapshot struct {
	Items    []*collection.Item
	TopItems []*collection.Item
}

// GroupOption configures a Group.
type GroupOption func(*groupOptions)

type groupOptions struct {
	logger      *logging.Logger
	capacity    int
	historySize int
}

// WithGroupLogger sets the group's logger.
func WithGroupLogger(logger *logging.Logger) GroupOption {
	return func(o *groupOptions) {
		o.logger = logger
	}
}

// WithTopItemsCapacity overrides TopItemsCapacity.
func WithTopItemsCapacity(n int) GroupOption {
	return func(o *groupOptions) {
		o.capacity = n
	}
}

// WithEventHistory keeps the last size events of both the source and the
// window for diagnostics.
func WithEventHistory(size int) GroupOption {
	return func(o *groupOptions) {
		o.historySize = size
	}
}

// NewGroup creates an empty group with a bound top-items window.
//
// Inputs:
//
//	spec - Identity and display metadata. ID must not be empty.
//	opts - Optional logger, window capacity and history size.
//
// Outputs:
//
//	*Group - The group, with empty items and top items.
//	error - ErrEmptyGroupID, or window.ErrInvalidCapacity for a bad capacity.
func NewGroup(spec GroupSpec, opts ...GroupOption) (*Group, error) {
	if spec.ID == "" {
		return nil, ErrEmptyGroupID
	}
	o := groupOptions{capacity: TopItemsCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	logger := o.logger.With("group", spec.ID)

	top, err := window.New(o.capacity,
		window.WithLogger(logger),
		window.WithName(spec.ID+".top"),
		window.WithHistorySize(o.historySize),
	)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", spec.ID, err)
	}

	g := &Group{
		ID:       spec.ID,
		Title:    spec.Title,
		Subtitle: spec.Subtitle,
		items: collection.New(
			collection.WithName(spec.ID),
			collection.WithHistorySize(o.historySize),
		),
		top:    top,
		logger: logger,
	}

	g.subID, err = top.Bind(g.items, g.onWindowError)
	if err != nil {
		return nil, fmt.Errorf("group %q: bind top items: %w", spec.ID, err)
	}
	return g, nil
}

// onWindowError escalates a rejected source event. The source only emits
// well-formed events, so a rejection means the collection or synchronizer
// is broken and continuing would serve a stale window.
func (g *Group) onWindowError(ev collection.Event, err error) {
	g.logger.Error("top items out of sync with source",
		"event", ev.String(),
		"error", err,
	)
	panic(fmt.Errorf("group %q: %w", g.ID, err))
}

// String returns the title.
func (g *Group) String() string {
	return g.Title
}

// Items returns the group's source collection as a read-only view.
func (g *Group) Items() collection.View {
	return g.items
}

// TopItems returns the window over the first TopItemsCapacity items.
// See the Group thread-safety notes before subscribing to it.
func (g *Group) TopItems() collection.View {
	return g.top.Window()
}

// WatchTopItems calls fn for every top-items event with the items and top
// items as they stand after that event.
//
// Description:
//
//	fn runs on the editing goroutine, so the group lock is already held by
//	the writer and the state is read directly from the views. A single
//	source mutation may produce more than one window event (an eviction
//	followed by an insert, or a removal followed by a backfill); the state
//	passed with the earlier event is the intermediate one.
//
// Outputs:
//
//	string - Subscription id, for UnwatchTopItems.
//	error - collection.ErrNilHandler if fn is nil.
func (g *Group) WatchTopItems(fn func(ev collection.Event, state Snapshot)) (string, error) {
	if fn == nil {
		return "", collection.ErrNilHandler
	}
	return g.top.Window().Subscribe(func(ev collection.Event) {
		fn(ev, Snapshot{
			Items:    g.items.Items(),
			TopItems: g.top.Window().Items(),
		})
	})
}

// UnwatchTopItems removes a WatchTopItems subscription.
func (g *Group) UnwatchTopItems(id string) bool {
	return g.top.Window().Unsubscribe(id)
}

// Capacity returns the top-items window size.
func (g *Group) Capacity() int {
	return g.top.Capacity()
}

// Edit runs fn with exclusive access to the group's items.
//
// Description:
//
//	fn may perform any number of mutations. Each mutation's event is
//	applied to the top items synchronously, so after every mutation call
//	inside fn the window already reflects it. Concurrent Edit and
//	Snapshot calls wait until fn returns.
//
// Inputs:
//
//	fn - The edit. It must not retain the collection after returning.
//
// Outputs:
//
//	error - ErrGroupClosed after Close, otherwise whatever fn returns.
func (g *Group) Edit(fn func(items *collection.Collection) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrGroupClosed
	}
	err := fn(g.items)
	recordGroupEdit(context.Background(), g.ID, err != nil)
	return err
}

// Snapshot returns copies of the items and top items taken under the
// group lock, so the pair is consistent.
func (g *Group) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Snapshot{
		Items:    g.items.Items(),
		TopItems: g.top.Window().Items(),
	}
}

// Verify reports whether the top items equal the leading slice of items.
func (g *Group) Verify() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.top.Verify(g.items)
}

// History returns the retained source and window events. Both are empty
// unless the group was created WithEventHistory.
func (g *Group) History() (source, top []collection.Record) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.items.History(), g.top.WindowHistory()
}

// Close detaches the top-items window from the source. Later edits fail
// with ErrGroupClosed. Close is idempotent.
func (g *Group) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.items.Unsubscribe(g.subID)
	g.closed = true
}
