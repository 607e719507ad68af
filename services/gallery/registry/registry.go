// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package registry holds the gallery's groups.
//
// A Registry is an insertion-ordered set of Groups with unique ids. Each
// Group owns a source collection of items and a window.Synchronizer that
// keeps its top items equal to the first TopItemsCapacity items.
//
// Registries are created with New; there is no process-wide instance.
package registry

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/AleutianAI/gallery/pkg/logging"
	"github.com/AleutianAI/gallery/services/gallery/collection"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// AllGroupsID is the only collection id GroupsFor recognises.
const AllGroupsID = "AllGroups"

// Match is one occurrence of an item id within a registry.
type Match struct {
	Group *Group
	Index int
	Item  *collection.Item
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger. Groups created by Load inherit it.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithConcurrency bounds how many groups Load populates at once.
// Values below 1 select GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		r.concurrency = n
	}
}

// WithGroupOptions sets options applied to every group Load creates.
func WithGroupOptions(opts ...GroupOption) Option {
	return func(r *Registry) {
		r.groupOpts = append(r.groupOpts, opts...)
	}
}

// Registry is an insertion-ordered set of groups.
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	groups      []*Group
	byID        map[string]*Group
	logger      *logging.Logger
	concurrency int
	groupOpts   []GroupOption
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byID: make(map[string]*Group),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.concurrency < 1 {
		r.concurrency = runtime.GOMAXPROCS(0)
	}
	return r
}

// Add appends g to the registry.
//
// Outputs:
//
//	error - ErrNilGroup, or ErrDuplicateGroup if g.ID is already present.
func (r *Registry) Add(g *Group) error {
	if g == nil {
		return ErrNilGroup
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[g.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateGroup, g.ID)
	}
	r.groups = append(r.groups, g)
	r.byID[g.ID] = g
	return nil
}

// addAll appends groups in order, or none of them if any id is taken.
func (r *Registry) addAll(groups []*Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range groups {
		if _, exists := r.byID[g.ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateGroup, g.ID)
		}
	}
	for _, g := range groups {
		r.groups = append(r.groups, g)
		r.byID[g.ID] = g
	}
	return nil
}

// Group returns the group with id.
func (r *Registry) Group(id string) (*Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[id]
	return g, ok
}

// Groups returns the groups in insertion order.
func (r *Registry) Groups() []*Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Group, len(r.groups))
	copy(out, r.groups)
	return out
}

// Len returns the number of groups.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}

// GroupsFor returns the groups of a named collection of groups.
//
// Outputs:
//
//	[]*Group - All groups in insertion order, for AllGroupsID.
//	error - ErrUnknownCollection for any other id.
func (r *Registry) GroupsFor(collectionID string) ([]*Group, error) {
	if collectionID != AllGroupsID {
		return nil, fmt.Errorf("%w: got %q", ErrUnknownCollection, collectionID)
	}
	return r.Groups(), nil
}

// Item returns the first item with id, searching groups in registry order
// and each group's items in source order.
//
// Outputs:
//
//	*collection.Item - The item, or nil.
//	*Group - The group holding it, or nil.
//	bool - False when no group holds the id.
func (r *Registry) Item(id string) (*collection.Item, *Group, bool) {
	for _, g := range r.Groups() {
		for _, item := range g.items.Items() {
			if item.ID() == id {
				return item, g, true
			}
		}
	}
	return nil, nil, false
}

// ItemMatches returns every occurrence of id, in the same order Item
// searches. Ids are expected to be unique; more than one match points at
// bad seed data.
func (r *Registry) ItemMatches(id string) []Match {
	var matches []Match
	for _, g := range r.Groups() {
		for i, item := range g.items.Items() {
			if item.ID() == id {
				matches = append(matches, Match{Group: g, Index: i, Item: item})
			}
		}
	}
	return matches
}

// Load populates one group per spec and adds them in spec order.
//
// Description:
//
//	Groups are populated concurrently (bounded by WithConcurrency) but
//	added in the order of specs, so registry order never depends on which
//	population finishes first. If any population fails, nothing is added
//	and the first error is returned. A group's cover defaults to its first
//	item's description and image when the seed leaves them empty.
//
// Inputs:
//
//	ctx - Cancels outstanding populations.
//	p - The Populator.
//	specs - Groups to create. Ids must be unique and not yet registered.
//
// Outputs:
//
//	error - ErrNilPopulator, ErrDuplicateGroup, or the first population error.
func (r *Registry) Load(ctx context.Context, p Populator, specs []GroupSpec) error {
	if p == nil {
		return ErrNilPopulator
	}
	ctx, span := startRegistrySpan(ctx, "Load", attribute.Int("registry.group_count", len(specs)))
	defer span.End()

	if err := r.checkNewIDs(specs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "duplicate group")
		return err
	}

	loaded := make([]*Group, len(specs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)
	for i, spec := range specs {
		eg.Go(func() error {
			g, err := r.loadGroup(egCtx, p, spec)
			if err != nil {
				return fmt.Errorf("load group %q: %w", spec.ID, err)
			}
			loaded[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		closeAll(loaded)
		span.RecordError(err)
		span.SetStatus(codes.Error, "population failed")
		return err
	}

	if err := r.addAll(loaded); err != nil {
		closeAll(loaded)
		span.RecordError(err)
		span.SetStatus(codes.Error, "add failed")
		return err
	}
	r.logger.Info("groups loaded", "count", len(loaded))
	return nil
}

func (r *Registry) checkNewIDs(specs []GroupSpec) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if _, dup := seen[spec.ID]; dup {
			return fmt.Errorf("%w: %q declared twice", ErrDuplicateGroup, spec.ID)
		}
		if _, exists := r.byID[spec.ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateGroup, spec.ID)
		}
		seen[spec.ID] = struct{}{}
	}
	return nil
}

func (r *Registry) loadGroup(ctx context.Context, p Populator, spec GroupSpec) (*Group, error) {
	ctx, span := startRegistrySpan(ctx, "loadGroup", attribute.String("group.id", spec.ID))
	defer span.End()
	start := time.Now()

	g, err := r.populateGroup(ctx, p, spec)
	recordGroupLoad(ctx, spec.ID, time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("group population failed", "group", spec.ID, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("group.item_count", g.items.Len()))
	r.logger.Debug("group populated", "group", spec.ID, "items", g.items.Len())
	return g, nil
}

func (r *Registry) populateGroup(ctx context.Context, p Populator, spec GroupSpec) (*Group, error) {
	seed, err := p.Populate(ctx, spec)
	if err != nil {
		return nil, err
	}
	opts := append([]GroupOption{WithGroupLogger(r.logger)}, r.groupOpts...)
	g, err := NewGroup(spec, opts...)
	if err != nil {
		return nil, err
	}

	items := seed.BuildItems(spec.ID)
	g.CoverDescription = seed.CoverDescription
	if seed.CoverImage != "" {
		g.CoverImage = collection.NewImagePath(seed.CoverImage)
	}
	if len(items) > 0 {
		if g.CoverDescription == "" {
			g.CoverDescription = items[0].Description
		}
		if g.CoverImage.IsZero() {
			g.CoverImage = items[0].Image
		}
	}

	if err := g.Edit(func(c *collection.Collection) error {
		return c.ResetTo(items)
	}); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// Close closes every group. The registry keeps its groups for lookups.
func (r *Registry) Close() {
	closeAll(r.Groups())
}

func closeAll(groups []*Group) {
	for _, g := range groups {
		if g != nil {
			g.Close()
		}
	}
}
