// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package populate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/AleutianAI/gallery/pkg/logging"
	"github.com/AleutianAI/gallery/services/gallery/collection"
	"github.com/AleutianAI/gallery/services/gallery/registry"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reloading, so an editor's write-rename-chmod burst reloads once.
const DefaultDebounce = 100 * time.Millisecond

var seedReloads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gallery_seed_reloads_total",
	Help: "Seed file reloads triggered by the watcher, by result",
}, []string{"result"})

// ReloadResult describes one reload.
type ReloadResult struct {
	// Updated lists the groups that were reset, in seed file order.
	Updated []string

	// Skipped lists seeded groups the registry does not hold.
	Skipped []string

	// Err is non-nil when the file could not be read or validated. No
	// group is touched in that case.
	Err error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(logger *logging.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook registers fn to run after every reload.
func WithReloadHook(fn func(ReloadResult)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watcher reloads a seed file into a registry whenever the file changes.
//
// Description:
//
//	Each reload replaces the contents of every registry group the file
//	mentions with a single ResetTo inside Group.Edit, so the groups' top
//	items see one Reset and are rebuilt from the new leading items.
//	Groups missing from the file keep their contents.
//
//	The watcher observes the file's directory rather than the file
//	itself, so editors that save by renaming a temporary file are seen.
//
// Thread Safety:
//
//	Start should only be called once. Stop and Reload are safe to call
//	from any goroutine.
type Watcher struct {
	file     *File
	registry *registry.Registry
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	debounce time.Duration
	onReload func(ReloadResult)
}

// NewWatcher creates a watcher for file feeding reg.
//
// Outputs:
//
//	*Watcher - Ready-to-start watcher.
//	error - Non-nil if the fsnotify watcher cannot be created.
func NewWatcher(file *File, reg *registry.Registry, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create seed watcher: %w", err)
	}
	w := &Watcher{
		file:     file,
		registry: reg,
		watcher:  fw,
		logger:   logging.Discard(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the seed file until ctx is cancelled or Stop is called.
// It blocks and should be run in a goroutine.
//
// Outputs:
//
//	error - Non-nil if the seed file's directory cannot be watched.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.file.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Debug("watching seed file", "path", w.file.Path())

	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				fire = time.After(w.debounce)
			}

		case <-fire:
			fire = nil
			w.Reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("seed watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Debug("seed watcher stopping")
			return nil
		}
	}
}

// relevant reports whether event changed the seed file's content.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.file.Path()) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// Reload reads the seed file and resets the items of every seeded group it
// holds. Group metadata, including the cover, is fixed at load time, so
// cover_description and cover_image in a reloaded file are ignored.
func (w *Watcher) Reload() ReloadResult {
	var result ReloadResult

	seeds, err := w.file.Read()
	if err != nil {
		result.Err = err
		seedReloads.WithLabelValues("invalid").Inc()
		w.logger.Warn("seed file reload failed, keeping current contents", "path", w.file.Path(), "error", err)
		w.notify(result)
		return result
	}

	for _, seed := range seeds.Groups {
		g, ok := w.registry.Group(seed.GroupID)
		if !ok {
			result.Skipped = append(result.Skipped, seed.GroupID)
			continue
		}
		items := seed.BuildItems(g.ID)
		if err := g.Edit(func(c *collection.Collection) error {
			return c.ResetTo(items)
		}); err != nil {
			w.logger.Warn("seed reload skipped group", "group", g.ID, "error", err)
			result.Skipped = append(result.Skipped, seed.GroupID)
			continue
		}
		result.Updated = append(result.Updated, seed.GroupID)
	}

	seedReloads.WithLabelValues("ok").Inc()
	w.logger.Info("seed file reloaded",
		"path", w.file.Path(),
		"updated", len(result.Updated),
		"skipped", len(result.Skipped),
	)
	w.notify(result)
	return result
}

func (w *Watcher) notify(result ReloadResult) {
	if w.onReload != nil {
		w.onReload(result)
	}
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
