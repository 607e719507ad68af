// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package populate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/gallery/services/gallery/collection"
	"github.com/AleutianAI/gallery/services/gallery/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedV1 = `
groups:
  - id: popular
    items:
      - id: p1
        title: Harbor at dawn
        description: Fog over the harbor
        image: https://img.example.com/p1.jpg
      - id: p2
        title: Night market
  - id: editors
    cover_description: Hand picked
    items:
      - id: e1
        title: Glacier
`

const seedV2 = `
groups:
  - id: popular
    cover_description: Sand and sky
    cover_image: https://img.example.com/cover.jpg
    items:
      - id: p3
        title: Desert road
  - id: unknown_group
    items:
      - id: u1
        title: Nobody asked
`

func writeSeed(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Placeholder
// =============================================================================

func TestPlaceholder_Deterministic(t *testing.T) {
	p := NewPlaceholder(3)
	spec := registry.GroupSpec{ID: "fresh_today", Title: "Fresh Today"}

	first, err := p.Populate(context.Background(), spec)
	require.NoError(t, err)
	second, err := p.Populate(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "fresh_today", first.GroupID)
	require.Len(t, first.Items, 3)
	assert.Equal(t, "fresh_today-01", first.Items[0].ID)
	assert.Equal(t, "Fresh Today #1", first.Items[0].Title)
	assert.Equal(t, "placeholder/fresh_today/3.jpg", first.Items[2].Image)
}

func TestPlaceholder_Defaults(t *testing.T) {
	seed, err := NewPlaceholder(-1).Populate(context.Background(), registry.GroupSpec{ID: "x", Title: "X"})
	require.NoError(t, err)
	assert.Len(t, seed.Items, DefaultItemsPerGroup)

	seed, err = NewPlaceholder(0).Populate(context.Background(), registry.GroupSpec{ID: "x", Title: "X"})
	require.NoError(t, err)
	assert.Empty(t, seed.Items)
}

func TestPlaceholder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPlaceholder(1).Populate(ctx, registry.GroupSpec{ID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlaceholder_LoadsDefaultGroups(t *testing.T) {
	specs := []registry.GroupSpec{
		{ID: "popular", Title: "Popular"},
		{ID: "editors", Title: "Editors Picks"},
		{ID: "upcoming", Title: "Upcoming"},
	}
	r := registry.New()
	require.NoError(t, r.Load(context.Background(), NewPlaceholder(DefaultItemsPerGroup), specs))

	for _, g := range r.Groups() {
		assert.Equal(t, DefaultItemsPerGroup, g.Items().Len())
		assert.Equal(t, registry.TopItemsCapacity, g.TopItems().Len())
		assert.Equal(t, "Placeholder photo 1 of "+g.Title+".", g.CoverDescription)
	}
}

// =============================================================================
// File
// =============================================================================

func TestParseSeedFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", seedV1, false},
		{"empty", "", false},
		{"malformed yaml", "groups: [", true},
		{"missing group id", "groups:\n  - items: []\n", true},
		{"bad group id", "groups:\n  - id: Not-Valid\n", true},
		{"missing item title", "groups:\n  - id: a\n    items:\n      - id: x\n", true},
		{"duplicate group", "groups:\n  - id: a\n  - id: a\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeedFile([]byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFile_Populate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	writeSeed(t, path, seedV1)
	f := NewFile(path)

	seed, err := f.Populate(context.Background(), registry.GroupSpec{ID: "popular"})
	require.NoError(t, err)
	require.Len(t, seed.Items, 2)
	assert.Equal(t, "Harbor at dawn", seed.Items[0].Title)

	_, err = f.Populate(context.Background(), registry.GroupSpec{ID: "upcoming"})
	assert.ErrorIs(t, err, ErrGroupNotSeeded)

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.yaml")).Populate(context.Background(), registry.GroupSpec{ID: "popular"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile_LoadIntoRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	writeSeed(t, path, seedV1)

	r := registry.New()
	specs := []registry.GroupSpec{{ID: "popular", Title: "Popular"}, {ID: "editors", Title: "Editors Picks"}}
	require.NoError(t, r.Load(context.Background(), NewFile(path), specs))

	popular, _ := r.Group("popular")
	assert.Equal(t, "Fog over the harbor", popular.CoverDescription)
	assert.Equal(t, "https://img.example.com/p1.jpg", popular.CoverImage.String())
	assert.Equal(t, []string{"p1", "p2"}, collection.IDs(popular.TopItems().Items()))

	editors, _ := r.Group("editors")
	assert.Equal(t, "Hand picked", editors.CoverDescription)
}

// =============================================================================
// Watcher
// =============================================================================

func loadedRegistry(t *testing.T, path string) *registry.Registry {
	t.Helper()
	r := registry.New()
	specs := []registry.GroupSpec{{ID: "popular", Title: "Popular"}, {ID: "editors", Title: "Editors Picks"}}
	require.NoError(t, r.Load(context.Background(), NewFile(path), specs))
	return r
}

func TestWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	writeSeed(t, path, seedV1)
	r := loadedRegistry(t, path)

	var hooked []ReloadResult
	w, err := NewWatcher(NewFile(path), r, WithReloadHook(func(res ReloadResult) { hooked = append(hooked, res) }))
	require.NoError(t, err)
	defer w.Stop()

	writeSeed(t, path, seedV2)
	result := w.Reload()
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"popular"}, result.Updated)
	assert.Equal(t, []string{"unknown_group"}, result.Skipped)
	require.Len(t, hooked, 1)

	popular, _ := r.Group("popular")
	assert.Equal(t, []string{"p3"}, collection.IDs(popular.TopItems().Items()))
	assert.NoError(t, popular.Verify())
	assert.Equal(t, "Fog over the harbor", popular.CoverDescription, "cover is fixed at load time")
	assert.Equal(t, "https://img.example.com/p1.jpg", popular.CoverImage.Path())

	editors, _ := r.Group("editors")
	assert.Equal(t, []string{"e1"}, collection.IDs(editors.Items().Items()), "groups missing from the file are untouched")
}

func TestWatcher_ReloadInvalidKeepsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	writeSeed(t, path, seedV1)
	r := loadedRegistry(t, path)

	w, err := NewWatcher(NewFile(path), r)
	require.NoError(t, err)
	defer w.Stop()

	writeSeed(t, path, "groups: [")
	result := w.Reload()
	assert.Error(t, result.Err)
	assert.Empty(t, result.Updated)

	popular, _ := r.Group("popular")
	assert.Equal(t, []string{"p1", "p2"}, collection.IDs(popular.Items().Items()))
}

func TestWatcher_PicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	writeSeed(t, path, seedV1)
	r := loadedRegistry(t, path)

	reloaded := make(chan ReloadResult, 8)
	w, err := NewWatcher(NewFile(path), r,
		WithDebounce(10*time.Millisecond),
		WithReloadHook(func(res ReloadResult) {
			select {
			case reloaded <- res:
			default:
			}
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	popular, _ := r.Group("popular")
	require.Eventually(t, func() bool {
		// Rewrite until the watcher has registered the directory.
		_ = os.WriteFile(path, []byte(seedV2), 0o644)
		select {
		case <-reloaded:
		case <-time.After(50 * time.Millisecond):
		}
		top := popular.Snapshot().TopItems
		return len(top) == 1 && top[0].ID() == "p3"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	assert.NoError(t, w.Stop())
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w, err := NewWatcher(NewFile(filepath.Join(t.TempDir(), "nope", "seed.yaml")), registry.New())
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.Start(context.Background()))
}
