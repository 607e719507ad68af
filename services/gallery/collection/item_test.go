// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collection

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem_GeneratesIDWhenEmpty(t *testing.T) {
	item := NewItem("")
	_, err := uuid.Parse(item.ID())
	assert.NoError(t, err)

	assert.Equal(t, "fixed", NewItem("fixed").ID())
}

func TestSameItem_ByIdentityNotValue(t *testing.T) {
	a := NewItem("a")
	a.Title = "same"
	b := NewItem("b")
	b.Title = "same"
	a2 := NewItem("a")
	a2.Title = "different"

	assert.False(t, SameItem(a, b))
	assert.True(t, SameItem(a, a2))
	assert.True(t, SameItem(nil, nil))
	assert.False(t, SameItem(a, nil))
}

func TestItem_String(t *testing.T) {
	item := NewItem("x")
	item.Title = "Sunset"
	assert.Equal(t, "Sunset", item.String())
}

func TestImageRef_ResolveRelative(t *testing.T) {
	base, err := url.Parse("https://cdn.example.com/photos/")
	require.NoError(t, err)

	ref := NewImagePath("42/large.jpg")
	assert.False(t, ref.IsResolved())
	assert.Equal(t, "42/large.jpg", ref.Path())

	u, err := ref.Resolve(base)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/42/large.jpg", u.String())
	assert.True(t, ref.IsResolved())
	assert.Empty(t, ref.Path())

	again, err := ref.Resolve(nil)
	require.NoError(t, err)
	assert.Same(t, u, again, "resolution is cached")
}

func TestImageRef_ResolveAbsoluteWithoutBase(t *testing.T) {
	ref := NewImagePath("https://img.example.com/1.jpg")
	u, err := ref.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/1.jpg", u.String())
}

func TestImageRef_Errors(t *testing.T) {
	ref := NewImagePath("relative.jpg")
	_, err := ref.Resolve(nil)
	assert.Error(t, err)

	bad := NewImagePath("http://[::1")
	_, err = bad.Resolve(nil)
	assert.Error(t, err)
}

func TestImageRef_ZeroAndSetPath(t *testing.T) {
	var ref ImageRef
	assert.True(t, ref.IsZero())
	u, err := ref.Resolve(nil)
	assert.NoError(t, err)
	assert.Nil(t, u)

	resolved, _ := url.Parse("https://a.example.com/x.png")
	ref = NewResolvedImage(resolved)
	assert.Equal(t, "https://a.example.com/x.png", ref.String())

	ref.SetPath("y.png")
	assert.False(t, ref.IsResolved())
	assert.Equal(t, "y.png", ref.String())
}
