// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collection

import (
	"fmt"
	"net/url"
)

// ImageRef points at an item's picture: either an already resolved URL or
// a path that is resolved against a base URL the first time it is needed.
//
// The zero value is an empty reference; Resolve returns (nil, nil) for it.
type ImageRef struct {
	path     string
	resolved *url.URL
}

// NewImagePath returns a reference that resolves lazily from path.
func NewImagePath(path string) ImageRef {
	return ImageRef{path: path}
}

// NewResolvedImage returns a reference to an already resolved URL.
func NewResolvedImage(u *url.URL) ImageRef {
	return ImageRef{resolved: u}
}

// Path returns the unresolved path, or "" for a resolved reference.
func (r ImageRef) Path() string {
	return r.path
}

// IsResolved reports whether the reference holds a resolved URL.
func (r ImageRef) IsResolved() bool {
	return r.resolved != nil
}

// IsZero reports whether the reference is empty.
func (r ImageRef) IsZero() bool {
	return r.path == "" && r.resolved == nil
}

// SetPath replaces the reference with a new lazily resolved path and drops
// any cached URL.
func (r *ImageRef) SetPath(path string) {
	r.path = path
	r.resolved = nil
}

// Resolve returns the URL for the reference, resolving and caching the
// path against base on first use.
//
// Description:
//
//	Absolute paths (with a scheme) resolve to themselves. Relative paths
//	require a non-nil base. Once resolved, the path is discarded and the
//	cached URL is returned on every later call.
//
// Inputs:
//
//	base - Base URL for relative paths. May be nil if the path is absolute.
//
// Outputs:
//
//	*url.URL - The resolved URL, or nil for an empty reference.
//	error - Non-nil if the path cannot be parsed or needs a base.
func (r *ImageRef) Resolve(base *url.URL) (*url.URL, error) {
	if r.resolved != nil {
		return r.resolved, nil
	}
	if r.path == "" {
		return nil, nil
	}

	ref, err := url.Parse(r.path)
	if err != nil {
		return nil, fmt.Errorf("parse image path %q: %w", r.path, err)
	}
	if !ref.IsAbs() {
		if base == nil {
			return nil, fmt.Errorf("image path %q is relative and no base is set", r.path)
		}
		ref = base.ResolveReference(ref)
	}

	r.resolved = ref
	r.path = ""
	return ref, nil
}

// String returns the path or the resolved URL.
func (r ImageRef) String() string {
	if r.resolved != nil {
		return r.resolved.String()
	}
	return r.path
}
