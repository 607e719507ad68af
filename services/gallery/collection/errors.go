// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collection

import (
	"errors"
	"fmt"
)

// Sentinel errors for collection operations.
var (
	// ErrIndexOutOfRange indicates a positional mutation named an index
	// outside the collection.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNilItem indicates a nil *Item was passed to a mutation.
	ErrNilItem = errors.New("item must not be nil")

	// ErrNilHandler indicates Subscribe was called without a handler.
	ErrNilHandler = errors.New("handler must not be nil")
)

// IndexError describes a rejected positional mutation.
//
// It wraps ErrIndexOutOfRange so callers can match with errors.Is.
type IndexError struct {
	// Op is the mutation that was rejected, e.g. "insert".
	Op string

	// Index is the offending index.
	Index int

	// Limit is the exclusive upper bound that was in force: the length
	// for most operations, length+1 for insert.
	Limit int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Limit)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
