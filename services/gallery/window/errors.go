// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package window

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/gallery/services/gallery/collection"
)

// Sentinel errors for the synchronizer.
var (
	// ErrInvalidCapacity indicates a window capacity below one.
	ErrInvalidCapacity = errors.New("window capacity must be at least 1")

	// ErrPreconditionViolated indicates an event that cannot have come from a
	// correctly behaving source collection: an index outside the source, or
	// a window that was not synchronized before the event.
	ErrPreconditionViolated = errors.New("event precondition violated")

	// ErrOutOfSync indicates the window is not the leading slice of the source.
	ErrOutOfSync = errors.New("window out of sync with source")

	// ErrUnknownEvent indicates an event type outside the closed set.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrNilSource indicates Apply, Bind or Verify was given a nil source.
	ErrNilSource = errors.New("source must not be nil")
)

// EventError describes an event rejected by Apply.
//
// It wraps ErrPreconditionViolated so callers can match with errors.Is.
type EventError struct {
	// Event is the rejected event.
	Event collection.Event

	// Index is the offending index (-1 when the problem is not an index).
	Index int

	// Reason explains which precondition failed.
	Reason string
}

func (e *EventError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("window: %s: index %d: %s: %v", e.Event, e.Index, e.Reason, ErrPreconditionViolated)
	}
	return fmt.Sprintf("window: %s: %s: %v", e.Event, e.Reason, ErrPreconditionViolated)
}

func (e *EventError) Unwrap() error {
	return ErrPreconditionViolated
}
