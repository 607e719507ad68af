// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package window keeps a bounded leading slice of a collection in sync with
// the collection as it changes.
//
// A Synchronizer owns a window of capacity N. For every event emitted by a
// source collection it applies the smallest patch that keeps
//
//	window == source[0 : min(N, source.Len())]
//
// The window never holds more than N items, including while its own
// subscribers are being notified. Only Reset copies from the source, and
// then at most N items. Every other
// event is handled in O(N) or better without scanning the source.
//
// Thread Safety:
//
//	Apply is synchronous and must be called from the source's single writer
//	(which is what Bind arranges). The window itself may be read from any
//	goroutine, but a reader that needs a window consistent with a specific
//	source state must serialize with the writer (see registry.Group).
package window

import (
	"fmt"

	"github.com/AleutianAI/gallery/pkg/logging"
	"github.com/AleutianAI/gallery/services/gallery/collection"
)

// Synchronizer maintains the first N items of a source collection.
type Synchronizer struct {
	capacity int
	window   *collection.Collection
	logger   *logging.Logger
}

// Option configures a Synchronizer.
type Option func(*options)

type options struct {
	logger      *logging.Logger
	name        string
	historySize int
}

// WithLogger sets the logger used for patch-level debug output.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithName labels the window collection.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithHistorySize keeps the last size window events for diagnostics.
func WithHistorySize(size int) Option {
	return func(o *options) {
		o.historySize = size
	}
}

// New creates a Synchronizer with an empty window of the given capacity.
//
// Inputs:
//
//	capacity - Window size N. Must be at least 1.
//	opts - Optional logger, name and history size.
//
// Outputs:
//
//	*Synchronizer - Ready to Apply events or Bind to a source.
//	error - ErrInvalidCapacity if capacity < 1.
func New(capacity int, opts ...Option) (*Synchronizer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.name != "" {
		o.logger = o.logger.With("window", o.name)
	}

	return &Synchronizer{
		capacity: capacity,
		window:   collection.New(collection.WithName(o.name), collection.WithHistorySize(o.historySize)),
		logger:   o.logger,
	}, nil
}

// Capacity returns N.
func (s *Synchronizer) Capacity() int {
	return s.capacity
}

// Window returns the read-only window. Subscribe to it to observe the
// synchronizer's own patches.
func (s *Synchronizer) Window() collection.View {
	return s.window
}

// WindowHistory returns the retained window events (see WithHistorySize).
func (s *Synchronizer) WindowHistory() []collection.Record {
	return s.window.History()
}

// Bind synchronizes the window with src and subscribes to src so every
// later event is applied automatically.
//
// Description:
//
//	The window is first reset from src, so binding to a non-empty source
//	is valid. Afterwards each event from src is applied on the mutating
//	goroutine before the mutation call returns. A rejected event is
//	handed to onErr; with a nil onErr, Bind panics with the error since a
//	rejected event means the source is defective.
//
// Inputs:
//
//	src - The source collection.
//	onErr - Called with the event and the error when Apply fails. May be nil.
//
// Outputs:
//
//	string - Subscription id on src, for Unsubscribe.
//	error - ErrNilSource, or the error from the initial reset.
func (s *Synchronizer) Bind(src collection.View, onErr func(collection.Event, error)) (string, error) {
	if src == nil {
		return "", ErrNilSource
	}
	if err := s.Apply(collection.Reset{}, src); err != nil {
		return "", err
	}
	return src.Subscribe(func(ev collection.Event) {
		if err := s.Apply(ev, src); err != nil {
			if onErr != nil {
				onErr(ev, err)
				return
			}
			panic(err)
		}
	})
}

// Apply patches the window for one source event.
//
// Description:
//
//	src must reflect the source after the mutation described by ev, and
//	the window must have been synchronized with the source before it.
//	Indices are validated against src before the window is touched, so a
//	rejected event leaves the window unchanged.
//
//	  Insert(i):   i<N evicts the tail of a full window, then inserts at i.
//	  Move(o,n):   both<N moves inside the window; only o<N removes at o
//	               and backfills src[N-1]; only n<N evicts the tail of a
//	               full window and inserts at n; neither is a no-op.
//	  Remove(i):   i<N removes at i and backfills src[N-1] when the
//	               source still holds at least N items.
//	  Replace(i):  i<N overwrites in place.
//	  Reset:       copies src[0:min(N, len)].
//
// Inputs:
//
//	ev - The source event.
//	src - The source after the mutation.
//
// Outputs:
//
//	error - *EventError (wrapping ErrPreconditionViolated) for an
//	        out-of-range index or an unsynchronized window,
//	        ErrUnknownEvent, or ErrNilSource.
func (s *Synchronizer) Apply(ev collection.Event, src collection.View) error {
	if src == nil {
		return ErrNilSource
	}
	ev = normalize(ev)
	if ev == nil {
		return fmt.Errorf("%w: nil", ErrUnknownEvent)
	}

	if err := s.check(ev, src); err != nil {
		eventsRejected.WithLabelValues(string(ev.Kind())).Inc()
		s.logger.Error("rejected source event", "event", ev.String(), "error", err)
		return err
	}

	patched, err := s.patch(ev, src)
	if err != nil {
		return fmt.Errorf("window: apply %s: %w", ev, err)
	}

	effect := "noop"
	if patched {
		effect = "patched"
		s.logger.Debug("window patched", "event", ev.String(), "window_len", s.window.Len())
	}
	eventsApplied.WithLabelValues(string(ev.Kind()), effect).Inc()
	return nil
}

// Verify checks that the window equals the leading slice of src.
//
// Outputs:
//
//	error - nil when in sync, otherwise wraps ErrOutOfSync with the first
//	        divergence.
func (s *Synchronizer) Verify(src collection.View) error {
	if src == nil {
		return ErrNilSource
	}
	want := min(s.capacity, src.Len())
	got := s.window.Items()
	if len(got) != want {
		return fmt.Errorf("%w: window holds %d items, want %d", ErrOutOfSync, len(got), want)
	}
	for i, item := range got {
		if expected := src.At(i); !collection.SameItem(item, expected) {
			return fmt.Errorf("%w: index %d holds %q, source holds %q", ErrOutOfSync, i, item.ID(), expected.ID())
		}
	}
	return nil
}

// check validates ev against the post-mutation source and the current
// window.
func (s *Synchronizer) check(ev collection.Event, src collection.View) error {
	srcLen := src.Len()

	switch e := ev.(type) {
	case collection.Insert:
		if e.Index < 0 || e.Index >= srcLen {
			return outOfRange(ev, e.Index, srcLen)
		}
		return s.checkSynced(ev, srcLen-1)

	case collection.Move:
		if e.OldIndex < 0 || e.OldIndex >= srcLen {
			return outOfRange(ev, e.OldIndex, srcLen)
		}
		if e.NewIndex < 0 || e.NewIndex >= srcLen {
			return outOfRange(ev, e.NewIndex, srcLen)
		}
		return s.checkSynced(ev, srcLen)

	case collection.Remove:
		// The index refers to the source before removal.
		if e.Index < 0 || e.Index > srcLen {
			return outOfRange(ev, e.Index, srcLen+1)
		}
		return s.checkSynced(ev, srcLen+1)

	case collection.Replace:
		if e.Index < 0 || e.Index >= srcLen {
			return outOfRange(ev, e.Index, srcLen)
		}
		return s.checkSynced(ev, srcLen)

	case collection.Reset:
		return nil

	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// checkSynced verifies the window length matches a source of preLen items
// before the event.
func (s *Synchronizer) checkSynced(ev collection.Event, preLen int) error {
	want := min(s.capacity, preLen)
	if got := s.window.Len(); got != want {
		return &EventError{
			Event:  ev,
			Index:  -1,
			Reason: fmt.Sprintf("window holds %d items before the event, want %d", got, want),
		}
	}
	return nil
}

func outOfRange(ev collection.Event, index, limit int) error {
	return &EventError{
		Event:  ev,
		Index:  index,
		Reason: fmt.Sprintf("outside source range [0, %d)", limit),
	}
}

// patch mutates the window for a validated event and reports whether the
// window changed.
func (s *Synchronizer) patch(ev collection.Event, src collection.View) (bool, error) {
	n := s.capacity

	switch e := ev.(type) {
	case collection.Insert:
		if e.Index >= n {
			return false, nil
		}
		item := e.Item
		if item == nil {
			item = src.At(e.Index)
		}
		if err := s.makeRoom(); err != nil {
			return false, err
		}
		return true, s.window.Insert(e.Index, item)

	case collection.Move:
		oldIn, newIn := e.OldIndex < n, e.NewIndex < n
		switch {
		case oldIn && newIn:
			return true, s.window.Move(e.OldIndex, e.NewIndex)
		case oldIn:
			if _, err := s.window.RemoveAt(e.OldIndex); err != nil {
				return false, err
			}
			return true, s.backfill(src)
		case newIn:
			if err := s.makeRoom(); err != nil {
				return false, err
			}
			return true, s.window.Insert(e.NewIndex, src.At(e.NewIndex))
		default:
			return false, nil
		}

	case collection.Remove:
		if e.Index >= n {
			return false, nil
		}
		if _, err := s.window.RemoveAt(e.Index); err != nil {
			return false, err
		}
		return true, s.backfill(src)

	case collection.Replace:
		if e.Index >= n {
			return false, nil
		}
		item := e.Item
		if item == nil {
			item = src.At(e.Index)
		}
		_, err := s.window.Replace(e.Index, item)
		return true, err

	case collection.Reset:
		count := min(n, src.Len())
		items := make([]*collection.Item, count)
		for i := range items {
			items[i] = src.At(i)
		}
		resetSize.Observe(float64(count))
		return true, s.window.ResetTo(items)
	}
	return false, nil
}

// backfill appends the source item that just entered position N-1.
func (s *Synchronizer) backfill(src collection.View) error {
	if src.Len() < s.capacity {
		return nil
	}
	backfills.Inc()
	return s.window.Append(src.At(s.capacity - 1))
}

// makeRoom drops the window tail when the window is full, so the insert
// that follows never takes the window past capacity.
func (s *Synchronizer) makeRoom() error {
	if s.window.Len() < s.capacity {
		return nil
	}
	evictions.Inc()
	_, err := s.window.RemoveAt(s.capacity - 1)
	return err
}

// normalize turns pointer events into values so a single type switch
// covers both forms.
func normalize(ev collection.Event) collection.Event {
	switch e := ev.(type) {
	case *collection.Insert:
		if e == nil {
			return nil
		}
		return *e
	case *collection.Move:
		if e == nil {
			return nil
		}
		return *e
	case *collection.Remove:
		if e == nil {
			return nil
		}
		return *e
	case *collection.Replace:
		if e == nil {
			return nil
		}
		return *e
	case *collection.Reset:
		if e == nil {
			return nil
		}
		return *e
	}
	return ev
}
