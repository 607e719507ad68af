// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/AleutianAI/gallery/services/gallery/collection"
	"github.com/AleutianAI/gallery/services/gallery/registry"
)

type simulateOptions struct {
	steps int
	seed  int64
	group string
}

// simulationReport counts the source events one simulation produced.
type simulationReport struct {
	counts   map[collection.Kind]int
	finalLen int
}

func (r simulationReport) total() int {
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

func (r simulationReport) String() string {
	parts := make([]string, 0, len(collection.Kinds))
	for _, k := range collection.Kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, r.counts[k]))
	}
	return strings.Join(parts, " ")
}

// simulate applies opts.steps random edits to g, checking after each one
// that the top items still equal the leading items.
func simulate(g *registry.Group, opts simulateOptions) (simulationReport, error) {
	report := simulationReport{counts: make(map[collection.Kind]int)}
	subID, err := g.Items().Subscribe(func(ev collection.Event) {
		report.counts[ev.Kind()]++
	})
	if err != nil {
		return report, err
	}
	defer g.Items().Unsubscribe(subID)

	rng := rand.New(rand.NewSource(opts.seed))
	next := 0
	newItem := func() *collection.Item {
		next++
		item := collection.NewItem(fmt.Sprintf("%s-sim-%d", g.ID, next))
		item.Title = fmt.Sprintf("Simulated %d", next)
		item.GroupID = g.ID
		return item
	}

	for step := 0; step < opts.steps; step++ {
		if err := g.Edit(func(c *collection.Collection) error {
			return randomEdit(c, rng, newItem)
		}); err != nil {
			return report, fmt.Errorf("group %s step %d: %w", g.ID, step, err)
		}
		if err := g.Verify(); err != nil {
			return report, fmt.Errorf("group %s step %d: %w", g.ID, step, err)
		}
	}
	report.finalLen = g.Items().Len()
	return report, nil
}

// randomEdit performs one mutation, weighted toward inserts so groups
// grow past the window size.
func randomEdit(c *collection.Collection, rng *rand.Rand, newItem func() *collection.Item) error {
	n := c.Len()
	op := rng.Intn(20)
	if n == 0 || op < 7 {
		return c.Insert(rng.Intn(n+1), newItem())
	}
	switch {
	case op < 12:
		return c.Move(rng.Intn(n), rng.Intn(n))
	case op < 16:
		_, err := c.RemoveAt(rng.Intn(n))
		return err
	case op < 19:
		_, err := c.Replace(rng.Intn(n), newItem())
		return err
	default:
		items := c.Items()
		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		return c.ResetTo(items[:rng.Intn(len(items)+1)])
	}
}
