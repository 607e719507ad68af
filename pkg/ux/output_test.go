// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPrinter_BufferIsPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	assert.True(t, p.Plain())
	assert.False(t, IsTerminal(&buf))
}

func TestPrinter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Title("Popular")
	p.Subtitle("")
	p.Muted("dropped in plain mode")
	p.Row("popular", "20 items", "12 top")
	p.Field("cover", "")
	p.Field("image", "https://img.example.com/1.jpg")
	p.Success("in sync")
	p.Warning("duplicate id")
	p.Box("Item", "Harbor at dawn")

	want := "Popular\n" +
		"popular\t20 items\t12 top\n" +
		"image: https://img.example.com/1.jpg\n" +
		"OK: in sync\n" +
		"WARN: duplicate id\n" +
		"Item: Harbor at dawn\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_StyledOutputKeepsText(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{w: &buf}

	p.Title("Popular")
	p.Row("popular", "20 items")
	p.Box("Item", "Harbor at dawn")

	out := buf.String()
	assert.Contains(t, out, "Popular")
	assert.Contains(t, out, "20 items")
	assert.Contains(t, out, "Harbor at dawn")
}
