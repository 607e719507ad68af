// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the gallery CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette - deep ocean teals with standard semantic colors.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text

	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorTealBright),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Printer writes styled output, or plain tab-separated text when the
// destination is not a terminal.
//
// Thread Safety: not safe for concurrent use.
type Printer struct {
	w     io.Writer
	plain bool
}

// NewPrinter returns a Printer for w. Output is plain unless w is a
// terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, plain: !IsTerminal(w)}
}

// NewPlainPrinter returns a Printer that never styles.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w, plain: true}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Plain reports whether styling is disabled.
func (p *Printer) Plain() bool {
	return p.plain
}

// Title prints a styled title.
func (p *Printer) Title(text string) {
	if p.plain {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Subtitle prints secondary heading text. Empty text prints nothing.
func (p *Printer) Subtitle(text string) {
	if text == "" {
		return
	}
	if p.plain {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintln(p.w, Styles.Subtitle.Render(text))
}

// Muted prints secondary text. Plain output drops it.
func (p *Printer) Muted(text string) {
	if p.plain {
		return
	}
	fmt.Fprintln(p.w, Styles.Muted.Render(text))
}

// Success prints a message with a checkmark.
func (p *Printer) Success(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Success.Render(string(IconSuccess)), Styles.Success.Render(text))
}

// Warning prints a warning message.
func (p *Printer) Warning(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Warning.Render(string(IconWarning)), Styles.Warning.Render(text))
}

// Row prints one record. Plain output joins fields with tabs; styled
// output highlights the first field and mutes the rest.
func (p *Printer) Row(fields ...string) {
	if p.plain {
		fmt.Fprintln(p.w, strings.Join(fields, "\t"))
		return
	}
	if len(fields) == 0 {
		fmt.Fprintln(p.w)
		return
	}
	parts := make([]string, 0, len(fields))
	parts = append(parts, Styles.Highlight.Render(fields[0]))
	for _, f := range fields[1:] {
		parts = append(parts, Styles.Muted.Render(f))
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Muted.Render(string(IconBullet)), strings.Join(parts, "  "))
}

// Field prints a "label: value" pair. Empty values are skipped.
func (p *Printer) Field(label, value string) {
	if value == "" {
		return
	}
	if p.plain {
		fmt.Fprintf(p.w, "%s: %s\n", label, value)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Muted.Render(label+":"), value)
}

// Box prints content in a rounded box under a title.
func (p *Printer) Box(title, content string) {
	if p.plain {
		fmt.Fprintf(p.w, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Width(60).Render(Styles.Title.Render(title)+"\n"+content))
}
