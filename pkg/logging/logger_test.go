// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestLogger_ExporterRespectsLevel(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelWarn, Quiet: true, Service: "test", Exporter: exporter})
	defer logger.Close()

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept", "group_id", "popular")
	logger.Error("also kept", slog.Int("index", 3))

	entries := exporter.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "popular", entries[0].Attrs["group_id"])
	assert.Equal(t, "test", entries[0].Service)
	assert.Equal(t, int64(3), entries[1].Attrs["index"])
	assert.Equal(t, []string{"also kept"}, exporter.Messages(LevelError))
}

func TestLogger_WithSharesExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})
	child := logger.With("group_id", "editors")

	child.Info("child message")
	require.Len(t, exporter.Entries(), 1)
	assert.Equal(t, "child message", exporter.Entries()[0].Message)
}

func TestLogger_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Quiet: true, LogDir: dir, Service: "filetest"})
	logger.Info("written to file", "key", "value")
	require.NoError(t, logger.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "filetest_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"written to file"`))
	assert.True(t, strings.Contains(string(data), `"service":"filetest"`))
}

func TestDefault_InfoLevel(t *testing.T) {
	l := Default()
	require.NotNil(t, l.Slog())
	assert.True(t, l.Slog().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, l.Slog().Enabled(context.Background(), slog.LevelDebug))
	assert.NoError(t, l.Close())
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing happens")
	assert.NoError(t, logger.Close())
}

func TestArgsToMap(t *testing.T) {
	m := argsToMap([]any{"a", 1, slog.String("b", "two"), "dangling"})
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
}
