// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/gallery/services/gallery/collection"
	"github.com/AleutianAI/gallery/services/gallery/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
groups:
  - {id: popular, title: Popular}
  - {id: editors, title: Editors Picks}
seed:
  source: placeholder
  items_per_group: 15
  image_base: https://img.example.com/
logging:
  level: error
  format: text
telemetry:
  trace_exporter: none
  metric_exporter: none
`

// run executes the CLI with args against a temp config and returns stdout.
func run(t *testing.T, configYAML string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gallery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGroupsCommand(t *testing.T) {
	out, err := run(t, testConfig, "groups")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "popular\tPopular\t15 items\t12 top", lines[0])
	assert.Equal(t, "editors\tEditors Picks\t15 items\t12 top", lines[1])
}

func TestShowCommand(t *testing.T) {
	out, err := run(t, testConfig, "show", "editors")
	require.NoError(t, err)

	assert.Contains(t, out, "Editors Picks\n")
	assert.Contains(t, out, "cover image: https://img.example.com/placeholder/editors/1.jpg")
	assert.Contains(t, out, "1\teditors-01\tEditors Picks #1\tPhotographer 1")
	assert.Contains(t, out, "12\teditors-12\t")
	assert.NotContains(t, out, "editors-13")

	out, err = run(t, testConfig, "show", "editors", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "15\teditors-15\t")

	_, err = run(t, testConfig, "show", "nope")
	assert.ErrorContains(t, err, `unknown group "nope"`)
}

func TestItemCommand(t *testing.T) {
	out, err := run(t, testConfig, "item", "popular-03")
	require.NoError(t, err)
	assert.Contains(t, out, "Popular #3: ")
	assert.Contains(t, out, "group: popular")
	assert.Contains(t, out, "image: https://img.example.com/placeholder/popular/3.jpg")

	_, err = run(t, testConfig, "item", "missing")
	assert.ErrorContains(t, err, `item "missing" not found`)
}

func TestSimulateCommand(t *testing.T) {
	out, err := run(t, testConfig, "simulate", "--steps", "150", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: 2 groups stayed in sync")
	assert.Contains(t, out, "popular\tinsert=")

	_, err = run(t, testConfig, "simulate", "--group", "nope")
	assert.Error(t, err)
}

func TestWatchRequiresFileSource(t *testing.T) {
	_, err := run(t, testConfig, "watch")
	assert.ErrorContains(t, err, "seed.source: file")
}

func TestMetricsCommand(t *testing.T) {
	_, err := run(t, testConfig, "simulate", "--steps", "20")
	require.NoError(t, err)

	out, err := run(t, testConfig, "metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "gallery_window_events_total")
}

func TestSetupInstallsDefaultSlogLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err := run(t, testConfig, "--log-level", "debug", "groups")
	require.NoError(t, err)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	_, err = run(t, testConfig, "groups")
	require.NoError(t, err)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelWarn), "testConfig logs at error level")
}

func TestInvalidConfigFails(t *testing.T) {
	_, err := run(t, "seed:\n  source: carrier-pigeon\n", "groups")
	assert.Error(t, err)
}

func TestSimulate_KeepsGroupInSync(t *testing.T) {
	g, err := registry.NewGroup(registry.GroupSpec{ID: "g", Title: "G"}, registry.WithTopItemsCapacity(3))
	require.NoError(t, err)

	report, err := simulate(g, simulateOptions{steps: 300, seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 300, report.total(), "every step emits exactly one source event")
	assert.Equal(t, g.Items().Len(), report.finalLen)
	assert.NoError(t, g.Verify())

	for _, k := range collection.Kinds {
		assert.Contains(t, report.String(), string(k)+"=")
	}
}
