// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/AleutianAI/gallery/pkg/ux"
	"github.com/AleutianAI/gallery/services/gallery/collection"
	"github.com/AleutianAI/gallery/services/gallery/config"
	"github.com/AleutianAI/gallery/services/gallery/populate"
	"github.com/AleutianAI/gallery/services/gallery/registry"
	"github.com/AleutianAI/gallery/services/gallery/telemetry"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Each call gets its own app so tests
// can run commands side by side.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "gallery",
		Short: "Browse featured photo groups and their top items",
		Long: `gallery loads the featured photo groups (popular, editors picks,
fresh today...) and keeps a window of each group's top items in sync
as the group changes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(context.Background())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.gallery/gallery.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "override logging.format (auto, text, json)")

	rootCmd.AddCommand(
		newGroupsCmd(a),
		newShowCmd(a),
		newItemCmd(a),
		newSimulateCmd(a),
		newWatchCmd(a),
		newMetricsCmd(a),
	)
	return rootCmd
}

// --- Browsing ---

func newGroupsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the groups in load order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.registry.GroupsFor(registry.AllGroupsID)
			if err != nil {
				return err
			}
			p := ux.NewPrinter(cmd.OutOrStdout())
			for _, g := range groups {
				snap := g.Snapshot()
				p.Row(g.ID, g.Title,
					fmt.Sprintf("%d items", len(snap.Items)),
					fmt.Sprintf("%d top", len(snap.TopItems)),
				)
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show a group's cover and top items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.group(args[0])
			if err != nil {
				return err
			}
			p := ux.NewPrinter(cmd.OutOrStdout())
			p.Title(g.Title)
			p.Subtitle(g.Subtitle)
			p.Field("cover", g.CoverDescription)
			p.Field("cover image", a.imageURL(&g.CoverImage))

			snap := g.Snapshot()
			items := snap.TopItems
			if all {
				items = snap.Items
			}
			p.Muted(fmt.Sprintf("%d of %d items", len(items), len(snap.Items)))
			for i, item := range items {
				p.Row(strconv.Itoa(i+1), item.ID(), item.Title, item.Subtitle)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every item, not just the top items")
	return cmd
}

func newItemCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "item <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, g, ok := a.registry.Item(args[0])
			if !ok {
				return fmt.Errorf("item %q not found", args[0])
			}
			p := ux.NewPrinter(cmd.OutOrStdout())
			if matches := a.registry.ItemMatches(args[0]); len(matches) > 1 {
				p.Warning(fmt.Sprintf("%d items share id %q, showing the one in %s", len(matches), args[0], g.ID))
			}
			p.Box(item.Title, item.Content)
			p.Field("group", g.ID)
			p.Field("by", item.Subtitle)
			p.Field("description", item.Description)
			p.Field("image", a.imageURL(&item.Image))
			return nil
		},
	}
}

// imageURL resolves ref against the configured image base. Unresolvable
// references fall back to their raw path.
func (a *app) imageURL(ref *collection.ImageRef) string {
	u, err := ref.Resolve(a.imageBase)
	if err != nil {
		a.logger.Debug("image not resolvable", "path", ref.Path(), "error", err)
		return ref.Path()
	}
	if u == nil {
		return ""
	}
	return u.String()
}

// --- Live updates ---

func newSimulateCmd(a *app) *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Apply random edits to groups and check their top items stay in sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := a.registry.Groups()
			if opts.group != "" {
				g, err := a.group(opts.group)
				if err != nil {
					return err
				}
				groups = []*registry.Group{g}
			}

			p := ux.NewPrinter(cmd.OutOrStdout())
			for _, g := range groups {
				report, err := simulate(g, opts)
				if err != nil {
					return err
				}
				a.logger.Debug("simulation finished", "group", g.ID, "events", report.total())
				p.Row(g.ID, report.String(), fmt.Sprintf("%d items", report.finalLen))
			}
			p.Success(fmt.Sprintf("%d groups stayed in sync", len(groups)))
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.steps, "steps", 200, "edits per group")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&opts.group, "group", "", "only simulate this group")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload groups whenever the seed file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Seed.Source != config.SourceFile {
				return fmt.Errorf("watch needs seed.source: file (or %s)", config.EnvSeedFile)
			}
			p := ux.NewPrinter(cmd.OutOrStdout())
			w, err := populate.NewWatcher(populate.NewFile(a.cfg.Seed.File), a.registry,
				populate.WithWatcherLogger(a.logger),
				populate.WithReloadHook(func(res populate.ReloadResult) {
					if res.Err != nil {
						p.Warning(res.Err.Error())
						return
					}
					p.Success(fmt.Sprintf("reloaded %d groups", len(res.Updated)))
				}),
			)
			if err != nil {
				return err
			}
			defer w.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			p.Muted("watching " + a.cfg.Seed.File + ", press Ctrl+C to stop")
			return w.Start(ctx)
		},
	}
}

// --- Diagnostics ---

func newMetricsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print collected metrics in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return telemetry.Gather(cmd.OutOrStdout(), nil)
		},
	}
}
