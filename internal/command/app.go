// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/config"
	"github.com/apexsync/apexsync/internal/meta"
)

// InitApp builds the root command. Options adjust the shared meta.Meta before
// the subcommands are built.
func InitApp(ctx context.Context, args []string, opts ...func(*meta.Meta)) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary is the subcommand and also
	// the namespace key used when retrieving config values. arg[1] could be
	// -h/--help, so ignore it if it appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, _ := config.Load(ns) //nolint
	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}
	for _, opt := range opts {
		opt(&meta)
	}

	app := &cli.Command{
		Name:  "apexsync",
		Usage: "Apex class retrieve, archive and compare",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "apexsync version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		classesCommandBuilder(meta),
		compareCommandBuilder(meta),
		loginCommandBuilder(meta),
		pingCommandBuilder(meta),
		pruneCommandBuilder(meta),
		pushCommandBuilder(meta),
		retrieveCommandBuilder(meta),
		rotateCommandBuilder(meta),
		sessionCommandBuilder(meta),
		statusCommandBuilder(meta),
		summaryCommandBuilder(meta),
		textdiffCommandBuilder(meta),
		completionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
