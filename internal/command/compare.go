// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/compare"
	"github.com/apexsync/apexsync/internal/diff"
	"github.com/apexsync/apexsync/internal/differ"
	"github.com/apexsync/apexsync/internal/filters"
	"github.com/apexsync/apexsync/internal/meta"
	"github.com/apexsync/apexsync/internal/output"
)

// pick is swapped out by tests.
var pick = differ.Pick

// compareCommandAction compares one artifact, every artifact (--all) or an
// interactively chosen one (--pick).
func compareCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %v", GetMeta(cmd).Args[1:])

	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	cmp := newComparator(cmd, store)
	w := stdout(cmd)

	switch {
	case cmd.Bool("all"):
		results, err := cmp.CompareAll()
		if err != nil {
			return err
		}
		return output.Results(w, filters.Apply(results, cmd.String("filter")), opts)

	case cmd.Bool("pick"):
		results, err := cmp.CompareAll()
		if err != nil {
			return err
		}
		results = filters.Apply(results, cmd.String("filter"))
		items := make([]differ.Item, 0, len(results))
		for _, r := range results {
			items = append(items, differ.Item{Label: r.Path, Detail: string(r.Status)})
		}
		idx, err := pick("Select an artifact to compare:", items)
		if errors.Is(err, differ.ErrNoSelection) {
			return nil
		}
		if err != nil {
			return err
		}
		return output.Result(w, results[idx], opts)

	case cmd.NArg() == 1:
		res, err := cmp.Compare(cmd.Args().First())
		if err != nil {
			return err
		}
		return output.Result(w, res, opts)
	}

	return fmt.Errorf("compare needs one artifact name, --all or --pick")
}

func compareCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "compare",
		Usage:     "compare artifacts against their archived versions",
		UsageText: "apexsync compare <name> | --all | --pick [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append(NewGlobalFlags(cfg, "compare"), NewStoreFlags(cfg, "compare")...),
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "compare every artifact in current/",
			},
			&cli.BoolFlag{
				Name:  "pick",
				Usage: "choose the artifact interactively",
			},
			NewFilterFlag(cfg, "compare"),
		),
		Action: compareCommandAction,
	}
}

// summaryCommandAction aggregates the comparison of every artifact.
func summaryCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	sum, err := newComparator(cmd, store).Summary()
	if err != nil {
		return err
	}
	return output.Summary(stdout(cmd), sum, opts)
}

func summaryCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "summary",
		Usage:     "count changed, new and unchanged artifacts",
		UsageText: "apexsync summary [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  append(NewGlobalFlags(cfg, "summary"), NewStoreFlags(cfg, "summary")...),
		Action: summaryCommandAction,
	}
}

// textdiffCommandAction runs the whitespace normalizing diff over two files.
func textdiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	if cmd.NArg() != 2 {
		return fmt.Errorf("textdiff needs exactly two files")
	}

	var sources [2]string
	for i, name := range cmd.Args().Slice() {
		b, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("%w: %w", compare.ErrComparisonFailed, err)
		}
		sources[i] = string(b)
	}

	return output.TextChanges(stdout(cmd), diff.Text(sources[0], sources[1]), opts)
}

func textdiffCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "textdiff",
		Usage:     "diff two files ignoring layout and whitespace",
		UsageText: "apexsync textdiff <old> <new> [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  NewGlobalFlags(meta.Config.Source, "textdiff"),
		Action: textdiffCommandAction,
	}
}
