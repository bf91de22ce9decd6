// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/differ"
	"github.com/apexsync/apexsync/internal/meta"
	"github.com/apexsync/apexsync/internal/output"
)

// rotateCommandAction moves every current artifact into previous/ under one
// stamp.
func rotateCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	res, err := store.RotateAll()
	if err != nil {
		return err
	}
	log.Debugf("rotated %d files at %d", res.Moved, res.Timestamp)

	return output.Rotate(stdout(cmd), res, opts)
}

func rotateCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "rotate",
		Usage:     "move every current artifact into previous/",
		UsageText: "apexsync rotate [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  append(NewGlobalFlags(cfg, "rotate"), NewStoreFlags(cfg, "rotate")...),
		Action: rotateCommandAction,
	}
}

// pruneCommandAction drops all but the newest archived version of each
// artifact and any leftover temp files.
func pruneCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	res, err := store.Prune()
	if err != nil {
		return err
	}

	return output.Prune(stdout(cmd), res, opts)
}

func pruneCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "prune",
		Usage:     "keep only the newest archived version of each artifact",
		UsageText: "apexsync prune [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  append(NewGlobalFlags(cfg, "prune"), NewStoreFlags(cfg, "prune")...),
		Action: pruneCommandAction,
	}
}

// status is what the status command reports.
type status struct {
	Root        string             `json:"root" yaml:"root"`
	JobID       string             `json:"job_id" yaml:"job_id"`
	RetrievedAt *time.Time         `json:"retrieved_at,omitempty" yaml:"retrieved_at,omitempty"`
	Files       int                `json:"files" yaml:"files"`
	Archived    int                `json:"archived" yaml:"archived"`
	Changes     differ.FileChanges `json:"changes" yaml:"changes"`
}

// statusCommandAction reports the last retrieve and what it changed against
// the one before. --diff prints the structural manifest diff instead.
func statusCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	latest, err := store.ReadManifest(archive.ManifestFile)
	if err != nil {
		return err
	}
	if latest == nil {
		return fmt.Errorf("no retrieve recorded under %s", store.Root())
	}
	older, err := store.ReadManifest(archive.PreviousManifestFile)
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if cmd.Bool("diff") {
		_, err := differ.Manifests(w, older, latest, differ.Options{
			Ignore:   cmd.StringSlice("ignore"),
			Coloring: opts.Color,
		})
		return err
	}

	archived, err := store.List(archive.PreviousDir)
	if err != nil {
		return err
	}

	st := status{
		Root:        store.Root(),
		JobID:       latest.JobID,
		RetrievedAt: &latest.RetrievedAt,
		Files:       len(latest.Files),
		Archived:    len(archived),
		Changes:     differ.Files(older, latest),
	}

	return output.Emit(w, st, opts, func(w io.Writer) error {
		output.KeyValues(w, []output.Pair{
			{Key: "Root", Value: st.Root},
			{Key: "Job", Value: st.JobID},
			{Key: "Retrieved", Value: humanize.RelTime(latest.RetrievedAt, store.Now(), "ago", "from now")},
			{Key: "Files", Value: humanize.Comma(int64(st.Files))},
			{Key: "Archived", Value: humanize.Comma(int64(st.Archived))},
			{Key: "Added", Value: len(st.Changes.Added)},
			{Key: "Removed", Value: len(st.Changes.Removed)},
			{Key: "Modified", Value: len(st.Changes.Modified)},
		})
		if older == nil {
			fmt.Fprintln(w, "No earlier retrieve to compare with.")
		}
		return nil
	})
}

func statusCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "status",
		Usage:     "show the last retrieve and what it changed",
		UsageText: "apexsync status [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append(NewGlobalFlags(cfg, "status"), NewStoreFlags(cfg, "status")...),
			&cli.BoolFlag{
				Name:    "diff",
				Aliases: []string{"d"},
				Usage:   "print a structural diff of the last two manifests",
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "manifest keys left out of --diff",
				Value: []string{"retrieved_at"},
			},
		),
		Action: statusCommandAction,
	}
}
