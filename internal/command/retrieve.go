// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/meta"
	"github.com/apexsync/apexsync/internal/output"
	"github.com/apexsync/apexsync/internal/retrieve"
)

// retrieveCommandAction submits a retrieve, waits for it and unpacks the
// result into the archive tree.
func retrieveCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %v", GetMeta(cmd).Args[1:])

	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	client, err := newJobClient(cmd, store)
	if err != nil {
		return err
	}

	creds, err := credentials(cmd)
	if err != nil {
		return err
	}

	if timeout := cmd.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	orch := retrieve.New(client, store, creds,
		retrieve.WithInterval(pollInterval(cmd)),
		retrieve.WithMaxAttempts(cmd.Int("max_attempts")),
		retrieve.WithExtension(cmd.String("extension")),
		retrieve.WithProgress(func(j retrieve.Job) {
			log.Debugf("job %s: %s after %d polls", j.ID, j.State, j.Attempts)
		}),
	)

	res, err := orch.RetrieveAndArchive(ctx)
	if err != nil {
		return err
	}

	return output.Retrieve(stdout(cmd), res, opts)
}

func retrieveCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	flags := append(NewGlobalFlags(cfg, "retrieve"), NewStoreFlags(cfg, "retrieve")...)
	flags = append(flags, NewRemoteFlags(cfg, "retrieve")...)

	return &cli.Command{
		Name:      "retrieve",
		Usage:     "retrieve every Apex class into the archive",
		UsageText: "apexsync retrieve [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(flags,
			&cli.DurationFlag{
				Name:    "interval",
				Usage:   "wait between polls (default 1.5s rest, 1s soap)",
				Sources: chain(cfg, keys("retrieve", "interval")),
			},
			&cli.IntFlag{
				Name:    "max_attempts",
				Usage:   "give up after this many polls, 0 for no limit",
				Sources: chain(cfg, keys("retrieve", "max_attempts")),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "give up after this long, 0 for no limit",
				Sources: chain(cfg, keys("retrieve", "timeout")),
			},
		),
		Action: retrieveCommandAction,
	}
}
