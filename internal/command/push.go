// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/aws"
	"github.com/apexsync/apexsync/internal/meta"
	"github.com/apexsync/apexsync/internal/mirror"
	"github.com/apexsync/apexsync/internal/output"
)

// newPutter builds the S3 client push uploads with. Tests replace it.
var newPutter = func(ctx context.Context, opts ...aws.Option) (mirror.ObjectPutter, error) {
	return aws.NewS3(ctx, opts...)
}

// pushCommandAction mirrors the archive tree to an S3 bucket.
func pushCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	client, err := newPutter(ctx,
		aws.WithProfile(cmd.String("profile")),
		aws.WithRegion(cmd.String("region")),
		aws.WithEndpoint(cmd.String("endpoint")))
	if err != nil {
		return err
	}

	m, err := mirror.New(client, cmd.String("bucket"), cmd.String("prefix"))
	if err != nil {
		return err
	}

	res, err := m.Push(ctx, store)
	if err != nil {
		return err
	}

	return output.Emit(stdout(cmd), res, opts, func(w io.Writer) error {
		fmt.Fprintf(w, "Pushed %s objects (%s) to s3://%s/%s\n",
			humanize.Comma(int64(res.Objects)), humanize.Bytes(uint64(res.Bytes)), res.Bucket, res.Prefix)
		return nil
	})
}

func pushCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "push",
		Usage:     "mirror the archive tree to an S3 bucket",
		UsageText: "apexsync push --bucket <name> [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append(NewGlobalFlags(cfg, "push"), NewStoreFlags(cfg, "push")...),
			&cli.StringFlag{
				Name:    "bucket",
				Aliases: []string{"b"},
				Usage:   "destination bucket",
				Sources: chain(cfg, []string{"mirror.bucket"}),
			},
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "key prefix inside the bucket",
				Value:   "apexsync",
				Sources: chain(cfg, []string{"mirror.prefix"}),
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "bucket region",
				Sources: chain(cfg, []string{"mirror.region"}),
			},
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "shared config profile",
				Sources: chain(cfg, []string{"mirror.profile"}),
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "S3 compatible endpoint URL",
				Sources: chain(cfg, []string{"mirror.endpoint"}),
			},
		),
		Action: pushCommandAction,
	}
}
