// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/credential"
	"github.com/apexsync/apexsync/internal/filters"
	"github.com/apexsync/apexsync/internal/meta"
	"github.com/apexsync/apexsync/internal/output"
	"github.com/apexsync/apexsync/internal/remote"
)

// pinger is implemented by every remote transport.
type pinger interface {
	Ping(ctx context.Context, cred credential.Credential) (remote.PingResult, error)
}

// resolve returns a usable credential or ErrNotConnected.
func resolve(ctx context.Context, cmd *cli.Command) (credential.Credential, error) {
	creds, err := credentials(cmd)
	if err != nil {
		return credential.Credential{}, err
	}
	cred, err := creds.Credential(ctx)
	if err != nil {
		return credential.Credential{}, err
	}
	if !cred.Valid() {
		return credential.Credential{}, credential.ErrNotConnected
	}
	return cred, nil
}

// classesCommandAction lists the org's Apex classes.
func classesCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	cred, err := resolve(ctx, cmd)
	if err != nil {
		return err
	}

	client := remote.NewSOAP(transportOptions(cmd, nil)...)
	classes, err := client.ListClasses(ctx, cred, cmd.Bool("refresh"))
	if err != nil {
		return err
	}

	classes = filters.Apply(classes, cmd.String("filter"))
	return output.Classes(stdout(cmd), classes, opts, time.Now())
}

func classesCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "classes",
		Usage:     "list the org's Apex classes",
		UsageText: "apexsync classes [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append(NewGlobalFlags(cfg, "classes"), NewRemoteFlags(cfg, "classes")...),
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "ignore the cached catalog",
			},
			NewFilterFlag(cfg, "classes"),
		),
		Action: classesCommandAction,
	}
}

// pingCommandAction checks that the instance answers with the session.
func pingCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	cred, err := resolve(ctx, cmd)
	if err != nil {
		return err
	}

	client, err := newJobClient(cmd, nil)
	if err != nil {
		return err
	}
	p, ok := client.(pinger)
	if !ok {
		return fmt.Errorf("transport %s cannot ping", cmd.String("transport"))
	}

	res, err := p.Ping(ctx, cred)
	if err != nil {
		return err
	}
	return output.Ping(stdout(cmd), res, opts)
}

func pingCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "ping",
		Usage:     "check the instance answers with the current session",
		UsageText: "apexsync ping [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  append(NewGlobalFlags(cfg, "ping"), NewRemoteFlags(cfg, "ping")...),
		Action: pingCommandAction,
	}
}
