// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/credential"
	"github.com/apexsync/apexsync/internal/meta"
	"github.com/apexsync/apexsync/internal/output"
)

// loginCommandAction prompts for an instance URL and access token and stores
// them in the session file, sealed when --encrypt is given.
func loginCommandAction(ctx context.Context, cmd *cli.Command) error {
	sf, err := sessionFile(cmd)
	if err != nil {
		return err
	}
	p := GetMeta(cmd).Prompt()

	url := cmd.String("instance_url")
	if url == "" {
		if url, err = p.Line("Instance URL: "); err != nil {
			return err
		}
	}
	token, err := p.Secret("Access token: ")
	if err != nil {
		return err
	}

	cred := credential.Credential{Token: token, InstanceURL: strings.TrimRight(url, "/")}
	if !cred.Valid() {
		return fmt.Errorf("%w: instance URL and access token are both required", credential.ErrNotConnected)
	}

	if cmd.Bool("encrypt") && sf.Passphrase == "" {
		pass, err := p.Secret("Session passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := p.Secret("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass == "" || pass != confirm {
			return errors.New("passphrases are empty or do not match")
		}
		sf.Passphrase = pass
	}

	if err := sf.Save(cred); err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Session for %s saved to %s.\n", cred.Host(), sf.Path)
	return nil
}

func loginCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "store an instance URL and access token",
		UsageText: "apexsync login [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(NewSessionFlags(meta.Config.Source, "login"),
			&cli.BoolFlag{
				Name:  "encrypt",
				Usage: "seal the session file with a passphrase",
			},
		),
		Action: loginCommandAction,
	}
}

// sessionInfo is what the session command reports.
type sessionInfo struct {
	Path        string `json:"path" yaml:"path"`
	Encrypted   bool   `json:"encrypted" yaml:"encrypted"`
	InstanceURL string `json:"instance_url" yaml:"instance_url"`
	Token       string `json:"token" yaml:"token"`
}

// sessionCommandAction shows the stored session with the token masked, or
// removes it with --clear.
func sessionCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	sf, err := sessionFile(cmd)
	if err != nil {
		return err
	}
	w := stdout(cmd)

	if cmd.Bool("clear") {
		if err := sf.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(w, "Session %s removed.\n", sf.Path)
		return nil
	}

	encrypted, err := sf.Encrypted()
	if errors.Is(err, fs.ErrNotExist) {
		return credential.ErrNotConnected
	}
	if err != nil {
		return err
	}

	cred, err := promptingSession{file: sf, prompter: GetMeta(cmd).Prompt()}.Credential(ctx)
	if err != nil {
		return err
	}

	info := sessionInfo{
		Path:        sf.Path,
		Encrypted:   encrypted,
		InstanceURL: cred.InstanceURL,
		Token:       credential.Mask(cred.Token),
	}
	return output.Emit(w, info, opts, func(w io.Writer) error {
		output.KeyValues(w, []output.Pair{
			{Key: "Path", Value: info.Path},
			{Key: "Encrypted", Value: info.Encrypted},
			{Key: "Instance", Value: info.InstanceURL},
			{Key: "Token", Value: info.Token},
		})
		return nil
	})
}

func sessionCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	return &cli.Command{
		Name:      "session",
		Usage:     "show or clear the stored session",
		UsageText: "apexsync session [--clear] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append(NewGlobalFlags(cfg, "session"), NewSessionFlags(cfg, "session")...),
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "remove the session file",
			},
		),
		Action: sessionCommandAction,
	}
}
