// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/compare"
	"github.com/apexsync/apexsync/internal/credential"
	"github.com/apexsync/apexsync/internal/log"
	"github.com/apexsync/apexsync/internal/meta"
	"github.com/apexsync/apexsync/internal/output"
	"github.com/apexsync/apexsync/internal/remote"
	"github.com/apexsync/apexsync/internal/retrieve"
)

// soapInterval is the poll interval used with the SOAP transport.
const soapInterval = time.Second

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// stdout returns the writer results go to.
func stdout(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// outputOptions collects the presentation flags.
func outputOptions(cmd *cli.Command) (output.Options, error) {
	format, err := output.ParseFormat(cmd.String("output"))
	if err != nil {
		return output.Options{}, err
	}
	return output.Options{
		Format:  format,
		Color:   cmd.Bool("color"),
		Titles:  cmd.Bool("titles"),
		Padding: cmd.Int("padding"),
		Sort:    cmd.String("sort"),
	}, nil
}

// openStore opens the archive tree named by --root.
// ErrNoRoot is returned when the archive root resolves to an empty path.
var ErrNoRoot = errors.New("archive root is empty")

func openStore(cmd *cli.Command) (*archive.Store, error) {
	root := strings.TrimSpace(cmd.String("root"))
	if root == "" {
		return nil, ErrNoRoot
	}
	return archive.New(root)
}

func newComparator(cmd *cli.Command, store *archive.Store) *compare.Comparator {
	return compare.New(store,
		compare.WithDir(cmd.String("dir")),
		compare.WithExtension(cmd.String("extension")))
}

// sessionFile returns the session file named by --session_file or the
// default location.
func sessionFile(cmd *cli.Command) (credential.SessionFile, error) {
	path := cmd.String("session_file")
	if path == "" {
		var err error
		if path, err = credential.DefaultSessionPath(); err != nil {
			return credential.SessionFile{}, err
		}
	}
	return credential.SessionFile{Path: path, Passphrase: cmd.String("passphrase")}, nil
}

// credentials returns the provider chain: the environment first, then the
// session file written by login.
func credentials(cmd *cli.Command) (credential.Provider, error) {
	sf, err := sessionFile(cmd)
	if err != nil {
		return nil, err
	}
	return credential.Chain{
		credential.Env{InstanceURL: cmd.String("instance_url")},
		promptingSession{file: sf, prompter: GetMeta(cmd).Prompt()},
	}, nil
}

// promptingSession asks for the passphrase of an encrypted session file that
// was opened without one.
type promptingSession struct {
	file     credential.SessionFile
	prompter *credential.Prompter
}

func (p promptingSession) Credential(ctx context.Context) (credential.Credential, error) {
	c, err := p.file.Credential(ctx)
	if !errors.Is(err, credential.ErrPassphraseRequired) {
		return c, err
	}

	pass, perr := p.prompter.Secret("Session passphrase: ")
	if perr != nil || pass == "" {
		return credential.Credential{}, err
	}
	p.file.Passphrase = pass
	return p.file.Credential(ctx)
}

// transportOptions configures the HTTP client and API version. Without
// --api_version the version declared by retrieved descriptors is used.
func transportOptions(cmd *cli.Command, store *archive.Store) []remote.Option {
	opts := []remote.Option{remote.WithHTTPClient(remote.NewHTTPClient(cmd.Int("retries")))}

	version := cmd.String("api_version")
	if version == "" && store != nil {
		if v, ok, err := store.APIVersion(); err == nil && ok {
			log.Debugf("api version %s from descriptors", v)
			version = v
		}
	}
	if version != "" {
		opts = append(opts, remote.WithAPIVersion(version))
	}
	return opts
}

// newJobClient builds the transport named by --transport.
func newJobClient(cmd *cli.Command, store *archive.Store) (remote.JobClient, error) {
	return remote.New(cmd.String("transport"), transportOptions(cmd, store)...)
}

// pollInterval returns --interval or the transport's default.
func pollInterval(cmd *cli.Command) time.Duration {
	if d := cmd.Duration("interval"); d > 0 {
		return d
	}
	if cmd.String("transport") == "soap" {
		return soapInterval
	}
	return retrieve.DefaultInterval
}
