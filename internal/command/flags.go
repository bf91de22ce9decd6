// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"os"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/compare"
	"github.com/apexsync/apexsync/internal/remote"
)

// DefaultRoot is the archive root used when nothing else sets one.
const DefaultRoot = "./storage/apex"

// NewGlobalFlags returns the presentation flags every reporting command
// carries.
func NewGlobalFlags(cfgPath string, ns string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Value:   false,
			Sources: chain(cfgPath, keys(ns, "color")),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml)",
			Value:   "text",
			Sources: chain(cfgPath, keys(ns, "output")),
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.IntFlag{
			Name:    "padding",
			Usage:   "padding between text columns",
			Value:   2,
			Hidden:  true,
			Sources: chain(cfgPath, keys(ns, "padding")),
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of columns to sort text output by",
		},
		&cli.BoolFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Value:   false,
			Sources: chain(cfgPath, keys(ns, "titles")),
		},
	}
}

// NewFilterFlag returns the --filter flag of listing commands.
func NewFilterFlag(cfgPath string, ns string) cli.Flag {
	return &cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "comma-separated filters on the listed rows (e.g. status=changes_found)",
		Sources: chain(cfgPath, []string{ns + ".filter"}),
	}
}

// NewStoreFlags returns the flags locating the archive tree.
func NewStoreFlags(cfgPath string, ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "archive root holding current/ and previous/",
			Value:   DefaultRoot,
			Sources: chain(cfgPath, keys(ns, "root"), envVar("APEXSYNC_ROOT")),
		},
		&cli.StringFlag{
			Name:    "extension",
			Aliases: []string{"e"},
			Usage:   "artifact file extension",
			Value:   compare.DefaultExtension,
			Sources: chain(cfgPath, keys(ns, "extension")),
		},
		&cli.StringFlag{
			Name:    "dir",
			Usage:   "directory under " + archive.CurrentDir + "/ that bare artifact names resolve in",
			Value:   compare.DefaultDir,
			Sources: chain(cfgPath, keys(ns, "dir")),
		},
	}
}

// NewRemoteFlags returns the flags selecting and configuring the transport.
func NewRemoteFlags(cfgPath string, ns string) []cli.Flag {
	return append(NewSessionFlags(cfgPath, ns),
		&cli.StringFlag{
			Name:    "transport",
			Usage:   "remote transport (rest, soap)",
			Value:   "rest",
			Sources: chain(cfgPath, keys(ns, "transport"), envVar("APEXSYNC_TRANSPORT")),
			Validator: func(value string) error {
				return FlagValidators(value, TransportValidator)
			},
		},
		&cli.StringFlag{
			Name:    "api_version",
			Usage:   "Metadata API version. Defaults to the one in retrieved descriptors or " + remote.DefaultAPIVersion,
			Sources: chain(cfgPath, keys(ns, "api_version"), envVar("APEXSYNC_API_VERSION")),
		},
		&cli.IntFlag{
			Name:    "retries",
			Usage:   "HTTP retries on connection errors and 5xx answers",
			Value:   3,
			Sources: chain(cfgPath, keys(ns, "retries")),
		},
	)
}

// NewSessionFlags returns the flags locating the stored session.
func NewSessionFlags(cfgPath string, ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "instance_url",
			Aliases: []string{"i"},
			Usage:   "instance URL used when the environment does not name one",
			Sources: chain(cfgPath, keys(ns, "instance_url")),
		},
		&cli.StringFlag{
			Name:    "session_file",
			Usage:   "session file written by login",
			Sources: chain(cfgPath, keys(ns, "session_file"), envVar("APEXSYNC_SESSION_FILE")),
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Aliases: []string{"p"},
			Usage:   "passphrase of an encrypted session file",
			Sources: cli.NewValueSourceChain(envVar("APEXSYNC_PASSPHRASE")),
		},
	}
}

// keys returns the namespaced and global config keys for name.
func keys(ns, name string) []string {
	if ns == "" {
		return []string{name}
	}
	return []string{ns + "." + name, name}
}

// chain builds a value source chain of the given extra sources followed by
// each config key in order. Non-empty env vars therefore win over config.
// Config keys are skipped when no config file was loaded.
func chain(cfgPath string, cfgKeys []string, extra ...cli.ValueSource) cli.ValueSourceChain {
	c := cli.NewValueSourceChain(extra...)
	if cfgPath == "" {
		return c
	}
	for _, k := range cfgKeys {
		c.Chain = append(c.Chain, yaml.YAML(k, altsrc.StringSourcer(cfgPath)))
	}
	return c
}

// envValueSource reads an env var, treating a set but empty value as unset so
// it never shadows a config key or the flag default.
type envValueSource struct {
	key string
}

func envVar(key string) cli.ValueSource {
	return &envValueSource{key: key}
}

func (e *envValueSource) Lookup() (string, bool) {
	v, ok := os.LookupEnv(e.key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func (e *envValueSource) IsFromEnv() bool { return true }

func (e *envValueSource) Key() string { return e.key }

func (e *envValueSource) String() string {
	return fmt.Sprintf("environment variable %q", e.key)
}

func (e *envValueSource) GoString() string {
	return fmt.Sprintf("&envValueSource{key:%q}", e.key)
}
