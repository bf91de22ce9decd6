// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/apexsync/apexsync/internal/config"
	"github.com/apexsync/apexsync/internal/credential"
)

// Meta contains runtime metadata shared by commands. It carries CLI arguments,
// loaded configuration, context and the starting working directory.
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string

	// Prompter asks for values commands cannot get from flags or the
	// environment. Nil means stdin and stderr.
	Prompter *credential.Prompter
}

// Prompt returns the configured Prompter or one on stdin and stderr.
func (m Meta) Prompt() *credential.Prompter {
	if m.Prompter != nil {
		return m.Prompter
	}
	return credential.NewPrompter()
}
