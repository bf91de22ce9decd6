// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command defines the CLI command set for apexsync. It wires flags,
// validators, actions, and shell completion for subcommands.
//
// Flag values resolve from the command line, then the environment, then the
// YAML config file, where a key namespaced by the subcommand ("compare.root")
// wins over the bare key ("root").
package command
