// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package config provides loading and typed accessors for apexsync's user
// configuration. The configuration is a YAML document located by, in order:
//   - the APEXSYNC_CFG_FILE environment variable
//   - ./apexsync.yaml in the working directory
//   - $XDG_CONFIG_HOME/apexsync.yaml (Linux), the platform equivalent of
//     os.UserConfigDir elsewhere
//
// Keys are dotted paths ("mirror.bucket"). When Namespace is set, the
// namespaced key ("retrieve.interval") is preferred over the bare key.
package config
