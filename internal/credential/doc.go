// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package credential supplies the session (access token and instance URL)
// used to talk to an org. Providers are tried in order by Chain: the
// environment first, then the session file written by the login command. A
// session file may be sealed with a passphrase.
package credential
