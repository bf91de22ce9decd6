// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package differ renders differences between retrieve manifests and hosts
// the interactive artifact picker.
package differ
