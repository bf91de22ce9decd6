// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package output renders command results as text, JSON or YAML. Text output
// for list-shaped results goes through Table, which sorts rows and colors
// alternating lines; single results render as key/value blocks or unified
// change listings.
package output
