// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package compare classifies each artifact in an archive.Store against its
// latest archived version and aggregates the results.
package compare
