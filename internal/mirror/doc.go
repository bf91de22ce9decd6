// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package mirror copies the archive tree and its manifests to an S3 bucket.
package mirror
