// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package archive owns the on-disk artifact tree. A Store root holds two
// subtrees:
//
//	<root>/current/   the latest retrieved artifacts, overwritten each retrieve
//	<root>/previous/  at most one archived version per artifact
//
// Archived versions are named <base>_<unixMillis><ext> and live in the same
// relative directory under previous/ as their artifact does under current/.
// The base and extension are split at the last "." of the file name, so
// Foo.cls archives as Foo_1700000000000.cls and Foo.cls-meta.xml archives as
// Foo.cls-meta_1700000000000.xml.
//
// WriteCurrent archives the pre-overwrite content of a changed file before
// replacing it. RotateAll moves the whole current/ tree into previous/ in one
// pass. The two policies are not mixed within a single retrieve.
//
// A retrieve manifest (manifest.json) records the job id, time and content
// hashes of the last retrieve; the one before it is kept as
// manifest.previous.json.
package archive
