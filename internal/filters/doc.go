// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package filters selects rows of a listing with --filter expressions.
//
// A filter is a key, an operator and a target. Several filters are joined
// with a comma, or with APEXSYNC_FILTER_DELIM when a target contains commas.
// A row must match every filter.
//
// Operators, each negated with a leading '!':
//
//   - = : exact match, numeric for numbers
//   - ~ : case-insensitive match
//   - ^ : prefix match
//   - < : less than, numeric for numbers
//   - > : greater than, numeric for numbers
//   - @ : substring, or membership for arrays and objects
//   - / : regular expression match
//
// A key alone keeps rows where the value is present and not empty, zero or
// false. Keys are the JSON field names of the row and may drill into nested
// values with dots or brackets ("changes.0.type", "changes[0].type").
//
// Examples:
//
//   - "status=changes_found"
//   - "changeCount>2"
//   - "fileName!^Test"
//   - "name/Controller$"
package filters
