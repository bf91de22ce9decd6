// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package retrieve runs one retrieve end to end: resolve the session, submit
// the job, poll it on a fixed interval until the org reports it finished, and
// unpack the returned zip into an archive.Store.
//
// Polling has no built-in deadline. Callers bound it with the context or
// WithMaxAttempts. A retrieve either succeeds as a whole or returns a single
// error; an unpack that fails part way leaves the files already written and
// says how many in its ExtractionError.
package retrieve
