// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package remote talks to the org's Metadata API. JobClient is the
// transport-neutral view of a retrieve (submit a job, poll it); REST and SOAP
// implement it. SOAP also lists the ApexClass catalog, and both transports
// can ping the instance.
//
// HTTP calls go through a retrying client: connection errors, 429s and 5xx
// answers are retried a few times before the last answer is classified.
// Failed remote jobs are never resubmitted here.
package remote
