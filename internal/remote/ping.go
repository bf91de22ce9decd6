// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/apexsync/apexsync/internal/credential"
)

const pingPreview = 500

// PingResult is the outcome of a Ping.
type PingResult struct {
	URL        string        `json:"url" yaml:"url"`
	StatusCode int           `json:"status_code" yaml:"status_code"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Body       string        `json:"body" yaml:"body"`
}

// Ping calls the versioned data endpoint of the instance with the session and
// reports the status and the start of the body. A non-2xx answer is reported
// in the result, not as an error.
func (t *transport) Ping(ctx context.Context, cred credential.Credential) (PingResult, error) {
	res := PingResult{URL: cred.Endpoint(t.dataPath(""))}

	req, err := t.newRequest(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return res, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	status, body, err := t.do(req)
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, Friendly(fmt.Errorf("%w: %w", ErrRequestFailed, err), ErrorContext{Instance: cred.Host(), Operation: "ping"})
	}

	res.StatusCode = status
	res.Body = preview(body, pingPreview)
	return res, nil
}
