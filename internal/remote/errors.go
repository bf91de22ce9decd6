// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSubmissionFailed is returned when the org rejects a retrieve request
	// or answers without a job id.
	ErrSubmissionFailed = errors.New("retrieve submission failed")
	// ErrPollFailed is returned when a status check cannot be completed.
	ErrPollFailed = errors.New("retrieve status check failed")
	// ErrRequestFailed is returned by the auxiliary calls (catalog, ping).
	ErrRequestFailed = errors.New("request failed")
	// ErrUnknownTransport is returned by New for an unsupported transport.
	ErrUnknownTransport = errors.New("unknown transport")
)

// ErrorContext carries input context for improving API error messages.
type ErrorContext struct {
	Instance   string
	Operation  string // e.g., "submit retrieve", "check retrieve status"
	StatusCode int
	Detail     string // fault string or body preview from the response
}

// Friendly wraps err with a contextual, operator-facing message while
// preserving it for errors.Is/As.
func Friendly(err error, ctx ErrorContext) error {
	if err == nil {
		return nil
	}

	op := nonEmpty(ctx.Operation, "request")
	instance := nonEmpty(ctx.Instance, "<unknown>")
	detail := ""
	if ctx.Detail != "" {
		detail = ": " + ctx.Detail
	}

	switch {
	case ctx.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s on %s: session rejected (401). Run apexsync login or set APEXSYNC_ACCESS_TOKEN%s: %w",
			op, instance, detail, err)

	case ctx.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s on %s: forbidden (403). The session needs the Metadata API permission and the 'api' scope%s: %w",
			op, instance, detail, err)

	case ctx.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s on %s: not found (404). Check instance_url and api_version%s: %w",
			op, instance, detail, err)

	case ctx.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%s on %s: server error (%d)%s: %w",
			op, instance, ctx.StatusCode, detail, err)

	case ctx.StatusCode != 0:
		return fmt.Errorf("%s on %s: unexpected status (%d)%s: %w",
			op, instance, ctx.StatusCode, detail, err)
	}

	return fmt.Errorf("%s on %s%s: %w", op, instance, detail, err)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
