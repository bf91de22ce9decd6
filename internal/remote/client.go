// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apex/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/apexsync/apexsync/internal/credential"
)

// DefaultAPIVersion is the Metadata API version used when none is configured.
const DefaultAPIVersion = "58.0"

// State is the remote state of a retrieve job as seen by one poll.
type State string

const (
	StatePending   State = "Pending"
	StateSucceeded State = "Succeeded"
	StateFailed    State = "Failed"
)

// Status is the result of one poll. Payload is the base64 encoded zip and is
// only set when State is StateSucceeded; ErrorMessage only when StateFailed.
type Status struct {
	State        State
	Payload      string
	ErrorMessage string
}

// JobClient submits retrieve jobs and polls them. Implementations differ only
// in transport.
type JobClient interface {
	Submit(ctx context.Context, cred credential.Credential) (string, error)
	Poll(ctx context.Context, jobID string, cred credential.Credential) (Status, error)
}

// Option configures a transport.
type Option func(*transport)

// WithHTTPClient sets the HTTP client. Defaults to NewHTTPClient(3).
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		t.client = c
	}
}

// WithAPIVersion sets the Metadata API version, e.g. "58.0".
func WithAPIVersion(v string) Option {
	return func(t *transport) {
		if v != "" {
			t.apiVersion = v
		}
	}
}

// transport holds what REST and SOAP share.
type transport struct {
	client     *http.Client
	apiVersion string
}

func newTransport(opts []Option) transport {
	t := transport{apiVersion: DefaultAPIVersion}
	for _, opt := range opts {
		opt(&t)
	}
	if t.client == nil {
		t.client = NewHTTPClient(3) //nolint:mnd
	}
	return t
}

// APIVersion returns the configured Metadata API version.
func (t *transport) APIVersion() string {
	return t.apiVersion
}

// New returns the JobClient for kind, "rest" or "soap".
func New(kind string, opts ...Option) (JobClient, error) {
	switch strings.ToLower(kind) {
	case "", "rest":
		return NewREST(opts...), nil
	case "soap":
		return NewSOAP(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, kind)
	}
}

// NewHTTPClient returns an http.Client that retries connection errors, 429s
// and 5xx responses up to retries times. The last response is returned to
// the caller unchanged once retries run out. Requests made with a context
// from withoutRetry are sent once.
func NewHTTPClient(retries int) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.CheckRetry = checkRetry
	rc.RetryWaitMin = 500 * time.Millisecond //nolint:mnd
	rc.RetryWaitMax = 5 * time.Second        //nolint:mnd
	rc.Logger = leveledLogger{}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc.StandardClient()
}

type noRetryKey struct{}

// withoutRetry marks a request that creates a job on the org. Resending it
// after a 5xx or a dropped connection could leave a duplicate job behind.
func withoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Value(noRetryKey{}) != nil {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// do sends req with the session attached and returns the status and body.
func (t *transport) do(req *http.Request) (int, []byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	log.Debugf("%s %s -> %d (%d bytes)", req.Method, req.URL.Path, resp.StatusCode, len(body))
	return resp.StatusCode, body, nil
}

func (t *transport) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

// preview truncates a response body to n runes for error messages.
func preview(body []byte, n int) string {
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// leveledLogger routes retryablehttp logging to apex/log.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Error(msg) }
func (leveledLogger) Info(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Warn(msg) }

func fields(kv []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
