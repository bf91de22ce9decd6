// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/apexsync/apexsync/internal/credential"
	"github.com/apexsync/apexsync/internal/log"
)

// REST drives retrieves through the Metadata REST resources.
type REST struct {
	transport
}

var _ JobClient = (*REST)(nil)

// NewREST returns a REST JobClient.
func NewREST(opts ...Option) *REST {
	return &REST{transport: newTransport(opts)}
}

type restRetrieveRequest struct {
	APIVersion    json.Number `json:"apiVersion"`
	SinglePackage bool        `json:"singlePackage"`
	Unpackaged    struct {
		Types []restType `json:"types"`
	} `json:"unpackaged"`
}

type restType struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Submit requests a retrieve of every ApexClass and returns the job id.
func (r *REST) Submit(ctx context.Context, cred credential.Credential) (string, error) {
	ectx := ErrorContext{Instance: cred.Host(), Operation: "submit retrieve"}

	var payload restRetrieveRequest
	payload.APIVersion = json.Number(r.apiVersion)
	payload.SinglePackage = true
	payload.Unpackaged.Types = []restType{{Name: "ApexClass", Members: []string{"*"}}}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", Friendly(fmt.Errorf("%w: invalid request: %w", ErrSubmissionFailed, err), ectx)
	}

	req, err := r.newRequest(withoutRetry(ctx), http.MethodPost, cred.Endpoint(r.dataPath("metadata/retrieve")), body)
	if err != nil {
		return "", err
	}
	r.authorize(req, cred)
	req.Header.Set("Content-Type", "application/json")

	status, resp, err := r.do(req)
	if err != nil {
		return "", Friendly(fmt.Errorf("%w: %w", ErrSubmissionFailed, err), ectx)
	}
	if !ok(status) {
		ectx.StatusCode = status
		ectx.Detail = restErrorDetail(resp)
		return "", Friendly(ErrSubmissionFailed, ectx)
	}

	id := gjson.GetBytes(resp, "retrieveRequestId").String()
	if id == "" {
		id = gjson.GetBytes(resp, "id").String()
	}
	if id == "" {
		ectx.Detail = "no job id in response: " + preview(resp, 200) //nolint:mnd
		return "", Friendly(ErrSubmissionFailed, ectx)
	}

	log.Debugf("rest retrieve submitted: id=%s", id)
	return id, nil
}

// Poll reads the state of job id.
func (r *REST) Poll(ctx context.Context, id string, cred credential.Credential) (Status, error) {
	ectx := ErrorContext{Instance: cred.Host(), Operation: "check retrieve status"}

	u := cred.Endpoint(r.dataPath("metadata/retrieveResult")) + "?retrieveRequestId=" + url.QueryEscape(id)
	req, err := r.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Status{}, err
	}
	r.authorize(req, cred)

	status, resp, err := r.do(req)
	if err != nil {
		return Status{}, Friendly(fmt.Errorf("%w: %w", ErrPollFailed, err), ectx)
	}
	if !ok(status) {
		ectx.StatusCode = status
		ectx.Detail = restErrorDetail(resp)
		return Status{}, Friendly(ErrPollFailed, ectx)
	}

	doc := gjson.ParseBytes(resp)
	state := doc.Get("status").String()
	log.Tracef("rest poll: id=%s status=%s", id, state)

	switch state {
	case "Succeeded":
		return Status{State: StateSucceeded, Payload: doc.Get("zipFile").String()}, nil
	case "Failed":
		return Status{State: StateFailed, ErrorMessage: doc.Get("errorMessage").String()}, nil
	default:
		return Status{State: StatePending}, nil
	}
}

func (r *REST) authorize(req *http.Request, cred credential.Credential) {
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Accept", "application/json")
}

func (t *transport) dataPath(resource string) string {
	return "/services/data/v" + t.apiVersion + "/" + resource
}

// restErrorDetail pulls the message out of the org's JSON error array, falling
// back to a body preview.
func restErrorDetail(body []byte) string {
	if m := gjson.GetBytes(body, "0.message"); m.Exists() {
		if code := gjson.GetBytes(body, "0.errorCode").String(); code != "" {
			return code + ": " + m.String()
		}
		return m.String()
	}
	return preview(body, 200) //nolint:mnd
}
