// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apexsync/apexsync/internal/credential"
	"github.com/apexsync/apexsync/internal/log"
)

// SOAP drives retrieves through the Metadata SOAP API.
type SOAP struct {
	transport
}

var _ JobClient = (*SOAP)(nil)

// NewSOAP returns a SOAP JobClient.
func NewSOAP(opts ...Option) *SOAP {
	return &SOAP{transport: newTransport(opts)}
}

const envelope = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:met="http://soap.sforce.com/2006/04/metadata">
  <soapenv:Header>
    <met:SessionHeader>
      <met:sessionId>%s</met:sessionId>
    </met:SessionHeader>
  </soapenv:Header>
  <soapenv:Body>
%s
  </soapenv:Body>
</soapenv:Envelope>`

// Submit requests a retrieve of every ApexClass and returns the async id.
func (s *SOAP) Submit(ctx context.Context, cred credential.Credential) (string, error) {
	ectx := ErrorContext{Instance: cred.Host(), Operation: "submit retrieve"}

	body := `    <met:retrieve>
      <met:retrieveRequest>
        <met:apiVersion>` + escape(s.apiVersion) + `</met:apiVersion>
        <met:singlePackage>false</met:singlePackage>
        <met:unpackaged>
          <met:types>
            <met:members>*</met:members>
            <met:name>ApexClass</met:name>
          </met:types>
        </met:unpackaged>
      </met:retrieveRequest>
    </met:retrieve>`

	resp, err := s.call(withoutRetry(ctx), cred, "retrieve", body, ErrSubmissionFailed, ectx)
	if err != nil {
		return "", err
	}

	v, err := scan(resp, "id")
	if err != nil {
		ectx.Detail = err.Error()
		return "", Friendly(ErrSubmissionFailed, ectx)
	}
	if v["id"] == "" {
		ectx.Detail = "no job id in response"
		return "", Friendly(ErrSubmissionFailed, ectx)
	}

	log.Debugf("soap retrieve submitted: id=%s", v["id"])
	return v["id"], nil
}

// Poll reads the state of async job id, asking for the zip inline.
func (s *SOAP) Poll(ctx context.Context, id string, cred credential.Credential) (Status, error) {
	ectx := ErrorContext{Instance: cred.Host(), Operation: "check retrieve status"}

	body := `    <met:checkRetrieveStatus>
      <met:asyncProcessId>` + escape(id) + `</met:asyncProcessId>
      <met:includeZip>true</met:includeZip>
    </met:checkRetrieveStatus>`

	resp, err := s.call(ctx, cred, "checkRetrieveStatus", body, ErrPollFailed, ectx)
	if err != nil {
		return Status{}, err
	}

	v, err := scan(resp, "done", "status", "zipFile", "errorMessage")
	if err != nil {
		ectx.Detail = err.Error()
		return Status{}, Friendly(ErrPollFailed, ectx)
	}
	log.Tracef("soap poll: id=%s done=%s status=%s", id, v["done"], v["status"])

	switch {
	case v["status"] == "Failed":
		return Status{State: StateFailed, ErrorMessage: v["errorMessage"]}, nil
	case v["done"] != "true":
		return Status{State: StatePending}, nil
	case v["zipFile"] != "":
		return Status{State: StateSucceeded, Payload: v["zipFile"]}, nil
	default:
		return Status{State: StateFailed, ErrorMessage: nonEmpty(v["errorMessage"], "retrieve finished without a payload")}, nil
	}
}

// call posts one SOAP operation and returns the response body. Transport
// errors, faults and non-2xx answers are wrapped in sentinel.
func (s *SOAP) call(ctx context.Context, cred credential.Credential, action, body string, sentinel error, ectx ErrorContext) ([]byte, error) {
	doc := fmt.Sprintf(envelope, escape(cred.Token), body)

	req, err := s.newRequest(ctx, http.MethodPost, cred.Endpoint("/services/Soap/m/"+s.apiVersion), []byte(doc))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("SOAPAction", action)

	status, resp, err := s.do(req)
	if err != nil {
		return nil, Friendly(fmt.Errorf("%w: %w", sentinel, err), ectx)
	}

	if fault, _ := scan(resp, "faultstring"); fault["faultstring"] != "" {
		ectx.StatusCode = status
		ectx.Detail = fault["faultstring"]
		return nil, Friendly(sentinel, ectx)
	}
	if !ok(status) {
		ectx.StatusCode = status
		ectx.Detail = preview(resp, 200) //nolint:mnd
		return nil, Friendly(sentinel, ectx)
	}

	return resp, nil
}

// scan returns the text of the first element with each local name. Elements
// not present map to "".
func scan(doc []byte, names ...string) (map[string]string, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	values := make(map[string]string, len(names))
	found := map[string]bool{}
	dec := xml.NewDecoder(bytes.NewReader(doc))

	var current string
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return values, fmt.Errorf("malformed response: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = ""
			if want[t.Name.Local] && !found[t.Name.Local] {
				current = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current != "" && t.Name.Local == current {
				values[current] = strings.TrimSpace(text.String())
				found[current] = true
				current = ""
			}
		}
	}

	return values, nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
