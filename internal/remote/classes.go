// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/apexsync/apexsync/internal/credential"
	"github.com/apexsync/apexsync/internal/log"
)

// Class is one entry of the org's ApexClass catalog.
type Class struct {
	Name           string `json:"name" yaml:"name"`
	ID             string `json:"id" yaml:"id"`
	LastModified   string `json:"last_modified" yaml:"last_modified"`
	LastModifiedBy string `json:"last_modified_by" yaml:"last_modified_by"`
}

type fileProperties struct {
	FullName           string `xml:"fullName"`
	ID                 string `xml:"id"`
	NamespacePrefix    string `xml:"namespacePrefix"`
	ManageableState    string `xml:"manageableState"`
	LastModifiedDate   string `xml:"lastModifiedDate"`
	LastModifiedByName string `xml:"lastModifiedByName"`
}

// ListClasses returns the org's own Apex classes sorted by name. Classes from
// installed managed packages are left out. Results are cached per instance
// and API version; refresh bypasses the cache read.
func (s *SOAP) ListClasses(ctx context.Context, cred credential.Credential, refresh bool) ([]Class, error) {
	key := "listMetadata:ApexClass:" + s.apiVersion

	if err := PurgeCache(); err != nil {
		log.WithError(err).Warnf("failed to purge cache")
	}

	if !refresh {
		if entry, ok := CacheReader(cred, key); ok {
			var classes []Class
			if err := json.Unmarshal(entry.Data, &classes); err == nil {
				log.Debugf("class catalog from cache: %s", entry.Path)
				return classes, nil
			}
		}
	}

	ectx := ErrorContext{Instance: cred.Host(), Operation: "list classes"}
	body := `    <met:listMetadata>
      <met:queries>
        <met:type>ApexClass</met:type>
      </met:queries>
      <met:asOfVersion>` + escape(s.apiVersion) + `</met:asOfVersion>
    </met:listMetadata>`

	resp, err := s.call(ctx, cred, "listMetadata", body, ErrRequestFailed, ectx)
	if err != nil {
		return nil, err
	}

	classes, err := parseClasses(resp)
	if err != nil {
		ectx.Detail = err.Error()
		return nil, Friendly(ErrRequestFailed, ectx)
	}

	if data, err := json.Marshal(classes); err == nil {
		if err := CacheWriter(cred, key, data); err != nil {
			log.WithError(err).Warnf("failed to write class catalog to cache")
		}
	}

	return classes, nil
}

func parseClasses(doc []byte) ([]Class, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))

	classes := []Class{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "result" {
			continue
		}

		var fp fileProperties
		if err := dec.DecodeElement(&fp, &start); err != nil {
			return nil, fmt.Errorf("malformed result: %w", err)
		}
		if fp.FullName == "" || fp.NamespacePrefix != "" || fp.ManageableState == "installed" {
			continue
		}
		classes = append(classes, Class{
			Name:           fp.FullName,
			ID:             fp.ID,
			LastModified:   fp.LastModifiedDate,
			LastModifiedBy: fp.LastModifiedByName,
		})
	}

	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}
