// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/apexsync/apexsync/internal/log"
)

const (
	// ManifestFile records the last retrieve.
	ManifestFile = "manifest.json"
	// PreviousManifestFile records the retrieve before it.
	PreviousManifestFile = "manifest.previous.json"
)

// Manifest records one retrieve: the remote job id, when it finished and the
// sha256 of every file it wrote, keyed by slash separated relative path.
type Manifest struct {
	JobID       string            `json:"job_id" yaml:"job_id"`
	RetrievedAt time.Time         `json:"retrieved_at" yaml:"retrieved_at"`
	Files       map[string]string `json:"files" yaml:"files"`
}

// WriteManifest stores m as the current manifest, keeping the one it replaces
// as the previous manifest.
func (s *Store) WriteManifest(m Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	cur := filepath.Join(s.root, ManifestFile)
	if ok, _ := afero.Exists(s.fs, cur); ok {
		if err := s.fs.Rename(cur, filepath.Join(s.root, PreviousManifestFile)); err != nil {
			log.WithError(err).Warnf("failed to keep previous manifest")
		}
	}

	if err := s.writeAtomic(cur, b); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the named manifest (ManifestFile or
// PreviousManifestFile). It returns nil when the file does not exist.
func (s *Store) ReadManifest(name string) (*Manifest, error) {
	b, err := afero.ReadFile(s.fs, filepath.Join(s.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return &m, nil
}

// ReadRoot returns the raw content of a file directly under the root, such as
// a manifest.
func (s *Store) ReadRoot(name string) ([]byte, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("%s: %w", name, ErrUnsafePath)
	}
	return afero.ReadFile(s.fs, filepath.Join(s.root, name))
}
