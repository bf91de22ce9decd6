// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package compare

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/diff"
	"github.com/apexsync/apexsync/internal/log"
)

const (
	// DefaultDir is where a retrieve unpacks classes, relative to current/.
	DefaultDir = "unpackaged/classes"
	// DefaultExtension is the artifact source extension.
	DefaultExtension = ".cls"
)

// ErrComparisonFailed wraps any I/O failure while comparing one artifact.
var ErrComparisonFailed = errors.New("comparison failed")

// Status classifies a Result.
type Status string

const (
	StatusNoNewFile    Status = "no_new_file"
	StatusNoOldFile    Status = "no_old_file"
	StatusNoChanges    Status = "no_changes"
	StatusChangesFound Status = "changes_found"
	StatusError        Status = "error"
)

// Result is the comparison of one artifact. Latest holds the current content
// except when changes were found.
type Result struct {
	FileName    string        `json:"fileName" yaml:"fileName"`
	Path        string        `json:"path" yaml:"path"`
	Status      Status        `json:"status" yaml:"status"`
	ChangeCount int           `json:"changeCount" yaml:"changeCount"`
	Changes     []diff.Change `json:"changes" yaml:"changes"`
	OldFile     string        `json:"oldFile,omitempty" yaml:"oldFile,omitempty"`
	Message     string        `json:"message,omitempty" yaml:"message,omitempty"`
	Latest      string        `json:"new,omitempty" yaml:"new,omitempty"`
}

// Summary aggregates CompareAll. Error results count only in TotalFiles.
type Summary struct {
	TotalFiles     int `json:"totalFiles" yaml:"totalFiles"`
	ChangedFiles   int `json:"changedFiles" yaml:"changedFiles"`
	NewFiles       int `json:"newFiles" yaml:"newFiles"`
	UnchangedFiles int `json:"unchangedFiles" yaml:"unchangedFiles"`
	TotalChanges   int `json:"totalChanges" yaml:"totalChanges"`
}

// Comparator compares artifacts held in a Store.
type Comparator struct {
	store *archive.Store
	dir   string
	ext   string
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithDir sets the directory bare names resolve in.
func WithDir(dir string) Option {
	return func(c *Comparator) {
		c.dir = strings.Trim(dir, "/")
	}
}

// WithExtension sets the artifact extension.
func WithExtension(ext string) Option {
	return func(c *Comparator) {
		if ext != "" {
			c.ext = ext
		}
	}
}

// New returns a Comparator over store.
func New(store *archive.Store, opts ...Option) *Comparator {
	c := &Comparator{store: store, dir: DefaultDir, ext: DefaultExtension}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve maps a class name or relative path to its path under current/. A
// name without a slash lives in the comparator's directory; the extension is
// added when missing.
func (c *Comparator) Resolve(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if !strings.HasSuffix(name, c.ext) {
		name += c.ext
	}
	if strings.Contains(name, "/") || c.dir == "" {
		return name
	}
	return path.Join(c.dir, name)
}

// Compare classifies name against its latest archived version. Calling it
// twice without an intervening write yields the same Result.
func (c *Comparator) Compare(name string) (Result, error) {
	return c.compare(c.Resolve(name))
}

func (c *Comparator) compare(rel string) (Result, error) {
	res := Result{FileName: path.Base(rel), Path: rel, Changes: []diff.Change{}}

	current, ok, err := c.store.ReadCurrent(rel)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrComparisonFailed, rel, err)
	}
	if !ok {
		res.Status = StatusNoNewFile
		res.Message = "file not found in " + archive.CurrentDir
		return res, nil
	}

	prev, ok, err := c.store.ReadLatestArchived(rel)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrComparisonFailed, rel, err)
	}
	if !ok {
		res.Status = StatusNoOldFile
		res.Message = "no previous version found in " + archive.PreviousDir
		res.Latest = string(current)
		return res, nil
	}
	res.OldFile = path.Base(prev.Path)

	changes := diff.Lines(diff.SplitLines(string(prev.Content)), diff.SplitLines(string(current)))
	if len(changes) == 0 {
		res.Status = StatusNoChanges
		res.Message = "files are identical"
		res.Latest = string(current)
		return res, nil
	}

	res.Status = StatusChangesFound
	res.ChangeCount = len(changes)
	res.Changes = changes
	log.Debugf("compare %s: %d changes against %s", rel, len(changes), res.OldFile)
	return res, nil
}

// CompareAll compares every artifact in current/. A failure on one artifact
// becomes an error Result for it and the batch continues.
func (c *Comparator) CompareAll() ([]Result, error) {
	files, err := c.store.ListCurrent(c.ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComparisonFailed, err)
	}

	results := make([]Result, 0, len(files))
	for _, rel := range files {
		res, err := c.compare(rel)
		if err != nil {
			log.WithError(err).Warnf("compare %s", rel)
			res = Result{
				FileName: path.Base(rel),
				Path:     rel,
				Status:   StatusError,
				Message:  err.Error(),
				Changes:  []diff.Change{},
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Summary aggregates CompareAll by status.
func (c *Comparator) Summary() (Summary, error) {
	results, err := c.CompareAll()
	if err != nil {
		return Summary{}, err
	}
	return Summarize(results), nil
}

// Summarize aggregates already computed results.
func Summarize(results []Result) Summary {
	s := Summary{TotalFiles: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusChangesFound:
			s.ChangedFiles++
			s.TotalChanges += r.ChangeCount
		case StatusNoOldFile:
			s.NewFiles++
		case StatusNoChanges:
			s.UnchangedFiles++
		}
	}
	return s
}
