// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package retrieve

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/credential"
	"github.com/apexsync/apexsync/internal/log"
	"github.com/apexsync/apexsync/internal/remote"
)

const (
	// DefaultInterval is the wait before each poll.
	DefaultInterval = 1500 * time.Millisecond
	// DefaultExtension identifies artifact source files in a payload.
	DefaultExtension = ".cls"
)

// State is the lifecycle state of a Job.
type State string

const (
	StateRequested State = "Requested"
	StatePending   State = "Pending"
	StateSucceeded State = "Succeeded"
	StateFailed    State = "Failed"
)

// Job is one remote retrieve as tracked by a single RetrieveAndArchive call.
type Job struct {
	ID           string
	State        State
	Payload      []byte
	ErrorMessage string
	Attempts     int
}

// Terminal reports whether the job has finished either way.
func (j *Job) Terminal() bool {
	return j.State == StateSucceeded || j.State == StateFailed
}

// Entry is one file in a retrieved payload.
type Entry struct {
	RelativePath string
	Content      []byte
}

// Hash returns the sha256 of the entry content.
func (e Entry) Hash() string {
	return archive.Hash(e.Content)
}

// Result summarizes a retrieve. Artifacts lists the names of the artifact
// files written, without extension.
type Result struct {
	JobID     string            `json:"job_id" yaml:"job_id"`
	Extracted int               `json:"extracted" yaml:"extracted"`
	Archived  int               `json:"archived" yaml:"archived"`
	Artifacts []string          `json:"artifacts" yaml:"artifacts"`
	Timestamp int64             `json:"timestamp" yaml:"timestamp"`
	Files     map[string]string `json:"-" yaml:"-"`
}

// Orchestrator drives submit, poll and extract for one archive store.
type Orchestrator struct {
	client      remote.JobClient
	store       *archive.Store
	creds       credential.Provider
	interval    time.Duration
	maxAttempts int
	progress    func(Job)
	ext         string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInterval sets the wait before each poll.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithMaxAttempts caps the number of polls. Zero, the default, polls until the
// job finishes or the context ends.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		o.maxAttempts = n
	}
}

// WithProgress registers a callback invoked with a copy of the job after
// every poll.
func WithProgress(fn func(Job)) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithExtension sets the artifact file extension, ".cls" by default.
func WithExtension(ext string) Option {
	return func(o *Orchestrator) {
		if ext != "" {
			o.ext = ext
		}
	}
}

// New returns an Orchestrator.
func New(client remote.JobClient, store *archive.Store, creds credential.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		store:    store,
		creds:    creds,
		interval: DefaultInterval,
		ext:      DefaultExtension,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit asks the org for a retrieve of every artifact and returns the job
// id. Every failure matches remote.ErrSubmissionFailed.
func (o *Orchestrator) Submit(ctx context.Context, cred credential.Credential) (string, error) {
	id, err := o.client.Submit(ctx, cred)
	if err != nil {
		if !errors.Is(err, remote.ErrSubmissionFailed) {
			err = fmt.Errorf("%w: %w", remote.ErrSubmissionFailed, err)
		}
		return "", err
	}
	return id, nil
}

// PollUntilDone waits the interval, polls, and repeats until the job
// finishes. A succeeded job carries the decoded payload. A failed job yields
// a *RemoteJobFailedError. Polling otherwise only stops when ctx ends or the
// attempt cap is reached.
func (o *Orchestrator) PollUntilDone(ctx context.Context, id string, cred credential.Credential) (*Job, error) {
	job := &Job{ID: id, State: StateRequested}

	timer := time.NewTimer(o.interval)
	defer timer.Stop()

	for {
		if o.maxAttempts > 0 && job.Attempts >= o.maxAttempts {
			return job, fmt.Errorf("%w: job %s after %d polls", ErrMaxAttempts, id, job.Attempts)
		}

		select {
		case <-ctx.Done():
			return job, fmt.Errorf("polling job %s: %w", id, ctx.Err())
		case <-timer.C:
		}

		st, err := o.client.Poll(ctx, id, cred)
		if err != nil {
			return job, err
		}
		job.Attempts++

		switch st.State {
		case remote.StateSucceeded:
			payload, err := decodePayload(st.Payload)
			if err != nil {
				return job, &ExtractionError{Err: fmt.Errorf("failed to decode payload: %w", err)}
			}
			job.State = StateSucceeded
			job.Payload = payload
			o.report(job)
			log.Debugf("job %s succeeded after %d polls (%d bytes)", id, job.Attempts, len(payload))
			return job, nil

		case remote.StateFailed:
			job.State = StateFailed
			job.ErrorMessage = st.ErrorMessage
			o.report(job)
			return job, &RemoteJobFailedError{JobID: id, Message: st.ErrorMessage}

		default:
			job.State = StatePending
			o.report(job)
			log.Tracef("job %s pending (poll %d)", id, job.Attempts)
		}

		timer.Reset(o.interval)
	}
}

// Extract unpacks a zip payload into current/, entry by entry in archive
// order, archiving changed files under one shared stamp. Directory entries
// are skipped; their paths are created with the files. A failure part way
// returns an *ExtractionError with the number of files already written.
func (o *Orchestrator) Extract(payload []byte, stamp time.Time) (Result, error) {
	res := Result{Timestamp: stamp.UnixMilli(), Files: map[string]string{}}

	// Unsafe entry names are rejected per entry by the store.
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return res, &ExtractionError{Err: fmt.Errorf("malformed archive: %w", err)}
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}

		entry, err := readEntry(f)
		if err != nil {
			return res, &ExtractionError{Written: res.Extracted, Err: err}
		}

		w, err := o.store.WriteCurrentAt(entry.RelativePath, entry.Content, stamp)
		if err != nil {
			return res, &ExtractionError{Written: res.Extracted, Err: err}
		}

		res.Extracted++
		res.Files[entry.RelativePath] = entry.Hash()
		if w.Archived {
			res.Archived++
		}
		if strings.HasSuffix(entry.RelativePath, o.ext) {
			res.Artifacts = append(res.Artifacts, strings.TrimSuffix(path.Base(entry.RelativePath), o.ext))
		}
	}

	if len(res.Artifacts) == 0 {
		return res, noArtifacts(o.ext)
	}
	return res, nil
}

// RetrieveAndArchive resolves the session, submits a retrieve, waits for it
// and extracts the payload into the store. On success the retrieve manifest
// is updated.
func (o *Orchestrator) RetrieveAndArchive(ctx context.Context) (Result, error) {
	cred, err := o.creds.Credential(ctx)
	if err != nil {
		return Result{}, err
	}
	if !cred.Valid() {
		return Result{}, credential.ErrNotConnected
	}

	id, err := o.Submit(ctx, cred)
	if err != nil {
		return Result{}, err
	}
	log.Infof("retrieve submitted: job=%s", id)

	job, err := o.PollUntilDone(ctx, id, cred)
	if err != nil {
		return Result{JobID: id}, err
	}

	stamp := o.store.Now()
	res, err := o.Extract(job.Payload, stamp)
	res.JobID = id
	if err != nil {
		return res, err
	}

	m := archive.Manifest{JobID: id, RetrievedAt: stamp.UTC(), Files: res.Files}
	if err := o.store.WriteManifest(m); err != nil {
		log.WithError(err).Warnf("failed to write retrieve manifest")
	}

	log.Infof("retrieve %s: extracted=%d archived=%d", id, res.Extracted, res.Archived)
	return res, nil
}

func (o *Orchestrator) report(job *Job) {
	if o.progress != nil {
		o.progress(*job)
	}
}

func readEntry(f *zip.File) (Entry, error) {
	rc, err := f.Open()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return Entry{RelativePath: f.Name, Content: content}, nil
}

// decodePayload decodes standard base64, ignoring line breaks some
// transports insert.
func decodePayload(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	return base64.StdEncoding.DecodeString(s)
}
