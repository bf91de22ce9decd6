// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package retrieve

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteJobFailed matches every *RemoteJobFailedError.
	ErrRemoteJobFailed = errors.New("remote retrieve job failed")
	// ErrNoArtifactsFound is returned when a retrieve unpacks no file with the
	// artifact extension.
	ErrNoArtifactsFound = errors.New("no artifacts found")
	// ErrExtractionFailed matches every *ExtractionError.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrMaxAttempts is returned when polling hits the configured attempt cap.
	ErrMaxAttempts = errors.New("retrieve did not finish within the attempt limit")
)

// RemoteJobFailedError carries the message the org reported for a failed job.
type RemoteJobFailedError struct {
	JobID   string
	Message string
}

func (e *RemoteJobFailedError) Error() string {
	return fmt.Sprintf("remote retrieve job %s failed: %s", e.JobID, nonEmpty(e.Message, "no message"))
}

// Is matches ErrRemoteJobFailed.
func (e *RemoteJobFailedError) Is(target error) bool {
	return target == ErrRemoteJobFailed
}

// ExtractionError reports an unpack that stopped part way. Written files stay
// in place.
type ExtractionError struct {
	Written int
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed after %d files: %v", e.Written, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches ErrExtractionFailed.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

func noArtifacts(ext string) error {
	return fmt.Errorf("%w: the retrieved archive holds no %s files. The session likely lacks the "+
		"Metadata API permission or the 'api'/'full' OAuth scope", ErrNoArtifactsFound, ext)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
