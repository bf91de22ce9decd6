// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apexsync/apexsync/internal/log"
)

// Entry is a cached document on disk. Key is the clear-text key; EncodedKey
// is the hashed file name.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
	ModTime    time.Time
}

// Age returns how long ago the entry was written.
func (e *Entry) Age() time.Duration {
	return time.Since(e.ModTime)
}

// Dir resolves the base cache directory: APEXSYNC_CACHE_DIR when set and
// non-empty, else os.UserCacheDir()/apexsync. The bool is false when neither
// resolves, which callers treat as caching disabled.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("APEXSYNC_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "apexsync"), true
	}
	return "", false
}

// Enabled returns true unless APEXSYNC_CACHE is "0" or "false".
func Enabled() bool {
	enabled, _ := os.LookupEnv("APEXSYNC_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}

	base, ok := Dir()
	if !ok {
		return "", false, nil
	}

	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// EntryPath returns the path an entry for clearKey beneath subdirs would
// have, and whether a file exists there now.
func EntryPath(subdirs []string, clearKey string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}
	p := filepath.Join(append([]string{base}, append(subdirs, encodeKey(clearKey))...)...)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Purge removes entries older than hours. hours <= 0 disables purging.
func Purge(hours int) error {
	if hours <= 0 {
		return nil
	}

	base, ok := Dir()
	if !ok {
		return nil
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
		// Entries can vanish underneath a concurrent purge.
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			log.WithError(err).Warnf("failed to remove cache file %s", path)
			return nil
		}
		log.Debugf("removed cache file %s", path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Read returns the entry for clearKey beneath subdirs, if caching is enabled
// and the entry exists.
func Read(subdirs []string, clearKey string) (*Entry, bool) {
	return ReadFresh(subdirs, clearKey, 0)
}

// ReadFresh is Read that also treats entries older than maxAge as missing.
// maxAge <= 0 accepts any age.
func ReadFresh(subdirs []string, clearKey string, maxAge time.Duration) (*Entry, bool) {
	if !Enabled() {
		return nil, false
	}
	p, ok := EntryPath(subdirs, clearKey)
	if !ok {
		return nil, false
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if maxAge > 0 && time.Since(info.ModTime()) > maxAge {
		log.Debugf("cache stale: key=%s", clearKey)
		return nil, false
	}

	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	log.Debugf("cache hit: key=%s", clearKey)
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Data:       bytes.TrimSpace(b),
		ModTime:    info.ModTime(),
	}, true
}

// Write stores data for clearKey beneath subdirs, creating directories as
// needed. The entry is written beside its final name and renamed into place.
func Write(subdirs []string, clearKey string, data []byte) error {
	if !Enabled() {
		return nil
	}
	base, ok := Dir()
	if !ok {
		return nil
	}

	dir := filepath.Join(append([]string{base}, subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	p := filepath.Join(dir, encodeKey(clearKey))
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Debugf("cache write: key=%s", clearKey)
	return nil
}

// Invalidate removes the entry for clearKey. A missing entry is not an error.
func Invalidate(subdirs []string, clearKey string) error {
	p, ok := EntryPath(subdirs, clearKey)
	if !ok {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	return nil
}

func encodeKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
