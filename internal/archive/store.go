// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/apexsync/apexsync/internal/log"
)

const (
	// CurrentDir holds the latest retrieved artifacts.
	CurrentDir = "current"
	// PreviousDir holds the single archived version of each artifact.
	PreviousDir = "previous"

	tempSuffix = ".apexsync-tmp"
	dirMode    = 0o755
	fileMode   = 0o644
)

// Store is the archive tree rooted at a directory. It is not safe for
// concurrent writers.
type Store struct {
	fs   afero.Fs
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithFs sets the filesystem the store operates on. Defaults to the OS
// filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// WithClock sets the time source used to stamp archived versions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Version is one archived version of an artifact.
type Version struct {
	BaseName  string
	Extension string
	Timestamp int64
	Path      string
	Content   []byte
}

// WriteResult describes what WriteCurrent did.
type WriteResult struct {
	Path        string
	Archived    bool
	ArchivePath string
	Pruned      int
}

// RotateResult describes what RotateAll did.
type RotateResult struct {
	Moved     int
	Skipped   int
	Timestamp int64
}

// PruneResult describes what Prune did.
type PruneResult struct {
	Removed int
	Temp    int
}

// New returns a Store rooted at root, creating current/ and previous/ when
// they do not exist.
func New(root string, opts ...Option) (*Store, error) {
	s := &Store{
		fs:   afero.NewOsFs(),
		root: filepath.Clean(root),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, d := range []string{CurrentDir, PreviousDir} {
		if err := s.fs.MkdirAll(filepath.Join(s.root, d), dirMode); err != nil {
			return nil, fmt.Errorf("failed to create %s tree: %w", d, err)
		}
	}
	log.Debugf("archive store ready: root=%s", s.root)

	return s, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// WriteCurrent writes content to current/<rel>, archiving the existing
// content first when it differs. It is WriteCurrentAt stamped with now.
func (s *Store) WriteCurrent(rel string, content []byte) (WriteResult, error) {
	return s.WriteCurrentAt(rel, content, s.now())
}

// WriteCurrentAt writes content to current/<rel>. When current/<rel> exists
// with different content, that content is written to previous/ as a version
// stamped with stamp before the overwrite, and every other archived version
// of the artifact is removed afterwards. Either the archive and the overwrite
// both happen or neither does; a failure removing older versions is only
// logged.
func (s *Store) WriteCurrentAt(rel string, content []byte, stamp time.Time) (WriteResult, error) {
	clean, err := cleanRel(rel)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%s: %w", rel, err)
	}

	cur := filepath.Join(s.root, CurrentDir, clean)
	result := WriteResult{Path: cur}

	if err := s.fs.MkdirAll(filepath.Dir(cur), dirMode); err != nil {
		return result, fmt.Errorf("failed to create directory for %s: %w", clean, err)
	}

	existing, err := afero.ReadFile(s.fs, cur)
	switch {
	case err == nil && !bytes.Equal(existing, content):
		dir := filepath.Join(s.root, PreviousDir, filepath.Dir(clean))
		if err := s.fs.MkdirAll(dir, dirMode); err != nil {
			return result, fmt.Errorf("failed to create archive directory for %s: %w", clean, err)
		}
		base, ext := SplitName(filepath.Base(clean))
		result.ArchivePath = filepath.Join(dir, ArchivedName(base, ext, stamp.UnixMilli()))
		if err := s.writeAtomic(result.ArchivePath, existing); err != nil {
			return result, fmt.Errorf("failed to archive %s: %w", clean, err)
		}
		result.Archived = true
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return result, fmt.Errorf("failed to read %s: %w", clean, err)
	}

	if err := s.writeAtomic(cur, content); err != nil {
		if result.Archived {
			if rmErr := s.fs.Remove(result.ArchivePath); rmErr != nil {
				log.WithError(rmErr).Warnf("failed to roll back archive %s", result.ArchivePath)
			}
		}
		return WriteResult{Path: cur}, fmt.Errorf("failed to write %s: %w", clean, err)
	}

	if result.Archived {
		base, ext := SplitName(filepath.Base(clean))
		result.Pruned = s.pruneVersions(filepath.Dir(result.ArchivePath), base, ext, filepath.Base(result.ArchivePath))
		log.Debugf("archived %s -> %s", clean, result.ArchivePath)
	}

	return result, nil
}

// ReadCurrent returns the content of current/<rel>. The bool is false when the
// file does not exist.
func (s *Store) ReadCurrent(rel string) ([]byte, bool, error) {
	clean, err := cleanRel(rel)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", rel, err)
	}

	b, err := afero.ReadFile(s.fs, filepath.Join(s.root, CurrentDir, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// ReadLatestArchived returns the archived version of rel with the greatest
// timestamp. Timestamps are compared as integers. The bool is false when no
// archived version exists.
func (s *Store) ReadLatestArchived(rel string) (Version, bool, error) {
	clean, err := cleanRel(rel)
	if err != nil {
		return Version{}, false, fmt.Errorf("%s: %w", rel, err)
	}

	dir := filepath.Join(s.root, PreviousDir, filepath.Dir(clean))
	base, ext := SplitName(filepath.Base(clean))

	infos, err := afero.ReadDir(s.fs, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Version{}, false, nil
	}
	if err != nil {
		return Version{}, false, err
	}

	latest := Version{BaseName: base, Extension: ext, Timestamp: -1}
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if ts, ok := ParseArchived(info.Name(), base, ext); ok && ts > latest.Timestamp {
			latest.Timestamp = ts
			latest.Path = filepath.Join(dir, info.Name())
		}
	}
	if latest.Timestamp < 0 {
		return Version{}, false, nil
	}

	latest.Content, err = afero.ReadFile(s.fs, latest.Path)
	if err != nil {
		return Version{}, false, err
	}
	return latest, true, nil
}

// List returns the slash separated relative paths of every file in tree
// (CurrentDir or PreviousDir), sorted.
func (s *Store) List(tree string) ([]string, error) {
	base := filepath.Join(s.root, tree)

	var paths []string
	err := afero.Walk(s.fs, base, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if info == nil || info.IsDir() || strings.HasSuffix(path, tempSuffix) {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", tree, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ListCurrent returns the current/ artifacts whose name ends in ext. An empty
// ext returns every file.
func (s *Store) ListCurrent(ext string) ([]string, error) {
	all, err := s.List(CurrentDir)
	if err != nil {
		return nil, err
	}
	if ext == "" {
		return all, nil
	}

	var matched []string
	for _, p := range all {
		if strings.HasSuffix(p, ext) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// ReadFile returns the content of <tree>/<rel>.
func (s *Store) ReadFile(tree, rel string) ([]byte, error) {
	clean, err := cleanRel(rel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	return afero.ReadFile(s.fs, filepath.Join(s.root, tree, clean))
}

// RotateAll replaces previous/ with the whole current/ tree and leaves an
// empty current/. Rotated files take the archived name stamped with the
// rotation time so they are found as the latest archived versions. A file
// that cannot be moved is logged and skipped; current/ is only cleared when
// every file moved.
func (s *Store) RotateAll() (RotateResult, error) {
	result := RotateResult{Timestamp: s.now().UnixMilli()}
	prev := filepath.Join(s.root, PreviousDir)
	cur := filepath.Join(s.root, CurrentDir)

	if err := s.fs.RemoveAll(prev); err != nil {
		return result, fmt.Errorf("failed to clear %s: %w", PreviousDir, err)
	}
	if err := s.fs.MkdirAll(prev, dirMode); err != nil {
		return result, fmt.Errorf("failed to create %s: %w", PreviousDir, err)
	}

	files, err := s.List(CurrentDir)
	if err != nil {
		return result, err
	}

	for _, rel := range files {
		native := filepath.FromSlash(rel)
		base, ext := SplitName(filepath.Base(native))
		dir := filepath.Join(prev, filepath.Dir(native))
		target := filepath.Join(dir, ArchivedName(base, ext, result.Timestamp))

		if err := s.fs.MkdirAll(dir, dirMode); err != nil {
			log.WithError(err).Warnf("rotate: failed to create %s", dir)
			result.Skipped++
			continue
		}
		if err := s.fs.Rename(filepath.Join(cur, native), target); err != nil {
			log.WithError(err).Warnf("rotate: failed to move %s", rel)
			result.Skipped++
			continue
		}
		result.Moved++
	}

	if result.Skipped == 0 {
		if err := s.fs.RemoveAll(cur); err != nil {
			log.WithError(err).Warnf("rotate: failed to clear %s", CurrentDir)
		}
	}
	if err := s.fs.MkdirAll(cur, dirMode); err != nil {
		return result, fmt.Errorf("failed to recreate %s: %w", CurrentDir, err)
	}

	log.Debugf("rotated %d files, skipped %d", result.Moved, result.Skipped)
	return result, nil
}

// Prune enforces the single archived version per artifact across the whole
// previous/ tree and removes temp files left by interrupted writes in both
// trees. Individual failures are logged and skipped.
func (s *Store) Prune() (PruneResult, error) {
	var result PruneResult

	type key struct{ dir, base, ext string }
	newest := map[key]int64{}
	var archived []string

	prev := filepath.Join(s.root, PreviousDir)
	for _, tree := range []string{CurrentDir, PreviousDir} {
		err := afero.Walk(s.fs, filepath.Join(s.root, tree), func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil || info == nil || info.IsDir() {
				if walkErr != nil {
					log.WithError(walkErr).Warnf("prune: skipping %s", path)
				}
				return nil
			}
			if strings.HasSuffix(path, tempSuffix) {
				if err := s.fs.Remove(path); err != nil {
					log.WithError(err).Warnf("prune: failed to remove %s", path)
				} else {
					result.Temp++
				}
				return nil
			}
			if tree == PreviousDir {
				if base, ext, ts, ok := splitArchived(info.Name()); ok {
					k := key{filepath.Dir(path), base, ext}
					if cur, seen := newest[k]; !seen || ts > cur {
						newest[k] = ts
					}
					archived = append(archived, path)
				}
			}
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("failed to walk %s: %w", tree, err)
		}
	}

	for _, path := range archived {
		base, ext, ts, _ := splitArchived(filepath.Base(path))
		if ts == newest[key{filepath.Dir(path), base, ext}] {
			continue
		}
		if err := s.fs.Remove(path); err != nil {
			log.WithError(err).Warnf("prune: failed to remove %s", path)
			continue
		}
		result.Removed++
	}

	log.Debugf("pruned %d archived versions and %d temp files under %s", result.Removed, result.Temp, prev)
	return result, nil
}

var apiVersionRe = regexp.MustCompile(`<apiVersion>\s*([^<\s]+)\s*</apiVersion>`)

// APIVersion returns the apiVersion declared by the first -meta.xml
// descriptor in current/. The bool is false when no descriptor declares one.
func (s *Store) APIVersion() (string, bool, error) {
	files, err := s.ListCurrent("-meta.xml")
	if err != nil {
		return "", false, err
	}

	for _, rel := range files {
		b, err := s.ReadFile(CurrentDir, rel)
		if err != nil {
			log.WithError(err).Warnf("failed to read %s", rel)
			continue
		}
		if m := apiVersionRe.FindSubmatch(b); m != nil {
			return string(m[1]), true, nil
		}
	}
	return "", false, nil
}

// pruneVersions removes every archived version of base+ext in dir except
// keep. It returns the number removed.
func (s *Store) pruneVersions(dir, base, ext, keep string) int {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		log.WithError(err).Warnf("failed to scan %s for older versions", dir)
		return 0
	}

	removed := 0
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || name == keep {
			continue
		}
		if _, ok := ParseArchived(name, base, ext); !ok {
			continue
		}
		if err := s.fs.Remove(filepath.Join(dir, name)); err != nil {
			log.WithError(err).Warnf("failed to remove older version %s", name)
			continue
		}
		removed++
	}
	return removed
}

// writeAtomic writes data beside path and renames it into place.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + tempSuffix
	if err := afero.WriteFile(s.fs, tmp, data, fileMode); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}
