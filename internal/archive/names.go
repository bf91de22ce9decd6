// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsafePath is returned for relative paths that are absolute or climb out
// of the tree they address.
var ErrUnsafePath = errors.New("path escapes archive root")

// SplitName splits a file name into base and extension at the last ".". A
// name without a "." has an empty extension.
func SplitName(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// ArchivedName returns the archived file name for base and ext at ts
// milliseconds since the epoch.
func ArchivedName(base, ext string, ts int64) string {
	return base + "_" + strconv.FormatInt(ts, 10) + ext
}

// ParseArchived reports the timestamp of name when it is an archived version
// of base+ext. Only <base>_<digits><ext> matches, so the archive of "My" is
// never confused with that of "My_Class".
func ParseArchived(name, base, ext string) (int64, bool) {
	prefix := base + "_"
	if len(name) <= len(prefix)+len(ext) {
		return 0, false
	}
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
		return 0, false
	}
	return parseDigits(name[len(prefix) : len(name)-len(ext)])
}

// splitArchived is the inverse of ArchivedName when base and ext are unknown.
func splitArchived(name string) (base, ext string, ts int64, ok bool) {
	stem, ext := SplitName(name)
	i := strings.LastIndex(stem, "_")
	if i <= 0 {
		return "", "", 0, false
	}
	ts, ok = parseDigits(stem[i+1:])
	return stem[:i], ext, ts, ok
}

func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// Hash returns the hex sha256 of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// cleanRel normalizes a slash or OS separated relative path and rejects
// anything that is absolute or resolves outside its tree.
func cleanRel(rel string) (string, error) {
	rel = filepath.FromSlash(strings.ReplaceAll(rel, `\`, "/"))
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, string(filepath.Separator)) {
		return "", ErrUnsafePath
	}
	c := filepath.Clean(rel)
	if c == "." || c == ".." || strings.HasPrefix(c, ".."+string(filepath.Separator)) {
		return "", ErrUnsafePath
	}
	return c, nil
}
