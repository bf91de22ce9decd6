// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind identifies the shape of a Change.
type Kind string

const (
	KindInsert Kind = "INSERT"
	KindDelete Kind = "DELETE"
	KindChange Kind = "CHANGE"
)

// Change is one delta between two line sequences. Line is the 1-based
// position in the old sequence where the delta starts; for an Insert it is the
// position the new lines would occupy in the old sequence.
type Change struct {
	Line int    `json:"line" yaml:"line"`
	Kind Kind   `json:"type" yaml:"type"`
	Old  string `json:"old,omitempty" yaml:"old,omitempty"`
	New  string `json:"new,omitempty" yaml:"new,omitempty"`
}

// Lines computes a minimal line diff between oldLines and newLines and returns the
// deltas in ascending order of their old position. Adjacent deletions and
// insertions with no equal run between them are reported as a single Change.
// Multi-line blocks are joined with "\n".
func Lines(oldLines, newLines []string) []Change {
	dmp := diffmatchpatch.New()
	// Zero disables the time budget so large inputs still get a minimal diff.
	dmp.DiffTimeout = 0

	text1, text2 := joinLines(oldLines), joinLines(newLines)
	chars1, chars2, lineArray := dmp.DiffLinesToChars(text1, text2)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var (
		changes  []Change
		pos      int
		deleted  []string
		inserted []string
		start    = -1
	)

	flush := func() {
		if start < 0 {
			return
		}
		c := Change{Line: start + 1}
		switch {
		case len(deleted) > 0 && len(inserted) > 0:
			c.Kind = KindChange
			c.Old = strings.Join(deleted, "\n")
			c.New = strings.Join(inserted, "\n")
		case len(deleted) > 0:
			c.Kind = KindDelete
			c.Old = strings.Join(deleted, "\n")
		default:
			c.Kind = KindInsert
			c.New = strings.Join(inserted, "\n")
		}
		changes = append(changes, c)
		deleted, inserted, start = nil, nil, -1
	}

	for _, d := range diffs {
		lines := splitHydrated(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len(lines)
		case diffmatchpatch.DiffDelete:
			if start < 0 {
				start = pos
			}
			deleted = append(deleted, lines...)
			pos += len(lines)
		case diffmatchpatch.DiffInsert:
			if start < 0 {
				start = pos
			}
			inserted = append(inserted, lines...)
		}
	}
	flush()

	return changes
}

// SplitLines breaks content into lines on \n, \r\n or \r. A trailing line
// terminator does not produce an empty final line, and empty content yields
// no lines.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

// joinLines terminates every line with "\n" so the last line hashes the same
// as any other occurrence of its text.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// splitHydrated reverses joinLines for one rehydrated diff run.
func splitHydrated(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
