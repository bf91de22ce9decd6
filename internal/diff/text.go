// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"fmt"
	"regexp"
	"strings"
)

// TextChange is one positional difference reported by Text. Line is 1-based.
// A side that has run out of lines is reported as an empty string.
type TextChange struct {
	Line int    `json:"line" yaml:"line"`
	Old  string `json:"old" yaml:"old"`
	New  string `json:"new" yaml:"new"`
}

var (
	lineBreak   = regexp.MustCompile(`\r?\n`)
	blankRepeat = regexp.MustCompile(`\n{2,}`)
)

// Text compares two raw sources position by position after normalizing them.
// Normalization breaks lines after "{", "}" and ";" so that sources exported
// as a single line still compare statement by statement. Pairs whose trimmed
// text is identical are skipped, so whitespace-only edits never surface.
func Text(oldSource, newSource string) []TextChange {
	oldLines := lineBreak.Split(Normalize(oldSource), -1)
	newLines := lineBreak.Split(Normalize(newSource), -1)

	var changes []TextChange
	for i := 0; i < max(len(oldLines), len(newLines)); i++ {
		var o, n string
		if i < len(oldLines) {
			o = oldLines[i]
		}
		if i < len(newLines) {
			n = newLines[i]
		}

		if strings.TrimSpace(o) == strings.TrimSpace(n) {
			continue
		}
		changes = append(changes, TextChange{Line: i + 1, Old: o, New: n})
	}

	return changes
}

// Normalize applies the statement-splitting normalization used by Text.
func Normalize(src string) string {
	src = strings.NewReplacer("{", "{\n", "}", "}\n", ";", ";\n").Replace(src)
	src = blankRepeat.ReplaceAllString(src, "\n")
	return strings.TrimSpace(src)
}

// String renders the change the way the textdiff command prints it. Long
// lines are never truncated.
func (c TextChange) String() string {
	return fmt.Sprintf("line %d:\n  old: %q\n  new: %q", c.Line, c.Old, c.New)
}
