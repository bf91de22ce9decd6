// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/dustin/go-humanize"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/compare"
	"github.com/apexsync/apexsync/internal/diff"
	"github.com/apexsync/apexsync/internal/remote"
	"github.com/apexsync/apexsync/internal/retrieve"
)

var (
	addStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00a000"))
	delStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d70000"))
	lineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0088a0")).Bold(true)
)

// Pair is one labeled value in a key/value listing.
type Pair struct {
	Key   string
	Value interface{}
}

// KeyValues writes pairs as an aligned two column listing.
func KeyValues(w io.Writer, pairs []Pair) {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p.Key))
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%-*s  %s\n", width+1, p.Key+":", InterfaceToString(p.Value, "-"))
	}
}

// Results writes one row per comparison.
func Results(w io.Writer, results []compare.Result, opts Options) error {
	return Emit(w, results, opts, func(w io.Writer) error {
		rows := make([]map[string]interface{}, 0, len(results))
		for _, r := range results {
			rows = append(rows, map[string]interface{}{
				"file":     r.FileName,
				"status":   string(r.Status),
				"changes":  r.ChangeCount,
				"old_file": r.OldFile,
				"path":     r.Path,
			})
		}
		Table(w, rows, []Column{
			{Key: "file", Title: "FILE"},
			{Key: "status", Title: "STATUS"},
			{Key: "changes", Title: "CHANGES"},
			{Key: "old_file", Title: "ARCHIVED"},
		}, opts)
		return nil
	})
}

// Result writes a single comparison with its changes.
func Result(w io.Writer, r compare.Result, opts Options) error {
	return Emit(w, r, opts, func(w io.Writer) error {
		header := fmt.Sprintf("%s: %s", r.FileName, r.Status)
		if r.OldFile != "" {
			header += " against " + r.OldFile
		}
		fmt.Fprintln(w, header)
		if r.Status != compare.StatusChangesFound {
			if r.Message != "" {
				fmt.Fprintln(w, r.Message)
			}
			return nil
		}
		fmt.Fprintf(w, "%s\n", pluralize(r.ChangeCount, "change"))
		Changes(w, r.Changes, opts.Color)
		return nil
	})
}

// Changes writes line deltas in a unified style.
func Changes(w io.Writer, changes []diff.Change, color bool) {
	paint := func(s lipgloss.Style, text string) string {
		if color {
			return s.Render(text)
		}
		return text
	}

	for _, c := range changes {
		fmt.Fprintln(w, paint(lineStyle, fmt.Sprintf("@@ line %d %s", c.Line, c.Kind)))
		if c.Kind != diff.KindInsert {
			for _, l := range strings.Split(c.Old, "\n") {
				fmt.Fprintln(w, paint(delStyle, "- "+l))
			}
		}
		if c.Kind != diff.KindDelete {
			for _, l := range strings.Split(c.New, "\n") {
				fmt.Fprintln(w, paint(addStyle, "+ "+l))
			}
		}
	}
}

// Summary writes the aggregate counts.
func Summary(w io.Writer, s compare.Summary, opts Options) error {
	return Emit(w, s, opts, func(w io.Writer) error {
		KeyValues(w, []Pair{
			{"Total files", humanize.Comma(int64(s.TotalFiles))},
			{"Changed files", humanize.Comma(int64(s.ChangedFiles))},
			{"New files", humanize.Comma(int64(s.NewFiles))},
			{"Unchanged files", humanize.Comma(int64(s.UnchangedFiles))},
			{"Total changes", humanize.Comma(int64(s.TotalChanges))},
		})
		return nil
	})
}

// TextChanges writes the normalized text diff.
func TextChanges(w io.Writer, changes []diff.TextChange, opts Options) error {
	if changes == nil {
		changes = []diff.TextChange{}
	}
	return Emit(w, changes, opts, func(w io.Writer) error {
		if len(changes) == 0 {
			fmt.Fprintln(w, "No differences.")
			return nil
		}
		for _, c := range changes {
			fmt.Fprintln(w, c.String())
		}
		return nil
	})
}

// Retrieve writes the outcome of a retrieve.
func Retrieve(w io.Writer, r retrieve.Result, opts Options) error {
	return Emit(w, r, opts, func(w io.Writer) error {
		fmt.Fprintf(w, "Retrieved job %s: %s extracted, %s archived, %s.\n",
			r.JobID,
			pluralize(r.Extracted, "file"),
			pluralize(r.Archived, "file"),
			pluralize(len(r.Artifacts), "artifact"))
		return nil
	})
}

// Classes writes the class catalog.
func Classes(w io.Writer, classes []remote.Class, opts Options, now time.Time) error {
	if classes == nil {
		classes = []remote.Class{}
	}
	return Emit(w, classes, opts, func(w io.Writer) error {
		rows := make([]map[string]interface{}, 0, len(classes))
		for _, c := range classes {
			rows = append(rows, map[string]interface{}{
				"name":     c.Name,
				"id":       c.ID,
				"modified": relative(c.LastModified, now),
				"by":       c.LastModifiedBy,
			})
		}
		Table(w, rows, []Column{
			{Key: "name", Title: "NAME"},
			{Key: "id", Title: "ID"},
			{Key: "modified", Title: "MODIFIED"},
			{Key: "by", Title: "BY"},
		}, opts)
		return nil
	})
}

// Ping writes a reachability check.
func Ping(w io.Writer, p remote.PingResult, opts Options) error {
	return Emit(w, p, opts, func(w io.Writer) error {
		KeyValues(w, []Pair{
			{"URL", p.URL},
			{"Status", p.StatusCode},
			{"Elapsed", p.Elapsed},
		})
		if p.Body != "" {
			fmt.Fprintln(w, p.Body)
		}
		return nil
	})
}

// Rotate writes the outcome of a bulk rotation.
func Rotate(w io.Writer, r archive.RotateResult, opts Options) error {
	return Emit(w, r, opts, func(w io.Writer) error {
		fmt.Fprintf(w, "Rotated %s into %s", pluralize(r.Moved, "file"), archive.PreviousDir)
		if r.Skipped > 0 {
			fmt.Fprintf(w, ", skipped %d", r.Skipped)
		}
		fmt.Fprintln(w, ".")
		return nil
	})
}

// Prune writes the outcome of a prune.
func Prune(w io.Writer, r archive.PruneResult, opts Options) error {
	return Emit(w, r, opts, func(w io.Writer) error {
		fmt.Fprintf(w, "Removed %s and %s.\n",
			pluralize(r.Removed, "archived version"), pluralize(r.Temp, "temp file"))
		return nil
	})
}

// relative humanizes an RFC 3339 timestamp, returning it unchanged when it
// does not parse.
func relative(ts string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
