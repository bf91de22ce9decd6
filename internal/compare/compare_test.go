// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package compare

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/diff"
)

const root = "/apex"

// openFailFs refuses to open any file whose name contains match.
type openFailFs struct {
	afero.Fs
	match string
}

func (f *openFailFs) Open(name string) (afero.File, error) {
	if strings.Contains(name, f.match) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("device error")}
	}
	return f.Fs.Open(name)
}

func newStore(t *testing.T, fsys afero.Fs) *archive.Store {
	t.Helper()
	stamp := time.UnixMilli(1700000000000)
	s, err := archive.New(root, archive.WithFs(fsys), archive.WithClock(func() time.Time { return stamp }))
	require.NoError(t, err)
	return s
}

func write(t *testing.T, s *archive.Store, rel string, versions ...string) {
	t.Helper()
	for _, v := range versions {
		_, err := s.WriteCurrent(rel, []byte(v))
		require.NoError(t, err)
	}
}

// seed builds one artifact of every status plus one whose archived copy
// cannot be read.
func seed(t *testing.T) *archive.Store {
	t.Helper()
	mem := afero.NewMemMapFs()
	s := newStore(t, &openFailFs{Fs: mem, match: "Bad_"})

	write(t, s, "unpackaged/classes/Changed.cls", "a\nb\nc\n", "a\nx\nc\n")
	write(t, s, "unpackaged/classes/New.cls", "class New {}")
	write(t, s, "unpackaged/classes/Same.cls", "class Same {}")
	require.NoError(t, afero.WriteFile(mem, root+"/previous/unpackaged/classes/Same_1600000000000.cls", []byte("class Same {}"), 0o644))
	write(t, s, "unpackaged/classes/Bad.cls", "v1", "v2")
	write(t, s, "unpackaged/classes/Same.cls-meta.xml", "<apiVersion>58.0</apiVersion>")
	return s
}

func TestResolve(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare name", "Foo", "unpackaged/classes/Foo.cls"},
		{"bare name with ext", "Foo.cls", "unpackaged/classes/Foo.cls"},
		{"relative path", "other/Foo", "other/Foo.cls"},
		{"windows separators", `other\Foo.cls`, "other/Foo.cls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Resolve(tt.in))
		})
	}

	flat := New(nil, WithDir(""), WithExtension(".trigger"))
	assert.Equal(t, "T.trigger", flat.Resolve("T"))
}

// TestCompare_Classification verifies each status is chosen for its case.
func TestCompare_Classification(t *testing.T) {
	c := New(seed(t))

	tests := []struct {
		name    string
		status  Status
		oldFile string
		latest  string
	}{
		{"Missing", StatusNoNewFile, "", ""},
		{"New", StatusNoOldFile, "", "class New {}"},
		{"Same", StatusNoChanges, "Same_1600000000000.cls", "class Same {}"},
		{"Changed", StatusChangesFound, "Changed_1700000000000.cls", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Compare(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.name+".cls", res.FileName)
			assert.Equal(t, tt.oldFile, res.OldFile)
			assert.Equal(t, tt.latest, res.Latest)
			assert.Equal(t, len(res.Changes), res.ChangeCount)
		})
	}
}

func TestCompare_Changes(t *testing.T) {
	c := New(seed(t))

	res, err := c.Compare("Changed")
	require.NoError(t, err)
	assert.Equal(t, []diff.Change{{Line: 2, Kind: diff.KindChange, Old: "b", New: "x"}}, res.Changes)
}

// TestCompare_Idempotent verifies repeated comparisons without a write agree.
func TestCompare_Idempotent(t *testing.T) {
	c := New(seed(t))

	for _, name := range []string{"Changed", "New", "Same", "Missing"} {
		first, err := c.Compare(name)
		require.NoError(t, err)
		second, err := c.Compare(name)
		require.NoError(t, err)
		assert.Equal(t, first, second, name)
	}
}

func TestCompare_ReadFailure(t *testing.T) {
	c := New(seed(t))

	_, err := c.Compare("Bad")
	assert.ErrorIs(t, err, ErrComparisonFailed)

	_, err = c.Compare("../../etc/passwd")
	assert.ErrorIs(t, err, ErrComparisonFailed)
	assert.ErrorIs(t, err, archive.ErrUnsafePath)
}

// TestCompareAll_Robust verifies an unreadable archived version only marks
// its own artifact as failed.
func TestCompareAll_Robust(t *testing.T) {
	c := New(seed(t))

	results, err := c.CompareAll()
	require.NoError(t, err)
	require.Len(t, results, 4)

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.FileName] = r
	}
	assert.Equal(t, StatusError, byName["Bad.cls"].Status)
	assert.Contains(t, byName["Bad.cls"].Message, "comparison failed")
	assert.Equal(t, StatusChangesFound, byName["Changed.cls"].Status)
	assert.Equal(t, StatusNoOldFile, byName["New.cls"].Status)
	assert.Equal(t, StatusNoChanges, byName["Same.cls"].Status)
}

func TestCompareAll_Empty(t *testing.T) {
	c := New(newStore(t, afero.NewMemMapFs()))

	results, err := c.CompareAll()
	require.NoError(t, err)
	assert.Empty(t, results)

	sum, err := c.Summary()
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestSummary(t *testing.T) {
	c := New(seed(t))

	sum, err := c.Summary()
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalFiles: 4, ChangedFiles: 1, NewFiles: 1, UnchangedFiles: 1, TotalChanges: 1}, sum)
	assert.Less(t, sum.ChangedFiles+sum.NewFiles+sum.UnchangedFiles, sum.TotalFiles)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    Summary
	}{
		{"none", nil, Summary{}},
		{
			"no errors",
			[]Result{
				{Status: StatusChangesFound, ChangeCount: 3},
				{Status: StatusChangesFound, ChangeCount: 2},
				{Status: StatusNoOldFile},
				{Status: StatusNoChanges},
			},
			Summary{TotalFiles: 4, ChangedFiles: 2, NewFiles: 1, UnchangedFiles: 1, TotalChanges: 5},
		},
		{
			"errors count only in total",
			[]Result{{Status: StatusError}, {Status: StatusNoChanges}},
			Summary{TotalFiles: 2, UnchangedFiles: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.results)
			assert.Equal(t, tt.want, got)
			if got.TotalFiles == len(tt.results) {
				assert.LessOrEqual(t, got.ChangedFiles+got.NewFiles+got.UnchangedFiles, got.TotalFiles)
			}
		})
	}
}
