// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/compare"
	"github.com/apexsync/apexsync/internal/diff"
	"github.com/apexsync/apexsync/internal/remote"
	"github.com/apexsync/apexsync/internal/retrieve"
)

func TestSortDataset(t *testing.T) {
	testData := []map[string]interface{}{
		{"name": "zebra", "count": 3, "status": "changes_found"},
		{"name": "alpha", "count": 1.0, "status": "no_old_file"},
		{"name": "Beta", "count": int64(2), "status": "no_changes"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{"ascending by name", "name", []string{"alpha", "Beta", "zebra"}},
		{"descending by name", "-name", []string{"zebra", "Beta", "alpha"}},
		{"ascending by count", "count", []string{"alpha", "Beta", "zebra"}},
		{"descending by count", "-count", []string{"zebra", "Beta", "alpha"}},
		{"case sensitive", "!name", []string{"Beta", "alpha", "zebra"}},
		{"multiple fields", "status,name", []string{"zebra", "Beta", "alpha"}},
		{"descending and case sensitive", "-!name", []string{"zebra", "alpha", "Beta"}},
		{"empty spec", "", []string{"zebra", "alpha", "Beta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]interface{}, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)
			for i, expectedName := range tt.wantOrder {
				assert.Equal(t, expectedName, data[i]["name"], "at index %d", i)
			}
		})
	}
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		empty []string
		want  string
	}{
		{"nil", nil, nil, ""},
		{"nil custom empty", nil, []string{"-"}, "-"},
		{"zero int", 0, []string{"-"}, "-"},
		{"string", "abc", nil, "abc"},
		{"int", 42, nil, "42"},
		{"int64", int64(1700000000000), nil, "1700000000000"},
		{"float", 3.0, nil, "3"},
		{"bool", true, nil, "true"},
		{"duration", 1234567 * time.Microsecond, nil, "1.235s"},
		{"slice", []string{"a", "b"}, nil, `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterfaceToString(tt.value, tt.empty...))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"raw", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmit(t *testing.T) {
	v := map[string]int{"a": 1}

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, v, Options{Format: FormatJSON}, nil))
	assert.JSONEq(t, `{"a":1}`, buf.String())

	buf.Reset()
	require.NoError(t, Emit(&buf, v, Options{Format: FormatYAML}, nil))
	assert.Equal(t, "a: 1\n", buf.String())

	buf.Reset()
	boom := errors.New("boom")
	err := Emit(&buf, v, Options{}, func(w io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestTable(t *testing.T) {
	rows := []map[string]interface{}{
		{"name": "b", "n": 2},
		{"name": "a", "n": nil},
	}
	cols := []Column{{Key: "name", Title: "NAME"}, {Key: "n", Title: "N"}}

	var buf bytes.Buffer
	Table(&buf, rows, cols, Options{Titles: true, Padding: 2, Sort: "name"})
	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("a")), bytes.Index(buf.Bytes(), []byte("b")))
	assert.Contains(t, out, "-")

	buf.Reset()
	Table(&buf, nil, cols, Options{})
	assert.Empty(t, buf.String())
}

func sampleResults() []compare.Result {
	return []compare.Result{
		{
			FileName: "Foo.cls", Path: "unpackaged/classes/Foo.cls", Status: compare.StatusChangesFound,
			ChangeCount: 1, OldFile: "Foo_1700000000000.cls",
			Changes: []diff.Change{{Line: 2, Kind: diff.KindChange, Old: "b", New: "x"}},
		},
		{FileName: "Bar.cls", Path: "unpackaged/classes/Bar.cls", Status: compare.StatusNoOldFile, Changes: []diff.Change{}},
	}
}

func TestResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, sampleResults(), Options{Titles: true}))
	assert.Contains(t, buf.String(), "Foo_1700000000000.cls")
	assert.Contains(t, buf.String(), "no_old_file")

	buf.Reset()
	require.NoError(t, Results(&buf, sampleResults(), Options{Format: FormatJSON}))
	var decoded []compare.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleResults(), decoded)
}

func TestResult_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Result(&buf, sampleResults()[0], Options{}))
	assert.Equal(t, "Foo.cls: changes_found against Foo_1700000000000.cls\n1 change\n@@ line 2 CHANGE\n- b\n+ x\n", buf.String())

	buf.Reset()
	r := compare.Result{FileName: "Gone.cls", Status: compare.StatusNoNewFile, Message: "file not found in current"}
	require.NoError(t, Result(&buf, r, Options{}))
	assert.Equal(t, "Gone.cls: no_new_file\nfile not found in current\n", buf.String())
}

func TestChanges(t *testing.T) {
	var buf bytes.Buffer
	Changes(&buf, []diff.Change{
		{Line: 1, Kind: diff.KindInsert, New: "a\nb"},
		{Line: 4, Kind: diff.KindDelete, Old: "c"},
	}, false)
	assert.Equal(t, "@@ line 1 INSERT\n+ a\n+ b\n@@ line 4 DELETE\n- c\n", buf.String())
}

func TestSummary(t *testing.T) {
	s := compare.Summary{TotalFiles: 1200, ChangedFiles: 3, NewFiles: 1, UnchangedFiles: 1195, TotalChanges: 7}

	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, s, Options{}))
	assert.Contains(t, buf.String(), "Total files:      1,200")
	assert.Contains(t, buf.String(), "Unchanged files:  1,195")

	buf.Reset()
	require.NoError(t, Summary(&buf, s, Options{Format: FormatYAML}))
	var decoded compare.Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s, decoded)
}

func TestTextChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextChanges(&buf, nil, Options{}))
	assert.Equal(t, "No differences.\n", buf.String())

	buf.Reset()
	require.NoError(t, TextChanges(&buf, nil, Options{Format: FormatJSON}))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, TextChanges(&buf, []diff.TextChange{{Line: 1, Old: "a", New: "b"}}, Options{}))
	assert.Contains(t, buf.String(), "line 1:")
}

func TestRetrieve(t *testing.T) {
	var buf bytes.Buffer
	r := retrieve.Result{JobID: "09S1", Extracted: 3, Archived: 1, Artifacts: []string{"Foo"}}
	require.NoError(t, Retrieve(&buf, r, Options{}))
	assert.Equal(t, "Retrieved job 09S1: 3 files extracted, 1 file archived, 1 artifact.\n", buf.String())
}

func TestClasses(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	classes := []remote.Class{
		{Name: "Foo", ID: "01p1", LastModified: "2026-01-08T00:00:00.000Z", LastModifiedBy: "Ada"},
		{Name: "Bar", ID: "01p2", LastModified: "yesterday"},
	}

	var buf bytes.Buffer
	require.NoError(t, Classes(&buf, classes, Options{}, now))
	assert.Contains(t, buf.String(), "2 days ago")
	assert.Contains(t, buf.String(), "yesterday")

	buf.Reset()
	require.NoError(t, Classes(&buf, nil, Options{Format: FormatJSON}, now))
	assert.Equal(t, "[]\n", buf.String())
}

func TestPing(t *testing.T) {
	var buf bytes.Buffer
	p := remote.PingResult{URL: "https://x/services/data/v58.0/", StatusCode: 200, Elapsed: 120 * time.Millisecond, Body: "{}"}
	require.NoError(t, Ping(&buf, p, Options{}))
	assert.Contains(t, buf.String(), "Status:   200")
	assert.Contains(t, buf.String(), "120ms")
}

func TestRotateAndPrune(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Rotate(&buf, archive.RotateResult{Moved: 2, Skipped: 1}, Options{}))
	assert.Equal(t, "Rotated 2 files into previous, skipped 1.\n", buf.String())

	buf.Reset()
	require.NoError(t, Prune(&buf, archive.PruneResult{Removed: 1}, Options{}))
	assert.Equal(t, "Removed 1 archived version and 0 temp files.\n", buf.String())
}

func TestKeyValues(t *testing.T) {
	var buf bytes.Buffer
	KeyValues(&buf, []Pair{{"A", "1"}, {"Longer", nil}})
	assert.Equal(t, "A:       1\nLonger:  -\n", buf.String())
}
