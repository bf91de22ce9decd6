// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name     string
		old      []string
		new      []string
		expected []Change
	}{
		{
			name: "identical",
			old:  []string{"a", "b", "c"},
			new:  []string{"a", "b", "c"},
		},
		{
			name: "both empty",
		},
		{
			name:     "single change",
			old:      []string{"a", "b", "c"},
			new:      []string{"a", "x", "c"},
			expected: []Change{{Line: 2, Kind: KindChange, Old: "b", New: "x"}},
		},
		{
			name:     "block change",
			old:      []string{"a", "b", "c", "d"},
			new:      []string{"a", "x", "y", "d"},
			expected: []Change{{Line: 2, Kind: KindChange, Old: "b\nc", New: "x\ny"}},
		},
		{
			name:     "delete",
			old:      []string{"a", "b", "c"},
			new:      []string{"a", "c"},
			expected: []Change{{Line: 2, Kind: KindDelete, Old: "b"}},
		},
		{
			name:     "insert at end",
			old:      []string{"a", "b"},
			new:      []string{"a", "b", "c"},
			expected: []Change{{Line: 3, Kind: KindInsert, New: "c"}},
		},
		{
			name:     "insert at start",
			old:      []string{"b"},
			new:      []string{"a", "b"},
			expected: []Change{{Line: 1, Kind: KindInsert, New: "a"}},
		},
		{
			name:     "from empty",
			new:      []string{"a"},
			expected: []Change{{Line: 1, Kind: KindInsert, New: "a"}},
		},
		{
			name:     "to empty",
			old:      []string{"a", "b"},
			expected: []Change{{Line: 1, Kind: KindDelete, Old: "a\nb"}},
		},
		{
			name: "separate deltas ascend",
			old:  []string{"a", "b", "c", "d", "e"},
			new:  []string{"a", "B", "c", "d"},
			expected: []Change{
				{Line: 2, Kind: KindChange, Old: "b", New: "B"},
				{Line: 5, Kind: KindDelete, Old: "e"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Lines(tt.old, tt.new))
		})
	}
}

func TestLines_Symmetry(t *testing.T) {
	inputs := [][]string{
		nil,
		{""},
		{"", "", ""},
		{"public class A {", "}", "}"},
		SplitLines("one\ntwo\r\nthree\rfour\n"),
	}

	for _, in := range inputs {
		assert.Empty(t, Lines(in, in))
	}
}

func TestLines_WhitespaceNotSuppressed(t *testing.T) {
	changes := Lines([]string{"int x = 1;"}, []string{"int x = 1; "})
	require.Len(t, changes, 1)
	assert.Equal(t, KindChange, changes[0].Kind)
}

func TestLines_LongSingleLine(t *testing.T) {
	oldLine := strings.Repeat("x", 20000)
	newLine := oldLine[:len(oldLine)-1] + "y"

	changes := Lines([]string{oldLine}, []string{newLine})
	require.Len(t, changes, 1)
	assert.Len(t, changes[0].Old, 20000)
	assert.Len(t, changes[0].New, 20000)
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\rb", []string{"a", "b"}},
		{"\n", []string{""}},
		{"a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitLines(tt.in))
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		old      string
		new      string
		expected []TextChange
	}{
		{
			name: "whitespace only",
			old:  "a;\n  b;",
			new:  "a;\n\tb;   ",
		},
		{
			name: "single line export matches formatted source",
			old:  "public class A { void m() { x = 1; } }",
			new:  "public class A {\n  void m() {\n    x = 1;\n  }\n}\n",
		},
		{
			name:     "changed statement",
			old:      "int x = 1;",
			new:      "int x = 2;",
			expected: []TextChange{{Line: 1, Old: "int x = 1;", New: "int x = 2;"}},
		},
		{
			name:     "added statement",
			old:      "a;",
			new:      "a;b;",
			expected: []TextChange{{Line: 2, Old: "", New: "b;"}},
		},
		{
			name:     "removed statement",
			old:      "a;b;",
			new:      "a;",
			expected: []TextChange{{Line: 2, Old: "b;", New: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.old, tt.new))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "class A {\n x;\n }", Normalize("class A { x; }"))
	assert.Equal(t, "a;\nb;", Normalize("\n\na;\n\n\nb;\n"))
}

func TestTextChange_String(t *testing.T) {
	c := TextChange{Line: 4, Old: `say("hi");`, New: ""}
	assert.Equal(t, "line 4:\n  old: \"say(\\\"hi\\\");\"\n  new: \"\"", c.String())
}
