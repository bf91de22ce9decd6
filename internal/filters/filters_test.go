// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

//go:embed testdata/*.yaml
var testDataFS embed.FS

// testBuildFiltersCase represents a single test case for TestBuildFilters.
type testBuildFiltersCase struct {
	Name      string   `yaml:"name"`
	Spec      string   `yaml:"spec"`
	Delimiter string   `yaml:"delimiter"`
	Want      []Filter `yaml:"want"`
	WantCount int      `yaml:"wantCount"`
}

// testCheckStringOperandCase represents a single test case for
// TestCheckStringOperand.
type testCheckStringOperandCase struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Filter Filter `yaml:"filter"`
	Want   bool   `yaml:"want"`
}

// testCheckNumericOperandCase represents a single test case for
// TestCheckNumericOperand.
type testCheckNumericOperandCase struct {
	Name   string  `yaml:"name"`
	Value  float64 `yaml:"value"`
	Filter Filter  `yaml:"filter"`
	Want   bool    `yaml:"want"`
}

// testApplyCase represents a single test case for TestApply.
type testApplyCase struct {
	Name string   `yaml:"name"`
	Spec string   `yaml:"spec"`
	Want []string `yaml:"want"`
}

// loadTestData loads test data from embedded YAML files.
func loadTestData(filename string, v interface{}) error {
	data, err := testDataFS.ReadFile("testdata/" + filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, v)
}

type change struct {
	Line int    `json:"line"`
	Kind string `json:"type"`
}

type row struct {
	FileName    string   `json:"fileName"`
	Status      string   `json:"status"`
	ChangeCount int      `json:"changeCount"`
	Changes     []change `json:"changes"`
	OldFile     string   `json:"oldFile,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

var rows = []row{
	{FileName: "Changed.cls", Status: "changes_found", ChangeCount: 1, Changes: []change{{2, "CHANGE"}}, OldFile: "Changed_1.cls"},
	{FileName: "New.cls", Status: "no_old_file", Changes: []change{}, Tags: []string{"alpha", "beta"}},
	{FileName: "Same.cls", Status: "no_changes", Changes: []change{}, OldFile: "Same_1.cls"},
	{FileName: "Bad.cls", Status: "error", Changes: []change{}},
}

func TestBuildFilters(t *testing.T) {
	var tests []testBuildFiltersCase
	require.NoError(t, loadTestData("build_filters.yaml", &tests))

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			t.Setenv("APEXSYNC_FILTER_DELIM", tt.Delimiter)

			got := BuildFilters(tt.Spec)
			assert.Len(t, got, tt.WantCount)
			for i, filter := range tt.Want {
				assert.Equal(t, filter, got[i])
			}
		})
	}
}

func TestCheckStringOperand(t *testing.T) {
	var tests []testCheckStringOperandCase
	require.NoError(t, loadTestData("check_string_operand.yaml", &tests))

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Want, checkStringOperand(tt.Value, tt.Filter))
		})
	}
}

func TestCheckNumericOperand(t *testing.T) {
	var tests []testCheckNumericOperandCase
	require.NoError(t, loadTestData("check_numeric_operand.yaml", &tests))

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Want, checkNumericOperand(tt.Value, tt.Filter))
		})
	}
}

func TestCheckContainsOperand(t *testing.T) {
	list := []any{"a", float64(2)}
	obj := map[string]any{"k": 1}

	assert.True(t, checkContainsOperand(list, Filter{Operand: "@", Value: "a"}))
	assert.True(t, checkContainsOperand(list, Filter{Operand: "@", Value: "2"}))
	assert.False(t, checkContainsOperand(list, Filter{Operand: "@", Value: "a", Negate: true}))
	assert.True(t, checkContainsOperand(list, Filter{Operand: "@", Value: "z", Negate: true}))
	assert.True(t, checkContainsOperand(obj, Filter{Operand: "@", Value: "k"}))
	assert.False(t, checkContainsOperand(obj, Filter{Operand: "@", Value: "k", Negate: true}))
	assert.False(t, checkContainsOperand("scalar", Filter{Operand: "@", Value: "s"}))
}

func TestApply(t *testing.T) {
	var tests []testApplyCase
	require.NoError(t, loadTestData("apply.yaml", &tests))

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			got := Apply(rows, tt.Spec)

			names := []string{}
			for _, r := range got {
				names = append(names, r.FileName)
			}
			assert.Equal(t, tt.Want, names)
		})
	}
}

// TestApply_KeyOnlyObjects verifies a bare key drops rows whose object value
// is empty.
func TestApply_KeyOnlyObjects(t *testing.T) {
	type row struct {
		Name  string            `json:"name"`
		Attrs map[string]string `json:"attrs"`
	}
	in := []row{
		{Name: "Empty", Attrs: map[string]string{}},
		{Name: "Full", Attrs: map[string]string{"owner": "ops"}},
	}

	got := Apply(in, "attrs")
	require.Len(t, got, 1)
	assert.Equal(t, "Full", got[0].Name)
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`{"v":null}`, false},
		{`{"v":false}`, false},
		{`{"v":true}`, true},
		{`{"v":0}`, false},
		{`{"v":1.5}`, true},
		{`{"v":""}`, false},
		{`{"v":"x"}`, true},
		{`{"v":[]}`, false},
		{`{"v":{}}`, false},
		{`{"v":[1]}`, true},
		{`{"v":{"a":1}}`, true},
		{`{"v":[{}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, truthy(gjson.Get(tt.raw, "v")))
		})
	}
}
