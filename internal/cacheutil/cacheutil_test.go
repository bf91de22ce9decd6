// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCache points the cache at a fresh temp dir with caching enabled.
func withCache(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APEXSYNC_CACHE_DIR", dir)
	t.Setenv("APEXSYNC_CACHE", "1")
	return dir
}

func TestDir(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("APEXSYNC_CACHE_DIR", custom)

	got, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, custom, got)

	t.Setenv("APEXSYNC_CACHE_DIR", "")
	if got, ok := Dir(); ok {
		assert.True(t, filepath.IsAbs(got))
		assert.Equal(t, "apexsync", filepath.Base(got))
	}
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"yes", true},
		{"0", false},
		{"false", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("APEXSYNC_CACHE", tt.value)
			assert.Equal(t, tt.expected, Enabled())
		})
	}
}

func TestEnsureBaseDir(t *testing.T) {
	t.Setenv("APEXSYNC_CACHE", "0")
	base, ok, err := EnsureBaseDir()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, base)

	dir := filepath.Join(withCache(t), "nested", "cache")
	t.Setenv("APEXSYNC_CACHE_DIR", dir)
	base, ok, err = EnsureBaseDir()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, dir, base)
	assert.DirExists(t, dir)
}

func TestWriteRead(t *testing.T) {
	dir := withCache(t)

	_, found := Read([]string{"acme.my.salesforce.com"}, "listMetadata:ApexClass:58.0")
	assert.False(t, found)

	require.NoError(t, Write([]string{"acme.my.salesforce.com"}, "listMetadata:ApexClass:58.0", []byte("  [1,2]\n")))

	p := filepath.Join(dir, "acme.my.salesforce.com", encodeKey("listMetadata:ApexClass:58.0"))
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.NoFileExists(t, p+".tmp")

	entry, found := Read([]string{"acme.my.salesforce.com"}, "listMetadata:ApexClass:58.0")
	require.True(t, found)
	assert.Equal(t, []byte("[1,2]"), entry.Data)
	assert.Equal(t, p, entry.Path)
	assert.Less(t, entry.Age(), time.Minute)

	require.NoError(t, Write([]string{"acme.my.salesforce.com"}, "listMetadata:ApexClass:58.0", []byte("[3]")))
	entry, _ = Read([]string{"acme.my.salesforce.com"}, "listMetadata:ApexClass:58.0")
	assert.Equal(t, []byte("[3]"), entry.Data)
}

func TestWriteRead_Disabled(t *testing.T) {
	dir := withCache(t)
	t.Setenv("APEXSYNC_CACHE", "false")

	require.NoError(t, Write(nil, "k", []byte("v")))
	_, found := Read(nil, "k")
	assert.False(t, found)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadFresh(t *testing.T) {
	withCache(t)
	require.NoError(t, Write(nil, "k", []byte("v")))

	p, ok := EntryPath(nil, "k")
	require.True(t, ok)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(p, old, old))

	_, found := ReadFresh(nil, "k", time.Hour)
	assert.False(t, found)

	_, found = ReadFresh(nil, "k", 3*time.Hour)
	assert.True(t, found)

	_, found = ReadFresh(nil, "k", 0)
	assert.True(t, found)
}

func TestInvalidate(t *testing.T) {
	withCache(t)
	require.NoError(t, Invalidate(nil, "missing"))

	require.NoError(t, Write([]string{"x"}, "k", []byte("v")))
	require.NoError(t, Invalidate([]string{"x"}, "k"))

	_, found := Read([]string{"x"}, "k")
	assert.False(t, found)
}

func TestPurge(t *testing.T) {
	withCache(t)
	require.NoError(t, Write([]string{"a"}, "old", []byte("1")))
	require.NoError(t, Write([]string{"a"}, "new", []byte("2")))

	p, _ := EntryPath([]string{"a"}, "old")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(p, old, old))

	require.NoError(t, Purge(0))
	assert.FileExists(t, p)

	require.NoError(t, Purge(24))
	assert.NoFileExists(t, p)
	_, found := Read([]string{"a"}, "new")
	assert.True(t, found)
}

func TestPurge_MissingBase(t *testing.T) {
	t.Setenv("APEXSYNC_CACHE_DIR", filepath.Join(t.TempDir(), "never-created"))
	assert.NoError(t, Purge(1))
}

func TestEncodeKey(t *testing.T) {
	assert.Len(t, encodeKey("anything"), 64)
	assert.Equal(t, encodeKey("a"), encodeKey("a"))
	assert.NotEqual(t, encodeKey("a"), encodeKey("b"))
}
