// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/apex/log"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/apexsync/apexsync/internal/archive"
)

// Options controls how Manifests renders.
type Options struct {
	// Ignore lists top level manifest keys left out of the comparison.
	Ignore   []string
	Coloring bool
}

// FileChanges lists the relative paths that differ between two manifests.
type FileChanges struct {
	Added    []string `json:"added" yaml:"added"`
	Removed  []string `json:"removed" yaml:"removed"`
	Modified []string `json:"modified" yaml:"modified"`
}

// Empty reports whether no file differs.
func (fc FileChanges) Empty() bool {
	return len(fc.Added)+len(fc.Removed)+len(fc.Modified) == 0
}

// Manifests writes a structural diff of two retrieve manifests to w and
// reports whether they differ. A nil manifest compares as empty.
func Manifests(w io.Writer, older, newer *archive.Manifest, opts Options) (bool, error) {
	log.Debugf(">> differ.Manifests()")

	left, err := manifestDoc(older, opts.Ignore)
	if err != nil {
		return false, err
	}
	right, err := manifestDoc(newer, opts.Ignore)
	if err != nil {
		return false, err
	}

	delta := gojsondiff.New().CompareObjects(left, right)
	if !delta.Modified() {
		fmt.Fprintln(w, "The manifests are identical.")
		return false, nil
	}

	config := formatter.AsciiFormatterConfig{
		ShowArrayIndex: false,
		Coloring:       opts.Coloring,
	}
	out, err := formatter.NewAsciiFormatter(left, config).Format(delta)
	if err != nil {
		return true, fmt.Errorf("failed to format manifest diff: %w", err)
	}

	fmt.Fprint(w, out)
	return true, nil
}

// Files compares the file hashes of two manifests. Each list is sorted.
func Files(older, newer *archive.Manifest) FileChanges {
	var fc FileChanges
	oldFiles, newFiles := files(older), files(newer)

	for rel, hash := range newFiles {
		prev, ok := oldFiles[rel]
		switch {
		case !ok:
			fc.Added = append(fc.Added, rel)
		case prev != hash:
			fc.Modified = append(fc.Modified, rel)
		}
	}
	for rel := range oldFiles {
		if _, ok := newFiles[rel]; !ok {
			fc.Removed = append(fc.Removed, rel)
		}
	}

	sort.Strings(fc.Added)
	sort.Strings(fc.Removed)
	sort.Strings(fc.Modified)
	return fc
}

func files(m *archive.Manifest) map[string]string {
	if m == nil {
		return nil
	}
	return m.Files
}

// manifestDoc round trips m through JSON so the diff sees the serialized
// key names.
func manifestDoc(m *archive.Manifest, ignore []string) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if m == nil {
		return doc, nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	for _, key := range ignore {
		delete(doc, key)
	}
	return doc, nil
}
