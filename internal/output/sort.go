// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"cmp"
	"sort"
	"strings"
)

type sortKey struct {
	field         string
	descending    bool
	caseSensitive bool
}

// parseSortSpec splits a comma separated key list. Each key may carry a "-"
// (descending) and a "!" (case sensitive) prefix in either order.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, f := range strings.Split(spec, ",") {
		k := sortKey{}
		for len(f) > 0 && (f[0] == '-' || f[0] == '!') {
			if f[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			f = f[1:]
		}
		if f = strings.TrimSpace(f); f != "" {
			k.field = f
			keys = append(keys, k)
		}
	}
	return keys
}

// compare orders two cell values. Numbers compare numerically; anything else
// compares by its rendered text.
func (k sortKey) compare(a, b interface{}) int {
	if an, ok := number(a); ok {
		if bn, ok := number(b); ok {
			return cmp.Compare(an, bn)
		}
	}
	as, bs := InterfaceToString(a), InterfaceToString(b)
	if !k.caseSensitive {
		as, bs = strings.ToLower(as), strings.ToLower(bs)
	}
	return strings.Compare(as, bs)
}

// SortDataset orders rows in place by a comma separated list of keys, for
// example "status,-changes". Rows equal on every key keep their order.
func SortDataset(rows []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := k.compare(rows[i][k.field], rows[j][k.field])
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
