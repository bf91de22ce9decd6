// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// filterRegex parses a filter expression into key, operator and target. The
// operator is one of = ^ ~ < > @ or /, optionally prefixed with '!'.
// Examples: "status" (key only), "status=changes_found", "name!^Test".
var filterRegex = regexp.MustCompile(`^([^!=^~<>@/]*)(!?[=^~<>@/])?(.*)$`)

// indexRegex matches the bracketed index form "changes[0]".
var indexRegex = regexp.MustCompile(`\[(\d+)\]`)

// Filter is a single parsed --filter expression.
type Filter struct {
	Key     string `yaml:"key" json:"key"`
	Negate  bool   `yaml:"negate" json:"negate"`
	Operand string `yaml:"operand" json:"operand"`
	Value   string `yaml:"value" json:"value"`
}

// BuildFilters parses a filter expression string into a slice of Filter.
// Entries with an empty key are skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override for situations where the value
	// contains commas.
	delim := ","
	if d, ok := os.LookupEnv("APEXSYNC_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		filterSpec = strings.TrimSpace(filterSpec)
		if filterSpec == "" {
			continue
		}

		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		key := strings.TrimSpace(parts[1])
		if key == "" {
			log.Error("invalid filter: empty key in " + filterSpec)
			continue
		}

		operand := parts[2]
		negate := strings.HasPrefix(operand, "!")
		filters = append(filters, Filter{
			Key:     key,
			Negate:  negate,
			Operand: strings.TrimPrefix(operand, "!"),
			Value:   parts[3],
		})
	}

	return filters
}

// Apply returns the items matching every filter in spec. Each item is matched
// on its JSON form, so keys are the JSON field names ("status",
// "changeCount", "changes.0.type"). An empty spec returns items unchanged.
func Apply[T any](items []T, spec string) []T {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return items
	}

	kept := make([]T, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			log.WithError(err).Warnf("filter: cannot encode %T", item)
			continue
		}
		if Match(string(raw), filters) {
			kept = append(kept, item)
		}
	}

	log.Debugf("filter %q kept %d of %d", spec, len(kept), len(items))
	return kept
}

// Match reports whether the JSON document raw satisfies every filter. A key
// the document does not have fails the match.
func Match(raw string, filters []Filter) bool {
	for _, filter := range filters {
		value := lookup(raw, filter.Key)
		if !value.Exists() {
			return false
		}

		var result bool
		switch {
		case filter.Operand == "":
			result = truthy(value) == !filter.Negate
		case value.Type == gjson.String:
			result = checkStringOperand(value.String(), filter)
		case value.Type == gjson.True || value.Type == gjson.False:
			result = checkStringOperand(value.String(), filter)
		case value.Type == gjson.Number:
			result = checkNumericOperand(value.Float(), filter)
		case filter.Operand == "@":
			result = checkContainsOperand(value.Value(), filter)
		default:
			log.Error(fmt.Sprintf("unsupported type for %s filtering on %s", filter.Operand, filter.Key))
		}

		if !result {
			return false
		}
	}

	return true
}

// lookup resolves a dotted key, accepting "changes[0]" for "changes.0".
func lookup(raw, key string) gjson.Result {
	return gjson.Get(raw, indexRegex.ReplaceAllString(key, ".$1"))
}

// truthy treats missing, empty, zero and false values as false.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Float() != 0
	case gjson.String:
		return v.String() != ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	default:
		return true
	}
}

// checkContainsOperand evaluates a membership style filter (operand '@')
// against array or object values.
func checkContainsOperand(value interface{}, filter Filter) bool {
	switch val := value.(type) {
	case []any:
		for _, item := range val {
			if fmt.Sprintf("%v", item) == filter.Value {
				return !filter.Negate
			}
		}
		return filter.Negate
	case map[string]any:
		_, found := val[filter.Value]
		return found == !filter.Negate
	default:
		log.Error(fmt.Sprintf("unsupported type for contains filtering: %T", value))
		return false
	}
}

// checkNumericOperand compares a numeric value against the filter value using
// numeric semantics. Supported operands: =, >, < and the negated forms.
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Value), 64)
	if err != nil {
		log.Error("invalid numeric value: " + filter.Value)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Value == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Value) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Value) == !filter.Negate
	case ">":
		return value > filter.Value == !filter.Negate
	case "<":
		return value < filter.Value == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Value) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Value, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Value)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
