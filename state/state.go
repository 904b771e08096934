// Package state holds the canonical view state and computes diffs between snapshots.
package state

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Snapshot maps state keys to scalar or []string values.
type Snapshot map[string]any

// Clone copies the snapshot, slices included.
func (snap Snapshot) Clone() Snapshot {

	clone := make(Snapshot, len(snap))
	for key, val := range snap {
		if strs, ok := val.([]string); ok {
			val = slices.Clone(strs)
		}
		clone[key] = val
	}
	return clone
}

// Keys returns the snapshot's keys in sorted order.
func (snap Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(snap))
}

// String returns a key's value in canonical text form, or "" when absent.
func (snap Snapshot) String(key string) string {

	val, ok := snap[key]
	if !ok || val == nil {
		return ""
	}
	return canonical(val)
}

// Int returns a key's value as an integer, or dflt when absent or not numeric.
func (snap Snapshot) Int(key string, dflt int) int {

	switch val := snap[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}

	num, err := strconv.Atoi(snap.String(key))
	if err != nil {
		return dflt
	}
	return num
}

// Bool returns a key's value as a boolean; "1" and "true" are true.
func (snap Snapshot) Bool(key string) bool {

	if val, ok := snap[key].(bool); ok {
		return val
	}

	str := snap.String(key)
	return str == "1" || str == "true"
}

// Strings returns a key's value as a list.
func (snap Snapshot) Strings(key string) []string {

	switch val := snap[key].(type) {
	case nil:
		return nil
	case []string:
		return slices.Clone(val)
	case []any:
		strs := make([]string, len(val))
		for i, elem := range val {
			strs[i] = canonical(elem)
		}
		return strs
	default:
		return []string{canonical(val)}
	}
}

// Equal compares loosely: values are equal when their canonical text is, so 5 == "5".
// Lists compare element-wise; a list against a scalar compares its comma-joined form.
func Equal(aa, bb any) bool {

	la, aList := list(aa)
	lb, bList := list(bb)

	switch {
	case aList && bList:
		return slices.Equal(la, lb)
	case aList:
		return strings.Join(la, ",") == canonical(bb)
	case bList:
		return canonical(aa) == strings.Join(lb, ",")
	}
	return canonical(aa) == canonical(bb)
}

func list(val any) (strs []string, ok bool) {

	switch val := val.(type) {
	case []string:
		return val, true
	case []any:
		strs = make([]string, len(val))
		for i, elem := range val {
			strs[i] = canonical(elem)
		}
		return strs, true
	}
	return
}

func canonical(val any) string {

	switch val := val.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case []string:
		return strings.Join(val, ",")
	}
	return fmt.Sprint(val)
}
