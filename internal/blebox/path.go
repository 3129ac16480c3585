package blebox

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Follow resolves a path expression against a decoded JSON tree.
//
// The expression is a "/"-separated list of segments:
//
//	key            traverse into an object
//	[N]            index into an array
//	[key='text']   first array element whose key equals the string
//	[key=N]        first array element whose key equals the integer
//
// Segments are applied left to right and the first failure aborts the walk.
// A JSON null at the end of the path is returned as a nil value with no
// error; callers treat that as "not reported". A missing key or an
// unmatched filter fails with a PathError whose Absent field is set, which
// separates "field not reported" from a tree of the wrong shape.
//
// Parameters:
//   - data: tree produced by encoding/json (objects as map[string]any)
//   - path: expression to resolve
//
// Returns:
//   - any: the addressed value or subtree
//   - error: *PathError wrapping ErrPathFailed
func Follow(data any, path string) (any, error) {
	current := data
	for _, segment := range strings.Split(path, "/") {
		next, reason, absent := step(current, segment)
		if reason != "" {
			return nil, &PathError{Segment: segment, Path: path, Data: current, Reason: reason, Absent: absent}
		}
		current = next
	}
	return current, nil
}

// step applies one segment. A non-empty reason reports failure; absent
// marks failures where the node had the right shape but not the item.
func step(node any, segment string) (value any, reason string, absent bool) {
	if !strings.HasPrefix(segment, "[") || !strings.HasSuffix(segment, "]") {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Sprintf("expected an object, got %s", describe(node)), false
		}
		v, found := obj[segment]
		if !found {
			return nil, fmt.Sprintf("item %q not among: %s", segment, strings.Join(sortedKeys(obj), ", ")), true
		}
		return v, "", false
	}

	list, ok := node.([]any)
	if !ok {
		return nil, fmt.Sprintf("expected an array, got %s", describe(node)), false
	}
	inner := segment[1 : len(segment)-1]

	if key, raw, isFilter := strings.Cut(inner, "="); isFilter {
		want, err := parseFilterValue(raw)
		if err != nil {
			return nil, err.Error(), false
		}
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if got, ok := obj[key]; ok && filterMatches(got, want) {
				return obj, "", false
			}
		}
		return nil, fmt.Sprintf("no element with %s=%s", key, raw), true
	}

	index, err := strconv.Atoi(inner)
	if err != nil {
		return nil, fmt.Sprintf("bad index %q", inner), false
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Sprintf("index %d out of range (length %d)", index, len(list)), false
	}
	return list[index], "", false
}

// parseFilterValue returns a string for quoted values and an int otherwise.
func parseFilterValue(raw string) (any, error) {
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '\'' || first == '"') && first == last {
			return raw[1 : len(raw)-1], nil
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("filter value %q is neither quoted nor an integer", raw)
	}
	return n, nil
}

// filterMatches compares exactly: strings never match integers.
func filterMatches(got, want any) bool {
	switch w := want.(type) {
	case string:
		s, ok := got.(string)
		return ok && s == w
	case int:
		n, ok := asInt(got)
		return ok && n == w
	}
	return false
}

// asInt reports whether v is an integer in any of the forms a decoded payload
// can carry. Strings and booleans are never integers.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return "number"
	}
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
