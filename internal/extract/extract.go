// Package extract reduces decoded JSON values to a selected set of fields.
//
// Values are the generic decoded model: map[string]any for objects, []any
// for arrays, and scalars (json.Number, string, bool, nil). Selectors are
// bare keys ("id") or dotted paths ("user.profile.age"); numeric path
// segments index arrays. A dotted selector is flattened into a single key
// with dots replaced by underscores ("user_profile_age").
package extract

import (
	"strconv"
	"strings"
)

// Fields returns a reduced copy of value containing only the selected
// fields. Objects yield a new object keyed by [FlatKey]; arrays yield one
// extracted element per input element, in order; scalars are returned
// unchanged. Selectors that do not resolve are omitted. value is never
// modified.
func Fields(value any, selectors []string) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(selectors))
		for _, sel := range selectors {
			if !strings.Contains(sel, ".") {
				if fv, ok := v[sel]; ok {
					out[sel] = fv
				}
				continue
			}
			if fv, ok := Resolve(v, sel); ok {
				out[FlatKey(sel)] = fv
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Fields(elem, selectors)
		}
		return out
	default:
		return value
	}
}

// Resolve walks a dotted path through value. At each segment an object is
// indexed by key and an array by non-negative integer; anything else, a
// missing key, or an out-of-range index ends the walk with ok == false.
func Resolve(value any, path string) (any, bool) {
	cur := value
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.ParseUint(seg, 10, 0)
			if err != nil || idx >= uint64(len(node)) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// FlatKey returns the output key for a selector: dots become underscores.
func FlatKey(selector string) string {
	return strings.ReplaceAll(selector, ".", "_")
}

// ParseSelectors splits a comma-separated selector list, trimming
// whitespace and dropping empty entries. It returns nil when no selector
// remains, which callers treat as pass-through.
func ParseSelectors(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
