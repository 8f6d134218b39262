package schema

import (
	"sort"

	"github.com/pb33f/libopenapi/orderedmap"
)

// Entry is one key/value pair of a map-like value.
type Entry struct {
	Key   string
	Value any
}

// Entries lists the pairs of a map-like value. Ordered maps keep their insertion
// order; plain maps are returned in lexical key order so callers stay deterministic.
func Entries(v any) ([]Entry, bool) {
	switch t := v.(type) {
	case *orderedmap.Map[string, any]:
		if t == nil {
			return nil, true
		}
		out := make([]Entry, 0, t.Len())
		for k, val := range t.FromOldest() {
			out = append(out, Entry{Key: k, Value: val})
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Entry, 0, len(keys))
		for _, k := range keys {
			out = append(out, Entry{Key: k, Value: t[k]})
		}
		return out, true
	}
	return nil, false
}

// IsMap reports whether v is map-like.
func IsMap(v any) bool {
	switch v.(type) {
	case *orderedmap.Map[string, any], map[string]any:
		return true
	}
	return false
}

// Lookup returns the value stored under key in a map-like value.
func Lookup(v any, key string) (any, bool) {
	switch t := v.(type) {
	case *orderedmap.Map[string, any]:
		if t == nil {
			return nil, false
		}
		return t.Get(key)
	case map[string]any:
		val, ok := t[key]
		return val, ok
	}
	return nil, false
}

// Clone deep-copies maps and slices. Ordered maps stay ordered.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case *orderedmap.Map[string, any]:
		if t == nil {
			return t
		}
		out := orderedmap.New[string, any]()
		for k, val := range t.FromOldest() {
			out.Set(k, Clone(val))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	}
	return v
}

// CloneNode deep-copies a node.
func CloneNode(n Node) Node {
	if n == nil {
		return nil
	}
	return Clone(n).(map[string]any)
}

// Plain deep-copies v, turning ordered maps into plain maps.
func Plain(v any) any {
	switch t := v.(type) {
	case *orderedmap.Map[string, any]:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, t.Len())
		for k, val := range t.FromOldest() {
			out[k] = Plain(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Plain(val)
		}
		return out
	}
	return v
}

// PlainMap converts a map-like value to a plain map; other values yield nil, false.
func PlainMap(v any) (map[string]any, bool) {
	if !IsMap(v) {
		return nil, false
	}
	m, _ := Plain(v).(map[string]any)
	return m, true
}
