// Package schema holds the map-shaped OpenAPI nodes produced by the converter and the
// document generator, plus the value helpers shared by every stage of a run.
package schema

import (
	"sort"
	"strings"
)

// Node is one OpenAPI object (Schema, Reference, Operation, ...) in its JSON shape.
type Node = map[string]any

// Internal extension keys. They carry bookkeeping between pipeline stages and are
// removed by Strip before a document leaves the generator.
const (
	ExtPrefix     = "x-routedoc-"
	ExtOptional   = ExtPrefix + "optional"
	ExtIn         = ExtPrefix + "in"
	ExtAction     = ExtPrefix + "action"
	ExtUnresolved = ExtPrefix + "unresolved"
)

// Ref returns a Reference Object pointing at a named component.
func Ref(kind, name string) Node {
	return Node{"$ref": RefPath(kind, name)}
}

// RefPath returns the JSON pointer of a named component.
func RefPath(kind, name string) string {
	return "#/components/" + kind + "/" + name
}

// IsRef reports whether n is a Reference Object.
func IsRef(n Node) bool {
	_, ok := n["$ref"].(string)
	return ok
}

// IsOptional reports whether the converter marked n as optional.
func IsOptional(n Node) bool {
	v, _ := n[ExtOptional].(bool)
	return v
}

// In returns the parameter location hint recorded by the converter.
func In(n Node) string {
	v, _ := n[ExtIn].(string)
	return v
}

// Strip removes every internal extension key from the tree rooted at v, in place.
func Strip(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if strings.HasPrefix(k, ExtPrefix) {
				delete(t, k)
				continue
			}
			Strip(child)
		}
	case []any:
		for _, child := range t {
			Strip(child)
		}
	case []map[string]any:
		for _, child := range t {
			Strip(child)
		}
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
