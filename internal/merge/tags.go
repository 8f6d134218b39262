package merge

import (
	"sort"

	"github.com/kolah/routedoc/internal/schema"
)

// TagRegistry collects the tag objects of one run. A tag object may be defined by
// any scope, but only tags declared at the document root or kept by an operation
// are listed.
type TagRegistry struct {
	tags   map[string]map[string]any
	listed map[string]bool
}

func NewTagRegistry() *TagRegistry {
	return &TagRegistry{
		tags:   make(map[string]map[string]any),
		listed: make(map[string]bool),
	}
}

// Use lists the tag named name, creating it when needed.
func (r *TagRegistry) Use(name string) {
	r.define(name)
	r.listed[name] = true
}

func (r *TagRegistry) define(name string) map[string]any {
	existing, ok := r.tags[name]
	if !ok {
		existing = map[string]any{"name": name}
		r.tags[name] = existing
	}
	return existing
}

// Merge folds a tag object into the entry of the same name without listing it. It
// returns the tag name, or false when the object has none.
func (r *TagRegistry) Merge(tag map[string]any) (string, bool) {
	name, _ := tag["name"].(string)
	if name == "" {
		return "", false
	}
	existing := r.define(name)
	for k, v := range tag {
		if v == nil {
			delete(existing, k)
			continue
		}
		existing[k] = schema.Clone(v)
	}
	existing["name"] = name
	return name, true
}

// Load merges and lists a list of tag objects or names, as found in a document's
// root tags.
func (r *TagRegistry) Load(v any) {
	list, _ := v.([]any)
	for _, el := range list {
		switch t := el.(type) {
		case string:
			r.Use(t)
		case map[string]any:
			if name, ok := r.Merge(t); ok {
				r.listed[name] = true
			}
		}
	}
}

// Len is the number of listed tags.
func (r *TagRegistry) Len() int { return len(r.listed) }

// Sorted returns copies of the listed tag objects ordered by name.
func (r *TagRegistry) Sorted() []any {
	names := make([]string, 0, len(r.listed))
	for name := range r.listed {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]any, 0, len(names))
	for _, name := range names {
		out = append(out, schema.Clone(r.tags[name]))
	}
	return out
}
