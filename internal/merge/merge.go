// Package merge combines the openapi fragments declared at every scope level into
// one operation.
//
// Fragments are applied in order, later ones winning. Inside a fragment, false and
// null erase what earlier fragments set; an absent key inherits.
package merge

import (
	"slices"

	"github.com/kolah/routedoc/internal/schema"
)

// Fragment is one scope's openapi settings.
type Fragment = map[string]any

// Keys with dedicated merge rules.
const (
	keyTags       = "tags"
	keyResponses  = "responses"
	keyResponse   = "response"
	keyComponents = "components"
)

// Operation is the merged result for one (path, method).
type Operation struct {
	Tags       []string
	Responses  map[string]any
	Components map[string]map[string]any
	Fields     map[string]any

	// erased holds the fields the last scope mentioning them set to false or null.
	erased map[string]bool
}

// Merger merges fragments. Tag objects are folded into the run's tag registry; the
// merged operation's tags are listed there.
type Merger struct {
	tags *TagRegistry
}

func New(tags *TagRegistry) *Merger {
	if tags == nil {
		tags = NewTagRegistry()
	}
	return &Merger{tags: tags}
}

// Tags returns the registry the merger writes to.
func (m *Merger) Tags() *TagRegistry { return m.tags }

// Merge applies sources left to right. Nil sources are skipped.
func (m *Merger) Merge(sources ...Fragment) *Operation {
	op := &Operation{
		Responses:  make(map[string]any),
		Components: make(map[string]map[string]any),
		Fields:     make(map[string]any),
		erased:     make(map[string]bool),
	}

	for _, src := range sources {
		if src == nil {
			continue
		}
		if v, ok := src[keyTags]; ok {
			m.mergeTags(op, v)
		}
		if v, ok := src[keyResponses]; ok {
			op.mergeResponses(v)
		}
		// The singular form is the 200 response of the declaring scope.
		if v, ok := src[keyResponse]; ok {
			op.mergeResponses(map[string]any{"200": v})
		}
		if v, ok := src[keyComponents]; ok {
			op.mergeComponents(v)
		}
		for _, k := range schema.SortedKeys(src) {
			switch k {
			case keyTags, keyResponses, keyResponse, keyComponents:
				continue
			}
			v := src[k]
			if erases(v) {
				delete(op.Fields, k)
				op.erased[k] = true
				continue
			}
			delete(op.erased, k)
			op.Fields[k] = schema.Clone(v)
		}
	}

	// Only tags that survived every reset reach the document root.
	for _, t := range op.Tags {
		m.tags.Use(t)
	}

	for kind, entries := range op.Components {
		if len(entries) == 0 {
			delete(op.Components, kind)
		}
	}
	return op
}

func erases(v any) bool {
	if v == nil {
		return true
	}
	b, ok := v.(bool)
	return ok && !b
}

func (m *Merger) mergeTags(op *Operation, v any) {
	var list []any
	switch t := v.(type) {
	case []any:
		list = t
	case string, map[string]any:
		list = []any{t}
	default:
		if erases(v) {
			op.Tags = nil
		}
		return
	}

	for _, el := range list {
		switch t := el.(type) {
		case nil:
			op.Tags = nil
		case string:
			op.addTag(t)
		case map[string]any:
			if name, ok := m.tags.Merge(t); ok {
				op.addTag(name)
			}
		}
	}
}

func (op *Operation) addTag(name string) {
	if !slices.Contains(op.Tags, name) {
		op.Tags = append(op.Tags, name)
	}
}

func (op *Operation) mergeResponses(v any) {
	if erases(v) {
		op.Responses = make(map[string]any)
		return
	}
	responses, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, code := range schema.SortedKeys(responses) {
		r := responses[code]
		if erases(r) {
			delete(op.Responses, code)
			continue
		}
		next, isMap := r.(map[string]any)
		prev, hadMap := op.Responses[code].(map[string]any)
		if !isMap || !hadMap {
			op.Responses[code] = schema.Clone(r)
			continue
		}
		for k, val := range next {
			if val == nil {
				delete(prev, k)
				continue
			}
			prev[k] = schema.Clone(val)
		}
	}
}

func (op *Operation) mergeComponents(v any) {
	if erases(v) {
		op.Components = make(map[string]map[string]any)
		return
	}
	kinds, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, kind := range schema.SortedKeys(kinds) {
		entries := kinds[kind]
		if erases(entries) {
			delete(op.Components, kind)
			continue
		}
		named, ok := entries.(map[string]any)
		if !ok {
			continue
		}
		target := op.Components[kind]
		if target == nil {
			target = make(map[string]any)
			op.Components[kind] = target
		}
		for name, c := range named {
			if erases(c) {
				delete(target, name)
				continue
			}
			target[name] = schema.Clone(c)
		}
	}
}

// Apply writes the merged values onto an operation node, overriding what is there.
// Erased fields are removed from the node, including generated defaults.
func (op *Operation) Apply(node schema.Node) {
	for k := range op.erased {
		delete(node, k)
	}
	for k, v := range op.Fields {
		node[k] = schema.Clone(v)
	}
	if len(op.Tags) > 0 {
		tags := make([]any, len(op.Tags))
		for i, t := range op.Tags {
			tags[i] = t
		}
		node[keyTags] = tags
	}
	if len(op.Responses) > 0 {
		node[keyResponses] = schema.Clone(op.Responses)
	}
}
