// Package rules parses raw validation rules into one frozen, structured form.
//
// A raw rule may be a shorthand string ("string|optional|min:3"), a list of rules
// (sugar for a multi rule), or a structured map with a "type" key. Parse runs once at
// the boundary and everything downstream works on *Rule only.
package rules

import (
	"math"

	"github.com/kolah/routedoc/internal/schema"
)

// Rule types understood by the converter.
const (
	TypeAny       = "any"
	TypeArray     = "array"
	TypeBoolean   = "boolean"
	TypeClass     = "class"
	TypeCurrency  = "currency"
	TypeCustom    = "custom"
	TypeDate      = "date"
	TypeEmail     = "email"
	TypeEnum      = "enum"
	TypeEqual     = "equal"
	TypeForbidden = "forbidden"
	TypeFunction  = "function"
	TypeLuhn      = "luhn"
	TypeMAC       = "mac"
	TypeMulti     = "multi"
	TypeNumber    = "number"
	TypeObject    = "object"
	TypeRecord    = "record"
	TypeString    = "string"
	TypeTuple     = "tuple"
	TypeURL       = "url"
	TypeUUID      = "uuid"
	TypeObjectID  = "objectID"
)

// MetaPrefix marks keys that describe a rule map instead of a field.
const MetaPrefix = "$$"

// OpenAPIKey holds documentation overrides merged into the mapped schema.
const OpenAPIKey = "$$oa"

// Rule is one parsed validation rule. It is never mutated after Parse returns.
type Rule struct {
	typ         string
	optional    bool
	def         any
	hasDefault  bool
	description string
	summary     string
	deprecated  bool
	in          string
	openapi     map[string]any
	attrs       map[string]any

	props  Fields
	items  *Rule
	alts   []*Rule
	key    *Rule
	values *Rule
}

// Field is one named rule inside a params map or an object rule.
type Field struct {
	Name string
	Rule *Rule
}

// Fields keeps declaration order.
type Fields []Field

// Get returns the rule declared for name.
func (f Fields) Get(name string) (*Rule, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Rule, true
		}
	}
	return nil, false
}

// Names lists field names in declaration order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// Without returns a copy of f minus the named fields.
func (f Fields) Without(names ...string) Fields {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := make(Fields, 0, len(f))
	for _, field := range f {
		if !drop[field.Name] {
			out = append(out, field)
		}
	}
	return out
}

func (r *Rule) Type() string        { return r.typ }
func (r *Rule) Optional() bool      { return r.optional }
func (r *Rule) Description() string { return r.description }
func (r *Rule) Summary() string     { return r.summary }
func (r *Rule) Deprecated() bool    { return r.deprecated }

// In is the requested parameter location ("body" or "query"), empty when unset.
func (r *Rule) In() string { return r.in }

// Default returns a copy of the declared default value.
func (r *Rule) Default() (any, bool) {
	if !r.hasDefault {
		return nil, false
	}
	return schema.Clone(r.def), true
}

// OpenAPI returns a copy of the $$oa override fragment.
func (r *Rule) OpenAPI() map[string]any {
	if r.openapi == nil {
		return nil
	}
	return schema.Clone(r.openapi).(map[string]any)
}

func (r *Rule) Props() Fields    { return r.props }
func (r *Rule) HasProps() bool   { return len(r.props) > 0 }
func (r *Rule) Items() *Rule     { return r.items }
func (r *Rule) Rules() []*Rule   { return r.alts }
func (r *Rule) Key() *Rule       { return r.key }
func (r *Rule) ValueRule() *Rule { return r.values }

// Has reports whether a constraint is set.
func (r *Rule) Has(key string) bool {
	_, ok := r.attrs[key]
	return ok
}

// Value returns a copy of a constraint.
func (r *Rule) Value(key string) (any, bool) {
	v, ok := r.attrs[key]
	if !ok {
		return nil, false
	}
	return schema.Clone(v), true
}

// Bool reports whether a constraint is set to true.
func (r *Rule) Bool(key string) bool {
	v, _ := r.attrs[key].(bool)
	return v
}

// Text returns a string constraint.
func (r *Rule) Text(key string) (string, bool) {
	v, ok := r.attrs[key].(string)
	return v, ok
}

// Float returns a numeric constraint.
func (r *Rule) Float(key string) (float64, bool) {
	return toFloat(r.attrs[key])
}

// Int returns an integral numeric constraint.
func (r *Rule) Int(key string) (int, bool) {
	f, ok := toFloat(r.attrs[key])
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Number returns a numeric constraint keeping its original Go type.
func (r *Rule) Number(key string) (any, bool) {
	v := r.attrs[key]
	if _, ok := toFloat(v); !ok {
		return nil, false
	}
	return v, true
}

// List returns a list constraint.
func (r *Rule) List(key string) ([]any, bool) {
	switch v := r.attrs[key].(type) {
	case []any:
		return schema.Clone(v).([]any), true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// Derive returns a new rule of another type that keeps r's annotations and adds
// the given constraints.
func (r *Rule) Derive(typ string, attrs map[string]any) *Rule {
	out := *r
	out.typ = typ
	out.attrs = make(map[string]any, len(r.attrs)+len(attrs))
	for k, v := range r.attrs {
		out.attrs[k] = schema.Clone(v)
	}
	for k, v := range attrs {
		out.attrs[k] = schema.Clone(v)
	}
	return &out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
