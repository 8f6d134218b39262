package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kolah/routedoc/internal/schema"
)

// Parse turns one raw rule into its structured form. The raw value is never modified.
func Parse(raw any) (*Rule, error) {
	switch v := raw.(type) {
	case *Rule:
		if v == nil {
			return nil, fmt.Errorf("nil rule")
		}
		return v.Derive(v.typ, nil), nil
	case string:
		return parseShorthand(v)
	case []any:
		return parseList(v)
	case bool:
		if !v {
			return nil, fmt.Errorf("rule false is not a rule")
		}
		return &Rule{typ: TypeAny, attrs: map[string]any{}}, nil
	}
	if schema.IsMap(raw) {
		return parseObject(raw)
	}
	return nil, fmt.Errorf("unsupported rule shape %T", raw)
}

// ParseMap parses a params map. Meta keys ($$oa, $$strict, ...) are skipped.
func ParseMap(raw any) (Fields, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := schema.Entries(raw)
	if !ok {
		return nil, fmt.Errorf("params must be a map, got %T", raw)
	}
	fields := make(Fields, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Key, MetaPrefix) {
			continue
		}
		r, err := Parse(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Key, err)
		}
		fields = append(fields, Field{Name: e.Key, Rule: r})
	}
	return fields, nil
}

// parseShorthand handles "type|flag|key:value" strings, with "type[]" meaning an
// array of type.
func parseShorthand(s string) (*Rule, error) {
	parts := strings.Split(s, "|")
	typ := strings.TrimSpace(parts[0])
	if typ == "" {
		return nil, fmt.Errorf("empty rule %q", s)
	}

	r := &Rule{attrs: map[string]any{}}
	isArray := strings.HasSuffix(typ, "[]")
	if isArray {
		typ = strings.TrimSuffix(typ, "[]")
	}
	r.typ = typ

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, ":")
		var v any = true
		if hasValue {
			v = shorthandValue(value)
		}
		r.set(key, v)
	}

	if !isArray {
		return r, nil
	}

	// Flags after "type[]" belong to the array; constraints to the items.
	arr := &Rule{typ: TypeArray, attrs: map[string]any{}, items: &Rule{typ: typ, attrs: r.attrs}}
	arr.optional, r.optional = r.optional, false
	arr.def, arr.hasDefault = r.def, r.hasDefault
	arr.items.def, arr.items.hasDefault = nil, false
	return arr, nil
}

func shorthandValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func parseList(items []any) (*Rule, error) {
	r := &Rule{typ: TypeMulti, attrs: map[string]any{}}
	for i, item := range items {
		alt, err := Parse(item)
		if err != nil {
			return nil, fmt.Errorf("multi rule %d: %w", i, err)
		}
		r.alts = append(r.alts, alt)
		// A multi rule is optional when any alternative is.
		if alt.optional {
			r.optional = true
		}
	}
	return r, nil
}

func parseObject(raw any) (*Rule, error) {
	entries, _ := schema.Entries(raw)
	r := &Rule{attrs: map[string]any{}}

	for _, e := range entries {
		var err error
		switch e.Key {
		case "type":
			s, ok := e.Value.(string)
			if !ok {
				return nil, fmt.Errorf("type must be a string, got %T", e.Value)
			}
			r.typ = s
		case "props", "properties":
			r.props, err = ParseMap(e.Value)
		case "items":
			err = r.parseItems(e.Value)
		case "rules":
			list, ok := e.Value.([]any)
			if !ok {
				return nil, fmt.Errorf("rules must be a list, got %T", e.Value)
			}
			for i, item := range list {
				alt, perr := Parse(item)
				if perr != nil {
					return nil, fmt.Errorf("rules[%d]: %w", i, perr)
				}
				r.alts = append(r.alts, alt)
			}
		case "key":
			r.key, err = Parse(e.Value)
		case "value":
			// "value" is a rule for records and a literal for equal rules, so it is
			// kept raw here and resolved once the type is known.
			r.attrs["value"] = schema.Plain(e.Value)
		case OpenAPIKey:
			m, ok := schema.PlainMap(e.Value)
			if !ok {
				return nil, fmt.Errorf("%s must be a map, got %T", OpenAPIKey, e.Value)
			}
			r.openapi = m
		default:
			r.set(e.Key, schema.Plain(e.Value))
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Key, err)
		}
	}

	if r.typ == "" {
		if len(r.props) > 0 {
			r.typ = TypeObject
		} else {
			r.typ = TypeAny
		}
	}

	if r.typ == TypeRecord {
		if raw, ok := r.attrs["value"]; ok {
			vr, err := Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("value: %w", err)
			}
			r.values = vr
			delete(r.attrs, "value")
		}
	}

	return r, nil
}

func (r *Rule) parseItems(raw any) error {
	// Tuples declare one rule per position.
	if list, ok := raw.([]any); ok {
		for i, item := range list {
			alt, err := Parse(item)
			if err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
			r.alts = append(r.alts, alt)
		}
		return nil
	}
	items, err := Parse(raw)
	if err != nil {
		return err
	}
	r.items = items
	return nil
}

func (r *Rule) set(key string, v any) {
	switch key {
	case "optional":
		r.optional, _ = v.(bool)
	case "required":
		if b, ok := v.(bool); ok {
			r.optional = !b
		}
	case "default":
		r.def, r.hasDefault = v, true
	case "description":
		r.description, _ = v.(string)
	case "summary":
		r.summary, _ = v.(string)
	case "deprecated":
		r.deprecated, _ = v.(bool)
	case "in":
		r.in, _ = v.(string)
	default:
		r.attrs[key] = v
	}
}
