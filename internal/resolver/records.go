package resolver

import (
	"fmt"
	"strings"

	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/schema"
)

type routeDecl struct {
	route   *model.Route
	aliases []schema.Entry
}

func parseRoute(raw any, prefix string) (routeDecl, error) {
	if !schema.IsMap(raw) {
		return routeDecl{}, fmt.Errorf("route must be a map, got %T", raw)
	}

	path := ""
	if v, ok := schema.Lookup(raw, "path"); ok {
		s, ok := v.(string)
		if !ok {
			return routeDecl{}, fmt.Errorf("route path must be a string, got %T", v)
		}
		path = s
	}

	route := &model.Route{Path: model.JoinPath(prefix, path)}
	if v, ok := schema.Lookup(raw, "autoAliases"); ok {
		route.AutoAliases, _ = v.(bool)
	}
	if v, ok := schema.Lookup(raw, "bodyParsers"); ok {
		route.BodyParsers, _ = schema.PlainMap(v)
	}
	if v, ok := schema.Lookup(raw, "openapi"); ok {
		frag, include := model.Fragment(v)
		route.OpenAPI = frag
		route.OptOut = !include
	}

	decl := routeDecl{route: route}
	if v, ok := schema.Lookup(raw, "aliases"); ok && v != nil {
		entries, ok := schema.Entries(v)
		if !ok {
			return routeDecl{}, fmt.Errorf("route aliases must be a map, got %T", v)
		}
		decl.aliases = entries
	}
	return decl, nil
}

// aliasRecord is one alias declaration value in normalized form.
type aliasRecord struct {
	action  string
	typ     model.UploadType
	openapi any
	only    []string
	except  []string
}

func (rec *aliasRecord) apply(a *model.Alias, action string) {
	a.Action = action
	a.Type = rec.typ
	frag, include := model.Fragment(rec.openapi)
	a.OpenAPI = frag
	a.Skipped = !include
}

// normalize turns an alias value into a record. ok is false when the alias must be
// dropped under the current policy.
func (res *resolution) normalize(v any) (rec *aliasRecord, ok bool) {
	switch t := v.(type) {
	case string:
		return recordFromString(t), true
	case []any:
		// A chain of handlers ends with the action.
		var last *aliasRecord
		for _, el := range t {
			if r := chainElement(el); r != nil && r.action != "" {
				last = r
			}
		}
		if last != nil {
			return last, true
		}
	default:
		if schema.IsMap(v) {
			rec := recordFromMap(v)
			if rec.action != "" || hasHandler(v) {
				return rec, true
			}
			if res.skipUnresolved {
				return nil, false
			}
			return rec, true
		}
	}

	if res.skipUnresolved {
		return nil, false
	}
	return &aliasRecord{}, true
}

func chainElement(v any) *aliasRecord {
	switch t := v.(type) {
	case string:
		return recordFromString(t)
	case []any:
		for i := len(t) - 1; i >= 0; i-- {
			if r := chainElement(t[i]); r != nil && r.action != "" {
				return r
			}
		}
		return nil
	}
	if schema.IsMap(v) {
		return recordFromMap(v)
	}
	return nil
}

func hasHandler(v any) bool {
	_, ok := schema.Lookup(v, "handler")
	return ok
}

func recordFromString(s string) *aliasRecord {
	action, typ := splitAction(s)
	return &aliasRecord{action: action, typ: typ}
}

func recordFromMap(v any) *aliasRecord {
	rec := &aliasRecord{}
	if a, ok := schema.Lookup(v, "action"); ok {
		if s, ok := a.(string); ok {
			rec.action, rec.typ = splitAction(s)
		}
	}
	if t, ok := schema.Lookup(v, "type"); ok {
		switch t {
		case string(model.UploadMultipart):
			rec.typ = model.UploadMultipart
		case string(model.UploadStream):
			rec.typ = model.UploadStream
		}
	}
	if o, ok := schema.Lookup(v, "openapi"); ok {
		rec.openapi = o
	}
	rec.only = stringList(v, "only")
	rec.except = stringList(v, "except")
	return rec
}

// splitAction reads the "multipart:" and "stream:" prefixes of an action reference.
func splitAction(s string) (string, model.UploadType) {
	s = strings.TrimSpace(s)
	for _, typ := range []model.UploadType{model.UploadMultipart, model.UploadStream} {
		if rest, ok := strings.CutPrefix(s, string(typ)+":"); ok {
			return strings.TrimSpace(rest), typ
		}
	}
	return s, model.UploadNone
}

func stringList(v any, key string) []string {
	raw, ok := schema.Lookup(v, key)
	if !ok {
		return nil
	}
	switch t := raw.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
