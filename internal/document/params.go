package document

import (
	"fmt"

	"github.com/kolah/routedoc/internal/converter"
	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/rules"
	"github.com/kolah/routedoc/internal/schema"
)

// Upload bodies are file content, never rule-derived.
var (
	multipartBody = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "format": "binary"},
			},
		},
	}
	streamBody = map[string]any{"type": "string", "format": "binary"}
)

// parameters fills the parameters and requestBody of op from the action params.
func (r *run) parameters(op map[string]any, pa model.PathAction) error {
	var fields rules.Fields
	if pa.Action != nil {
		var err error
		fields, err = r.converter.SplitPlainRules(pa.Action.Params)
		if err != nil {
			return fmt.Errorf("params of %s: %w", pa.Action.Name, err)
		}
	}

	var params []any
	for _, name := range pa.Params {
		var node schema.Node
		if rule, ok := fields.Get(name); ok {
			var err error
			node, err = r.converter.ConvertRule(rule, converter.Context{})
			if err != nil {
				return fmt.Errorf("path parameter %q: %w", name, err)
			}
			fields = fields.Without(name)
		}
		if node == nil {
			node = schema.Node{"type": "string"}
		}
		params = append(params, parameter(name, "path", true, node))
	}

	var query, body rules.Fields
	for _, f := range fields {
		switch {
		case pa.Alias.IsUpload():
			query = append(query, f)
		case pa.Method.HasBody() && f.Rule.In() != "query":
			body = append(body, f)
		default:
			query = append(query, f)
		}
	}

	name := componentName(pa)
	if len(query) > 0 {
		conv, err := r.converter.ConvertSchema(query, converter.Context{Name: name, Components: r})
		if err != nil {
			return fmt.Errorf("query parameters: %w", err)
		}
		for _, field := range conv.Names {
			node := conv.Nodes[field]
			params = append(params, parameter(field, "query", !schema.IsOptional(node), node))
		}
	}
	if len(params) > 0 {
		op["parameters"] = params
	}

	switch {
	case pa.Alias.Type == model.UploadMultipart:
		op["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"multipart/form-data": map[string]any{"schema": schema.Clone(multipartBody)},
			},
		}
	case pa.Alias.Type == model.UploadStream:
		op["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/octet-stream": map[string]any{"schema": schema.Clone(streamBody)},
			},
		}
	case len(body) > 0:
		conv, err := r.converter.ConvertSchema(body, converter.Context{Name: name, Components: r})
		if err != nil {
			return fmt.Errorf("request body: %w", err)
		}
		if len(conv.Names) == 0 {
			return nil
		}
		obj := schema.Node{"type": "object", "properties": conv.Properties()}
		if req := conv.Required(); len(req) > 0 {
			obj["required"] = req
		}
		r.AddSchema(name, obj)

		content := make(map[string]any)
		for _, ct := range contentTypes(pa.Alias.Route) {
			content[ct] = map[string]any{"schema": schema.Ref("schemas", name)}
		}
		op["requestBody"] = map[string]any{"content": content}
	}
	return nil
}

func pathParameters(names []string) []any {
	out := make([]any, 0, len(names))
	for _, name := range names {
		out = append(out, parameter(name, "path", true, schema.Node{"type": "string"}))
	}
	return out
}

func parameter(name, in string, required bool, node schema.Node) map[string]any {
	p := map[string]any{
		"name":   name,
		"in":     in,
		"schema": node,
	}
	if required {
		p["required"] = true
	}
	if d, ok := node["description"].(string); ok && d != "" {
		p["description"] = d
	}
	if d, ok := node["deprecated"].(bool); ok && d {
		p["deprecated"] = true
	}
	if in != "query" {
		return p
	}
	switch {
	case schema.IsRef(node) || node["type"] == "object":
		p["style"] = "deepObject"
		p["explode"] = true
	case node["type"] == "array":
		p["style"] = "form"
		p["explode"] = true
	}
	return p
}

// componentName is the base name of the schemas hoisted from an action's params.
func componentName(pa model.PathAction) string {
	if pa.Action != nil {
		return pa.Action.Name
	}
	return defaultOperationID(pa)
}

func contentTypes(route *model.Route) []string {
	if route == nil {
		return []string{"application/json"}
	}
	return route.ContentTypes()
}
