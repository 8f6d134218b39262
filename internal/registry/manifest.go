package registry

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pb33f/libopenapi/orderedmap"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/schema"
)

// Manifest is a registry read from a YAML file:
//
//	services:
//	  - name: api
//	    settings:
//	      path: /api
//	      routes:
//	        - path: /v1
//	          autoAliases: true
//	          aliases:
//	            "GET /pets": pets.list
//	  - name: pets
//	    settings:
//	      rest: /pets
//	    actions:
//	      list:
//	        rest: GET /
//	        params:
//	          page: number|optional
//
// Maps keep their declaration order.
type Manifest struct {
	services []*model.ServiceDescriptor
	aliases  map[string][]model.AliasInfo
}

var _ Registry = (*Manifest)(nil)

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest parses manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	doc, err := decodeNode(&root)
	if err != nil {
		return nil, err
	}

	rawServices, _ := schema.Lookup(doc, "services")
	list, ok := rawServices.([]any)
	if !ok {
		return nil, fmt.Errorf("services must be a list")
	}

	m := &Manifest{aliases: make(map[string][]model.AliasInfo)}
	seen := make(map[string]bool)
	for i, raw := range list {
		svc, declared, err := parseService(raw)
		if err != nil {
			return nil, fmt.Errorf("services[%d]: %w", i, err)
		}
		if seen[svc.Name] {
			return nil, fmt.Errorf("services[%d]: duplicate service %q", i, svc.Name)
		}
		seen[svc.Name] = true
		link(svc)
		m.services = append(m.services, svc)
		m.aliases[svc.Name] = declared
	}

	for _, svc := range m.services {
		m.aliases[svc.Name] = append(m.aliases[svc.Name], restAliases(svc, m.services)...)
	}
	return m, nil
}

func (m *Manifest) ListServices(ctx context.Context, withActions, onlyLocal bool) ([]*model.ServiceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return filterServices(m.services, withActions, onlyLocal), nil
}

func (m *Manifest) ListAliases(ctx context.Context, service string) ([]model.AliasInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.AliasInfo, len(m.aliases[service]))
	copy(out, m.aliases[service])
	return out, nil
}

func parseService(raw any) (*model.ServiceDescriptor, []model.AliasInfo, error) {
	if !schema.IsMap(raw) {
		return nil, nil, fmt.Errorf("service must be a map")
	}
	svc := &model.ServiceDescriptor{
		Settings: make(map[string]any),
		Actions:  make(map[string]*model.ActionDescriptor),
	}

	name, _ := schema.Lookup(raw, "name")
	svc.Name, _ = name.(string)
	if svc.Name == "" {
		return nil, nil, fmt.Errorf("service name is required")
	}
	if v, ok := schema.Lookup(raw, "version"); ok && v != nil {
		svc.Version = fmt.Sprint(v)
	}
	if v, ok := schema.Lookup(raw, "local"); ok {
		svc.Local, _ = v.(bool)
	}
	if v, ok := schema.Lookup(raw, "settings"); ok && v != nil {
		entries, ok := schema.Entries(v)
		if !ok {
			return nil, nil, fmt.Errorf("settings of %s must be a map", svc.Name)
		}
		for _, e := range entries {
			svc.Settings[e.Key] = e.Value
		}
	}

	if v, ok := schema.Lookup(raw, "actions"); ok && v != nil {
		entries, ok := schema.Entries(v)
		if !ok {
			return nil, nil, fmt.Errorf("actions of %s must be a map", svc.Name)
		}
		for _, e := range entries {
			a, err := parseAction(svc, e.Key, e.Value)
			if err != nil {
				return nil, nil, fmt.Errorf("action %s.%s: %w", svc.Name, e.Key, err)
			}
			svc.Actions[e.Key] = a
		}
	}

	var declared []model.AliasInfo
	if v, ok := schema.Lookup(raw, "aliases"); ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return nil, nil, fmt.Errorf("aliases of %s must be a list", svc.Name)
		}
		for i, el := range list {
			info, err := parseAliasInfo(el)
			if err != nil {
				return nil, nil, fmt.Errorf("aliases[%d] of %s: %w", i, svc.Name, err)
			}
			declared = append(declared, info)
		}
	}
	return svc, declared, nil
}

func parseAction(svc *model.ServiceDescriptor, raw string, v any) (*model.ActionDescriptor, error) {
	a := &model.ActionDescriptor{
		Name:    actionName(svc, raw),
		RawName: raw,
	}
	if v == nil {
		return a, nil
	}
	if !schema.IsMap(v) {
		return nil, fmt.Errorf("action must be a map, got %T", v)
	}
	a.Params, _ = schema.Lookup(v, "params")
	a.OpenAPI, _ = schema.Lookup(v, "openapi")
	a.Rest, _ = schema.Lookup(v, "rest")
	if d, ok := schema.Lookup(v, "description"); ok {
		a.Description, _ = d.(string)
	}
	return a, nil
}

// actionName is the fully qualified action name, prefixed by the service version.
func actionName(svc *model.ServiceDescriptor, raw string) string {
	prefix := svc.Name
	switch {
	case svc.Version == "":
	case isNumber(svc.Version):
		prefix = "v" + svc.Version + "." + prefix
	default:
		prefix = svc.Version + "." + prefix
	}
	return prefix + "." + raw
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parseAliasInfo(v any) (model.AliasInfo, error) {
	if !schema.IsMap(v) {
		return model.AliasInfo{}, fmt.Errorf("alias must be a map, got %T", v)
	}
	text := func(key string) string {
		raw, _ := schema.Lookup(v, key)
		s, _ := raw.(string)
		return s
	}
	info := model.AliasInfo{
		Path:       text("path"),
		FullPath:   text("fullPath"),
		RoutePath:  text("routePath"),
		Methods:    text("methods"),
		ActionName: text("action"),
	}
	if info.FullPath == "" {
		info.FullPath = model.JoinPath(info.RoutePath, info.Path)
	}
	return info, nil
}

// restAliases lists the endpoints a host publishes for actions with a rest
// annotation, on every route of the host that has auto aliases enabled.
func restAliases(host *model.ServiceDescriptor, services []*model.ServiceDescriptor) []model.AliasInfo {
	routes, _ := host.Settings["routes"].([]any)
	if len(routes) == 0 {
		return nil
	}
	prefix, _ := host.Settings["path"].(string)

	var out []model.AliasInfo
	for _, route := range routes {
		auto, _ := schema.Lookup(route, "autoAliases")
		if enabled, _ := auto.(bool); !enabled {
			continue
		}
		path, _ := schema.Lookup(route, "path")
		routePath, _ := path.(string)
		routePath = model.JoinPath(prefix, routePath)

		for _, svc := range services {
			base := "/" + svc.Name
			if b, ok := svc.Settings["rest"].(string); ok {
				base = b
			}
			for _, name := range schema.SortedKeys(svc.Actions) {
				a := svc.Actions[name]
				for _, r := range restDeclarations(a.Rest) {
					method, p := splitRest(r)
					rel := model.JoinPath(base, p)
					out = append(out, model.AliasInfo{
						Path:       rel,
						FullPath:   model.JoinPath(routePath, rel),
						RoutePath:  routePath,
						Methods:    method,
						ActionName: a.Name,
					})
				}
			}
		}
	}
	return out
}

func restDeclarations(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, el := range t {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if schema.IsMap(v) {
		m, _ := schema.Lookup(v, "method")
		p, _ := schema.Lookup(v, "path")
		method, _ := m.(string)
		path, _ := p.(string)
		return []string{strings.TrimSpace(method + " " + path)}
	}
	return nil
}

// splitRest splits "GET /path"; a lone path serves every method.
func splitRest(s string) (method, path string) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return "*", "/"
	case 1:
		return "*", fields[0]
	}
	return fields[0], fields[1]
}

// decodeNode converts a YAML tree into plain values, with mappings as ordered maps.
func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		out := orderedmap.New[string, any]()
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: map key: %w", n.Content[i].Line, err)
			}
			v, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(key, v)
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}
