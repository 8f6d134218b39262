package document

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/kolah/routedoc/internal/converter"
	"github.com/kolah/routedoc/internal/logging"
	"github.com/kolah/routedoc/internal/merge"
	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/schema"
)

// ErrMalformedRef is returned for a $ref that does not name a component.
var ErrMalformedRef = errors.New("malformed reference")

// Root keys of the base fragment that describe the document rather than operations.
var documentKeys = map[string]bool{
	"openapi":           true,
	"info":              true,
	"servers":           true,
	"paths":             true,
	"components":        true,
	"tags":              true,
	"security":          true,
	"externalDocs":      true,
	"jsonSchemaDialect": true,
	"webhooks":          true,
}

var defaultInfo = map[string]any{
	"title":   "API documentation",
	"version": "1.0.0",
}

var defaultResponses = map[string]any{
	"200": map[string]any{"description": "Successful response"},
}

// Generator builds documents. It is safe for concurrent use; every call to Generate
// owns its own component and tag registries.
type Generator struct {
	converter *converter.Converter
	logger    log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

func WithLogger(logger log.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// New creates a generator. conv must be loaded before Generate is called.
func New(conv *converter.Converter, opts ...Option) *Generator {
	g := &Generator{converter: conv}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrNop(g.logger)
	return g
}

// Generate builds the document for aliases on top of base, the global openapi
// fragment. Aliases are processed in full-path order, so the output does not depend
// on the order they are passed in.
func (g *Generator) Generate(base map[string]any, aliases []*model.Alias) (*Document, error) {
	r := newRun(g, base)

	sorted := make([]*model.Alias, len(aliases))
	copy(sorted, aliases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FullPath < sorted[j].FullPath
	})

	for _, a := range sorted {
		if a.Skipped {
			continue
		}
		for _, pa := range a.PathActions() {
			if err := r.pathAction(pa); err != nil {
				return nil, fmt.Errorf("documenting %s %s: %w", pa.Method.Upper(), pa.Path, err)
			}
		}
	}
	return r.finish(), nil
}

// run is the state of one Generate call.
type run struct {
	*Generator

	base         map[string]any
	global       merge.Fragment
	paths        map[string]any
	components   map[string]map[string]any
	merger       *merge.Merger
	operationIDs map[string]bool
}

func newRun(g *Generator, base map[string]any) *run {
	base, _ = schema.Clone(base).(map[string]any)
	r := &run{
		Generator:    g,
		base:         base,
		global:       merge.Fragment{},
		paths:        make(map[string]any),
		components:   make(map[string]map[string]any),
		merger:       merge.New(merge.NewTagRegistry()),
		operationIDs: make(map[string]bool),
	}

	for k, v := range base {
		if !documentKeys[k] {
			r.global[k] = v
		}
	}
	if paths, ok := base["paths"].(map[string]any); ok {
		for p, item := range paths {
			r.paths[p] = item
		}
	}
	if kinds, ok := base["components"].(map[string]any); ok {
		for _, kind := range schema.SortedKeys(kinds) {
			named, _ := kinds[kind].(map[string]any)
			for _, name := range schema.SortedKeys(named) {
				r.addComponent(kind, name, named[name])
			}
		}
	}
	r.merger.Tags().Load(base["tags"])
	return r
}

// AddSchema receives object schemas hoisted by the converter.
func (r *run) AddSchema(name string, node schema.Node) {
	r.addComponent("schemas", name, node)
}

func (r *run) addComponent(kind, name string, c any) {
	named := r.components[kind]
	if named == nil {
		named = make(map[string]any)
		r.components[kind] = named
	}
	if prev, ok := named[name]; ok && !reflect.DeepEqual(prev, c) {
		level.Warn(r.logger).Log("msg", "component overwritten", "kind", kind, "name", name)
	}
	named[name] = c
}

// resolve returns the component a local reference points at, or nil when it is not
// registered.
func (r *run) resolve(ref string) (map[string]any, error) {
	rest, ok := strings.CutPrefix(ref, "#/components/")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRef, ref)
	}
	kind, name, ok := strings.Cut(rest, "/")
	if !ok || kind == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRef, ref)
	}
	name = strings.NewReplacer("~1", "/", "~0", "~").Replace(name)
	c, _ := r.components[kind][name].(map[string]any)
	return c, nil
}

func (r *run) pathItem(path string) map[string]any {
	item, ok := r.paths[path].(map[string]any)
	if !ok {
		item = make(map[string]any)
		r.paths[path] = item
	}
	return item
}

func (r *run) pathAction(pa model.PathAction) error {
	item := r.pathItem(pa.Path)
	method := string(pa.Method)

	if existing, ok := item[method].(map[string]any); ok {
		r.collide(pa, existing)
		return nil
	}

	op, err := r.operation(pa)
	if err != nil {
		return err
	}
	item[method] = op
	return nil
}

// collide handles a second alias for an occupied (path, method). The same action
// may only add servers; anything else keeps the first operation.
func (r *run) collide(pa model.PathAction, existing map[string]any) {
	prev, _ := existing[schema.ExtAction].(string)
	if prev == pa.Alias.Action {
		if servers := r.servers(pa); len(servers) > 0 {
			existing["servers"] = appendServers(existing["servers"], servers)
			return
		}
	}
	level.Warn(r.logger).Log(
		"msg", "operation already registered, skipping alias",
		"method", pa.Method, "path", pa.Path,
		"action", pa.Alias.Action, "registered_action", prev,
	)
}

// servers returns the servers the alias scopes declare, highest priority first.
func (r *run) servers(pa model.PathAction) []any {
	scopes := r.scopes(pa)
	for i := len(scopes) - 1; i >= 0; i-- {
		if v, ok := scopes[i]["servers"]; ok {
			list, _ := v.([]any)
			return list
		}
	}
	return nil
}

func appendServers(existing any, add []any) []any {
	out, _ := existing.([]any)
	for _, s := range add {
		dup := false
		for _, e := range out {
			if reflect.DeepEqual(e, s) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, schema.Clone(s))
		}
	}
	return out
}

// scopes lists the fragments merged into an operation, lowest priority first.
func (r *run) scopes(pa model.PathAction) []merge.Fragment {
	a := pa.Alias
	out := []merge.Fragment{{"responses": schema.Clone(defaultResponses)}, r.global}

	if a.Route != nil {
		out = append(out, a.Route.OpenAPI)
	}

	if svc := a.ServiceName(); svc != "" {
		out = append(out, merge.Fragment{"tags": []any{svc}})
		if owner := pa.Action.Owner; owner != nil {
			frag, _ := owner.OpenAPI()
			out = append(out, frag)
		}
	}

	out = append(out, a.OpenAPI)

	if pa.Action != nil {
		frag, _ := model.Fragment(pa.Action.OpenAPI)
		out = append(out, frag)
		if md := r.converter.ExtractMetadata(pa.Action.Params); md.OpenAPI != nil {
			out = append(out, md.OpenAPI)
		}
	}
	return out
}

func (r *run) operation(pa model.PathAction) (map[string]any, error) {
	merged := r.merger.Merge(r.scopes(pa)...)
	for _, kind := range schema.SortedKeys(merged.Components) {
		named := merged.Components[kind]
		for _, name := range schema.SortedKeys(named) {
			r.addComponent(kind, name, named[name])
		}
	}

	op := map[string]any{}
	if err := r.parameters(op, pa); err != nil {
		if fatal(err) {
			return nil, err
		}
		// One bad params map only costs its own parameters.
		level.Warn(r.logger).Log("msg", "parameters could not be documented", "action", pa.Alias.Action, "path", pa.Path, "err", err)
		delete(op, "requestBody")
		op["parameters"] = pathParameters(pa.Params)
		if len(pa.Params) == 0 {
			delete(op, "parameters")
		}
	}
	r.describe(op, pa)

	merged.Apply(op)

	if body, ok := op["requestBody"].(map[string]any); ok {
		if err := r.completeBody(body); err != nil {
			return nil, err
		}
	}

	id, _ := op["operationId"].(string)
	if id == "" {
		id = defaultOperationID(pa)
	}
	op["operationId"] = r.uniqueOperationID(id)
	op[schema.ExtAction] = pa.Alias.Action
	return op, nil
}

// fatal reports whether err must abort the whole run.
func fatal(err error) bool {
	return errors.Is(err, ErrMalformedRef) || errors.Is(err, converter.ErrNotInitialized)
}

func (r *run) describe(op map[string]any, pa model.PathAction) {
	if pa.Action == nil {
		op["summary"] = pa.Method.Upper() + " " + pa.Path
		op["description"] = "The action behind this endpoint is not registered; its parameters are not documented."
		op[schema.ExtUnresolved] = true
		return
	}
	if pa.Action.Description != "" {
		op["summary"] = pa.Action.Description
	} else {
		op["summary"] = pa.Method.Upper() + " " + pa.Path
	}
}

func defaultOperationID(pa model.PathAction) string {
	if pa.Alias.Action != "" {
		return pa.Alias.Action
	}
	var b strings.Builder
	b.WriteString(string(pa.Method))
	for _, seg := range strings.Split(pa.Path, "/") {
		seg = strings.Trim(seg, "{}")
		if seg == "" {
			continue
		}
		b.WriteByte('-')
		b.WriteString(seg)
	}
	return b.String()
}

func (r *run) uniqueOperationID(id string) string {
	candidate := id
	for n := 2; r.operationIDs[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	r.operationIDs[candidate] = true
	return candidate
}

// completeBody marks a request body required when a referenced body schema has
// required fields and the body does not say otherwise.
func (r *run) completeBody(body map[string]any) error {
	if _, ok := body["required"]; ok {
		return nil
	}
	content, _ := body["content"].(map[string]any)
	for _, ct := range schema.SortedKeys(content) {
		media, _ := content[ct].(map[string]any)
		s, _ := media["schema"].(map[string]any)
		if s == nil {
			continue
		}
		if ref, ok := s["$ref"].(string); ok {
			resolved, err := r.resolve(ref)
			if err != nil {
				return fmt.Errorf("request body %s: %w", ct, err)
			}
			s = resolved
		}
		if hasRequired(s) {
			body["required"] = true
			return nil
		}
	}
	return nil
}

func hasRequired(s map[string]any) bool {
	switch req := s["required"].(type) {
	case []string:
		return len(req) > 0
	case []any:
		return len(req) > 0
	}
	return false
}

func (r *run) finish() *Document {
	doc := map[string]any{
		"openapi": Version,
		"paths":   r.paths,
	}

	info := schema.CloneNode(defaultInfo)
	if custom, ok := r.base["info"].(map[string]any); ok {
		for k, v := range custom {
			info[k] = v
		}
	}
	doc["info"] = info

	for k, v := range r.base {
		if !documentKeys[k] {
			continue
		}
		switch k {
		case "openapi", "info", "paths", "components", "tags":
			continue
		}
		doc[k] = v
	}

	components := make(map[string]any)
	for kind, named := range r.components {
		if len(named) > 0 {
			components[kind] = named
		}
	}
	if len(components) > 0 {
		doc["components"] = components
	}

	if r.merger.Tags().Len() > 0 {
		doc["tags"] = r.merger.Tags().Sorted()
	}

	schema.Strip(doc)
	return &Document{root: doc}
}
