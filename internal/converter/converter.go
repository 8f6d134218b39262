// Package converter maps parsed validation rules to OpenAPI schema nodes.
package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kolah/routedoc/internal/rules"
	"github.com/kolah/routedoc/internal/schema"
)

// ErrNotInitialized is returned when a Converter is used before Load.
var ErrNotInitialized = errors.New("converter used before Load")

// Mapper maps one rule variant to a schema node. A nil node means the variant has no
// documentation representation.
type Mapper func(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error)

// Override replaces or adds the mapper for one rule type. Overrides with a nil
// Mapper are ignored.
type Override struct {
	Type   string
	Mapper Mapper
}

// Extension supplies mapper overrides. It runs exactly once, during Load.
type Extension func(ctx context.Context, builtins map[string]Mapper) ([]Override, error)

// Components receives object schemas hoisted out of a named rule tree.
type Components interface {
	AddSchema(name string, node schema.Node)
}

// Context carries what a mapper may need from its surroundings.
type Context struct {
	// Name is the dotted component name of the rule being mapped. Empty keeps the
	// whole subtree inline.
	Name       string
	Components Components

	// Defaults holds the parent object's default value, keyed by field.
	Defaults map[string]any

	// Siblings are the other fields of the enclosing object, for equal rules.
	Siblings  rules.Fields
	mapped    map[string]schema.Node
	resolving map[string]bool
}

func (ctx Context) child(suffix string) Context {
	next := Context{Components: ctx.Components}
	if ctx.Name != "" && suffix != "" {
		next.Name = ctx.Name + "." + suffix
	}
	return next
}

// Converter orchestrates the mappers over whole rule collections.
type Converter struct {
	extension Extension

	once    sync.Once
	loadErr error
	mappers map[string]Mapper
}

// Option configures a Converter.
type Option func(*Converter)

// WithExtension registers the caller's mapper extension.
func WithExtension(ext Extension) Option {
	return func(c *Converter) { c.extension = ext }
}

// New creates a converter. Call Load before converting.
func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load builds the mapper table. Concurrent callers wait for the same initialization
// and observe the same result.
func (c *Converter) Load(ctx context.Context) error {
	c.once.Do(func() {
		c.loadErr = c.load(ctx)
	})
	return c.loadErr
}

func (c *Converter) load(ctx context.Context) error {
	table := builtinMappers()
	if c.extension == nil {
		c.mappers = table
		return nil
	}

	builtins := make(map[string]Mapper, len(table))
	for k, v := range table {
		builtins[k] = v
	}
	overrides, err := c.extension(ctx, builtins)
	if err != nil {
		return fmt.Errorf("loading mapper extension: %w", err)
	}
	for _, o := range overrides {
		if o.Type == "" || o.Mapper == nil {
			continue
		}
		table[o.Type] = o.Mapper
	}
	c.mappers = table
	return nil
}

func (c *Converter) ready() error {
	if c.mappers == nil {
		return ErrNotInitialized
	}
	return nil
}

// Converted is the result of mapping a set of fields.
type Converted struct {
	Names []string
	Nodes map[string]schema.Node
}

// Required lists the fields not marked optional, in declaration order.
func (cv Converted) Required() []string {
	var out []string
	for _, name := range cv.Names {
		if !schema.IsOptional(cv.Nodes[name]) {
			out = append(out, name)
		}
	}
	return out
}

// Properties returns the nodes as a properties map.
func (cv Converted) Properties() map[string]any {
	out := make(map[string]any, len(cv.Nodes))
	for name, node := range cv.Nodes {
		out[name] = node
	}
	return out
}

// ConvertSchema maps every field. Fields without a documentation representation are
// left out.
func (c *Converter) ConvertSchema(fields rules.Fields, ctx Context) (Converted, error) {
	if err := c.ready(); err != nil {
		return Converted{}, err
	}

	out := Converted{Nodes: make(map[string]schema.Node, len(fields))}
	parent := ctx
	parent.Siblings = fields
	parent.mapped = out.Nodes
	if parent.resolving == nil {
		parent.resolving = make(map[string]bool)
	}

	for _, f := range fields {
		fieldCtx := parent.child(f.Name)
		fieldCtx.Siblings = fields
		fieldCtx.mapped = out.Nodes
		fieldCtx.resolving = parent.resolving

		var parentDefault any
		if v, ok := ctx.Defaults[f.Name]; ok {
			parentDefault = v
		}
		node, err := c.convertField(f.Rule, parentDefault, fieldCtx)
		if err != nil {
			return Converted{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if node == nil {
			continue
		}
		out.Names = append(out.Names, f.Name)
		out.Nodes[f.Name] = node
	}
	return out, nil
}

func (c *Converter) convertField(r *rules.Rule, parentDefault any, ctx Context) (schema.Node, error) {
	node, err := c.ConvertRule(r, ctx)
	if err != nil || node == nil {
		return node, err
	}
	if _, has := r.Default(); !has && parentDefault != nil && !schema.IsRef(node) {
		node["default"] = schema.Clone(parentDefault)
	}
	return node, nil
}

// ConvertRule maps one rule. Unknown types fall back to the string mapper.
func (c *Converter) ConvertRule(r *rules.Rule, ctx Context) (schema.Node, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}

	mapper, ok := c.mappers[r.Type()]
	if !ok {
		mapper = c.mappers[rules.TypeString]
	}
	if mapper == nil {
		return nil, ErrNotInitialized
	}

	node, err := mapper(c, r, ctx)
	if err != nil {
		return nil, fmt.Errorf("mapping %s rule: %w", r.Type(), err)
	}
	if node == nil {
		return nil, nil
	}

	annotate(node, r)

	if ctx.Name != "" && ctx.Components != nil && hoistable(node) {
		ctx.Components.AddSchema(ctx.Name, node)
		ref := schema.Ref("schemas", ctx.Name)
		if d := r.Description(); d != "" {
			ref["description"] = d
		}
		node = ref
	}

	if r.Optional() {
		node[schema.ExtOptional] = true
	}
	if in := r.In(); in != "" {
		node[schema.ExtIn] = in
	}
	return node, nil
}

func annotate(node schema.Node, r *rules.Rule) {
	if d := r.Description(); d != "" {
		node["description"] = d
	}
	if s := r.Summary(); s != "" {
		node["title"] = s
	}
	if r.Deprecated() {
		node["deprecated"] = true
	}
	for k, v := range r.OpenAPI() {
		node[k] = v
	}
}

func hoistable(node schema.Node) bool {
	if node["type"] != "object" {
		return false
	}
	props, _ := node["properties"].(map[string]any)
	return len(props) > 0
}

// Metadata holds the meta keys of a params map.
type Metadata struct {
	OpenAPI map[string]any
	Extra   map[string]any
}

// ExtractMetadata reads the $$-prefixed keys of a params map.
func (c *Converter) ExtractMetadata(raw any) Metadata {
	var md Metadata
	entries, _ := schema.Entries(raw)
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, rules.MetaPrefix) {
			continue
		}
		if e.Key == rules.OpenAPIKey {
			if m, ok := schema.PlainMap(e.Value); ok {
				md.OpenAPI = m
			}
			continue
		}
		if md.Extra == nil {
			md.Extra = make(map[string]any)
		}
		md.Extra[e.Key] = schema.Plain(e.Value)
	}
	return md
}

// SplitPlainRules parses a params map, dropping its meta keys.
func (c *Converter) SplitPlainRules(raw any) (rules.Fields, error) {
	return rules.ParseMap(raw)
}
