// Package resolver turns route declarations and registry-discovered endpoints into a
// deduplicated list of aliases.
package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/kolah/routedoc/internal/logging"
	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/schema"
)

var validAliasPath = regexp.MustCompile(`^[A-Za-z0-9_\-./:{}()*+?\\]*$`)

const restToken = "REST"

// Resolver resolves aliases for one generation run. It holds no state between runs.
type Resolver struct {
	logger         log.Logger
	skipUnresolved bool
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger log.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithSkipUnresolvedActions sets the unresolved-action policy. When skip is true,
// aliases without a known action are dropped; otherwise they are kept unbound.
func WithSkipUnresolvedActions(skip bool) Option {
	return func(r *Resolver) { r.skipUnresolved = skip }
}

// New creates a resolver. Unresolved actions are skipped by default.
func New(opts ...Option) *Resolver {
	r := &Resolver{skipUnresolved: true}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger)
	return r
}

// Input is the registry data one resolution works on.
type Input struct {
	// Hosts are the endpoint-host services whose settings declare routes.
	Hosts []*model.ServiceDescriptor
	// Generator is the service holding the documentation settings. May be nil.
	Generator *model.ServiceDescriptor
	// Services are every known service, with actions.
	Services []*model.ServiceDescriptor
	// Discovered holds auto-discovered endpoints per host service name.
	Discovered map[string][]model.AliasInfo
}

// Resolve returns the aliases of every host route in declaration order.
func (r *Resolver) Resolve(in Input) []*model.Alias {
	res := &resolution{
		Resolver: r,
		actions:  indexActions(in.Services),
		claimed:  make(map[string]bool),
	}
	for _, host := range in.Hosts {
		res.host(host, in.Generator, in.Discovered[host.Name])
	}
	return res.aliases
}

func indexActions(services []*model.ServiceDescriptor) map[string]*model.ActionDescriptor {
	out := make(map[string]*model.ActionDescriptor)
	for _, svc := range services {
		for _, name := range schema.SortedKeys(svc.Actions) {
			a := svc.Actions[name]
			if a == nil {
				continue
			}
			out[a.Name] = a
		}
	}
	return out
}

type resolution struct {
	*Resolver
	actions map[string]*model.ActionDescriptor
	claimed map[string]bool
	aliases []*model.Alias
}

func (res *resolution) host(host, generator *model.ServiceDescriptor, discovered []model.AliasInfo) {
	prefix := ""
	if v, ok := host.Setting("path"); ok {
		prefix, _ = v.(string)
	}

	raw, _ := host.Setting("routes")
	routes, ok := raw.([]any)
	if !ok {
		if raw != nil {
			level.Warn(res.logger).Log("msg", "routes setting is not a list", "service", host.Name)
		}
		return
	}

	for i, rawRoute := range routes {
		decl, err := parseRoute(rawRoute, prefix)
		if err != nil {
			level.Warn(res.logger).Log("msg", "skipping route", "service", host.Name, "index", i, "err", err)
			continue
		}
		if decl.route.OptOut {
			level.Debug(res.logger).Log("msg", "route opted out of documentation", "service", host.Name, "route", decl.route.Path)
			continue
		}
		decl.route.Service = host
		decl.route.Generator = generator
		res.route(decl, discovered)
	}
}

func (res *resolution) route(decl routeDecl, discovered []model.AliasInfo) {
	route := decl.route

	for _, entry := range decl.aliases {
		name, err := parseAliasName(entry.Key)
		if err != nil {
			level.Warn(res.logger).Log("msg", "skipping alias", "route", route.Path, "alias", entry.Key, "err", err)
			continue
		}
		rec, ok := res.normalize(entry.Value)
		if !ok {
			level.Warn(res.logger).Log("msg", "skipping alias with unresolved action", "route", route.Path, "alias", entry.Key)
			continue
		}
		for _, a := range expand(route, name, rec) {
			res.add(a)
		}
	}

	if !route.AutoAliases {
		return
	}
	for _, info := range discovered {
		if model.NormalizePath(info.RoutePath) != route.Path {
			continue
		}
		res.discovered(route, info)
	}
}

func (res *resolution) discovered(route *model.Route, info model.AliasInfo) {
	methods, err := parseMethods(info.Methods)
	if err != nil {
		level.Warn(res.logger).Log("msg", "skipping discovered alias", "path", info.FullPath, "err", err)
		return
	}
	action, typ := splitAction(info.ActionName)
	for _, m := range methods {
		a := model.NewAlias(route, m, info.Path)
		if info.FullPath != "" {
			a.FullPath = model.NormalizePath(info.FullPath)
		}
		if res.claimed[a.Key()] {
			// Declared aliases carry richer configuration; discovery only confirms them.
			continue
		}
		a.Action = action
		a.Type = typ
		res.add(a)
	}
}

// add claims the alias slot and keeps the alias when its action binds under the
// current policy.
func (res *resolution) add(a *model.Alias) {
	key := a.Key()
	if res.claimed[key] {
		level.Warn(res.logger).Log("msg", "duplicate alias ignored", "alias", key, "action", a.Action)
		return
	}
	res.claimed[key] = true

	if !res.bind(a) {
		return
	}
	if a.Route != nil {
		a.Route.Aliases = append(a.Route.Aliases, a)
	}
	res.aliases = append(res.aliases, a)
}

func (res *resolution) bind(a *model.Alias) bool {
	if a.Skipped {
		level.Debug(res.logger).Log("msg", "alias opted out of documentation", "alias", a.Key())
		return false
	}

	if !a.HasAction() {
		if res.skipUnresolved {
			level.Debug(res.logger).Log("msg", "dropping alias without action", "alias", a.Key())
			return false
		}
		level.Warn(res.logger).Log("msg", "alias has no action, documenting without parameters", "alias", a.Key())
		return true
	}

	desc, ok := res.actions[a.Action]
	if !ok {
		if res.skipUnresolved {
			level.Warn(res.logger).Log("msg", "dropping alias with unknown action", "alias", a.Key(), "action", a.Action)
			return false
		}
		level.Warn(res.logger).Log("msg", "unknown action, documenting without parameters", "alias", a.Key(), "action", a.Action)
		return true
	}

	if _, include := model.Fragment(desc.OpenAPI); !include {
		level.Debug(res.logger).Log("msg", "action opted out of documentation", "alias", a.Key(), "action", a.Action)
		return false
	}
	a.ActionSchema = desc
	return true
}

type aliasName struct {
	method model.Method
	path   string
	rest   bool
}

// parseAliasName splits "METHOD path". A lone token is a path served on any method.
func parseAliasName(key string) (aliasName, error) {
	fields := strings.Fields(key)
	var name aliasName
	switch len(fields) {
	case 1:
		name = aliasName{method: model.MethodAny, path: fields[0]}
	case 2:
		if strings.EqualFold(fields[0], restToken) {
			name = aliasName{rest: true, path: fields[1]}
			break
		}
		m, err := model.ParseMethod(fields[0])
		if err != nil {
			return aliasName{}, err
		}
		name = aliasName{method: m, path: fields[1]}
	default:
		return aliasName{}, fmt.Errorf("malformed alias name %q", key)
	}

	if !validAliasPath.MatchString(name.path) {
		return aliasName{}, fmt.Errorf("alias path %q contains invalid characters", name.path)
	}
	return name, nil
}

func parseMethods(s string) ([]model.Method, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(tokens) == 0 {
		return []model.Method{model.MethodAny}, nil
	}
	out := make([]model.Method, 0, len(tokens))
	for _, tok := range tokens {
		m, err := model.ParseMethod(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// expand builds the aliases of one declaration. REST declarations fan out into the
// CRUD table.
func expand(route *model.Route, name aliasName, rec *aliasRecord) []*model.Alias {
	if !name.rest {
		a := model.NewAlias(route, name.method, name.path)
		rec.apply(a, rec.action)
		return []*model.Alias{a}
	}

	var out []*model.Alias
	for _, ra := range model.RestActions(rec.only, rec.except) {
		a := model.NewAlias(route, ra.Method, name.path+ra.Suffix)
		action := ""
		if rec.action != "" {
			action = rec.action + "." + ra.Name
		}
		rec.apply(a, action)
		out = append(out, a)
	}
	return out
}
