// Package generator is the entry point of document generation: it queries the
// registry, resolves aliases and assembles the document.
package generator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/kolah/routedoc/internal/cache"
	"github.com/kolah/routedoc/internal/converter"
	"github.com/kolah/routedoc/internal/document"
	"github.com/kolah/routedoc/internal/logging"
	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/registry"
	"github.com/kolah/routedoc/internal/resolver"
	"github.com/kolah/routedoc/internal/schema"
)

// DefaultGeneratorService is the service whose settings hold the global fragment.
const DefaultGeneratorService = "openapi"

// Settings select what a generator documents.
type Settings struct {
	// GeneratorService names the service holding settings.openapi and
	// settings.skipUnresolvedActions.
	GeneratorService string
	// Hosts names the endpoint-host services. Empty means every service that
	// declares settings.routes.
	Hosts []string
	// SkipUnresolvedActions overrides the generator service setting when set.
	SkipUnresolvedActions *bool
	OnlyLocal             bool
	// DiscoveryConcurrency bounds concurrent alias discovery queries.
	DiscoveryConcurrency int
}

// Generator produces documents from a registry. It is safe for concurrent use.
type Generator struct {
	registry  registry.Registry
	logger    log.Logger
	settings  Settings
	converter *converter.Converter
	documents *document.Generator
	cache     *cache.Cache[*document.Document]
	reg       prometheus.Registerer

	mtx     sync.Mutex
	lastKey string

	generations *prometheus.CounterVec
	duration    prometheus.Histogram
}

// Option configures a Generator.
type Option func(*Generator)

func WithLogger(logger log.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

func WithSettings(s Settings) Option {
	return func(g *Generator) { g.settings = s }
}

// WithExtension registers mapper overrides, loaded once before the first run.
func WithExtension(ext converter.Extension) Option {
	return func(g *Generator) { g.converter = converter.New(converter.WithExtension(ext)) }
}

// WithCache keeps generated documents in c.
func WithCache(c *cache.Cache[*document.Document]) Option {
	return func(g *Generator) { g.cache = c }
}

// WithRegisterer registers the generator metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Generator) { g.reg = reg }
}

// New creates a generator reading from reg.
func New(reg registry.Registry, opts ...Option) *Generator {
	g := &Generator{registry: reg}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrNop(g.logger)
	if g.converter == nil {
		g.converter = converter.New()
	}
	if g.settings.GeneratorService == "" {
		g.settings.GeneratorService = DefaultGeneratorService
	}
	if g.settings.DiscoveryConcurrency <= 0 {
		g.settings.DiscoveryConcurrency = 4
	}
	g.documents = document.New(g.converter, document.WithLogger(g.logger))

	g.generations = promauto.With(g.reg).NewCounterVec(prometheus.CounterOpts{
		Name: "routedoc_generations_total",
		Help: "Total number of document generations by result.",
	}, []string{"result"})
	g.duration = promauto.With(g.reg).NewHistogram(prometheus.HistogramOpts{
		Name:    "routedoc_generation_duration_seconds",
		Help:    "Time spent producing a document, including registry queries.",
		Buckets: prometheus.DefBuckets,
	})
	return g
}

// GenerateOptions tune one GenerateSchema call.
type GenerateOptions struct {
	// FilterAliases keeps an alias when it returns true. Nil keeps every alias.
	FilterAliases func(*model.Alias) bool
}

// GetAliases returns the resolved, deduplicated aliases.
func (g *Generator) GetAliases(ctx context.Context) ([]*model.Alias, error) {
	in, err := g.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return in.aliases, nil
}

// GenerateSchema produces the document. It either returns a complete document or
// an error; a misconfigured alias only degrades its own entry.
func (g *Generator) GenerateSchema(ctx context.Context, opts GenerateOptions) (doc *document.Document, err error) {
	start := time.Now()
	result := "success"
	defer func() {
		if err != nil {
			result = "error"
		}
		g.generations.WithLabelValues(result).Inc()
		g.duration.Observe(time.Since(start).Seconds())
	}()

	if err := g.converter.Load(ctx); err != nil {
		return nil, &ConfigurationError{Op: "loading converter", Err: err}
	}

	in, err := g.fetch(ctx)
	if err != nil {
		return nil, err
	}

	aliases := in.aliases
	if opts.FilterAliases != nil {
		kept := make([]*model.Alias, 0, len(aliases))
		for _, a := range aliases {
			if opts.FilterAliases(a) {
				kept = append(kept, a)
			}
		}
		aliases = kept
	}

	key := fingerprint(in.base, aliases)
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			result = "cached"
			return cached, nil
		}
	}

	doc, err = g.documents.Generate(in.base, aliases)
	if err != nil {
		if errors.Is(err, document.ErrMalformedRef) || errors.Is(err, converter.ErrNotInitialized) {
			return nil, &ConfigurationError{Op: "generating document", Err: err}
		}
		return nil, fmt.Errorf("generating document: %w", err)
	}

	if g.cache != nil {
		g.store(key, doc)
	}
	level.Debug(g.logger).Log("msg", "document generated", "aliases", len(aliases), "paths", len(doc.Paths()), "fingerprint", key)
	return doc, nil
}

// store caches doc and drops the entry of the previous route set.
func (g *Generator) store(key string, doc *document.Document) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.lastKey != "" && g.lastKey != key {
		g.cache.Remove(g.lastKey)
	}
	g.cache.Set(key, doc)
	g.lastKey = key
}

// Invalidate drops every cached document.
func (g *Generator) Invalidate() {
	if g.cache == nil {
		return
	}
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.cache.Purge()
	g.lastKey = ""
}

type input struct {
	base    map[string]any
	aliases []*model.Alias
}

func (g *Generator) fetch(ctx context.Context) (input, error) {
	services, err := g.registry.ListServices(ctx, true, g.settings.OnlyLocal)
	if err != nil {
		return input{}, fmt.Errorf("listing services: %w", err)
	}
	// Registries list services in no particular order; route claims and action
	// lookups depend on it.
	services = slices.Clone(services)
	slices.SortStableFunc(services, func(a, b *model.ServiceDescriptor) int {
		return strings.Compare(a.Name, b.Name)
	})

	var genSvc *model.ServiceDescriptor
	for _, svc := range services {
		if svc.Name == g.settings.GeneratorService {
			genSvc = svc
			break
		}
	}

	hosts, err := g.hosts(services)
	if err != nil {
		return input{}, err
	}

	discovered, err := g.discover(ctx, hosts)
	if err != nil {
		return input{}, err
	}

	res := resolver.New(
		resolver.WithLogger(g.logger),
		resolver.WithSkipUnresolvedActions(g.skipUnresolved(genSvc)),
	)
	aliases := res.Resolve(resolver.Input{
		Hosts:      hosts,
		Generator:  genSvc,
		Services:   services,
		Discovered: discovered,
	})

	var base map[string]any
	if genSvc != nil {
		base, _ = genSvc.OpenAPI()
	}
	return input{base: base, aliases: aliases}, nil
}

func (g *Generator) hosts(services []*model.ServiceDescriptor) ([]*model.ServiceDescriptor, error) {
	byName := make(map[string]*model.ServiceDescriptor, len(services))
	for _, svc := range services {
		byName[svc.Name] = svc
	}

	var hosts []*model.ServiceDescriptor
	if len(g.settings.Hosts) > 0 {
		for _, name := range g.settings.Hosts {
			svc, ok := byName[name]
			if !ok {
				return nil, &ConfigurationError{Op: "selecting hosts", Err: fmt.Errorf("%w: %q", ErrNoHostService, name)}
			}
			hosts = append(hosts, svc)
		}
		return hosts, nil
	}

	for _, svc := range services {
		if _, ok := svc.Setting("routes"); ok {
			hosts = append(hosts, svc)
		}
	}
	if len(hosts) == 0 {
		return nil, &ConfigurationError{Op: "selecting hosts", Err: ErrNoHostService}
	}
	return hosts, nil
}

func (g *Generator) skipUnresolved(genSvc *model.ServiceDescriptor) bool {
	if g.settings.SkipUnresolvedActions != nil {
		return *g.settings.SkipUnresolvedActions
	}
	if v, ok := genSvc.Setting("skipUnresolvedActions"); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return true
}

// discover queries the auto-discovered endpoints of every host concurrently.
func (g *Generator) discover(ctx context.Context, hosts []*model.ServiceDescriptor) (map[string][]model.AliasInfo, error) {
	var (
		mtx sync.Mutex
		out = make(map[string][]model.AliasInfo, len(hosts))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.settings.DiscoveryConcurrency)
	for _, host := range hosts {
		if !hasAutoAliases(host) {
			continue
		}
		eg.Go(func() error {
			infos, err := g.registry.ListAliases(egCtx, host.Name)
			if err != nil {
				return fmt.Errorf("listing aliases of %s: %w", host.Name, err)
			}
			mtx.Lock()
			out[host.Name] = infos
			mtx.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func hasAutoAliases(host *model.ServiceDescriptor) bool {
	raw, _ := host.Setting("routes")
	routes, _ := raw.([]any)
	for _, r := range routes {
		v, _ := schema.Lookup(r, "autoAliases")
		if b, _ := v.(bool); b {
			return true
		}
	}
	return false
}
