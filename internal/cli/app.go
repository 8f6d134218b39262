package cli

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kolah/routedoc/internal/cache"
	"github.com/kolah/routedoc/internal/config"
	"github.com/kolah/routedoc/internal/document"
	"github.com/kolah/routedoc/internal/generator"
	"github.com/kolah/routedoc/internal/logging"
	"github.com/kolah/routedoc/internal/registry"
)

// app holds what every command builds from the configuration.
type app struct {
	cfg       *config.Config
	logger    log.Logger
	registry  *registry.File
	generator *generator.Generator
}

type appOptions struct {
	// metrics registers cache and generation metrics; nil disables caching.
	metrics *prometheus.Registry
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	reg, err := registry.OpenFile(cfg.Manifest)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	genOpts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithSettings(generator.Settings{
			GeneratorService:      cfg.GeneratorService,
			Hosts:                 cfg.Hosts,
			SkipUnresolvedActions: cfg.SkipUnresolvedActions,
			OnlyLocal:             cfg.OnlyLocal,
		}),
	}
	if opts.metrics != nil {
		c, err := cache.New[*document.Document]("documents", cfg.Cache.Size, opts.metrics)
		if err != nil {
			return nil, fmt.Errorf("creating document cache: %w", err)
		}
		genOpts = append(genOpts, generator.WithCache(c), generator.WithRegisterer(opts.metrics))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		generator: generator.New(reg, genOpts...),
	}, nil
}
