package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/kolah/routedoc/internal/config"
	"github.com/kolah/routedoc/internal/document"
	"github.com/kolah/routedoc/internal/generator"
)

const shutdownTimeout = 10 * time.Second

func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the OpenAPI document over HTTP, regenerating it when routes change",
		RunE:  runServe,
	}

	config.BindServeFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(cmd, appOptions{metrics: metrics})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.Serve.Listen,
		Handler:           newRouter(a.generator, a.registry, metrics, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		level.Info(a.logger).Log("msg", "serving OpenAPI document", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	level.Info(a.logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// reloader re-reads the registry source before a cache invalidation.
type reloader interface {
	Reload() error
}

func newRouter(gen *generator.Generator, src reloader, metrics *prometheus.Registry, logger log.Logger) *mux.Router {
	h := &handler{generator: gen, source: src, logger: logger}

	r := mux.NewRouter()
	r.Path("/openapi.json").Methods(http.MethodGet).HandlerFunc(h.document("application/json", (*document.Document).JSON))
	r.Path("/openapi.yaml").Methods(http.MethodGet).HandlerFunc(h.document("application/yaml", (*document.Document).YAML))
	r.Path("/openapi/invalidate").Methods(http.MethodPost).HandlerFunc(h.invalidate)
	r.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	return r
}

type handler struct {
	generator *generator.Generator
	source    reloader
	logger    log.Logger
}

func (h *handler) document(contentType string, encode func(*document.Document) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.generator.GenerateSchema(r.Context(), generator.GenerateOptions{})
		if err != nil {
			level.Error(h.logger).Log("msg", "generating document failed", "err", err)
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		data, err := encode(doc)
		if err != nil {
			level.Error(h.logger).Log("msg", "encoding document failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}

func (h *handler) invalidate(w http.ResponseWriter, _ *http.Request) {
	if h.source != nil {
		if err := h.source.Reload(); err != nil {
			level.Error(h.logger).Log("msg", "reloading manifest failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	h.generator.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	var cfgErr *generator.ConfigurationError
	if errors.As(err, &cfgErr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}
