package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kolah/routedoc/internal/cache"
	"github.com/kolah/routedoc/internal/document"
	"github.com/kolah/routedoc/internal/generator"
	"github.com/kolah/routedoc/internal/registry"
)

type reloadFunc func() error

func (f reloadFunc) Reload() error { return f() }

func newTestServer(t *testing.T, src reloader) (*httptest.Server, *cache.Cache[*document.Document]) {
	t.Helper()
	reg, err := registry.OpenFile(petstore)
	require.NoError(t, err)

	metrics := prometheus.NewPedanticRegistry()
	c, err := cache.New[*document.Document]("documents", 2, metrics)
	require.NoError(t, err)

	gen := generator.New(reg, generator.WithCache(c), generator.WithRegisterer(metrics))
	if src == nil {
		src = reg
	}
	srv := httptest.NewServer(newRouter(gen, src, metrics, log.NewNopLogger()))
	t.Cleanup(srv.Close)
	return srv, c
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServe_Documents(t *testing.T) {
	srv, c := newTestServer(t, nil)

	resp, body := get(t, srv.URL+"/openapi.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Contains(t, body, `"openapi": "3.1.0"`)

	resp, body = get(t, srv.URL+"/openapi.yaml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	require.Contains(t, body, "openapi: 3.1.0")
	require.Equal(t, 1, c.Len())

	resp, body = get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `routedoc_generations_total{result="cached"} 1`)
	require.Contains(t, body, "routedoc_cache_hits_total")
}

func TestServe_Invalidate(t *testing.T) {
	srv, c := newTestServer(t, nil)

	resp, _ := get(t, srv.URL+"/openapi.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, c.Len())

	resp, err := http.Post(srv.URL+"/openapi/invalidate", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, 0, c.Len())

	resp, _ = get(t, srv.URL+"/openapi/invalidate")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServe_InvalidateReloadFailure(t *testing.T) {
	srv, _ := newTestServer(t, reloadFunc(func() error { return errors.New("manifest gone") }))

	resp, err := http.Post(srv.URL+"/openapi/invalidate", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	require.Equal(t, http.StatusInternalServerError, statusFor(&generator.ConfigurationError{Op: "selecting hosts", Err: generator.ErrNoHostService}))
	require.Equal(t, http.StatusBadGateway, statusFor(errors.New("listing services: timeout")))
}
