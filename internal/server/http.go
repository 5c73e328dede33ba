// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tejzpr/mimir-graph/internal/auth"
	"github.com/tejzpr/mimir-graph/internal/memgraph"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"go.uber.org/zap"
)

// HTTPServer serves the graph over a JSON API
type HTTPServer struct {
	instance *memgraph.Instance
	metrics  *observability.Collector
	auth     *auth.Middleware
	logger   *zap.Logger
	router   chi.Router
	version  string
	started  time.Time
}

// NewHTTPServer creates the HTTP API. metrics may be nil, which also
// disables /metrics. An empty accessToken leaves /api/graph open.
func NewHTTPServer(instance *memgraph.Instance, metrics *observability.Collector, accessToken string, logger *zap.Logger, version string) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HTTPServer{
		instance: instance,
		metrics:  metrics,
		auth:     auth.NewMiddleware(accessToken),
		logger:   logger,
		version:  version,
		started:  time.Now(),
	}
	h.routes()
	return h
}

// ServeHTTP implements http.Handler
func (h *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *HTTPServer) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(h.observe)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAuth)
			r.Get("/graph", h.handleGraph)
			r.Post("/graph/load-more", h.handleLoadMore)
			r.Post("/graph/viewport", h.handleViewport)
			r.Post("/graph/filter", h.handleFilter)
			r.Get("/graph/nodes/{nodeID}/neighbors", h.handleNeighbors)
		})
	})

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	h.router = r
}

// observe records request counts and latencies by route pattern
func (h *HTTPServer) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.ObserveHTTP(r.Method, route, status, time.Since(started))
	})
}
