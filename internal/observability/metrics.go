// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Loader metrics
	PagesLoaded   *prometheus.CounterVec
	FetchDuration prometheus.Histogram

	// Simulation metrics
	Ticks      prometheus.Counter
	GraphNodes *prometheus.GaugeVec
	GraphEdges *prometheus.GaugeVec

	// Surface metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	ToolCalls    *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, so several can
// coexist in one process
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		PagesLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_pages_loaded_total",
				Help:      "Document pages fetched, by outcome",
			},
			[]string{"status"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_fetch_duration_seconds",
				Help:      "Duration of document page fetches",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Ticks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulation_ticks_total",
				Help:      "Layout simulation ticks that moved nodes",
			},
		),
		GraphNodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Nodes in the current graph, by kind",
			},
			[]string{"kind"},
		),
		GraphEdges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Edges in the current graph, by type",
			},
			[]string{"type"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_tool_calls_total",
				Help:      "MCP tool invocations, by tool and outcome",
			},
			[]string{"tool", "status"},
		),
	}

	registry.MustRegister(
		c.PagesLoaded,
		c.FetchDuration,
		c.Ticks,
		c.GraphNodes,
		c.GraphEdges,
		c.HTTPRequests,
		c.HTTPDuration,
		c.ToolCalls,
	)
	return c
}

// ObserveFetch records one document page fetch
func (c *Collector) ObserveFetch(page, documents int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.PagesLoaded.WithLabelValues(status).Inc()
	c.FetchDuration.Observe(elapsed.Seconds())
}

// ObserveTick records one simulation tick
func (c *Collector) ObserveTick() {
	c.Ticks.Inc()
}

// RecordGraph publishes the size of the current graph
func (c *Collector) RecordGraph(nodesByKind, edgesByType map[string]int) {
	c.GraphNodes.Reset()
	for kind, n := range nodesByKind {
		c.GraphNodes.WithLabelValues(kind).Set(float64(n))
	}
	c.GraphEdges.Reset()
	for edgeType, n := range edgesByType {
		c.GraphEdges.WithLabelValues(edgeType).Set(float64(n))
	}
}

// ObserveHTTP records one served HTTP request
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveToolCall records one MCP tool invocation
func (c *Collector) ObserveToolCall(tool string, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	c.ToolCalls.WithLabelValues(tool, status).Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
