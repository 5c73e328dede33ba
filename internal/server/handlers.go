// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/export"
	"github.com/tejzpr/mimir-graph/internal/graph"
	"github.com/tejzpr/mimir-graph/internal/memgraph"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if _, err := h.instance.Snapshot(); err != nil {
		status = "closed"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"version":   h.version,
		"uptime":    time.Since(h.started).Seconds(),
		"instance":  h.instance.ID(),
		"graph_key": h.instance.GraphKey(),
		"has_more":  h.instance.HasMore(),
	})
}

func (h *HTTPServer) handleGraph(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.instance.Snapshot()
	if err != nil {
		h.writeFailure(w, "snapshot graph", err)
		return
	}

	if format == export.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := export.Encode(w, snap, format); err != nil {
		h.logger.Warn("Failed to write graph", zap.Error(err))
	}
}

func (h *HTTPServer) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	res, err := h.instance.LoadMore(r.Context())
	if err != nil {
		h.writeFailure(w, "load more documents", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPServer) handleViewport(w http.ResponseWriter, r *http.Request) {
	var bounds graph.ViewportBounds
	if err := decodeBody(w, r, &bounds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.instance.UpdateViewport(r.Context(), bounds)
	if err != nil {
		h.writeFailure(w, "update viewport", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPServer) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContainerTags []string `json:"containerTags"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.instance.SetFilter(r.Context(), req.ContainerTags)
	if err != nil {
		h.writeFailure(w, "apply filter", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPServer) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	hops := 1
	if raw := r.URL.Query().Get("hops"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "hops must be an integer")
			return
		}
		hops = n
	}

	hood, err := h.instance.Neighbors(nodeID, hops)
	if err != nil {
		h.writeFailure(w, "walk graph", err)
		return
	}
	writeJSON(w, http.StatusOK, hood)
}

// writeFailure maps domain errors to status codes
func (h *HTTPServer) writeFailure(w http.ResponseWriter, action string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, memgraph.ErrClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, memgraph.ErrInvalidViewport):
		status = http.StatusBadRequest
	case errors.Is(err, graph.ErrNodeNotFound):
		status = http.StatusNotFound
	case api.IsCanceled(err):
		status = http.StatusRequestTimeout
	default:
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			status = http.StatusBadGateway
		}
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("action", action), zap.Error(err))
	}
	writeError(w, status, "failed to "+action+": "+err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
