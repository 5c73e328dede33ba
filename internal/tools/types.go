// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/mimir-graph/internal/memgraph"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"go.uber.org/zap"
)

// Tool names
const (
	ToolLayout    = "graph_layout"
	ToolNeighbors = "graph_neighbors"
	ToolLoadMore  = "graph_load_more"
	ToolFilter    = "graph_filter"
	ToolViewport  = "graph_viewport"
)

// ToolContext holds shared dependencies for all tools
type ToolContext struct {
	Instance *memgraph.Instance
	Metrics  *observability.Collector // optional
	Logger   *zap.Logger
}

// NewToolContext creates a tool context for one graph instance
func NewToolContext(instance *memgraph.Instance, metrics *observability.Collector, logger *zap.Logger) *ToolContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolContext{
		Instance: instance,
		Metrics:  metrics,
		Logger:   logger,
	}
}

// observe records a finished tool call
func (tc *ToolContext) observe(tool string, result *mcp.CallToolResult) {
	failed := result == nil || result.IsError
	if tc.Metrics != nil {
		tc.Metrics.ObserveToolCall(tool, failed)
	}
	if failed {
		tc.Logger.Debug("Tool call failed", zap.String("tool", tool))
	}
}

// errorResult reports err to the caller as a tool error
func errorResult(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

// jsonResult renders v as indented JSON text
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("encode result", err)
	}
	return mcp.NewToolResultText(string(data))
}
