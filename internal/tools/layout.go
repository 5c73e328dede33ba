// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/mimir-graph/internal/export"
)

// NewLayoutTool creates the graph_layout tool definition
func NewLayoutTool() mcp.Tool {
	return mcp.NewTool(ToolLayout,
		mcp.WithDescription("Return the memory graph as currently laid out: every document and memory node with its position, and every edge with its similarity and rendering hints."),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'yaml'"),
			mcp.Enum("json", "yaml"),
		),
	)
}

// LayoutHandler handles the graph_layout tool
func LayoutHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, _ error) {
		defer func() { ctx.observe(ToolLayout, result) }()

		format, err := export.ParseFormat(request.GetString("format", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		snap, err := ctx.Instance.Snapshot()
		if err != nil {
			return errorResult("snapshot graph", err), nil
		}

		data, err := export.Marshal(snap, format)
		if err != nil {
			return errorResult("encode graph", err), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
