// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/mimir-graph/internal/graph"
)

// NewViewportTool creates the graph_viewport tool definition
func NewViewportTool() mcp.Tool {
	return mcp.NewTool(ToolViewport,
		mcp.WithDescription("Report which nodes lie inside a rectangle of the layout. Moving the viewport towards the edge of the graph loads the next page."),
		mcp.WithNumber("min_x", mcp.Required(), mcp.Description("Left edge")),
		mcp.WithNumber("max_x", mcp.Required(), mcp.Description("Right edge")),
		mcp.WithNumber("min_y", mcp.Required(), mcp.Description("Top edge")),
		mcp.WithNumber("max_y", mcp.Required(), mcp.Description("Bottom edge")),
	)
}

// ViewportHandler handles the graph_viewport tool
func ViewportHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, _ error) {
		defer func() { ctx.observe(ToolViewport, result) }()

		var bounds graph.ViewportBounds
		for name, dst := range map[string]*float64{
			"min_x": &bounds.MinX,
			"max_x": &bounds.MaxX,
			"min_y": &bounds.MinY,
			"max_y": &bounds.MaxY,
		} {
			v, err := request.RequireFloat(name)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			*dst = v
		}

		res, err := ctx.Instance.UpdateViewport(c, bounds)
		if err != nil {
			return errorResult("update viewport", err), nil
		}
		return jsonResult(res), nil
	}
}
