// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewLoadMoreTool creates the graph_load_more tool definition
func NewLoadMoreTool() mcp.Tool {
	return mcp.NewTool(ToolLoadMore,
		mcp.WithDescription("Fetch the next page of documents into the graph. Does nothing when every page is already loaded."),
	)
}

// LoadMoreHandler handles the graph_load_more tool
func LoadMoreHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, _ error) {
		defer func() { ctx.observe(ToolLoadMore, result) }()

		res, err := ctx.Instance.LoadMore(c)
		if err != nil {
			return errorResult("load more documents", err), nil
		}
		return jsonResult(res), nil
	}
}

// NewFilterTool creates the graph_filter tool definition
func NewFilterTool() mcp.Tool {
	return mcp.NewTool(ToolFilter,
		mcp.WithDescription("Restrict the graph to documents carrying any of the given container tags and rebuild it from the first page. An empty list shows everything."),
		mcp.WithArray("tags",
			mcp.Description("Container tags to show"),
			mcp.WithStringItems(),
		),
	)
}

// FilterHandler handles the graph_filter tool
func FilterHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, _ error) {
		defer func() { ctx.observe(ToolFilter, result) }()

		tags := request.GetStringSlice("tags", []string{})
		res, err := ctx.Instance.SetFilter(c, tags)
		if err != nil {
			return errorResult("apply filter", err), nil
		}
		return jsonResult(res), nil
	}
}
