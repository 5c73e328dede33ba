// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/mimir-graph/internal/graph"
)

// NewNeighborsTool creates the graph_neighbors tool definition
func NewNeighborsTool() mcp.Tool {
	return mcp.NewTool(ToolNeighbors,
		mcp.WithDescription("List what is connected to a node: its memories, similar documents and version history, up to a number of hops away."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Node id. Documents use their id, memories use 'documentId/memoryId'."),
		),
		mcp.WithNumber("hops",
			mcp.Description(fmt.Sprintf("How far to walk. Default: 1, max: %d", graph.MaxTraversalHops)),
		),
	)
}

// NeighborsHandler handles the graph_neighbors tool
func NeighborsHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, _ error) {
		defer func() { ctx.observe(ToolNeighbors, result) }()

		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		hops := int(request.GetFloat("hops", 1))

		hood, err := ctx.Instance.Neighbors(id, hops)
		if err != nil {
			return errorResult(fmt.Sprintf("walk from '%s'", id), err), nil
		}
		return mcp.NewToolResultText(formatNeighborhood(id, hood)), nil
	}
}

func formatNeighborhood(id string, hood *graph.Neighborhood) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d nodes and %d edges around '%s':\n\n", len(hood.Nodes), len(hood.Edges), id))

	for _, v := range hood.Nodes {
		sb.WriteString(fmt.Sprintf("- [%d] `%s` (%s) %s", v.Depth, v.Node.ID, v.Node.Kind, v.Node.Label))
		if v.Node.Status != "" && v.Node.Status != graph.StatusDefault {
			sb.WriteString(fmt.Sprintf(" _%s_", v.Node.Status))
		}
		sb.WriteString("\n")
	}

	if len(hood.Edges) > 0 {
		sb.WriteString("\n**Edges**:\n")
		for _, e := range hood.Edges {
			sb.WriteString(fmt.Sprintf("- `%s` -> `%s` %s (%.2f)\n", e.Source, e.Target, e.Type, e.Similarity))
		}
	}
	return sb.String()
}
