// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import "github.com/mark3labs/mcp-go/server"

// Register adds every graph tool to s
func Register(s *server.MCPServer, ctx *ToolContext) {
	s.AddTool(NewLayoutTool(), LayoutHandler(ctx))
	s.AddTool(NewNeighborsTool(), NeighborsHandler(ctx))
	s.AddTool(NewLoadMoreTool(), LoadMoreHandler(ctx))
	s.AddTool(NewFilterTool(), FilterHandler(ctx))
	s.AddTool(NewViewportTool(), ViewportHandler(ctx))
}
