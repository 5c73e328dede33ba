// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/tejzpr/mimir-graph/internal/memgraph"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"github.com/tejzpr/mimir-graph/internal/tools"
	"go.uber.org/zap"
)

// MCPServer wraps the mcp-go server with the graph tools
type MCPServer struct {
	mcpServer *server.MCPServer
	instance  *memgraph.Instance
}

// NewMCPServer creates a new MCP server exposing instance
func NewMCPServer(instance *memgraph.Instance, metrics *observability.Collector, logger *zap.Logger, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"Mimir Graph",
		version,
		server.WithToolCapabilities(true),
	)

	tools.Register(mcpServer, tools.NewToolContext(instance, metrics, logger))

	return &MCPServer{
		mcpServer: mcpServer,
		instance:  instance,
	}
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over stdin and stdout until the client disconnects
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
