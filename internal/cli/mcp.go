// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tejzpr/mimir-graph/internal/server"
	"go.uber.org/zap"
)

func mcpCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve a live graph as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			fetcher, err := a.fetcher(input)
			if err != nil {
				return err
			}

			inst, err := a.newInstance(cmd.Context(), fetcher, false)
			if err != nil {
				return err
			}
			defer func() {
				if err := inst.Close(context.Background()); err != nil {
					a.logger.Warn("Failed to close graph", zap.Error(err))
				}
			}()

			a.logger.Info("Starting MCP server in stdio mode", zap.String("instance", inst.ID()))
			return server.NewMCPServer(inst, a.metrics, a.logger, VersionString()).ServeStdio()
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Serve documents from a JSON file instead of the API")
	return cmd
}
