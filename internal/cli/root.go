// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"github.com/spf13/cobra"
)

// globalFlags are shared by every command that builds a graph
type globalFlags struct {
	configPath string
	apiURL     string
	dbType     string
	dbPath     string
	dbDSN      string
	logLevel   string
	tags       []string
}

var flags globalFlags

// newRootCmd builds the command tree bound to flags
func newRootCmd() *cobra.Command {
	flags = globalFlags{}
	root := &cobra.Command{
		Use:   "mimir-graph",
		Short: "Lay out memory graphs of documents and their memories",
		Long: Brand.Sprint("mimir-graph") + " builds a graph of documents and the memories extracted from them,\n" +
			"links similar documents and lays the result out with a force simulation.\n" +
			Subtle.Sprint("Serve it over HTTP or MCP, or run a one-shot layout."),
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to config file (default ~/.mimir-graph/configs/config.json)")
	pf.StringVar(&flags.apiURL, "api-url", "", "Documents API base URL")
	pf.StringVar(&flags.dbType, "db-type", "", "Position store type (sqlite or postgres); enables the store")
	pf.StringVar(&flags.dbPath, "db-path", "", "Position store path (for sqlite)")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "Position store DSN (for postgres)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringSliceVar(&flags.tags, "tags", nil, "Container tags to load")

	root.AddCommand(versionCmd())
	root.AddCommand(layoutCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(runsCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}
