// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tejzpr/mimir-graph/internal/database"
	"github.com/tejzpr/mimir-graph/internal/embeddings"
)

var errNoStore = errors.New("position store is disabled: set database.enabled or --db-type")

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent layout runs for the selected tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			if a.store == nil {
				return errNoStore
			}

			key := embeddings.FilterKey(a.cfg.Graph.ContainerTags)
			runs, err := a.store.ListRuns(cmd.Context(), key, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				Subtle.Fprintln(cmd.ErrOrStderr(), "  no runs recorded for this filter")
				return nil
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func printRuns(w io.Writer, runs []database.LayoutRun) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTAGS\tDOCS\tNODES\tEDGES\tTICKS\tDURATION")
	for _, r := range runs {
		tags := r.ContainerTags
		if tags == "" {
			tags = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			strings.SplitN(r.ID, "-", 2)[0],
			r.CreatedAt.Local().Format(time.DateTime),
			tags,
			r.Documents, r.Nodes, r.Edges, r.Ticks,
			time.Duration(r.DurationMS)*time.Millisecond,
		)
	}
	return tw.Flush()
}
