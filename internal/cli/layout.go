// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tejzpr/mimir-graph/internal/embeddings"
	"github.com/tejzpr/mimir-graph/internal/export"
)

// DefaultMaxTicks bounds a batch layout; a cold start rests in about 300
const DefaultMaxTicks = 1000

func layoutCmd() *cobra.Command {
	var (
		input    string
		output   string
		format   string
		maxPages int
		maxTicks int
		fresh    bool
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Load documents, settle the layout and write a snapshot",
		Long: `Run one layout to completion and write the positioned graph.

  mimir-graph layout --api-url https://api.example.com > graph.json
  mimir-graph layout --input documents.json --format yaml -o graph.yaml
  mimir-graph layout --tags work --max-pages 0    # every page
  mimir-graph layout --db-type sqlite --fresh     # ignore remembered positions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			fetcher, err := a.fetcher(input)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if fresh && a.store != nil {
				if err := a.store.DeletePositions(ctx, embeddings.FilterKey(a.cfg.Graph.ContainerTags)); err != nil {
					return err
				}
			}

			inst, err := a.newInstance(ctx, fetcher, true)
			if err != nil {
				return err
			}

			if maxPages != 1 {
				if _, err := inst.LoadAll(ctx, maxPages); err != nil {
					return errors.Join(err, inst.Close(ctx))
				}
			}

			ticks, err := inst.Settle(ctx, maxTicks)
			if err != nil {
				return errors.Join(err, inst.Close(ctx))
			}

			snap, err := inst.Snapshot()
			if err != nil {
				return errors.Join(err, inst.Close(ctx))
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Join(fmt.Errorf("failed to create output: %w", err), inst.Close(ctx))
				}
				defer f.Close()
				w = f
			}
			if err := export.Encode(w, snap, outFormat); err != nil {
				return errors.Join(err, inst.Close(ctx))
			}

			if err := inst.Close(ctx); err != nil {
				Warn.Fprintf(cmd.ErrOrStderr(), "  warning: %v\n", err)
			}

			Good.Fprintf(cmd.ErrOrStderr(), "  laid out %d nodes and %d edges in %d ticks (%s)\n",
				len(snap.Nodes), len(snap.Edges), ticks, snap.State)
			if snap.Pagination.CurrentPage < snap.Pagination.TotalPages {
				Subtle.Fprintf(cmd.ErrOrStderr(), "  %d of %d pages loaded\n",
					snap.Pagination.CurrentPage, snap.Pagination.TotalPages)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Read documents from a JSON file instead of the API")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot to a file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "json", "Snapshot format (json or yaml)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 1, "Pages to load; 0 loads every page")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", DefaultMaxTicks, "Upper bound on simulation ticks")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Forget remembered positions for these tags before laying out")
	return cmd
}
