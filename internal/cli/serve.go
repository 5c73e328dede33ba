// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tejzpr/mimir-graph/internal/server"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		input string
		port  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live graph over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			if port > 0 {
				a.cfg.Server.Port = port
			}

			fetcher, err := a.fetcher(input)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inst, err := a.newInstance(ctx, fetcher, false)
			if err != nil {
				return err
			}

			addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.NewHTTPServer(inst, a.metrics, a.cfg.Server.AccessToken, a.logger, VersionString()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				Brand.Fprintf(cmd.ErrOrStderr(), "mimir-graph serving on %s\n", addr)
				if a.cfg.Server.AccessToken == "" {
					Warn.Fprintln(cmd.ErrOrStderr(), "  warning: no access token set, /api/graph is open")
				}
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case <-ctx.Done():
				a.logger.Info("Shutting down")
			case serveErr = <-errCh:
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("HTTP shutdown failed", zap.Error(err))
			}
			if err := inst.Close(shutdownCtx); err != nil {
				a.logger.Warn("Failed to close graph", zap.Error(err))
			}
			if serveErr != nil {
				return fmt.Errorf("http server: %w", serveErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Serve documents from a JSON file instead of the API")
	cmd.Flags().IntVar(&port, "port", 0, "Server port (overrides config)")
	return cmd
}
