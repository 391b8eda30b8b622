package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/aretw0/stategraph/internal/watch"
	httpadapter "github.com/aretw0/stategraph/pkg/adapters/http"
	"github.com/aretw0/stategraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	var watchGraph bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Exposes the tools and a read-only projection of the graph as a JSON API over
HTTP, with Server-Sent Events for refinements and Prometheus metrics.

With --watch the graph document is reloaded when it changes on disk; the
default session then starts over from the new content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			ws, closeStore, err := a.open(cmd.Context(), stategraph.WithMetrics(observability.NewMetrics(reg)))
			if err != nil {
				return err
			}
			defer closeStore()

			srv := &http.Server{
				Addr: fmt.Sprintf(":%d", a.cfg.HTTP.Port),
				Handler: httpadapter.NewHandler(ws.Toolbox(),
					httpadapter.WithLogger(a.logger),
					httpadapter.WithMetrics(reg),
				),
				ReadHeaderTimeout: 10 * time.Second,
			}

			if tui.IsTerminal(cmd.ErrOrStderr()) {
				tui.PrintBanner(cmd.ErrOrStderr(), strings.TrimSpace(stategraph.Version))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				a.logger.Info("starting HTTP server", "address", srv.Addr, "graph", ws.Name)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				a.logger.Info("shutting down HTTP server")

				// Give outstanding requests a deadline for completion.
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.logger.Warn("graceful shutdown did not complete", "err", err)
					if err := srv.Close(); err != nil {
						return fmt.Errorf("error killing server: %w", err)
					}
				}
				a.logger.Info("HTTP server stopped gracefully")
				return nil
			})

			if watchGraph {
				g.Go(func() error {
					return watch.File(gctx, a.graphPath, watch.DefaultDebounce, a.logger, ws.Reload)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().BoolVarP(&watchGraph, "watch", "w", false, "Reload the graph document when it changes")
	a.bind(cmd.Flags().Lookup("port"), "http.port")
	return cmd
}
