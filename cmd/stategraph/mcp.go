package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes the navigation and refinement tools to AI agents over MCP.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeStore, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			srv := mcp.NewServer(ws.Toolbox(), a.logger)

			switch a.cfg.MCP.Transport {
			case config.TransportStdio:
				// Stdout carries JSON-RPC.
				log.SetOutput(os.Stderr)
				a.logger.Info("starting MCP server (stdio)")
				return srv.ServeStdio()
			case config.TransportSSE:
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				a.logger.Info("starting MCP server (SSE)", "port", a.cfg.MCP.Port)
				if err := srv.ServeSSE(ctx, a.cfg.MCP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				a.logger.Info("MCP server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", a.cfg.MCP.Transport)
			}
		},
	}
	cmd.Flags().String("transport", config.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	a.bind(cmd.Flags().Lookup("transport"), "mcp.transport")
	a.bind(cmd.Flags().Lookup("port"), "mcp.port")
	return cmd
}
