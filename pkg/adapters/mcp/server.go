package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/schema"
	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource exposing the graph navigation currently runs on.
const GraphURI = "stategraph://graph"

// Server exposes a Toolbox as an MCP server.
type Server struct {
	toolbox   *tools.Toolbox
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer registers every tool of tb and the graph resource.
func NewServer(tb *tools.Toolbox, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		toolbox: tb,
		mcpServer: server.NewMCPServer("stategraph-mcp", strings.TrimSpace(stategraph.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
		logger: logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	for _, t := range s.toolbox.Tools() {
		s.mcpServer.AddTool(toolDefinition(t), s.handler(t.Name))
	}
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.toolbox.Call(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}

// toolDefinition derives the MCP input schema from the tool's argument schema.
func toolDefinition(t registry.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, f := range t.Schema {
		opts = append(opts, propertyOption(f))
	}
	return mcp.NewTool(t.Name, opts...)
}

func propertyOption(f schema.Field) mcp.ToolOption {
	var props []mcp.PropertyOption
	if f.Description != "" {
		props = append(props, mcp.Description(f.Description))
	}
	if f.Required {
		props = append(props, mcp.Required())
	}

	js := f.Type.JSONSchema()
	switch js["type"] {
	case "integer", "number":
		return mcp.WithNumber(f.Name, props...)
	case "boolean":
		return mcp.WithBoolean(f.Name, props...)
	case "array":
		if items, ok := js["items"].(map[string]any); ok {
			props = append(props, mcp.Items(items))
		}
		return mcp.WithArray(f.Name, props...)
	default:
		return mcp.WithString(f.Name, props...)
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Current State Graph",
		mcp.WithResourceDescription("The graph navigation tools currently answer from, including refinements of the default session."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.toolbox.Navigator().Document())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
