package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/pkg/observability"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// maxBodyBytes bounds tool call request bodies.
const maxBodyBytes = 1 << 20

// ToolInfo describes a tool for GET /tools.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	Mutates     bool           `json:"mutates"`
}

// Server serves a Toolbox over HTTP.
type Server struct {
	Toolbox *tools.Toolbox
	Streams *StreamManager
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics exposes g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(c *config) { c.gatherer = g }
}

// NewHandler creates the HTTP handler for tb.
func NewHandler(tb *tools.Toolbox, opts ...Option) http.Handler {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		Toolbox: tb,
		Streams: NewStreamManager(cfg.logger),
		logger:  cfg.logger,
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/states", s.ListStates)
	r.Get("/states/{id}/actions", s.GetStateActions)
	r.Get("/tools", s.ListTools)
	r.Post("/tools/{name}", s.CallTool)
	r.Get("/events", s.SubscribeEvents)
	if cfg.gatherer != nil {
		r.Handle("/metrics", observability.Handler(cfg.gatherer))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	c := s.Toolbox.Navigator().Counts()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":         "stategraph-http",
		"version":     strings.TrimSpace(stategraph.Version),
		"states":      c.States,
		"transitions": c.Transitions,
	})
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Toolbox.Navigator().Document())
}

// ListStates handles the GET /states request.
func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Toolbox.Navigator().States())
}

// GetStateActions handles the GET /states/{id}/actions request.
func (s *Server) GetStateActions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nav := s.Toolbox.Navigator()
	if _, ok := nav.State(id); !ok {
		http.Error(w, fmt.Sprintf("state %q not found", id), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, nav.AvailableActions(id))
}

// ListTools handles the GET /tools request.
func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	list := s.Toolbox.Tools()
	out := make([]ToolInfo, len(list))
	for i, t := range list {
		out[i] = ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema.JSONSchema(),
			Mutates:     t.Mutates,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

// CallTool handles the POST /tools/{name} request. The body is the JSON
// object of arguments; an empty body means no arguments.
func (s *Server) CallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args := map[string]any{}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CallTool: invalid request body", "tool", name, "err", err)
		return
	}

	res, err := s.Toolbox.Call(r.Context(), name, args)
	switch {
	case errors.Is(err, registry.ErrToolNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if mr, ok := res.Data.(*tools.MutationResult); ok && mr.Diff != nil && !mr.Diff.IsEmpty() {
		if payload, err := json.Marshal(mr.Diff); err == nil {
			s.Streams.Broadcast(mr.SessionID, string(payload))
		}
	}

	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
