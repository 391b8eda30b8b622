package stategraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/adapters/file"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/navigator"
	"github.com/aretw0/stategraph/pkg/observability"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/aretw0/stategraph/pkg/refiner"
	"github.com/aretw0/stategraph/pkg/session"
	"github.com/aretw0/stategraph/pkg/tools"
)

// Workspace is the high-level entry point: one loaded graph, its navigation
// snapshot, and the refinement sessions working on it.
type Workspace struct {
	Name string

	path     string
	mu       sync.RWMutex
	graph    *domain.Graph
	sessions *session.Manager
	toolbox  *tools.Toolbox
	logger   *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	store     ports.SnapshotStore
	locker    ports.DistributedLocker
	metrics   *observability.Metrics
	doc       *domain.Document
	sessionID string
	resume    bool
	toolOpts  []tools.Option
	refOpts   []refiner.Option
}

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore sets where refinement snapshots are persisted (default: in memory).
func WithStore(store ports.SnapshotStore) Option {
	return func(o *options) { o.store = store }
}

// WithLocker serializes sessions across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) { o.locker = locker }
}

// WithMetrics records tool calls and graph sizes.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithDocument uses doc instead of reading the path given to Open.
func WithDocument(doc *domain.Document) Option {
	return func(o *options) { o.doc = doc }
}

// WithSessionID names the default refinement session (default "default").
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// WithResume continues the default session from the store when it exists,
// instead of starting it over from the loaded document.
func WithResume() Option {
	return func(o *options) { o.resume = true }
}

// WithToolOptions passes extra options to the toolbox (step bounds, limits).
func WithToolOptions(opts ...tools.Option) Option {
	return func(o *options) { o.toolOpts = append(o.toolOpts, opts...) }
}

// WithRefinerOptions customizes the heuristics of every refinement session.
func WithRefinerOptions(opts ...refiner.Option) Option {
	return func(o *options) { o.refOpts = append(o.refOpts, opts...) }
}

// Open loads the graph document at path (JSON, YAML or TOML, by extension), starts
// or resumes the default refinement session and builds the toolbox.
// If WithDocument is provided, path is only used as a descriptive name.
func Open(ctx context.Context, path string, opts ...Option) (*Workspace, error) {
	o := options{sessionID: tools.DefaultSessionID}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}

	ws := &Workspace{logger: o.logger}
	if path != "" {
		ws.Name = filepath.Base(path)
		ws.logger = ws.logger.With("graph", ws.Name)
	}

	doc := o.doc
	if doc == nil {
		if path == "" {
			return nil, errors.New("a graph path is required when no document is provided")
		}
		var err error
		if doc, err = file.ReadDocument(path); err != nil {
			return nil, err
		}
		ws.path = path
	}

	g, err := domain.NewGraph(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	ws.graph = g

	refOpts := append([]refiner.Option{refiner.WithLogger(ws.logger)}, o.refOpts...)
	sessOpts := []session.Option{
		session.WithLogger(ws.logger),
		session.WithRefinerOptions(refOpts...),
	}
	if o.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(o.locker))
	}
	ws.sessions = session.NewManager(o.store, sessOpts...)

	working, err := ws.startDefault(ctx, o)
	if err != nil {
		return nil, err
	}

	toolOpts := append([]tools.Option{
		tools.WithLogger(ws.logger),
		tools.WithMetrics(o.metrics),
		tools.WithDefaultSession(o.sessionID),
	}, o.toolOpts...)
	ws.toolbox = tools.New(navigator.New(working, navigator.WithLogger(ws.logger)), ws.sessions, toolOpts...)

	ws.logger.Info("workspace opened",
		"session_id", o.sessionID,
		"states", working.StateCount(),
		"actions", working.ActionCount(),
		"transitions", working.TransitionCount(),
	)
	return ws, nil
}

// startDefault starts the default session, or resumes it when asked to and it
// exists. It returns the graph navigation should start from.
func (ws *Workspace) startDefault(ctx context.Context, o options) (*domain.Graph, error) {
	if o.resume {
		exists, err := ws.sessions.Exists(ctx, o.sessionID)
		if err != nil {
			return nil, err
		}
		if exists {
			var working *domain.Graph
			err := ws.sessions.View(ctx, o.sessionID, func(r *refiner.Refiner) error {
				working = r.Snapshot()
				return nil
			})
			if err != nil {
				return nil, err
			}
			ws.logger.Info("session resumed", "session_id", o.sessionID)
			return working, nil
		}
	}
	if err := ws.sessions.StartWithID(ctx, o.sessionID, ws.graph); err != nil {
		return nil, err
	}
	return ws.graph, nil
}

// Graph returns the graph as loaded, before any refinement.
func (ws *Workspace) Graph() *domain.Graph {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.graph
}

// Reload re-reads the graph document and restarts the default session from
// it, discarding that session's refinements. Navigation follows at once.
// Other sessions are left alone.
func (ws *Workspace) Reload(ctx context.Context) error {
	if ws.path == "" {
		return errors.New("workspace was not opened from a file")
	}
	doc, err := file.ReadDocument(ws.path)
	if err != nil {
		return err
	}
	g, err := domain.NewGraph(doc)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	if err := ws.sessions.StartWithID(ctx, ws.DefaultSession(), g); err != nil {
		return err
	}

	ws.mu.Lock()
	ws.graph = g
	ws.mu.Unlock()
	ws.toolbox.Reset(g)

	ws.logger.Info("graph reloaded", "states", g.StateCount(), "transitions", g.TransitionCount())
	return nil
}

// Navigator returns the current navigation snapshot, which follows
// refinements of the default session made through the toolbox.
func (ws *Workspace) Navigator() *navigator.Navigator { return ws.toolbox.Navigator() }

// NewRefiner returns a standalone Refiner over a copy of the loaded graph,
// outside any session.
func (ws *Workspace) NewRefiner(opts ...refiner.Option) *refiner.Refiner {
	return refiner.New(ws.Graph(), append([]refiner.Option{refiner.WithLogger(ws.logger)}, opts...)...)
}

// Sessions returns the refinement session manager.
func (ws *Workspace) Sessions() *session.Manager { return ws.sessions }

// Toolbox returns the named tools over this workspace.
func (ws *Workspace) Toolbox() *tools.Toolbox { return ws.toolbox }

// DefaultSession returns the ID of the session feeding navigation.
func (ws *Workspace) DefaultSession() string { return ws.toolbox.DefaultSession() }

// Call runs a named tool.
func (ws *Workspace) Call(ctx context.Context, name string, args map[string]any) (*tools.Result, error) {
	return ws.toolbox.Call(ctx, name, args)
}

// RefinedDocument returns the default session's current refined document.
func (ws *Workspace) RefinedDocument(ctx context.Context) (*domain.Document, error) {
	var doc *domain.Document
	err := ws.sessions.View(ctx, ws.DefaultSession(), func(r *refiner.Refiner) error {
		doc = r.RefinedGraph()
		return nil
	})
	return doc, err
}

// Logger returns the workspace logger.
func (ws *Workspace) Logger() *slog.Logger { return ws.logger }
