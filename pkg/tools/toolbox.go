package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/navigator"
	"github.com/aretw0/stategraph/pkg/observability"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/schema"
	"github.com/aretw0/stategraph/pkg/session"
)

// DefaultSessionID names the session refinement tools use when the call does
// not carry a session_id.
const DefaultSessionID = "default"

// Result is the outcome of a tool call.
type Result = registry.Result

// Toolbox registers the tools and dispatches calls with logging and metrics.
type Toolbox struct {
	nav            atomic.Pointer[navigator.Navigator]
	sessions       *session.Manager
	defaultSession string
	maxSteps       int
	searchLimit    int

	registry *registry.Registry
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures a Toolbox.
type Option func(*Toolbox)

// WithLogger sets the logger for call tracing.
func WithLogger(l *slog.Logger) Option {
	return func(tb *Toolbox) {
		if l != nil {
			tb.logger = l
		}
	}
}

// WithMetrics records calls and graph sizes.
func WithMetrics(m *observability.Metrics) Option {
	return func(tb *Toolbox) { tb.metrics = m }
}

// WithMaxSteps sets the default path length bound of find_path.
func WithMaxSteps(n int) Option {
	return func(tb *Toolbox) {
		if n > 0 {
			tb.maxSteps = n
		}
	}
}

// WithSearchLimit sets the default result cap of search_actions.
func WithSearchLimit(n int) Option {
	return func(tb *Toolbox) {
		if n > 0 {
			tb.searchLimit = n
		}
	}
}

// WithDefaultSession sets the session whose mutations feed navigation.
func WithDefaultSession(id string) Option {
	return func(tb *Toolbox) {
		if id != "" {
			tb.defaultSession = id
		}
	}
}

// New builds a Toolbox. Refinement tools are registered only when sessions
// is non-nil.
func New(nav *navigator.Navigator, sessions *session.Manager, opts ...Option) *Toolbox {
	tb := &Toolbox{
		sessions:       sessions,
		defaultSession: DefaultSessionID,
		maxSteps:       navigator.DefaultMaxSteps,
		searchLimit:    navigator.DefaultSearchLimit,
		registry:       registry.NewRegistry(),
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(tb)
	}
	tb.setNavigator(nav)

	tb.registerNavigation()
	if sessions != nil {
		tb.registerRefinement()
	}
	return tb
}

// Navigator returns the current navigation snapshot.
func (tb *Toolbox) Navigator() *navigator.Navigator { return tb.nav.Load() }

// DefaultSession returns the ID of the session feeding navigation.
func (tb *Toolbox) DefaultSession() string { return tb.defaultSession }

// Sessions returns the session manager, or nil for a navigation-only toolbox.
func (tb *Toolbox) Sessions() *session.Manager { return tb.sessions }

// Tools lists the registered tools in registration order.
func (tb *Toolbox) Tools() []registry.Tool { return tb.registry.List() }

// Tool returns the tool registered under name.
func (tb *Toolbox) Tool(name string) (registry.Tool, bool) { return tb.registry.Get(name) }

// Call validates args and runs the named tool.
func (tb *Toolbox) Call(ctx context.Context, name string, args map[string]any) (*Result, error) {
	start := time.Now()
	res, err := tb.registry.Execute(ctx, name, args)
	elapsed := time.Since(start)

	outcome := observability.OutcomeOK
	switch {
	case err != nil:
		outcome = observability.OutcomeError
	case res.NotFound:
		outcome = observability.OutcomeNotFound
	}
	if !errors.Is(err, registry.ErrToolNotFound) {
		tb.metrics.ObserveTool(name, outcome, elapsed)
	}

	if err != nil {
		tb.logger.Warn("tool call failed", "tool", name, "err", err)
		return nil, err
	}
	tb.logger.Debug("tool call", "tool", name, "outcome", outcome, "duration", elapsed)
	return res, nil
}

func (tb *Toolbox) setNavigator(nav *navigator.Navigator) {
	tb.nav.Store(nav)
	tb.metrics.SetGraphSize(nav.Counts())
}

// Reset points navigation at g. It is used when the default session was
// restarted outside the toolbox, e.g. after the graph document changed.
func (tb *Toolbox) Reset(g *domain.Graph) {
	tb.setNavigator(tb.Navigator().Rebuild(g))
	tb.logger.Info("navigation reset", "states", g.StateCount(), "transitions", g.TransitionCount())
}

// refresh rebuilds navigation from a refined graph of the default session.
func (tb *Toolbox) refresh(sessionID string, g *domain.Graph) {
	if sessionID != tb.defaultSession || g == nil {
		return
	}
	tb.setNavigator(tb.Navigator().Rebuild(g))
	tb.logger.Debug("navigation rebuilt", "session_id", sessionID, "states", g.StateCount())
}

func (tb *Toolbox) decode(name string, raw map[string]any, out any) error {
	t, ok := tb.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrToolNotFound, name)
	}
	return schema.Decode(t.Schema, raw, out)
}
