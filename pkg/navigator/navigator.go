package navigator

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/domain"
)

// Defaults used by adapters when callers omit limits.
const (
	DefaultMaxSteps    = 10
	DefaultSearchLimit = 10
)

// imperativePrefixes mark labels that read as instructions.
var imperativePrefixes = []string{"click", "type", "select", "drag"}

// Step is one edge of a path: take ActionID, arrive at StateID.
type Step struct {
	ActionID string `json:"action_id"`
	StateID  string `json:"state_id"`
}

// Path is an ordered sequence of steps.
type Path []Step

// Destination returns the state the path ends in, or start for an empty path.
func (p Path) Destination(start string) string {
	if len(p) == 0 {
		return start
	}
	return p[len(p)-1].StateID
}

// ActionMatch is a search hit.
type ActionMatch struct {
	ID       string         `json:"id"`
	Labels   []string       `json:"labels"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AvailableAction is an outgoing edge of a state, enriched with its action.
type AvailableAction struct {
	ActionID    string         `json:"action_id"`
	Labels      []string       `json:"labels"`
	NextStateID string         `json:"next_state_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Navigator is a query engine over an immutable graph snapshot.
type Navigator struct {
	graph     *domain.Graph
	adjacency map[string][]Step
	logger    *slog.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// New snapshots g and indexes its transitions.
func New(g *domain.Graph, opts ...Option) *Navigator {
	n := &Navigator{
		graph:  g.Clone(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.index()
	return n
}

// Rebuild returns a new Navigator over the current content of g, keeping the
// receiver's options. Use it after any structural mutation of g.
func (n *Navigator) Rebuild(g *domain.Graph) *Navigator {
	return New(g, WithLogger(n.logger))
}

func (n *Navigator) index() {
	n.adjacency = make(map[string][]Step)
	for _, t := range n.graph.Transitions() {
		n.adjacency[t.From] = append(n.adjacency[t.From], Step{ActionID: t.Via, StateID: t.To})
	}
	n.logger.Debug("adjacency index built",
		"states", n.graph.StateCount(),
		"transitions", n.graph.TransitionCount(),
	)
}

// Counts returns the size of the snapshot.
func (n *Navigator) Counts() domain.Counts {
	return domain.Counts{States: n.graph.StateCount(), Transitions: n.graph.TransitionCount()}
}

// Document projects the snapshot back into its interchange form.
func (n *Navigator) Document() *domain.Document {
	return n.graph.Document()
}

// States returns the snapshot's states in mapping order.
func (n *Navigator) States() []*domain.State {
	return n.graph.States()
}

// State looks up a state in the snapshot.
func (n *Navigator) State(id string) (*domain.State, bool) {
	return n.graph.State(id)
}

// Action looks up an action in the snapshot.
func (n *Navigator) Action(id string) (*domain.Action, bool) {
	return n.graph.Action(id)
}

// FindPath runs a breadth-first search from start to the nearest state matching
// goal (see Matches). Paths are not expanded beyond maxSteps edges. Among
// equally short paths the first discovered wins, following transition order.
//
// The boolean is false when no matching state is reachable within the bound.
// An empty path with true means start itself matches. A start id that is not
// in the graph is treated as a disconnected node.
func (n *Navigator) FindPath(start, goal string, maxSteps int) (Path, bool) {
	goal = strings.ToLower(goal)

	type frontier struct {
		id    string
		depth int
	}

	visited := map[string]struct{}{start: {}}
	via := make(map[string]Step)    // state -> step that reached it
	prev := make(map[string]string) // state -> predecessor
	queue := []frontier{{id: start}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if n.matches(cur.id, goal) {
			return n.unwind(start, cur.id, via, prev), true
		}
		if cur.depth >= maxSteps {
			continue
		}

		for _, step := range n.adjacency[cur.id] {
			if _, seen := visited[step.StateID]; seen {
				continue
			}
			visited[step.StateID] = struct{}{}
			via[step.StateID] = step
			prev[step.StateID] = cur.id
			queue = append(queue, frontier{id: step.StateID, depth: cur.depth + 1})
		}
	}

	n.logger.Debug("no path found", "start", start, "goal", goal, "max_steps", maxSteps, "visited", len(visited))
	return nil, false
}

func (n *Navigator) unwind(start, end string, via map[string]Step, prev map[string]string) Path {
	var rev Path
	for id := end; id != start; id = prev[id] {
		rev = append(rev, via[id])
	}
	path := make(Path, len(rev))
	for i, step := range rev {
		path[len(rev)-1-i] = step
	}
	return path
}

// Matches reports whether goal occurs, case-insensitively, in the state id or
// in any of its labels.
func (n *Navigator) Matches(stateID, goal string) bool {
	return n.matches(stateID, strings.ToLower(goal))
}

func (n *Navigator) matches(stateID, goalLower string) bool {
	if strings.Contains(strings.ToLower(stateID), goalLower) {
		return true
	}
	s, ok := n.graph.State(stateID)
	if !ok {
		return false
	}
	for _, label := range s.Labels {
		if strings.Contains(strings.ToLower(label), goalLower) {
			return true
		}
	}
	return false
}

// MatchingStates returns up to limit states matching goal, in mapping order.
// A limit of zero or less returns every match.
func (n *Navigator) MatchingStates(goal string, limit int) []*domain.State {
	goal = strings.ToLower(goal)
	var out []*domain.State
	for _, s := range n.graph.States() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if n.matches(s.ID, goal) {
			out = append(out, s)
		}
	}
	return out
}

// AvailableActions projects the adjacency index for stateID. Actions unknown
// to the graph are still listed, without labels.
func (n *Navigator) AvailableActions(stateID string) []AvailableAction {
	steps := n.adjacency[stateID]
	out := make([]AvailableAction, 0, len(steps))
	for _, step := range steps {
		item := AvailableAction{ActionID: step.ActionID, NextStateID: step.StateID}
		if a, ok := n.graph.Action(step.ActionID); ok {
			item.Labels = firstN(a.Labels, 3)
			item.Metadata = a.Metadata
		}
		out = append(out, item)
	}
	return out
}

// DescribeAction returns a readable instruction for the action: the first label
// starting with an imperative verb, else the first label, capitalized. Unknown
// or unlabelled actions are described by their id.
func (n *Navigator) DescribeAction(actionID string) string {
	a, ok := n.graph.Action(actionID)
	if !ok || len(a.Labels) == 0 {
		return actionID
	}
	for _, label := range a.Labels {
		lower := strings.ToLower(label)
		for _, prefix := range imperativePrefixes {
			if strings.HasPrefix(lower, prefix) {
				return capitalize(label)
			}
		}
	}
	return capitalize(a.Labels[0])
}

// DescribeState returns the primary label, or the id when there is none.
func (n *Navigator) DescribeState(stateID string) string {
	s, ok := n.graph.State(stateID)
	if !ok || len(s.Labels) == 0 {
		return stateID
	}
	return s.Labels[0]
}

// capitalize upper-cases the first rune and lower-cases the rest, so
// "CLICK Save" reads as "Click save".
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func firstN(in []string, n int) []string {
	if len(in) <= n {
		return append([]string(nil), in...)
	}
	return append([]string(nil), in[:n]...)
}
