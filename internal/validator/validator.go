// Package validator reports structural problems of a scanned graph.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Issue kinds.
const (
	DanglingSource      = "dangling_source"
	DanglingTarget      = "dangling_target"
	UnknownAction       = "unknown_action"
	DuplicateTransition = "duplicate_transition"
	Unreachable         = "unreachable"
)

// Issue is one finding.
type Issue struct {
	Kind       string             `json:"kind"`
	StateID    string             `json:"state_id,omitempty"`
	Transition *domain.Transition `json:"transition,omitempty"`
	Message    string             `json:"message"`
}

// Report collects the findings of Validate in a stable order: transition
// issues in transition order, then unreachable states in mapping order.
type Report struct {
	Issues []Issue `json:"issues"`
}

// OK reports whether nothing was found.
func (r *Report) OK() bool { return len(r.Issues) == 0 }

// Count returns how many issues of kind were found.
func (r *Report) Count(kind string) int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == kind {
			n++
		}
	}
	return n
}

// Err summarizes the report as an error, or nil when it is clean.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		lines[i] = is.Message
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Issues), strings.Join(lines, "\n- "))
}

// Validate checks transitions against the state and action mappings and, when
// root is not empty, crawls the graph from root to find unreachable states.
func Validate(g *domain.Graph, root string) *Report {
	r := &Report{Issues: []Issue{}}

	seen := make(map[domain.TransitionKey]bool)
	for _, t := range g.Transitions() {
		t := t
		if !g.HasState(t.From) {
			r.add(Issue{Kind: DanglingSource, StateID: t.From, Transition: &t,
				Message: fmt.Sprintf("transition %s -[%s]-> %s starts at missing state '%s'", t.From, t.Via, t.To, t.From)})
		}
		if !g.HasState(t.To) {
			r.add(Issue{Kind: DanglingTarget, StateID: t.To, Transition: &t,
				Message: fmt.Sprintf("transition %s -[%s]-> %s ends at missing state '%s'", t.From, t.Via, t.To, t.To)})
		}
		if _, ok := g.Action(t.Via); !ok {
			r.add(Issue{Kind: UnknownAction, Transition: &t,
				Message: fmt.Sprintf("transition %s -[%s]-> %s uses unknown action '%s'", t.From, t.Via, t.To, t.Via)})
		}
		if seen[t.Key()] {
			r.add(Issue{Kind: DuplicateTransition, Transition: &t,
				Message: fmt.Sprintf("transition %s -[%s]-> %s is repeated", t.From, t.Via, t.To)})
		}
		seen[t.Key()] = true
	}

	if root == "" {
		return r
	}
	if !g.HasState(root) {
		r.add(Issue{Kind: Unreachable, StateID: root,
			Message: fmt.Sprintf("root state '%s' not found", root)})
		return r
	}

	adjacency := make(map[string][]string)
	for _, t := range g.Transitions() {
		adjacency[t.From] = append(adjacency[t.From], t.To)
	}
	visited := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, s := range g.States() {
		if !visited[s.ID] {
			r.add(Issue{Kind: Unreachable, StateID: s.ID,
				Message: fmt.Sprintf("state '%s' is unreachable from '%s'", s.ID, root)})
		}
	}
	return r
}

func (r *Report) add(is Issue) { r.Issues = append(r.Issues, is) }
