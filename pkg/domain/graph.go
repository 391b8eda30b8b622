package domain

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Counts is a pair of state and transition totals.
type Counts struct {
	States      int `json:"states"`
	Transitions int `json:"transitions"`
}

// Graph is the in-memory aggregate of states, actions and transitions.
//
// State and action mappings keep insertion order: re-inserting an existing key
// keeps its position, deleting and inserting moves it to the end. Engines rely
// on this order for deterministic tie-breaking.
//
// A Graph is not safe for concurrent mutation.
type Graph struct {
	states      *orderedmap.OrderedMap[string, *State]
	actions     *orderedmap.OrderedMap[string, *Action]
	transitions []Transition
	baseline    Counts
	metadata    map[string]any
}

// NewGraph builds a Graph from a decoded document in O(states + actions + transitions).
// Entries sharing an id collapse into one, keeping the position of the first and
// the content of the last.
func NewGraph(doc *Document) (*Graph, error) {
	if doc == nil {
		return nil, &MalformedGraphError{Field: "graph", Reason: "document is nil"}
	}

	g := &Graph{
		states:      orderedmap.New[string, *State](len(doc.Graph.States)),
		actions:     orderedmap.New[string, *Action](len(doc.Graph.Actions)),
		transitions: make([]Transition, len(doc.Graph.Transitions)),
		metadata:    cloneMap(doc.Metadata),
	}

	for i := range doc.Graph.States {
		s := &doc.Graph.States[i]
		if s.ID == "" {
			return nil, &MalformedGraphError{Field: fmt.Sprintf("graph.states[%d].id", i), Reason: "required"}
		}
		g.states.Set(s.ID, s.Clone())
	}
	for i := range doc.Graph.Actions {
		a := &doc.Graph.Actions[i]
		if a.ID == "" {
			return nil, &MalformedGraphError{Field: fmt.Sprintf("graph.actions[%d].id", i), Reason: "required"}
		}
		g.actions.Set(a.ID, a.Clone())
	}
	for i, t := range doc.Graph.Transitions {
		t.Metadata = cloneMap(t.Metadata)
		g.transitions[i] = t
	}

	g.baseline = Counts{
		States:      len(doc.Graph.States),
		Transitions: len(doc.Graph.Transitions),
	}
	if n, ok := doc.MetadataInt(MetaOriginalStateCount); ok {
		g.baseline.States = n
	}
	if n, ok := doc.MetadataInt(MetaOriginalTransitionCount); ok {
		g.baseline.Transitions = n
	}
	if doc.Graph.OriginalStateCount != nil {
		g.baseline.States = *doc.Graph.OriginalStateCount
	}
	if doc.Graph.OriginalTransitionCount != nil {
		g.baseline.Transitions = *doc.Graph.OriginalTransitionCount
	}

	return g, nil
}

// State returns the state with the given id.
func (g *Graph) State(id string) (*State, bool) {
	return g.states.Get(id)
}

// HasState reports whether a state with the given id exists.
func (g *Graph) HasState(id string) bool {
	_, ok := g.states.Get(id)
	return ok
}

// Action returns the action with the given id.
func (g *Graph) Action(id string) (*Action, bool) {
	return g.actions.Get(id)
}

// States returns the states in mapping order.
func (g *Graph) States() []*State {
	out := make([]*State, 0, g.states.Len())
	for p := g.states.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Actions returns the actions in mapping order.
func (g *Graph) Actions() []*Action {
	out := make([]*Action, 0, g.actions.Len())
	for p := g.actions.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Transitions returns a copy of the transition sequence.
func (g *Graph) Transitions() []Transition {
	out := make([]Transition, len(g.transitions))
	copy(out, g.transitions)
	return out
}

func (g *Graph) StateCount() int      { return g.states.Len() }
func (g *Graph) ActionCount() int     { return g.actions.Len() }
func (g *Graph) TransitionCount() int { return len(g.transitions) }

// Baseline returns the counts captured when the graph was first loaded.
func (g *Graph) Baseline() Counts { return g.baseline }

// Metadata returns the document-level metadata the graph was loaded with.
func (g *Graph) Metadata() map[string]any { return g.metadata }

// PutState inserts s, or replaces the state with the same id in place.
func (g *Graph) PutState(s *State) {
	g.states.Set(s.ID, s)
}

// DeleteState removes the state with the given id and reports whether it existed.
// Transitions are left untouched.
func (g *Graph) DeleteState(id string) bool {
	_, ok := g.states.Delete(id)
	return ok
}

// SetTransitions replaces the transition sequence.
func (g *Graph) SetTransitions(ts []Transition) {
	g.transitions = ts
}

// Clone returns a deep copy of the graph structure.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		states:      orderedmap.New[string, *State](g.states.Len()),
		actions:     orderedmap.New[string, *Action](g.actions.Len()),
		transitions: make([]Transition, len(g.transitions)),
		baseline:    g.baseline,
		metadata:    cloneMap(g.metadata),
	}
	for p := g.states.Oldest(); p != nil; p = p.Next() {
		c.states.Set(p.Key, p.Value.Clone())
	}
	for p := g.actions.Oldest(); p != nil; p = p.Next() {
		c.actions.Set(p.Key, p.Value.Clone())
	}
	for i, t := range g.transitions {
		t.Metadata = cloneMap(t.Metadata)
		c.transitions[i] = t
	}
	return c
}

// Document projects the current graph back into its serialized shape.
// Labels are never nil in the projection.
func (g *Graph) Document() *Document {
	doc := &Document{
		Graph: GraphData{
			States:      make([]State, 0, g.states.Len()),
			Actions:     make([]Action, 0, g.actions.Len()),
			Transitions: g.Transitions(),
		},
		Metadata: cloneMap(g.metadata),
	}
	for _, s := range g.States() {
		c := s.Clone()
		if c.Labels == nil {
			c.Labels = []string{}
		}
		doc.Graph.States = append(doc.Graph.States, *c)
	}
	for _, a := range g.Actions() {
		c := a.Clone()
		if c.Labels == nil {
			c.Labels = []string{}
		}
		doc.Graph.Actions = append(doc.Graph.Actions, *c)
	}
	return doc
}
