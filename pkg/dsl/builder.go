package dsl

import (
	"fmt"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	states      []*StateBuilder
	actions     []*ActionBuilder
	stateIdx    map[string]*StateBuilder
	actionIdx   map[string]*ActionBuilder
	transitions []domain.Transition
	metadata    map[string]any
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		stateIdx:  make(map[string]*StateBuilder),
		actionIdx: make(map[string]*ActionBuilder),
	}
}

// State declares a state. If the state already exists, it returns the
// existing builder.
func (b *Builder) State(id string) *StateBuilder {
	if sb, ok := b.stateIdx[id]; ok {
		return sb
	}
	sb := &StateBuilder{state: domain.State{ID: id}, builder: b}
	b.stateIdx[id] = sb
	b.states = append(b.states, sb)
	return sb
}

// Action declares an action. If the action already exists, it returns the
// existing builder.
func (b *Builder) Action(id string) *ActionBuilder {
	if ab, ok := b.actionIdx[id]; ok {
		return ab
	}
	ab := &ActionBuilder{action: domain.Action{ID: id}}
	b.actionIdx[id] = ab
	b.actions = append(b.actions, ab)
	return ab
}

// Transition records that performing via in from leads to to. Endpoints are
// not declared implicitly, so dangling transitions can be built on purpose.
func (b *Builder) Transition(from, via, to string) *Builder {
	b.transitions = append(b.transitions, domain.Transition{From: from, Via: via, To: to})
	return b
}

// Meta sets a document-level metadata value.
func (b *Builder) Meta(key string, value any) *Builder {
	if b.metadata == nil {
		b.metadata = make(map[string]any)
	}
	b.metadata[key] = value
	return b
}

// Document returns the declared graph as a document. Later changes to the
// builder do not affect the returned value.
func (b *Builder) Document() *domain.Document {
	doc := &domain.Document{
		Graph: domain.GraphData{
			States:      make([]domain.State, 0, len(b.states)),
			Actions:     make([]domain.Action, 0, len(b.actions)),
			Transitions: append([]domain.Transition{}, b.transitions...),
		},
	}
	for _, sb := range b.states {
		doc.Graph.States = append(doc.Graph.States, *sb.state.Clone())
	}
	for _, ab := range b.actions {
		a := ab.action
		a.Labels = append([]string(nil), a.Labels...)
		a.Metadata = copyMap(a.Metadata)
		doc.Graph.Actions = append(doc.Graph.Actions, a)
	}
	doc.Metadata = copyMap(b.metadata)
	return doc
}

// Graph compiles the declared document into a Graph.
func (b *Builder) Graph() (*domain.Graph, error) {
	g, err := domain.NewGraph(b.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
