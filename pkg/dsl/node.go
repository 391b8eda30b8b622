package dsl

import "github.com/aretw0/stategraph/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state   domain.State
	builder *Builder
}

// Labels appends human-readable descriptions. The first one is the primary label.
func (s *StateBuilder) Labels(labels ...string) *StateBuilder {
	s.state.Labels = append(s.state.Labels, labels...)
	return s
}

// Meta sets a metadata value on the state.
func (s *StateBuilder) Meta(key string, value any) *StateBuilder {
	if s.state.Metadata == nil {
		s.state.Metadata = make(map[string]any)
	}
	s.state.Metadata[key] = value
	return s
}

// On adds a transition from this state through action to target.
func (s *StateBuilder) On(action, target string) *StateBuilder {
	s.builder.Transition(s.state.ID, action, target)
	return s
}

// ActionBuilder provides a fluent API for configuring an action.
type ActionBuilder struct {
	action domain.Action
}

// Labels appends human-readable descriptions. The first one is the primary label.
func (a *ActionBuilder) Labels(labels ...string) *ActionBuilder {
	a.action.Labels = append(a.action.Labels, labels...)
	return a
}

// Trigger records how the action is performed, e.g. "click #save".
func (a *ActionBuilder) Trigger(trigger string) *ActionBuilder {
	return a.Meta(domain.MetaTrigger, trigger)
}

// Meta sets a metadata value on the action.
func (a *ActionBuilder) Meta(key string, value any) *ActionBuilder {
	if a.action.Metadata == nil {
		a.action.Metadata = make(map[string]any)
	}
	a.action.Metadata[key] = value
	return a
}
