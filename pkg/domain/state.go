package domain

// State is a node of the graph: one distinct, observable configuration of the
// modeled application.
type State struct {
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Labels are human-readable descriptions. The first label is the primary one.
	Labels []string `json:"labels" yaml:"labels" mapstructure:"labels"`

	// Conditions are the scanner's structural predicates for this state.
	// They are opaque to the engines and passed through unchanged.
	Conditions []any `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`

	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// PrimaryLabel returns the first label, or the empty string if the state has none.
func (s *State) PrimaryLabel() string {
	if len(s.Labels) == 0 {
		return ""
	}
	return s.Labels[0]
}

// Clone returns a copy that shares no slices or maps with s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		ID:         s.ID,
		Labels:     cloneStrings(s.Labels),
		Conditions: append([]any(nil), s.Conditions...),
		Metadata:   cloneMap(s.Metadata),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
