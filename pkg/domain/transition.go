package domain

// Transition is a directed edge: taking action Via in state From leads to state To.
type Transition struct {
	From     string         `json:"from" yaml:"from" mapstructure:"from"`
	Via      string         `json:"via" yaml:"via" mapstructure:"via"`
	To       string         `json:"to" yaml:"to" mapstructure:"to"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// TransitionKey identifies a transition by its (from, via, to) triple.
// Within a well-formed graph, keys are unique.
type TransitionKey struct {
	From string
	Via  string
	To   string
}

// Key returns the identifying triple of t.
func (t Transition) Key() TransitionKey {
	return TransitionKey{From: t.From, Via: t.Via, To: t.To}
}

// DedupeTransitions drops every transition whose triple was already seen,
// preserving the order of first occurrences.
func DedupeTransitions(ts []Transition) []Transition {
	seen := make(map[TransitionKey]struct{}, len(ts))
	out := make([]Transition, 0, len(ts))
	for _, t := range ts {
		k := t.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
