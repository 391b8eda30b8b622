package domain

import "slices"

// GraphDiff lists the structural changes between two graphs.
// It is designed to be serialized to JSON as the outcome of a mutation.
type GraphDiff struct {
	StatesAdded     []string `json:"states_added,omitempty"`
	StatesRemoved   []string `json:"states_removed,omitempty"`
	StatesRelabeled []string `json:"states_relabeled,omitempty"`

	TransitionsAdded   []Transition `json:"transitions_added,omitempty"`
	TransitionsRemoved []Transition `json:"transitions_removed,omitempty"`
}

// Diff calculates the difference between before and after.
// If before is nil, every state and transition of after counts as added.
// Ids are reported in the mapping order of the graph they belong to.
func Diff(before, after *Graph) *GraphDiff {
	if after == nil {
		return nil
	}
	d := &GraphDiff{}

	for _, s := range after.States() {
		if before == nil {
			d.StatesAdded = append(d.StatesAdded, s.ID)
			continue
		}
		old, ok := before.State(s.ID)
		switch {
		case !ok:
			d.StatesAdded = append(d.StatesAdded, s.ID)
		case !slices.Equal(old.Labels, s.Labels):
			d.StatesRelabeled = append(d.StatesRelabeled, s.ID)
		}
	}
	if before != nil {
		for _, s := range before.States() {
			if !after.HasState(s.ID) {
				d.StatesRemoved = append(d.StatesRemoved, s.ID)
			}
		}
	}

	var beforeTs []Transition
	if before != nil {
		beforeTs = before.transitions
	}
	d.TransitionsAdded = transitionsMissing(after.transitions, beforeTs)
	d.TransitionsRemoved = transitionsMissing(beforeTs, after.transitions)

	return d
}

// transitionsMissing returns the transitions of ts whose triple is absent from other.
func transitionsMissing(ts, other []Transition) []Transition {
	keys := make(map[TransitionKey]struct{}, len(other))
	for _, t := range other {
		keys[t.Key()] = struct{}{}
	}
	var out []Transition
	for _, t := range ts {
		if _, ok := keys[t.Key()]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// IsEmpty checks if the diff contains any change.
func (d *GraphDiff) IsEmpty() bool {
	return len(d.StatesAdded) == 0 &&
		len(d.StatesRemoved) == 0 &&
		len(d.StatesRelabeled) == 0 &&
		len(d.TransitionsAdded) == 0 &&
		len(d.TransitionsRemoved) == 0
}
