package domain

import (
	"encoding/json"
	"math"
)

// Metadata keys written by refinement and read back as baseline counts.
const (
	MetaRefined                 = "refined"
	MetaOriginalStateCount      = "original_state_count"
	MetaRefinedStateCount       = "refined_state_count"
	MetaOriginalTransitionCount = "original_transition_count"
	MetaRefinedTransitionCount  = "refined_transition_count"
)

// Document is the serialized form of a graph.
//
//	{"graph": {"states": [...], "actions": [...], "transitions": [...]}, "metadata": {...}}
type Document struct {
	Graph    GraphData      `json:"graph" yaml:"graph"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// GraphData holds the three collections of a Document.
type GraphData struct {
	States      []State      `json:"states" yaml:"states"`
	Actions     []Action     `json:"actions" yaml:"actions"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`

	// Baseline counts recorded by an earlier refinement pass, if any.
	OriginalStateCount      *int `json:"original_state_count,omitempty" yaml:"original_state_count,omitempty"`
	OriginalTransitionCount *int `json:"original_transition_count,omitempty" yaml:"original_transition_count,omitempty"`
}

// Refined reports whether the document was produced by a refinement pass.
func (d *Document) Refined() bool {
	v, _ := d.Metadata[MetaRefined].(bool)
	return v
}

// MetadataInt reads an integer metadata value regardless of how the decoder typed it.
func (d *Document) MetadataInt(key string) (int, bool) {
	return toInt(d.Metadata[key])
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// Clone returns a copy of d whose collections can be modified independently.
// Metadata values are copied shallowly.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		Graph: GraphData{
			States:      make([]State, len(d.Graph.States)),
			Actions:     make([]Action, len(d.Graph.Actions)),
			Transitions: make([]Transition, len(d.Graph.Transitions)),
		},
		Metadata: cloneMap(d.Metadata),
	}
	for i := range d.Graph.States {
		c.Graph.States[i] = *d.Graph.States[i].Clone()
	}
	for i := range d.Graph.Actions {
		c.Graph.Actions[i] = *d.Graph.Actions[i].Clone()
	}
	for i, t := range d.Graph.Transitions {
		t.Metadata = cloneMap(t.Metadata)
		c.Graph.Transitions[i] = t
	}
	if d.Graph.OriginalStateCount != nil {
		n := *d.Graph.OriginalStateCount
		c.Graph.OriginalStateCount = &n
	}
	if d.Graph.OriginalTransitionCount != nil {
		n := *d.Graph.OriginalTransitionCount
		c.Graph.OriginalTransitionCount = &n
	}
	return c
}
