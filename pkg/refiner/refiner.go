package refiner

import (
	"errors"
	"log/slog"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/domain"
)

// MaxMergedLabels caps the label union of a merged state.
const MaxMergedLabels = 10

// ErrEmptyMerge is returned when a merge names no source states or no target id.
var ErrEmptyMerge = errors.New("merge requires at least one state id and a target id")

// LowValueState is a state flagged by a LowValueRule.
type LowValueState struct {
	StateID string `json:"state_id"`
	Reason  string `json:"reason"`
}

// Stats are the aggregate counts reported by Analyze.
type Stats struct {
	TotalStates      int `json:"total_states"`
	TotalActions     int `json:"total_actions"`
	TotalTransitions int `json:"total_transitions"`
}

// Analysis is the read-only result of Analyze.
type Analysis struct {
	DuplicateGroups []DuplicateGroup `json:"duplicate_groups"`
	LowValueStates  []LowValueState  `json:"low_value_states"`
	Stats           Stats            `json:"stats"`
}

// Refiner owns a working copy of a graph and edits it in place.
type Refiner struct {
	graph    *domain.Graph
	groupers []Grouper
	rules    []LowValueRule
	logger   *slog.Logger
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithLogger sets the logger used for mutation traces.
func WithLogger(l *slog.Logger) Option {
	return func(r *Refiner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithGroupers replaces the default duplicate heuristics.
func WithGroupers(gs ...Grouper) Option {
	return func(r *Refiner) { r.groupers = gs }
}

// WithLowValueRules replaces the default low-value rules.
func WithLowValueRules(rules ...LowValueRule) Option {
	return func(r *Refiner) { r.rules = rules }
}

// New returns a Refiner working on a private copy of g.
// The baseline counts are those recorded by g.
func New(g *domain.Graph, opts ...Option) *Refiner {
	r := &Refiner{
		graph:    g.Clone(),
		groupers: DefaultGroupers(),
		rules:    DefaultLowValueRules(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns a copy of the working graph.
func (r *Refiner) Snapshot() *domain.Graph { return r.graph.Clone() }

// HasState reports whether id is currently in the working graph.
func (r *Refiner) HasState(id string) bool { return r.graph.HasState(id) }

// State returns a copy of the state with the given id.
func (r *Refiner) State(id string) (*domain.State, bool) {
	s, ok := r.graph.State(id)
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Counts returns the current state and transition totals.
func (r *Refiner) Counts() domain.Counts {
	return domain.Counts{States: r.graph.StateCount(), Transitions: r.graph.TransitionCount()}
}

// Baseline returns the counts the session started from.
func (r *Refiner) Baseline() domain.Counts { return r.graph.Baseline() }

// Analyze runs every grouper and low-value rule over the current graph.
// Heuristics are independent: a state may appear in several groups and be
// flagged low-value at the same time.
func (r *Refiner) Analyze() Analysis {
	states := r.graph.States()
	a := Analysis{
		DuplicateGroups: []DuplicateGroup{},
		LowValueStates:  []LowValueState{},
		Stats: Stats{
			TotalStates:      r.graph.StateCount(),
			TotalActions:     r.graph.ActionCount(),
			TotalTransitions: r.graph.TransitionCount(),
		},
	}
	for _, g := range r.groupers {
		a.DuplicateGroups = append(a.DuplicateGroups, g.Group(states)...)
	}
	for _, s := range states {
		for _, rule := range r.rules {
			if reason, flagged := rule.Check(s); flagged {
				a.LowValueStates = append(a.LowValueStates, LowValueState{StateID: s.ID, Reason: reason})
			}
		}
	}
	return a
}

// MergeStates collapses ids into a single state named newID.
//
// Attributes other than id and labels come from the first id that exists.
// Labels are newLabels when non-empty, otherwise the union of the members'
// labels in first-seen order, capped at MaxMergedLabels. Every transition
// touching a member is rewritten to newID and the transition list is
// deduplicated. Ids that do not exist contribute no attributes or labels, but
// transitions still referencing them are rewritten too; if none exist the
// graph is left untouched. A newID naming an unlisted state replaces that state.
func (r *Refiner) MergeStates(ids []string, newID string, newLabels []string) error {
	if len(ids) == 0 || newID == "" {
		return ErrEmptyMerge
	}

	var (
		base   *domain.State
		labels []string
		seen   = make(map[string]bool)
		merged = make(map[string]bool, len(ids))
		listed = make(map[string]bool, len(ids))
	)
	for _, id := range ids {
		listed[id] = true
		s, ok := r.graph.State(id)
		if !ok || merged[id] {
			continue
		}
		merged[id] = true
		if base == nil {
			base = s.Clone()
		}
		for _, l := range s.Labels {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	if base == nil {
		r.logger.Debug("merge skipped, no existing states", "ids", ids, "target", newID)
		return nil
	}

	if len(newLabels) > 0 {
		labels = append([]string(nil), newLabels...)
	} else if len(labels) > MaxMergedLabels {
		labels = labels[:MaxMergedLabels]
	}
	if labels == nil {
		labels = []string{}
	}
	base.ID = newID
	base.Labels = labels

	if !listed[newID] && r.graph.HasState(newID) {
		r.logger.Warn("merge target overwrites existing state", "target", newID)
	}
	for id := range merged {
		r.graph.DeleteState(id)
	}
	r.graph.PutState(base)

	ts := r.graph.Transitions()
	for i := range ts {
		if listed[ts[i].From] {
			ts[i].From = newID
		}
		if listed[ts[i].To] {
			ts[i].To = newID
		}
	}
	r.graph.SetTransitions(domain.DedupeTransitions(ts))

	r.logger.Debug("states merged",
		"ids", ids,
		"target", newID,
		"states", r.graph.StateCount(),
		"transitions", r.graph.TransitionCount(),
	)
	return nil
}

// RemoveState deletes id and every transition that starts or ends at it.
// Removing an absent state still drops transitions that reference it.
func (r *Refiner) RemoveState(id string) {
	r.graph.DeleteState(id)

	ts := r.graph.Transitions()
	kept := ts[:0]
	for _, t := range ts {
		if t.From != id && t.To != id {
			kept = append(kept, t)
		}
	}
	r.graph.SetTransitions(kept)

	r.logger.Debug("state removed",
		"id", id,
		"states", r.graph.StateCount(),
		"transitions", r.graph.TransitionCount(),
	)
}

// RelabelState replaces the labels of id. It is a no-op for unknown ids.
func (r *Refiner) RelabelState(id string, labels []string) {
	s, ok := r.graph.State(id)
	if !ok {
		return
	}
	s = s.Clone()
	s.Labels = append([]string{}, labels...)
	r.graph.PutState(s)
	r.logger.Debug("state relabeled", "id", id, "labels", len(labels))
}

// RefinedGraph projects the working graph into a document whose metadata
// records the refinement and the baseline versus current counts.
func (r *Refiner) RefinedGraph() *domain.Document {
	doc := r.graph.Document()
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any, 5)
	}
	baseline := r.graph.Baseline()
	doc.Metadata[domain.MetaRefined] = true
	doc.Metadata[domain.MetaOriginalStateCount] = baseline.States
	doc.Metadata[domain.MetaRefinedStateCount] = r.graph.StateCount()
	doc.Metadata[domain.MetaOriginalTransitionCount] = baseline.Transitions
	doc.Metadata[domain.MetaRefinedTransitionCount] = r.graph.TransitionCount()
	return doc
}
