package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/refiner"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/schema"
)

// Tool names.
const (
	AnalyzeDuplicates = "analyze_duplicates"
	MergeStates       = "merge_states"
	RemoveState       = "remove_state"
	RelabelState      = "relabel_state"
	GetGraphSummary   = "get_graph_summary"
	GetRefinedGraph   = "get_refined_graph"
)

// Mutation kinds reported to metrics.
const (
	MutationMerge   = "merge"
	MutationRemove  = "remove"
	MutationRelabel = "relabel"
)

const analysisLimit = 10

// errAbort cancels a session update whose preconditions failed.
var errAbort = errors.New("update aborted")

// MutationResult is the structured payload of a mutating tool.
type MutationResult struct {
	SessionID string            `json:"session_id"`
	Counts    domain.Counts     `json:"counts"`
	Diff      *domain.GraphDiff `json:"diff,omitempty"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

type mergeArgs struct {
	SessionID string   `mapstructure:"session_id"`
	StateIDs  []string `mapstructure:"state_ids"`
	NewID     string   `mapstructure:"new_state_id"`
	NewLabels []string `mapstructure:"new_labels"`
}

type removeArgs struct {
	SessionID string `mapstructure:"session_id"`
	StateID   string `mapstructure:"state_id"`
}

type relabelArgs struct {
	SessionID string   `mapstructure:"session_id"`
	StateID   string   `mapstructure:"state_id"`
	NewLabels []string `mapstructure:"new_labels"`
}

func (tb *Toolbox) registerRefinement() {
	sessionField := schema.Field{
		Name:        "session_id",
		Type:        schema.String(),
		Description: "Refinement session; defaults to the session loaded at startup",
	}

	tb.registry.Register(registry.Tool{
		Name:        AnalyzeDuplicates,
		Description: "Analyze the graph to identify duplicate states and low-value states that should be merged or removed.",
		Schema:      schema.Schema{sessionField},
		Fn:          tb.analyzeDuplicates,
	})
	tb.registry.Register(registry.Tool{
		Name:        MergeStates,
		Description: "Merge multiple states into a single consolidated state. This updates all transitions automatically.",
		Schema: schema.Schema{
			{Name: "state_ids", Type: schema.Slice(schema.String()), Required: true, Description: "States to merge"},
			{Name: "new_state_id", Type: schema.NonEmptyString(), Required: true, Description: "ID of the consolidated state"},
			{Name: "new_labels", Type: schema.Slice(schema.String()), Description: "Labels of the consolidated state; defaults to the union of the merged labels"},
			sessionField,
		},
		Mutates: true,
		Fn:      tb.mergeStates,
	})
	tb.registry.Register(registry.Tool{
		Name:        RemoveState,
		Description: "Remove a state and all its associated transitions. Use this for low-value internal states.",
		Schema: schema.Schema{
			{Name: "state_id", Type: schema.NonEmptyString(), Required: true, Description: "State to remove"},
			sessionField,
		},
		Mutates: true,
		Fn:      tb.removeState,
	})
	tb.registry.Register(registry.Tool{
		Name:        RelabelState,
		Description: "Update the labels for a state to make them more clear and user-friendly.",
		Schema: schema.Schema{
			{Name: "state_id", Type: schema.NonEmptyString(), Required: true, Description: "State to relabel"},
			{Name: "new_labels", Type: schema.Slice(schema.String()), Required: true, Description: "Replacement labels"},
			sessionField,
		},
		Mutates: true,
		Fn:      tb.relabelState,
	})
	tb.registry.Register(registry.Tool{
		Name:        GetGraphSummary,
		Description: "Get a summary of the current graph state with statistics and categorized states.",
		Schema:      schema.Schema{sessionField},
		Fn:          tb.graphSummary,
	})
	tb.registry.Register(registry.Tool{
		Name:        GetRefinedGraph,
		Description: "Get the final refined graph data to save. This returns the complete graph in JSON format.",
		Schema:      schema.Schema{sessionField},
		Fn:          tb.refinedGraph,
	})
}

func (tb *Toolbox) sessionID(id string) string {
	if id == "" {
		return tb.defaultSession
	}
	return id
}

// view runs fn against a session, turning a missing session into a not-found
// result.
func (tb *Toolbox) view(ctx context.Context, id string, fn func(*refiner.Refiner) *Result) (*Result, error) {
	var res *Result
	err := tb.sessions.View(ctx, id, func(r *refiner.Refiner) error {
		res = fn(r)
		return nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return sessionNotFound(id), nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// update runs a mutation against a session. fn returns a non-nil Result to
// abort without persisting anything.
func (tb *Toolbox) update(ctx context.Context, id, kind string, fn func(*refiner.Refiner) *Result) (*Result, *MutationResult, error) {
	var (
		aborted *Result
		refined *domain.Graph
	)
	diff, err := tb.sessions.Update(ctx, id, func(r *refiner.Refiner) error {
		if res := fn(r); res != nil {
			aborted = res
			return errAbort
		}
		refined = r.Snapshot()
		return nil
	})
	switch {
	case aborted != nil:
		return aborted, nil, nil
	case errors.Is(err, domain.ErrSessionNotFound):
		return sessionNotFound(id), nil, nil
	case err != nil:
		return nil, nil, err
	}

	tb.metrics.ObserveMutation(kind)
	tb.refresh(id, refined)
	tb.logger.Info("graph refined", "session_id", id, "mutation", kind,
		"states", refined.StateCount(), "transitions", refined.TransitionCount())

	return nil, &MutationResult{
		SessionID: id,
		Counts:    domain.Counts{States: refined.StateCount(), Transitions: refined.TransitionCount()},
		Diff:      diff,
	}, nil
}

func (tb *Toolbox) analyzeDuplicates(ctx context.Context, raw map[string]any) (*Result, error) {
	var args sessionArgs
	if err := tb.decode(AnalyzeDuplicates, raw, &args); err != nil {
		return nil, err
	}
	return tb.view(ctx, tb.sessionID(args.SessionID), func(r *refiner.Refiner) *Result {
		a := r.Analyze()
		return &Result{Text: FormatAnalysis(a), Data: a}
	})
}

// FormatAnalysis renders an Analysis as a markdown report.
func FormatAnalysis(a refiner.Analysis) string {
	var b strings.Builder
	b.WriteString("# Graph Analysis\n\n")
	fmt.Fprintf(&b, "**Total States:** %d\n", a.Stats.TotalStates)
	fmt.Fprintf(&b, "**Total Actions:** %d\n", a.Stats.TotalActions)
	fmt.Fprintf(&b, "**Total Transitions:** %d\n\n", a.Stats.TotalTransitions)

	if n := len(a.DuplicateGroups); n > 0 {
		fmt.Fprintf(&b, "## Duplicate Groups (%d)\n\n", n)
		for i, g := range a.DuplicateGroups[:min(analysisLimit, n)] {
			fmt.Fprintf(&b, "### Group %d: %s\n", i+1, g.Type)
			fmt.Fprintf(&b, "**Reason:** %s\n", g.Reason)
			fmt.Fprintf(&b, "**States:** %s\n", strings.Join(g.States, ", "))
			fmt.Fprintf(&b, "**Suggested merge to:** %s\n\n", g.Suggestion)
		}
		if n > analysisLimit {
			fmt.Fprintf(&b, "... and %d more groups\n\n", n-analysisLimit)
		}
	}

	if n := len(a.LowValueStates); n > 0 {
		fmt.Fprintf(&b, "## Low-Value States (%d)\n\n", n)
		for i, lv := range a.LowValueStates[:min(analysisLimit, n)] {
			fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, lv.StateID, lv.Reason)
		}
		if n > analysisLimit {
			fmt.Fprintf(&b, "... and %d more\n", n-analysisLimit)
		}
	}
	return b.String()
}

func (tb *Toolbox) mergeStates(ctx context.Context, raw map[string]any) (*Result, error) {
	var args mergeArgs
	if err := tb.decode(MergeStates, raw, &args); err != nil {
		return nil, err
	}
	id := tb.sessionID(args.SessionID)

	aborted, mr, err := tb.update(ctx, id, MutationMerge, func(r *refiner.Refiner) *Result {
		found := false
		for _, sid := range args.StateIDs {
			if r.HasState(sid) {
				found = true
				break
			}
		}
		if !found {
			return &Result{
				Text:     fmt.Sprintf("❌ None of the states %s were found in graph.", quoteAll(args.StateIDs)),
				NotFound: true,
			}
		}
		if err := r.MergeStates(args.StateIDs, args.NewID, args.NewLabels); err != nil {
			return &Result{Text: fmt.Sprintf("❌ Could not merge states: %v", err)}
		}
		return nil
	})
	if err != nil || aborted != nil {
		return aborted, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✓ Merged %d states into '%s'\n\n", len(args.StateIDs), args.NewID)
	b.WriteString("**Merged states:**\n")
	for _, sid := range args.StateIDs {
		fmt.Fprintf(&b, "  - %s\n", sid)
	}
	fmt.Fprintf(&b, "\n**New state:** %s\n", args.NewID)
	if len(args.NewLabels) > 0 {
		fmt.Fprintf(&b, "**Labels:** %s\n", strings.Join(firstN(args.NewLabels, displayLimit), ", "))
	}
	writeUpdatedCounts(&b, mr.Counts)
	return &Result{Text: b.String(), Data: mr}, nil
}

func (tb *Toolbox) removeState(ctx context.Context, raw map[string]any) (*Result, error) {
	var args removeArgs
	if err := tb.decode(RemoveState, raw, &args); err != nil {
		return nil, err
	}
	id := tb.sessionID(args.SessionID)

	aborted, mr, err := tb.update(ctx, id, MutationRemove, func(r *refiner.Refiner) *Result {
		if !r.HasState(args.StateID) {
			return stateNotFound(args.StateID)
		}
		r.RemoveState(args.StateID)
		return nil
	})
	if err != nil || aborted != nil {
		return aborted, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✓ Removed state '%s'\n", args.StateID)
	writeUpdatedCounts(&b, mr.Counts)
	return &Result{Text: b.String(), Data: mr}, nil
}

func (tb *Toolbox) relabelState(ctx context.Context, raw map[string]any) (*Result, error) {
	var args relabelArgs
	if err := tb.decode(RelabelState, raw, &args); err != nil {
		return nil, err
	}
	id := tb.sessionID(args.SessionID)

	var oldLabels []string
	aborted, mr, err := tb.update(ctx, id, MutationRelabel, func(r *refiner.Refiner) *Result {
		s, ok := r.State(args.StateID)
		if !ok {
			return stateNotFound(args.StateID)
		}
		oldLabels = s.Labels
		r.RelabelState(args.StateID, args.NewLabels)
		return nil
	})
	if err != nil || aborted != nil {
		return aborted, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✓ Updated labels for '%s'\n\n", args.StateID)
	fmt.Fprintf(&b, "**Old labels:** %s\n", strings.Join(firstN(oldLabels, displayLimit), ", "))
	fmt.Fprintf(&b, "**New labels:** %s\n", strings.Join(firstN(args.NewLabels, displayLimit), ", "))
	return &Result{Text: b.String(), Data: mr}, nil
}

func (tb *Toolbox) graphSummary(ctx context.Context, raw map[string]any) (*Result, error) {
	var args sessionArgs
	if err := tb.decode(GetGraphSummary, raw, &args); err != nil {
		return nil, err
	}
	return tb.view(ctx, tb.sessionID(args.SessionID), func(r *refiner.Refiner) *Result {
		return &Result{Text: r.Summarize()}
	})
}

func (tb *Toolbox) refinedGraph(ctx context.Context, raw map[string]any) (*Result, error) {
	var args sessionArgs
	if err := tb.decode(GetRefinedGraph, raw, &args); err != nil {
		return nil, err
	}
	return tb.view(ctx, tb.sessionID(args.SessionID), func(r *refiner.Refiner) *Result {
		doc := r.RefinedGraph()
		origStates, _ := doc.MetadataInt(domain.MetaOriginalStateCount)
		refStates, _ := doc.MetadataInt(domain.MetaRefinedStateCount)
		origTrans, _ := doc.MetadataInt(domain.MetaOriginalTransitionCount)
		refTrans, _ := doc.MetadataInt(domain.MetaRefinedTransitionCount)

		var b strings.Builder
		b.WriteString("# Refined Graph\n\n")
		fmt.Fprintf(&b, "**Original states:** %d\n", origStates)
		fmt.Fprintf(&b, "**Refined states:** %d\n", refStates)
		fmt.Fprintf(&b, "**Reduction:** %d states removed\n\n", origStates-refStates)
		fmt.Fprintf(&b, "**Original transitions:** %d\n", origTrans)
		fmt.Fprintf(&b, "**Refined transitions:** %d\n", refTrans)
		fmt.Fprintf(&b, "**Reduction:** %d transitions removed\n\n", origTrans-refTrans)
		b.WriteString("The refined graph is ready to be saved.\n")
		return &Result{Text: b.String(), Data: doc}
	})
}

func writeUpdatedCounts(b *strings.Builder, c domain.Counts) {
	b.WriteString("\n**Updated graph:**\n")
	fmt.Fprintf(b, "  - States: %d\n", c.States)
	fmt.Fprintf(b, "  - Transitions: %d\n", c.Transitions)
}

func sessionNotFound(id string) *Result {
	return &Result{Text: fmt.Sprintf("❌ Session '%s' not found.", id), NotFound: true}
}

func quoteAll(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	return strings.Join(quoted, ", ")
}
