package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/navigator"
	"github.com/aretw0/stategraph/pkg/refiner"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/schema"
)

// Tool names.
const (
	FindPath            = "find_path"
	SearchActions       = "search_actions"
	IdentifyState       = "identify_state"
	ListStates          = "list_states"
	GetAvailableActions = "get_available_actions"
)

const (
	suggestionLimit = 3
	displayLimit    = 5
)

// PathResult is the structured payload of find_path.
type PathResult struct {
	Start       string         `json:"start"`
	Goal        string         `json:"goal"`
	Steps       navigator.Path `json:"steps"`
	Destination string         `json:"destination"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

type findPathArgs struct {
	Current  string `mapstructure:"current_state"`
	Goal     string `mapstructure:"goal"`
	MaxSteps int    `mapstructure:"max_steps"`
}

type searchArgs struct {
	Query string `mapstructure:"query"`
	Limit int    `mapstructure:"limit"`
}

type identifyArgs struct {
	Description string `mapstructure:"description"`
}

type listArgs struct {
	WithLabels bool `mapstructure:"with_labels"`
}

type stateArgs struct {
	StateID string `mapstructure:"state_id"`
}

func (tb *Toolbox) registerNavigation() {
	tb.registry.Register(registry.Tool{
		Name: FindPath,
		Description: "Find step-by-step instructions to achieve a goal in the application. " +
			"Given a current state and a goal description, returns the shortest sequence of actions to reach that goal.",
		Schema: schema.Schema{
			{Name: "current_state", Type: schema.String(), Required: true, Description: "ID of the state the user is in"},
			{Name: "goal", Type: schema.NonEmptyString(), Required: true, Description: "Goal description, matched against state ids and labels"},
			{Name: "max_steps", Type: schema.Int(), Description: "Maximum number of actions in the path", Default: tb.maxSteps},
		},
		Fn: tb.findPath,
	})
	tb.registry.Register(registry.Tool{
		Name: SearchActions,
		Description: "Search for actions in the application by keyword or description. " +
			"Useful for discovering what the user can do.",
		Schema: schema.Schema{
			{Name: "query", Type: schema.NonEmptyString(), Required: true, Description: "Keyword to look for in action labels"},
			{Name: "limit", Type: schema.Int(), Description: "Maximum number of matches", Default: tb.searchLimit},
		},
		Fn: tb.searchActions,
	})
	tb.registry.Register(registry.Tool{
		Name: IdentifyState,
		Description: "Identify what state the user is currently in based on their description of what they see. " +
			"Helps establish context for navigation.",
		Schema: schema.Schema{
			{Name: "description", Type: schema.String(), Required: true, Description: "What the user sees on screen"},
		},
		Fn: tb.identifyState,
	})
	tb.registry.Register(registry.Tool{
		Name: ListStates,
		Description: "List all available states in the application. " +
			"Useful for understanding the overall structure.",
		Schema: schema.Schema{
			{Name: "with_labels", Type: schema.Bool(), Default: false, Description: "Show each state's labels next to its id"},
		},
		Fn: tb.listStates,
	})
	tb.registry.Register(registry.Tool{
		Name:        GetAvailableActions,
		Description: "List the actions available from a state and where each one leads.",
		Schema: schema.Schema{
			{Name: "state_id", Type: schema.NonEmptyString(), Required: true, Description: "ID of the state"},
		},
		Fn: tb.availableActions,
	})
}

func (tb *Toolbox) findPath(_ context.Context, raw map[string]any) (*Result, error) {
	var args findPathArgs
	if err := tb.decode(FindPath, raw, &args); err != nil {
		return nil, err
	}
	if args.MaxSteps <= 0 {
		args.MaxSteps = tb.maxSteps
	}

	nav := tb.Navigator()
	path, ok := nav.FindPath(args.Current, args.Goal, args.MaxSteps)
	data := PathResult{Start: args.Current, Goal: args.Goal, Steps: path}

	if !ok {
		var b strings.Builder
		fmt.Fprintf(&b, "Could not find a path from '%s' to '%s'.\n\n", args.Current, args.Goal)
		candidates := nav.MatchingStates(args.Goal, suggestionLimit)
		if len(candidates) == 0 {
			b.WriteString("The goal state doesn't seem to exist in the application. " +
				"Try searching for available actions instead.")
			return &Result{Text: b.String(), NotFound: true, Data: data}, nil
		}
		b.WriteString("Did you mean one of these states?\n")
		for i, s := range candidates {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- %s", s.ID)
			data.Suggestions = append(data.Suggestions, s.ID)
		}
		return &Result{Text: b.String(), NotFound: true, Data: data}, nil
	}

	data.Destination = path.Destination(args.Current)
	if len(path) == 0 {
		text := fmt.Sprintf("You are already in a state matching '%s': %s",
			args.Goal, nav.DescribeState(args.Current))
		return &Result{Text: text, Data: data}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To reach '%s' from '%s':\n\n", args.Goal, args.Current)
	for i, step := range path {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, nav.DescribeAction(step.ActionID))
	}
	fmt.Fprintf(&b, "\n\nYou'll end up in: %s", nav.DescribeState(data.Destination))
	return &Result{Text: b.String(), Data: data}, nil
}

func (tb *Toolbox) searchActions(_ context.Context, raw map[string]any) (*Result, error) {
	var args searchArgs
	if err := tb.decode(SearchActions, raw, &args); err != nil {
		return nil, err
	}

	nav := tb.Navigator()
	matches := nav.SearchActions(args.Query, args.Limit)
	if len(matches) == 0 {
		text := fmt.Sprintf("No actions found matching '%s'.\n\n"+
			"Try a different search term like 'save', 'generate', 'edit', etc.", args.Query)
		return &Result{Text: text, Data: matches}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d actions matching '%s':\n\n", len(matches), args.Query)
	for _, m := range matches[:min(displayLimit, len(matches))] {
		fmt.Fprintf(&b, "• %s\n", m.Labels[0])
		if len(m.Labels) > 1 {
			fmt.Fprintf(&b, "  Also known as: %s\n", strings.Join(m.Labels[1:], ", "))
		}
		trigger := "unknown"
		if a, ok := nav.Action(m.ID); ok {
			trigger = a.Trigger()
		}
		fmt.Fprintf(&b, "  How: %s\n\n", trigger)
	}
	return &Result{Text: b.String(), Data: matches}, nil
}

func (tb *Toolbox) identifyState(_ context.Context, raw map[string]any) (*Result, error) {
	var args identifyArgs
	if err := tb.decode(IdentifyState, raw, &args); err != nil {
		return nil, err
	}

	nav := tb.Navigator()
	state, ok := nav.IdentifyState(args.Description)
	if !ok {
		return &Result{
			Text: "Could not identify your current state from that description.\n\n" +
				"Can you describe what you see in more detail? For example:\n" +
				"- Are any modals or dialogs open?\n" +
				"- What buttons are visible?\n" +
				"- What content is displayed on the screen?",
			NotFound: true,
		}, nil
	}

	var b strings.Builder
	b.WriteString("Based on your description, you appear to be in:\n\n")
	fmt.Fprintf(&b, "**%s**\n", state.ID)
	fmt.Fprintf(&b, "Description: %s\n\n", strings.Join(firstN(state.Labels, 3), ", "))

	available := nav.AvailableActions(state.ID)
	if len(available) > 0 {
		b.WriteString("From here, you can:\n")
		for _, a := range available[:min(displayLimit, len(available))] {
			fmt.Fprintf(&b, "• %s\n", actionTitle(a))
		}
	}
	return &Result{Text: b.String(), Data: state}, nil
}

func (tb *Toolbox) listStates(_ context.Context, raw map[string]any) (*Result, error) {
	var args listArgs
	if err := tb.decode(ListStates, raw, &args); err != nil {
		return nil, err
	}
	states := tb.Navigator().States()
	c := refiner.Categorize(states, refiner.ListingDataMarkers)

	var b strings.Builder
	fmt.Fprintf(&b, "Application has %d states:\n\n", len(states))
	writeIDSection(&b, "Modal States", c.Modal, args.WithLabels)
	writeIDSection(&b, "Ready States (actions available)", c.Ready, args.WithLabels)
	writeIDSection(&b, "Data States", c.Data, args.WithLabels)
	writeIDSection(&b, "Other States", c.Other, args.WithLabels)

	ids := make([]string, len(states))
	for i, s := range states {
		ids[i] = s.ID
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n") + "\n", Data: ids}, nil
}

func (tb *Toolbox) availableActions(_ context.Context, raw map[string]any) (*Result, error) {
	var args stateArgs
	if err := tb.decode(GetAvailableActions, raw, &args); err != nil {
		return nil, err
	}

	nav := tb.Navigator()
	if _, ok := nav.State(args.StateID); !ok {
		return stateNotFound(args.StateID), nil
	}

	available := nav.AvailableActions(args.StateID)
	if len(available) == 0 {
		text := fmt.Sprintf("No actions are available from '%s'.", args.StateID)
		return &Result{Text: text, Data: available}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From '%s' (%s), you can:\n\n", args.StateID, nav.DescribeState(args.StateID))
	for _, a := range available {
		fmt.Fprintf(&b, "• %s → %s\n", actionTitle(a), a.NextStateID)
	}
	return &Result{Text: b.String(), Data: available}, nil
}

func writeIDSection(b *strings.Builder, title string, states []*domain.State, withLabels bool) {
	if len(states) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", title)
	for _, s := range states[:min(displayLimit, len(states))] {
		if withLabels && len(s.Labels) > 0 {
			fmt.Fprintf(b, "- %s: %s\n", s.ID, strings.Join(s.Labels, ", "))
			continue
		}
		fmt.Fprintf(b, "- %s\n", s.ID)
	}
	if len(states) > displayLimit {
		fmt.Fprintf(b, "  ... and %d more\n", len(states)-displayLimit)
	}
	b.WriteString("\n")
}

func actionTitle(a navigator.AvailableAction) string {
	if len(a.Labels) == 0 {
		return a.ActionID
	}
	return a.Labels[0]
}

func stateNotFound(id string) *Result {
	return &Result{Text: fmt.Sprintf("❌ State '%s' not found in graph.", id), NotFound: true}
}

func firstN(in []string, n int) []string {
	if len(in) <= n {
		return in
	}
	return in[:n]
}
