package main

import (
	"strings"

	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/spf13/cobra"
)

func newPathCmd(a *app) *cobra.Command {
	var maxSteps int
	cmd := &cobra.Command{
		Use:   "path <current-state> <goal>",
		Short: "Find the shortest sequence of actions towards a goal",
		Long: `Searches breadth-first from the current state for the nearest state whose id
or labels contain the goal (case-insensitive) and prints the actions to take.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := map[string]any{
				"current_state": args[0],
				"goal":          strings.Join(args[1:], " "),
			}
			if cmd.Flags().Changed("max-steps") {
				callArgs["max_steps"] = maxSteps
			}
			return a.call(cmd, tools.FindPath, callArgs)
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Maximum number of actions (default from navigation.max_steps)")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search actions by label",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := map[string]any{"query": strings.Join(args, " ")}
			if cmd.Flags().Changed("limit") {
				callArgs["limit"] = limit
			}
			return a.call(cmd, tools.SearchActions, callArgs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of matches (default from navigation.search_limit)")
	return cmd
}

func newIdentifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <description>",
		Short: "Guess the current state from what is on screen",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, tools.IdentifyState, map[string]any{"description": strings.Join(args, " ")})
		},
	}
}

func newActionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "actions <state>",
		Short: "List the actions available from a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, tools.GetAvailableActions, map[string]any{"state_id": args[0]})
		},
	}
}

func newStatesCmd(a *app) *cobra.Command {
	var withLabels bool
	cmd := &cobra.Command{
		Use:   "states",
		Short: "List states grouped by kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, tools.ListStates, map[string]any{"with_labels": withLabels})
		},
	}
	cmd.Flags().BoolVar(&withLabels, "labels", false, "Show labels next to state ids")
	return cmd
}
